package common

import (
	"encoding/json"
	"log"
	"os"
	"time"
	"tms/src/lib"
	awslib "tms/src/lib/aws"
	"tms/src/models"
	"tms/src/types"

	"gorm.io/gorm"
)

const NotificationEventsTopic = "NotificationEvents"

// Emit writes an outbox row inside the caller's transaction. The row commits
// together with the state change that caused it; delivery to the broker
// happens later from DeliverPendingNotifications.
func Emit(tx *gorm.DB, recipientID uint, ntype types.NotificationType, bookingID *uint, message string) error {
	notification := models.Notification{
		RecipientID: recipientID,
		BookingID:   bookingID,
		Type:        ntype,
		Message:     message,
	}
	return tx.Create(&notification).Error
}

// DeliverPendingNotifications drains undelivered outbox rows to the broker.
// A row is stamped only after a successful publish, so a crash between
// publish and stamp means redelivery, never loss.
func DeliverPendingNotifications(db *gorm.DB) {
	var pending []models.Notification
	err := db.
		Where("delivered_at IS NULL").
		Order("created_at ASC").
		Limit(100).
		Find(&pending).
		Error
	if err != nil {
		log.Printf("Error listing pending notifications: %s\n", err.Error())
		return
	}
	for _, n := range pending {
		if err := publishNotification(&n); err != nil {
			log.Printf("Could not publish notification [%s]: %s\n", n.ID.String(), err.Error())
			continue
		}
		now := time.Now()
		if err := db.
			Model(&models.Notification{}).
			Where("id = ?", n.ID).
			Update("delivered_at", &now).
			Error; err != nil {
			log.Printf("Could not stamp notification [%s]: %s\n", n.ID.String(), err.Error())
		}
	}
}

func publishNotification(n *models.Notification) error {
	payload := map[string]any{
		"id":        n.ID.String(),
		"recipient": n.RecipientID,
		"type":      n.Type,
		"message":   n.Message,
	}
	if n.BookingID != nil {
		payload["bookingId"] = *n.BookingID
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "local" {
		return lib.KafkaProduceMessage("notificationsProducer", NotificationEventsTopic, payload)
	}
	bPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return lib.SQSProduceMessage(NotificationEventsTopic, string(bPayload))
}

// NotificationEventsConsumer handles one broker message on the
// NotificationEvents topic or queue. Delivery to push channels is
// fire-and-forget; the outbox row stays the source of truth.
func NotificationEventsConsumer(spayload string) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(spayload), &payload); err != nil {
		log.Printf("[NotificationEventsConsumer] Error deserializing json: %s\n", err.Error())
		return
	}
	log.Printf("[NotificationEventsConsumer] received: %v\n", payload["id"])
	go awslib.SNSPublishNotification(payload)
}

// SQSNotificationEventsConsumer wires the same handler for environments
// where SQS replaces Kafka.
func SQSNotificationEventsConsumer() {
	c := awslib.NewSQSConsumer(NotificationEventsTopic, func(body string) {
		NotificationEventsConsumer(body)
	})
	c.Listen()
}

// MarkNotificationRead flags a single notification as read. Marking an
// already-read notification is a no-op success.
func MarkNotificationRead(db *gorm.DB, id string, recipientID uint) error {
	return db.
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true).
		Error
}

// MarkAllNotificationsRead flags every unread notification for a recipient.
func MarkAllNotificationsRead(db *gorm.DB, recipientID uint) error {
	return db.
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).
		Error
}
