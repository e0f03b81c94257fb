package boot

import (
	"context"
	"log"
	"os"
	"time"
	"tms/src/common"
	"tms/src/config"
	"tms/src/db"
	"tms/src/lib"
	awslib "tms/src/lib/aws"
	"tms/src/models"
	"tms/src/types"
	"tms/src/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Accommodation{},
		&models.GuideProfile{},
		&models.Booking{},
		&models.Payment{},
		&models.Notification{},
		&models.Rating{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	// One live payment per booking: the row lock guards the hot path, the
	// index guards everything else.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_booking_active
		ON payments (booking_id)
		WHERE status IN ('authorized', 'captured') AND parent_id IS NULL`).Error
	if err != nil {
		log.Printf("error creating partial index: %s\n", err.Error())
	}

	seedPlatformAccount(db)

	return db
}

// seedPlatformAccount makes sure the fee-collection account exists so that
// fee payments always have a receiver.
func seedPlatformAccount(db *gorm.DB) {
	email := os.Getenv("PLATFORM_EMAIL")
	if email == "" {
		email = "platform@tms.local"
	}
	var count int64
	if err := db.
		Model(&models.User{}).
		Where("id = ?", config.PlatformAccountID()).
		Count(&count).
		Error; err != nil {
		log.Printf("Error checking platform account: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	hash, err := utils.HashPassword(os.Getenv("PLATFORM_PASSWORD"))
	if err != nil {
		log.Printf("Error seeding platform account: %s\n", err.Error())
		return
	}
	user := models.User{
		ID:       config.PlatformAccountID(),
		Name:     "Platform",
		Email:    email,
		Password: hash,
		Role:     types.ROLE_ADMIN,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Error seeding platform account: %s\n", err.Error())
	}
}

// NewOrchestrator wires the booking orchestrator with the configured
// payment authority and platform fee.
func NewOrchestrator() *common.Orchestrator {
	authority := lib.NewStripeAuthority(lib.GetStripeClient(), 0)
	return common.NewOrchestrator(db.GetDb(), authority, config.FeePercent(), config.PlatformAccountID())
}

func InitBroker() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "local" {
		go lib.KafkaCreateTopics(
			common.NotificationEventsTopic,
			utils.WithSuffix(os.Getenv("EMAIL_QUEUE")),
		)
		lib.KafkaSubscribe("tms-notifications", common.NotificationEventsTopic, common.NotificationEventsConsumer)
		lib.KafkaSubscribe("tms-mailer", utils.WithSuffix(os.Getenv("EMAIL_QUEUE")), common.KafkaEmailsToSendConsumer)
	} else {
		common.SQSNotificationEventsConsumer()
		common.EmailsToSendConsumer()
		if endpoint := os.Getenv("PUSH_WEBHOOK_URL"); endpoint != "" {
			if sub := awslib.NewSNSSubscriber("NotificationUpdates"); sub != nil {
				if _, err := sub.Subscribe("https", endpoint); err != nil {
					log.Printf("Error subscribing push endpoint: %s\n", err.Error())
				}
			}
		}
	}

	// drain whatever the outbox accumulated while the service was down,
	// then keep draining on an interval
	_, err := lib.CreateOneTimeCronJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(func() {
			common.DeliverPendingNotifications(db.GetDb())
		}),
	)
	if err != nil {
		log.Printf("Error scheduling initial outbox delivery: %s\n", err.Error())
	}
	_, err = lib.CreateCronJob(func() {
		common.DeliverPendingNotifications(db.GetDb())
	}, 15*time.Second)
	if err != nil {
		log.Printf("Error scheduling outbox delivery: %s\n", err.Error())
	}
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	orc := NewOrchestrator()
	_, err = lib.CreateCronJob(func() {
		orc.ExpireStaleBookings(context.Background())
	}, 10*time.Minute)
	if err != nil {
		log.Printf("Error scheduling booking expiry: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
