package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"tms/src/common"
	"tms/src/db"
	"tms/src/models"
	"tms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stripeWebhookRoute reconciles authority-side events with local records.
// The orchestrator is still the only writer for the happy path; the webhook
// confirms holds for payments left staged as pending and handles holds that
// die on Stripe's side (card disputes, hold expiry) while the local row
// still says authorized.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.amount_capturable_updated":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("Hold [%s] is active with %d capturable\n", pi.ID, pi.AmountCapturable)
			go reconcileActiveHold(pi.ID, pi.Metadata["bookingId"])
		case "payment_intent.canceled":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			go reconcileCanceledHold(pi.ID)
		default:
			log.Printf("Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

// reconcileActiveHold flips a payment still staged as pending to authorized
// once the authority confirms funds are capturable. Intent creation stages
// the row pending before placing the hold; a crash before the authorized
// update leaves it pending with no hold ref, so the match goes through the
// booking id carried in the intent metadata.
func reconcileActiveHold(holdRef string, bookingID string) {
	id, err := strconv.ParseUint(bookingID, 10, 64)
	if err != nil {
		log.Printf("Hold [%s] carries no booking reference\n", holdRef)
		return
	}
	gdb := db.GetDb()
	res := gdb.
		Model(&models.Payment{}).
		Where("booking_id = ? AND status = ?", uint(id), types.PAYMENT_PENDING).
		Updates(map[string]any{
			"hold_ref": holdRef,
			"status":   types.PAYMENT_AUTHORIZED,
		})
	if res.Error != nil {
		log.Printf("Error reconciling hold [%s]: %s\n", holdRef, res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Hold [%s] reconciled to authorized\n", holdRef)
	}
}

// reconcileCanceledHold marks a payment cancelled when its hold was released
// on the authority side without going through the orchestrator.
func reconcileCanceledHold(holdRef string) {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.
			Where(&models.Payment{HoldRef: holdRef, Status: types.PAYMENT_AUTHORIZED}).
			First(&payment).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// orchestrator already settled this one
				return nil
			}
			return err
		}
		var booking models.Booking
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", payment.BookingID).
			First(&booking).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Update("status", types.PAYMENT_CANCELED).
			Error; err != nil {
			return err
		}
		if booking.Status != types.BOOKING_PENDING {
			return nil
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", types.BOOKING_CANCELED).
			Error; err != nil {
			return err
		}
		if err := common.Emit(tx, booking.UserID, types.NOTIFY_BOOKING_CANCELED, &booking.ID,
			"Booking was cancelled because the payment hold expired"); err != nil {
			return err
		}
		return common.Emit(tx, booking.ProviderID, types.NOTIFY_BOOKING_CANCELED, &booking.ID,
			"Booking was cancelled because the payment hold expired")
	})
	if err != nil {
		log.Printf("Error reconciling hold [%s]: %s\n", holdRef, err.Error())
	}
}

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/payments", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			var payments []models.Payment
			q := gdb.
				Model(&models.Payment{}).
				Order("created_at desc").
				Limit(100)
			if ctx.Query("side") == "received" {
				q = q.Where("receiver_id = ?", userId)
			} else {
				q = q.Where("sender_id = ?", userId)
			}
			if err := q.Find(&payments).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		})
	return g
}
