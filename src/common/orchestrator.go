package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"tms/src/lib"
	"tms/src/models"
	"tms/src/models/scopes"
	"tms/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Orchestrator is the sole writer of Booking and Payment status fields. Every
// transition runs in one transaction holding a row lock on the booking, so
// concurrent confirm/cancel/intent calls for the same booking serialize.
type Orchestrator struct {
	db         *gorm.DB
	authority  lib.PaymentAuthority
	feePercent int64
	platformID uint
}

func NewOrchestrator(db *gorm.DB, authority lib.PaymentAuthority, feePercent int64, platformID uint) *Orchestrator {
	if feePercent < 0 {
		feePercent = 0
	}
	if feePercent > 100 {
		feePercent = 100
	}
	return &Orchestrator{
		db:         db,
		authority:  authority,
		feePercent: feePercent,
		platformID: platformID,
	}
}

// RequestBooking creates a pending booking against an accommodation or a
// guide profile. Price is the caller-computed total in minor currency units.
func (o *Orchestrator) RequestBooking(ctx context.Context, requesterID uint, subjectType types.SubjectType, subjectID uint, startsAt, endsAt time.Time, price int64) (*models.Booking, error) {
	if !subjectType.Valid() {
		return nil, ErrInvalidSubject
	}
	if !startsAt.Before(endsAt) {
		return nil, ErrInvalidRange
	}
	var booking models.Booking
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		providerID, currency, err := resolveCounterparty(tx, subjectType, subjectID)
		if err != nil {
			return err
		}
		if providerID == requesterID {
			return ErrForbidden
		}
		booking = models.Booking{
			UserID:      requesterID,
			SubjectType: subjectType,
			SubjectID:   subjectID,
			ProviderID:  providerID,
			StartsAt:    &startsAt,
			EndsAt:      &endsAt,
			Price:       price,
			Currency:    currency,
			Status:      types.BOOKING_PENDING,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("New booking request #%d for your %s", booking.ID, subjectType)
		return Emit(tx, providerID, types.NOTIFY_BOOKING_CREATED, &booking.ID, msg)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreatePaymentIntent places a fund hold at the authority and records the
// payment as authorized, with the hold reference persisted for later capture
// or release. The payment row is staged pending under the booking row lock
// and committed before the authority call: a crash between the two leaves a
// pending row that the webhook flips to authorized once the hold confirms. A
// retried intent reuses the staged row instead of inserting a second one. At
// most one active payment per booking: guarded here under the row lock and
// by a partial unique index on payments.
func (o *Orchestrator) CreatePaymentIntent(ctx context.Context, bookingID uint, actorID uint) (*models.Payment, error) {
	var payment models.Payment
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != actorID {
			return ErrForbidden
		}
		current, active, err := activePaymentStatus(tx, bookingID)
		if err != nil {
			return err
		}
		if current == types.PAYMENT_AUTHORIZED || current == types.PAYMENT_CAPTURED {
			return ErrDuplicateIntent
		}
		if err := ValidateTransition(booking.Status, current, ActionCreateIntent); err != nil {
			return err
		}
		if active != nil {
			payment = *active
			return nil
		}
		payment = models.Payment{
			BookingID:  &booking.ID,
			SenderID:   booking.UserID,
			ReceiverID: booking.ProviderID,
			Amount:     booking.Price,
			Currency:   booking.Currency,
			Status:     types.PAYMENT_PENDING,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	holdRef, err := o.authority.CreateHold(ctx, payment.Amount, payment.Currency, map[string]string{
		"bookingId": fmt.Sprint(bookingID),
		"requestId": uuid.NewString(),
	})
	if err != nil {
		// the staged row stays pending; the next attempt reuses it
		return nil, &AuthorityError{Op: "create_hold", Err: err}
	}
	err = o.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"hold_ref": holdRef,
			"status":   types.PAYMENT_AUTHORIZED,
		}).
		Error
	if err != nil {
		return nil, err
	}
	payment.HoldRef = holdRef
	payment.Status = types.PAYMENT_AUTHORIZED
	return &payment, nil
}

// ConfirmBooking is the provider-side accept: capture the held funds, split
// the platform fee into a synthetic captured payment, mark the booking
// confirmed and emit the three notifications. A failed capture leaves every
// record exactly as it was.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, bookingID uint, actorID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != types.BOOKING_PENDING {
			return ErrInvalidState
		}
		if booking.ProviderID != actorID {
			return ErrForbidden
		}
		var payment models.Payment
		if err := tx.
			Where(&models.Payment{BookingID: &booking.ID, Status: types.PAYMENT_AUTHORIZED}).
			First(&payment).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if err := ValidateTransition(booking.Status, payment.Status, ActionConfirm); err != nil {
			return err
		}
		if err := o.authority.Capture(ctx, payment.HoldRef); err != nil {
			if errors.Is(err, lib.ErrHoldMissing) {
				return ErrHoldNotFound
			}
			return &AuthorityError{Op: "capture", Err: err}
		}
		fee, providerAmount := CalculateFees(payment.Amount, o.feePercent)
		if err := tx.
			Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]any{
				"amount": providerAmount,
				"status": types.PAYMENT_CAPTURED,
			}).
			Error; err != nil {
			return err
		}
		feePayment := models.Payment{
			BookingID:  &booking.ID,
			SenderID:   booking.ProviderID,
			ReceiverID: o.platformID,
			Amount:     fee,
			Currency:   payment.Currency,
			Status:     types.PAYMENT_CAPTURED,
			ParentID:   &payment.ID,
		}
		if err := tx.Create(&feePayment).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", types.BOOKING_CONFIRMED).
			Error; err != nil {
			return err
		}
		booking.Status = types.BOOKING_CONFIRMED
		if err := Emit(tx, booking.UserID, types.NOTIFY_PAYMENT_SENT, &booking.ID,
			fmt.Sprintf("Payment of %d %s sent for booking #%d", payment.Amount, payment.Currency, booking.ID)); err != nil {
			return err
		}
		if err := Emit(tx, booking.ProviderID, types.NOTIFY_PAYMENT_RECEIVED, &booking.ID,
			fmt.Sprintf("Payment of %d %s received for booking #%d", providerAmount, payment.Currency, booking.ID)); err != nil {
			return err
		}
		return Emit(tx, booking.UserID, types.NOTIFY_BOOKING_CONFIRMED, &booking.ID,
			fmt.Sprintf("Booking #%d has been confirmed", booking.ID))
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking handles both the requester's self-cancel and the provider's
// decline. An authorized hold is released at the authority before any local
// write; a booking without a payment skips the authority entirely.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID uint, actorID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != types.BOOKING_PENDING {
			return ErrInvalidState
		}
		if actorID != booking.UserID && actorID != booking.ProviderID {
			return ErrForbidden
		}
		current, active, err := activePaymentStatus(tx, bookingID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(booking.Status, current, ActionCancel); err != nil {
			return err
		}
		if active != nil && active.Status == types.PAYMENT_AUTHORIZED {
			if err := o.authority.Cancel(ctx, active.HoldRef); err != nil {
				if errors.Is(err, lib.ErrHoldMissing) {
					return ErrHoldNotFound
				}
				return &AuthorityError{Op: "cancel", Err: err}
			}
		}
		if active != nil {
			if err := tx.
				Model(&models.Payment{}).
				Where("id = ?", active.ID).
				Update("status", types.PAYMENT_CANCELED).
				Error; err != nil {
				return err
			}
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", types.BOOKING_CANCELED).
			Error; err != nil {
			return err
		}
		booking.Status = types.BOOKING_CANCELED
		byRequester := actorID == booking.UserID
		requesterMsg := fmt.Sprintf("Booking #%d has been cancelled", booking.ID)
		providerMsg := fmt.Sprintf("Booking #%d was cancelled by the requester", booking.ID)
		if !byRequester {
			requesterMsg = fmt.Sprintf("Booking #%d was declined by the provider", booking.ID)
			providerMsg = fmt.Sprintf("You declined booking #%d", booking.ID)
		}
		if err := Emit(tx, booking.UserID, types.NOTIFY_BOOKING_CANCELED, &booking.ID, requesterMsg); err != nil {
			return err
		}
		return Emit(tx, booking.ProviderID, types.NOTIFY_BOOKING_CANCELED, &booking.ID, providerMsg)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func lockBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&booking).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// activePaymentStatus resolves the joint-state payment column for a booking:
// the most recent non-cancelled payment, or PaymentNone.
func activePaymentStatus(tx *gorm.DB, bookingID uint) (types.PaymentStatus, *models.Payment, error) {
	var payment models.Payment
	err := tx.
		Where("booking_id = ?", bookingID).
		Where("status <> ?", types.PAYMENT_CANCELED).
		Order("created_at DESC").
		First(&payment).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentNone, nil, nil
		}
		return PaymentNone, nil, err
	}
	return payment.Status, &payment, nil
}

func resolveCounterparty(tx *gorm.DB, subjectType types.SubjectType, subjectID uint) (uint, string, error) {
	switch subjectType {
	case types.SUBJECT_ACCOMMODATION:
		var acc models.Accommodation
		if err := tx.Where("id = ? AND status = ?", subjectID, types.LISTING_ACTIVE).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, "", ErrInvalidSubject
			}
			return 0, "", err
		}
		return acc.ProviderID, acc.Currency, nil
	case types.SUBJECT_GUIDE:
		var gp models.GuideProfile
		if err := tx.Where("id = ? AND status = ?", subjectID, types.LISTING_ACTIVE).First(&gp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, "", ErrInvalidSubject
			}
			return 0, "", err
		}
		return gp.UserID, gp.Currency, nil
	}
	return 0, "", ErrInvalidSubject
}

// ExpireStaleBookings cancels pending bookings whose start time has passed.
// Runs from the scheduler; each booking goes through the normal cancel path
// so holds get released and both parties are notified.
func (o *Orchestrator) ExpireStaleBookings(ctx context.Context) {
	var ids []uint
	err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithPendingStatus).
		Where("starts_at < ?", time.Now()).
		Limit(100).
		Pluck("id", &ids).
		Error
	if err != nil {
		log.Printf("Error listing stale bookings: %s\n", err.Error())
		return
	}
	if len(ids) == 0 {
		return
	}
	var bookings []models.Booking
	if err := o.db.Scopes(scopes.WithIDs(ids...)).Find(&bookings).Error; err != nil {
		log.Printf("Error loading stale bookings: %s\n", err.Error())
		return
	}
	for _, booking := range bookings {
		if _, err := o.CancelBooking(ctx, booking.ID, booking.UserID); err != nil {
			log.Printf("Could not expire booking [%d]: %s\n", booking.ID, err.Error())
		}
	}
}
