package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tms/src/lib"
	"tms/src/types"
)

// recordingAuthority stands in for Stripe so the money paths can run against
// a mocked database without any external calls.
type recordingAuthority struct {
	holdRef    string
	holdErr    error
	captureErr error
	cancelErr  error
	holds      int
	captured   []string
	released   []string
}

func (a *recordingAuthority) CreateHold(ctx context.Context, amount int64, currency string, metadata map[string]string) (string, error) {
	a.holds++
	if a.holdErr != nil {
		return "", a.holdErr
	}
	return a.holdRef, nil
}

func (a *recordingAuthority) Capture(ctx context.Context, holdRef string) error {
	a.captured = append(a.captured, holdRef)
	return a.captureErr
}

func (a *recordingAuthority) Cancel(ctx context.Context, holdRef string) error {
	a.released = append(a.released, holdRef)
	return a.cancelErr
}

func newMockOrchestrator(t *testing.T, authority lib.PaymentAuthority) (*Orchestrator, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Error creating mock database: %s", err.Error())
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Error initializing mock connection: %s", err.Error())
	}
	return NewOrchestrator(gdb, authority, 10, 99), mock
}

func pendingBookingRows(userID, providerID uint, price int64) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "user_id", "provider_id", "subject_type", "subject_id", "price", "currency", "status"}).
		AddRow(1, userID, providerID, "accommodation", 5, price, "usd", "pending")
}

func paymentRows(id uuid.UUID, amount int64, status, holdRef string) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "booking_id", "sender_id", "receiver_id", "amount", "currency", "status", "hold_ref"}).
		AddRow(id.String(), 1, 10, 2, amount, "usd", status, holdRef)
}

func noPaymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func insertedIDRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString())
}

func TestRequestBookingValidation(t *testing.T) {
	o := NewOrchestrator(nil, nil, 10, 1)
	start := time.Now().Add(24 * time.Hour)

	_, err := o.RequestBooking(context.Background(), 1, types.SubjectType("vehicle"), 1, start, start.Add(48*time.Hour), 1000)
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = o.RequestBooking(context.Background(), 1, types.SUBJECT_ACCOMMODATION, 1, start, start, 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = o.RequestBooking(context.Background(), 1, types.SUBJECT_GUIDE, 1, start.Add(time.Hour), start, 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestAuthorityError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &AuthorityError{Op: "capture", Err: cause}

	assert.Equal(t, "payment authority capture failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))

	assert.False(t, IsRetryable(ErrInvalidState))
	assert.False(t, IsRetryable(ErrHoldNotFound))
	assert.False(t, IsRetryable(nil))
}

func TestConfirmBookingCapturesAndSplitsFee(t *testing.T) {
	authority := &recordingAuthority{}
	o, mock := newMockOrchestrator(t, authority)
	paymentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1005))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(paymentID, 1005, "authorized", "pi_42"))
	// 1005 at 10% rounds the fee half up to 101, leaving 904 for the provider
	mock.ExpectExec(`UPDATE "payments"`).
		WithArgs(int64(904), "captured", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payments"`).WillReturnRows(insertedIDRows())
	mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`INSERT INTO "notifications"`).WillReturnRows(insertedIDRows())
	}
	mock.ExpectCommit()

	booking, err := o.ConfirmBooking(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
	assert.Equal(t, []string{"pi_42"}, authority.captured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmBookingCaptureFailureLeavesRecordsAlone(t *testing.T) {
	authority := &recordingAuthority{captureErr: errors.New("gateway timeout")}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(uuid.New(), 1000, "authorized", "pi_42"))
	mock.ExpectRollback()

	booking, err := o.ConfirmBooking(context.Background(), 1, 2)
	assert.Nil(t, booking)
	var aerr *AuthorityError
	assert.ErrorAs(t, err, &aerr)
	assert.Equal(t, "capture", aerr.Op)
	assert.True(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmBookingVanishedHold(t *testing.T) {
	authority := &recordingAuthority{captureErr: lib.ErrHoldMissing}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(uuid.New(), 1000, "authorized", "pi_42"))
	mock.ExpectRollback()

	_, err := o.ConfirmBooking(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.False(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingReleasesAuthorizedHold(t *testing.T) {
	authority := &recordingAuthority{}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(uuid.New(), 1000, "authorized", "pi_42"))
	mock.ExpectExec(`UPDATE "payments"`).
		WithArgs("cancelled", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`INSERT INTO "notifications"`).WillReturnRows(insertedIDRows())
	}
	mock.ExpectCommit()

	booking, err := o.CancelBooking(context.Background(), 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, types.BOOKING_CANCELED, booking.Status)
	assert.Equal(t, []string{"pi_42"}, authority.released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentIntentStagesBeforeHold(t *testing.T) {
	authority := &recordingAuthority{holdRef: "pi_77"}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(noPaymentRows())
	mock.ExpectQuery(`INSERT INTO "payments"`).WillReturnRows(insertedIDRows())
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments"`).
		WithArgs("pi_77", "authorized", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, err := o.CreatePaymentIntent(context.Background(), 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, types.PAYMENT_AUTHORIZED, payment.Status)
	assert.Equal(t, "pi_77", payment.HoldRef)
	assert.Equal(t, 1, authority.holds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentIntentReusesStagedRow(t *testing.T) {
	authority := &recordingAuthority{holdRef: "pi_78"}
	o, mock := newMockOrchestrator(t, authority)
	stagedID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(stagedID, 1000, "pending", ""))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments"`).
		WithArgs("pi_78", "authorized", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, err := o.CreatePaymentIntent(context.Background(), 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, stagedID, payment.ID)
	assert.Equal(t, types.PAYMENT_AUTHORIZED, payment.Status)
	assert.Equal(t, 1, authority.holds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentIntentHoldFailureKeepsStagedRow(t *testing.T) {
	authority := &recordingAuthority{holdErr: errors.New("stripe unavailable")}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(noPaymentRows())
	mock.ExpectQuery(`INSERT INTO "payments"`).WillReturnRows(insertedIDRows())
	mock.ExpectCommit()

	payment, err := o.CreatePaymentIntent(context.Background(), 1, 10)
	assert.Nil(t, payment)
	var aerr *AuthorityError
	assert.ErrorAs(t, err, &aerr)
	assert.Equal(t, "create_hold", aerr.Op)
	assert.True(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentIntentRejectsDuplicate(t *testing.T) {
	authority := &recordingAuthority{holdRef: "pi_88"}
	o, mock := newMockOrchestrator(t, authority)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).WillReturnRows(pendingBookingRows(10, 2, 1000))
	mock.ExpectQuery(`SELECT (.+) FROM "payments"`).WillReturnRows(paymentRows(uuid.New(), 1000, "authorized", "pi_42"))
	mock.ExpectRollback()

	payment, err := o.CreatePaymentIntent(context.Background(), 1, 10)
	assert.Nil(t, payment)
	assert.ErrorIs(t, err, ErrDuplicateIntent)
	assert.Equal(t, 0, authority.holds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
