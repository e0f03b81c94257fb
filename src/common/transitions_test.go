package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tms/src/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		booking types.BookingStatus
		payment types.PaymentStatus
		action  Action
		want    bool
	}{
		{"intent on fresh booking", types.BOOKING_PENDING, PaymentNone, ActionCreateIntent, true},
		{"cancel fresh booking", types.BOOKING_PENDING, PaymentNone, ActionCancel, true},
		{"confirm without authorization", types.BOOKING_PENDING, PaymentNone, ActionConfirm, false},
		{"retry intent after pending payment", types.BOOKING_PENDING, types.PAYMENT_PENDING, ActionCreateIntent, true},
		{"confirm with pending payment", types.BOOKING_PENDING, types.PAYMENT_PENDING, ActionConfirm, false},
		{"confirm authorized", types.BOOKING_PENDING, types.PAYMENT_AUTHORIZED, ActionConfirm, true},
		{"cancel authorized", types.BOOKING_PENDING, types.PAYMENT_AUTHORIZED, ActionCancel, true},
		{"second intent on authorized", types.BOOKING_PENDING, types.PAYMENT_AUTHORIZED, ActionCreateIntent, false},
		{"confirmed is terminal", types.BOOKING_CONFIRMED, types.PAYMENT_CAPTURED, ActionCancel, false},
		{"cancelled is terminal", types.BOOKING_CANCELED, types.PAYMENT_CANCELED, ActionCreateIntent, false},
		{"cancelled rejects confirm", types.BOOKING_CANCELED, PaymentNone, ActionConfirm, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.booking, tc.payment, tc.action))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(types.BOOKING_PENDING, types.PAYMENT_AUTHORIZED, ActionConfirm))
	assert.ErrorIs(t, ValidateTransition(types.BOOKING_CONFIRMED, types.PAYMENT_CAPTURED, ActionConfirm), ErrInvalidState)
}
