package common

import "tms/src/types"

// Action names a state-changing operation on a booking/payment pair.
type Action string

const (
	ActionCreateIntent Action = "create_intent"
	ActionConfirm      Action = "confirm"
	ActionCancel       Action = "cancel"
)

// PaymentNone stands in for "no payment record exists" in the joint
// transition table.
const PaymentNone types.PaymentStatus = "none"

type jointState struct {
	Booking types.BookingStatus
	Payment types.PaymentStatus
}

// legalTransitions is the joint Booking x Payment table. Any (state, action)
// pair missing here is rejected with ErrInvalidState before side effects run.
var legalTransitions = map[jointState][]Action{
	{types.BOOKING_PENDING, PaymentNone}:              {ActionCreateIntent, ActionCancel},
	{types.BOOKING_PENDING, types.PAYMENT_PENDING}:    {ActionCreateIntent, ActionCancel},
	{types.BOOKING_PENDING, types.PAYMENT_AUTHORIZED}: {ActionConfirm, ActionCancel},
}

// CanTransition reports whether action is legal for the given joint state.
// Terminal booking states (confirmed, cancelled) admit no action at all.
func CanTransition(booking types.BookingStatus, payment types.PaymentStatus, action Action) bool {
	allowed, ok := legalTransitions[jointState{booking, payment}]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == action {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidState when the action is not legal.
func ValidateTransition(booking types.BookingStatus, payment types.PaymentStatus, action Action) error {
	if !CanTransition(booking, payment, action) {
		return ErrInvalidState
	}
	return nil
}
