package models

import (
	"tms/src/types"

	"github.com/google/uuid"
)

type Payment struct {
	ID         uuid.UUID           `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookingID  *uint               `json:"booking_id,omitempty"`
	SenderID   uint                `json:"sender_id,omitempty"`
	ReceiverID uint                `json:"receiver_id,omitempty"`
	Amount     int64               `json:"amount,omitempty"`
	Currency   string              `json:"currency,omitempty"`
	Status     types.PaymentStatus `gorm:"default:pending" json:"status,omitempty"`

	// HoldRef is the authority's reference for the fund hold, persisted at
	// intent creation so capture and cancel never have to scan authority
	// records by metadata.
	HoldRef string `json:"hold_ref,omitempty"`

	// ParentID links a platform fee payment to the captured payment that
	// spawned it.
	ParentID *uuid.UUID   `json:"parent_id,omitempty"`
	Metadata *types.JSONB `gorm:"type:jsonb" json:"metadata,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
