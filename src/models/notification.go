package models

import (
	"time"
	"tms/src/types"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID              `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	RecipientID uint                   `gorm:"index" json:"recipient_id,omitempty"`
	BookingID   *uint                  `json:"booking_id,omitempty"`
	Type        types.NotificationType `json:"type,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Read        bool                   `gorm:"default:false" json:"read"`

	// DeliveredAt is set by the outbox worker once the record has been
	// handed to the delivery queue. Unset rows are pending delivery.
	DeliveredAt *time.Time `gorm:"index" json:"-"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
