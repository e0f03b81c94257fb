package models

import (
	"time"
	"tms/src/types"
)

type Booking struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	UserID      uint                `json:"user_id,omitempty"`
	SubjectType types.SubjectType   `gorm:"index:idx_booking_subject" json:"subject_type,omitempty"`
	SubjectID   uint                `gorm:"index:idx_booking_subject" json:"subject_id,omitempty"`
	ProviderID  uint                `json:"provider_id,omitempty"`
	StartsAt    *time.Time          `json:"starts_at,omitempty"`
	EndsAt      *time.Time          `json:"ends_at,omitempty"`
	Price       int64               `json:"price,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	Status      types.BookingStatus `gorm:"default:pending" json:"status,omitempty"`
	Metadata    *types.JSONB        `gorm:"type:jsonb" json:"metadata,omitempty"`

	User     *User      `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Provider *User      `gorm:"foreignKey:provider_id" json:"provider,omitempty"`
	Payments []*Payment `gorm:"foreignKey:booking_id" json:"payments,omitempty"`

	types.Timestamps
}
