package models

import (
	"time"
	"tms/src/types"
)

type User struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Name       string         `json:"name,omitempty"`
	Email      string         `gorm:"uniqueIndex" json:"email,omitempty"`
	Password   string         `json:"-"`
	Role       types.UserRole `gorm:"default:tourist" json:"role,omitempty"`
	About      *string        `json:"about,omitempty"`
	Phone      *string        `json:"phone,omitempty"`
	Suspended  bool           `json:"suspended,omitempty"`
	LastActive *time.Time     `json:"last_active,omitempty"`

	StripeCustomerId *string `json:"-"`

	Bookings       []*Booking       `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	Accommodations []*Accommodation `gorm:"foreignKey:provider_id" json:"accommodations,omitempty"`
	Notifications  []*Notification  `gorm:"foreignKey:recipient_id" json:"notifications,omitempty"`

	types.Timestamps
}
