package models

import "tms/src/types"

// GuideProfile is the bookable face of a user with the guide role.
type GuideProfile struct {
	ID       uint                `gorm:"primarykey" json:"id"`
	UserID   uint                `gorm:"uniqueIndex" json:"user_id,omitempty"`
	Headline string              `json:"headline,omitempty"`
	City     string              `gorm:"index" json:"city,omitempty"`
	About    *string             `json:"about,omitempty"`
	DayRate  int64               `json:"day_rate,omitempty"`
	Currency string              `json:"currency,omitempty"`
	Status   types.ListingStatus `gorm:"default:active" json:"status,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
