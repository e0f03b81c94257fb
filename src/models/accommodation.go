package models

import "tms/src/types"

type Accommodation struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	ProviderID uint                `json:"provider_id,omitempty"`
	Name       string              `json:"name,omitempty"`
	Slug       string              `gorm:"uniqueIndex" json:"slug,omitempty"`
	About      *string             `json:"about,omitempty"`
	Location   string              `gorm:"index" json:"location,omitempty"`
	Rate       int64               `json:"rate,omitempty"`
	Currency   string              `json:"currency,omitempty"`
	Status     types.ListingStatus `gorm:"default:active" json:"status,omitempty"`

	Provider *User `gorm:"foreignKey:provider_id" json:"provider,omitempty"`

	types.Timestamps
}
