package models

import "tms/src/types"

type Rating struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	BookingID   uint              `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	AuthorID    uint              `json:"author_id,omitempty"`
	SubjectType types.SubjectType `gorm:"index:idx_rating_subject" json:"subject_type,omitempty"`
	SubjectID   uint              `gorm:"index:idx_rating_subject" json:"subject_id,omitempty"`
	Score       uint8             `json:"score,omitempty"`
	Comment     *string           `json:"comment,omitempty"`

	Author  *User    `gorm:"foreignKey:author_id" json:"author,omitempty"`
	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
