package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// Handler consumes a raw queue message body.
type Handler func(payload string)

type Env string

const (
	Local      Env = "local"
	Test       Env = "test"
	Production Env = "production"
)

type UserRole string

const (
	ROLE_TOURIST  UserRole = "tourist"
	ROLE_GUIDE    UserRole = "guide"
	ROLE_PROVIDER UserRole = "provider"
	ROLE_ADMIN    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case ROLE_TOURIST, ROLE_GUIDE, ROLE_PROVIDER, ROLE_ADMIN:
		return true
	}
	return false
}

// CanHost reports whether the role may own bookable subjects.
func (r UserRole) CanHost() bool {
	return r == ROLE_GUIDE || r == ROLE_PROVIDER
}

type SubjectType string

const (
	SUBJECT_ACCOMMODATION SubjectType = "accommodation"
	SUBJECT_GUIDE         SubjectType = "guide"
)

func (s SubjectType) Valid() bool {
	return s == SUBJECT_ACCOMMODATION || s == SUBJECT_GUIDE
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_PENDING    PaymentStatus = "pending"
	PAYMENT_AUTHORIZED PaymentStatus = "authorized"
	PAYMENT_CAPTURED   PaymentStatus = "captured"
	PAYMENT_CANCELED   PaymentStatus = "cancelled"
)

type ListingStatus string

const (
	LISTING_ACTIVE    ListingStatus = "active"
	LISTING_SUSPENDED ListingStatus = "suspended"
	LISTING_ARCHIVED  ListingStatus = "archived"
)

type NotificationType string

const (
	NOTIFY_BOOKING_CREATED   NotificationType = "booking_created"
	NOTIFY_BOOKING_CONFIRMED NotificationType = "booking_confirmed"
	NOTIFY_BOOKING_CANCELED  NotificationType = "booking_cancelled"
	NOTIFY_BOOKING_UPDATED   NotificationType = "booking_updated"
	NOTIFY_PAYMENT_SENT      NotificationType = "payment_sent"
	NOTIFY_PAYMENT_RECEIVED  NotificationType = "payment_received"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAccommodationRequestBody struct {
	Name     string `json:"name" binding:"required"`
	About    string `json:"about,omitempty"`
	Location string `json:"location" binding:"required"`
	Rate     int64  `json:"rate" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,len=3"`
}

type UpdateAccommodationRequestBody struct {
	Name     *string `json:"name,omitempty"`
	About    *string `json:"about,omitempty"`
	Location *string `json:"location,omitempty"`
	Rate     *int64  `json:"rate,omitempty" binding:"omitempty,gt=0"`
}

type AccommodationQueryFilters struct {
	Location string `form:"location,omitempty"`
	MinRate  int64  `form:"min_rate,omitempty"`
	MaxRate  int64  `form:"max_rate,omitempty"`
	Page     int    `form:"page,omitempty"`
	Limit    int    `form:"limit,omitempty"`
}

type CreateGuideProfileRequestBody struct {
	Headline string `json:"headline" binding:"required"`
	City     string `json:"city" binding:"required"`
	About    string `json:"about,omitempty"`
	DayRate  int64  `json:"day_rate" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,len=3"`
}

type CreateBookingRequestBody struct {
	SubjectType string `json:"subject_type" binding:"required"`
	SubjectID   uint   `json:"subject_id" binding:"required"`
	StartsAt    string `json:"starts_at" binding:"required,stayrange" time_format:"2006-01-02 15:04:05 -07:00"`
	EndsAt      string `json:"ends_at" binding:"required,stayrange,gtdate=StartsAt" time_format:"2006-01-02 15:04:05 -07:00"`
}

type CreateRatingRequestBody struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Score     uint8  `json:"score" binding:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty"`
}

type AdminUpdateUserRequestBody struct {
	Role      *string `json:"role,omitempty"`
	Suspended *bool   `json:"suspended,omitempty"`
}

type APIResponseBooking struct {
	ID          uint       `json:"id,omitempty"`
	SubjectType string     `json:"subject_type,omitempty"`
	SubjectID   uint       `json:"subject_id,omitempty"`
	Status      string     `json:"status,omitempty"`
	Price       int64      `json:"price,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	UserID      uint       `json:"user_id,omitempty"`

	Timestamps
}

type APIResponseUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
