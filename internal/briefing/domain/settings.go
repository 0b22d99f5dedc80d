package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDeliveryTime is returned for delivery times not in HH:MM form.
	ErrInvalidDeliveryTime = errors.New("delivery time must be HH:MM")
	// ErrInvalidTimezone is returned for unknown IANA timezone names.
	ErrInvalidTimezone = errors.New("unknown timezone")
)

// DeliverySettings holds a user's brief delivery preferences.
type DeliverySettings struct {
	UserID       uuid.UUID `json:"user_id"`
	DeliveryTime string    `json:"delivery_time"` // HH:MM, local to Timezone
	Timezone     string    `json:"timezone"`
	Email        string    `json:"email"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewDeliverySettings validates and creates delivery settings.
func NewDeliverySettings(userID uuid.UUID, deliveryTime, timezone, email string) (DeliverySettings, error) {
	if _, err := time.Parse("15:04", deliveryTime); err != nil {
		return DeliverySettings{}, ErrInvalidDeliveryTime
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return DeliverySettings{}, ErrInvalidTimezone
	}
	return DeliverySettings{
		UserID:       userID,
		DeliveryTime: deliveryTime,
		Timezone:     timezone,
		Email:        email,
		Active:       true,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// Location resolves the settings timezone, falling back to UTC when the
// stored name no longer loads.
func (s DeliverySettings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
