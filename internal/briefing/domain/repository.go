package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrBriefNotFound is returned when no brief matches the lookup.
	ErrBriefNotFound = errors.New("brief not found")
	// ErrSettingsNotFound is returned when a user has no stored settings.
	ErrSettingsNotFound = errors.New("delivery settings not found")
)

// BriefRepository persists generated briefs.
type BriefRepository interface {
	Save(ctx context.Context, brief *Brief) error
	FindByID(ctx context.Context, id uuid.UUID) (*Brief, error)
	// FindByDate returns the brief for a user's local date (YYYY-MM-DD).
	FindByDate(ctx context.Context, userID uuid.UUID, date string) (*Brief, error)
	// ListRecent returns the newest briefs for a user, most recent first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*Brief, error)
	// DeleteOlderThan removes briefs whose date is before the cutoff date
	// (YYYY-MM-DD) and returns the number deleted.
	DeleteOlderThan(ctx context.Context, userID uuid.UUID, cutoffDate string) (int64, error)
}

// SettingsRepository persists delivery settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (DeliverySettings, error)
	Save(ctx context.Context, settings DeliverySettings) error
}
