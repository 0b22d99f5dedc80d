package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// SQLiteSettingsRepository stores delivery settings in SQLite, one row per
// user.
type SQLiteSettingsRepository struct {
	dbConn *sql.DB
}

// NewSQLiteSettingsRepository creates a SQLite settings repository.
func NewSQLiteSettingsRepository(dbConn *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{dbConn: dbConn}
}

// Get fetches the settings for a user.
func (r *SQLiteSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (domain.DeliverySettings, error) {
	var (
		rawUserID    string
		settings     domain.DeliverySettings
		activeInt    int
		rawUpdatedAt string
	)
	err := r.dbConn.QueryRowContext(ctx, `
		SELECT user_id, delivery_time, timezone, email, active, updated_at
		FROM delivery_settings
		WHERE user_id = ?
	`, userID.String()).Scan(
		&rawUserID,
		&settings.DeliveryTime,
		&settings.Timezone,
		&settings.Email,
		&activeInt,
		&rawUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DeliverySettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.DeliverySettings{}, err
	}

	settings.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	settings.Active = activeInt != 0
	settings.UpdatedAt, err = time.Parse(time.RFC3339, rawUpdatedAt)
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	return settings, nil
}

// Save upserts the settings row for a user.
func (r *SQLiteSettingsRepository) Save(ctx context.Context, settings domain.DeliverySettings) error {
	_, err := r.dbConn.ExecContext(ctx, `
		INSERT INTO delivery_settings (user_id, delivery_time, timezone, email, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			delivery_time = excluded.delivery_time,
			timezone = excluded.timezone,
			email = excluded.email,
			active = excluded.active,
			updated_at = excluded.updated_at
	`,
		settings.UserID.String(),
		settings.DeliveryTime,
		settings.Timezone,
		settings.Email,
		boolToInt(settings.Active),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
