package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// PostgresSettingsRepository stores delivery settings in Postgres, one row
// per user.
type PostgresSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingsRepository creates a Postgres settings repository.
func NewPostgresSettingsRepository(pool *pgxpool.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool}
}

// Get fetches the settings for a user.
func (r *PostgresSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (domain.DeliverySettings, error) {
	var settings domain.DeliverySettings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, delivery_time, timezone, email, active, updated_at
		FROM delivery_settings
		WHERE user_id = $1
	`, userID).Scan(
		&settings.UserID,
		&settings.DeliveryTime,
		&settings.Timezone,
		&settings.Email,
		&settings.Active,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DeliverySettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	return settings, nil
}

// Save upserts the settings row for a user.
func (r *PostgresSettingsRepository) Save(ctx context.Context, settings domain.DeliverySettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO delivery_settings (user_id, delivery_time, timezone, email, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			delivery_time = EXCLUDED.delivery_time,
			timezone = EXCLUDED.timezone,
			email = EXCLUDED.email,
			active = EXCLUDED.active,
			updated_at = NOW()
	`,
		settings.UserID,
		settings.DeliveryTime,
		settings.Timezone,
		settings.Email,
		settings.Active,
	)
	return err
}
