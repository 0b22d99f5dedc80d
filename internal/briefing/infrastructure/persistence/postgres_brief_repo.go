package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// PostgresBriefRepository stores briefs in Postgres with the meeting
// snapshot in a JSONB column.
type PostgresBriefRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBriefRepository creates a Postgres brief repository.
func NewPostgresBriefRepository(pool *pgxpool.Pool) *PostgresBriefRepository {
	return &PostgresBriefRepository{pool: pool}
}

// Save upserts a brief, replacing any previous brief for the same user and
// date.
func (r *PostgresBriefRepository) Save(ctx context.Context, brief *domain.Brief) error {
	events, err := json.Marshal(brief.Events())
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	var sentAt *time.Time
	if brief.SentAt() != nil {
		t := brief.SentAt().UTC()
		sentAt = &t
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM briefs WHERE user_id = $1 AND brief_date = $2 AND id <> $3`,
		brief.UserID(), brief.Date(), brief.ID(),
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO briefs (id, user_id, brief_date, content, events, sent, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			events = EXCLUDED.events,
			sent = EXCLUDED.sent,
			sent_at = EXCLUDED.sent_at,
			updated_at = EXCLUDED.updated_at
	`,
		brief.ID(),
		brief.UserID(),
		brief.Date(),
		brief.Content(),
		events,
		brief.Sent(),
		sentAt,
		brief.CreatedAt().UTC(),
		brief.UpdatedAt().UTC(),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindByID fetches one brief by aggregate ID.
func (r *PostgresBriefRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brief, error) {
	row := r.pool.QueryRow(ctx, briefSelectPostgres+` WHERE id = $1`, id)
	return scanPostgresBrief(row)
}

// FindByDate fetches the brief for a user's local date.
func (r *PostgresBriefRepository) FindByDate(ctx context.Context, userID uuid.UUID, date string) (*domain.Brief, error) {
	row := r.pool.QueryRow(ctx,
		briefSelectPostgres+` WHERE user_id = $1 AND brief_date = $2`,
		userID, date)
	return scanPostgresBrief(row)
}

// ListRecent returns the newest briefs for a user, most recent date first.
func (r *PostgresBriefRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Brief, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx,
		briefSelectPostgres+` WHERE user_id = $1 ORDER BY brief_date DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefs []*domain.Brief
	for rows.Next() {
		brief, err := scanPostgresBrief(rows)
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, brief)
	}
	return briefs, rows.Err()
}

// DeleteOlderThan removes briefs dated before the cutoff and reports how
// many were deleted.
func (r *PostgresBriefRepository) DeleteOlderThan(ctx context.Context, userID uuid.UUID, cutoffDate string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM briefs WHERE user_id = $1 AND brief_date < $2`,
		userID, cutoffDate)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const briefSelectPostgres = `
	SELECT id, user_id, to_char(brief_date, 'YYYY-MM-DD'), content, events, sent, sent_at, created_at, updated_at
	FROM briefs`

func scanPostgresBrief(row pgx.Row) (*domain.Brief, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		date      string
		content   string
		rawEvents []byte
		sent      bool
		sentAt    *time.Time
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &userID, &date, &content, &rawEvents, &sent, &sentAt, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBriefNotFound
	}
	if err != nil {
		return nil, err
	}

	var events []domain.MeetingEvent
	if len(rawEvents) > 0 {
		if err := json.Unmarshal(rawEvents, &events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}

	return domain.RehydrateBrief(id, userID, date, content, events, sent, sentAt, createdAt, updatedAt), nil
}
