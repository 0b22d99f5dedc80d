// Package persistence provides SQLite and Postgres repositories for the
// briefing context.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// SQLiteBriefRepository stores briefs in SQLite. Timestamps are RFC3339
// text and the meeting snapshot is a JSON column.
type SQLiteBriefRepository struct {
	dbConn *sql.DB
}

// NewSQLiteBriefRepository creates a SQLite brief repository.
func NewSQLiteBriefRepository(dbConn *sql.DB) *SQLiteBriefRepository {
	return &SQLiteBriefRepository{dbConn: dbConn}
}

// Save upserts a brief. A regenerated brief for the same user and date
// replaces the previous row, old aggregate ID included.
func (r *SQLiteBriefRepository) Save(ctx context.Context, brief *domain.Brief) error {
	events, err := json.Marshal(brief.Events())
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	var sentAt sql.NullString
	if brief.SentAt() != nil {
		sentAt = sql.NullString{String: brief.SentAt().UTC().Format(time.RFC3339), Valid: true}
	}

	tx, err := r.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM briefs WHERE user_id = ? AND brief_date = ? AND id <> ?`,
		brief.UserID().String(), brief.Date(), brief.ID().String(),
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO briefs (id, user_id, brief_date, content, events, sent, sent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			events = excluded.events,
			sent = excluded.sent,
			sent_at = excluded.sent_at,
			updated_at = excluded.updated_at
	`,
		brief.ID().String(),
		brief.UserID().String(),
		brief.Date(),
		brief.Content(),
		string(events),
		boolToInt(brief.Sent()),
		sentAt,
		brief.CreatedAt().UTC().Format(time.RFC3339),
		brief.UpdatedAt().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// FindByID fetches one brief by aggregate ID.
func (r *SQLiteBriefRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brief, error) {
	row := r.dbConn.QueryRowContext(ctx, briefSelectSQLite+` WHERE id = ?`, id.String())
	return scanSQLiteBrief(row)
}

// FindByDate fetches the brief for a user's local date.
func (r *SQLiteBriefRepository) FindByDate(ctx context.Context, userID uuid.UUID, date string) (*domain.Brief, error) {
	row := r.dbConn.QueryRowContext(ctx,
		briefSelectSQLite+` WHERE user_id = ? AND brief_date = ?`,
		userID.String(), date)
	return scanSQLiteBrief(row)
}

// ListRecent returns the newest briefs for a user, most recent date first.
func (r *SQLiteBriefRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Brief, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.dbConn.QueryContext(ctx,
		briefSelectSQLite+` WHERE user_id = ? ORDER BY brief_date DESC LIMIT ?`,
		userID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var briefs []*domain.Brief
	for rows.Next() {
		brief, err := scanSQLiteBrief(rows)
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, brief)
	}
	return briefs, rows.Err()
}

// DeleteOlderThan removes briefs dated before the cutoff and reports how
// many were deleted.
func (r *SQLiteBriefRepository) DeleteOlderThan(ctx context.Context, userID uuid.UUID, cutoffDate string) (int64, error) {
	res, err := r.dbConn.ExecContext(ctx,
		`DELETE FROM briefs WHERE user_id = ? AND brief_date < ?`,
		userID.String(), cutoffDate)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const briefSelectSQLite = `
	SELECT id, user_id, brief_date, content, events, sent, sent_at, created_at, updated_at
	FROM briefs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBrief(row rowScanner) (*domain.Brief, error) {
	var (
		rawID        string
		rawUserID    string
		date         string
		content      string
		rawEvents    string
		sentInt      int
		rawSentAt    sql.NullString
		rawCreatedAt string
		rawUpdatedAt string
	)
	err := row.Scan(&rawID, &rawUserID, &date, &content, &rawEvents, &sentInt, &rawSentAt, &rawCreatedAt, &rawUpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBriefNotFound
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, err
	}

	var events []domain.MeetingEvent
	if rawEvents != "" {
		if err := json.Unmarshal([]byte(rawEvents), &events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}

	var sentAt *time.Time
	if rawSentAt.Valid {
		t, err := time.Parse(time.RFC3339, rawSentAt.String)
		if err != nil {
			return nil, err
		}
		sentAt = &t
	}

	createdAt, err := time.Parse(time.RFC3339, rawCreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, rawUpdatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateBrief(id, userID, date, content, events, sentInt != 0, sentAt, createdAt, updatedAt), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
