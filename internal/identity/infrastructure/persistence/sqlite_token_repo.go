package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/identity/application/oauth"
)

// SQLiteTokenRepository persists OAuth tokens in SQLite. Timestamps are
// stored as RFC3339 text and scopes as a comma-joined list.
type SQLiteTokenRepository struct {
	dbConn *sql.DB
}

// NewSQLiteTokenRepository creates a SQLite token repository.
func NewSQLiteTokenRepository(dbConn *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{dbConn: dbConn}
}

// Save upserts a token for a user/provider.
func (r *SQLiteTokenRepository) Save(ctx context.Context, token oauth.StoredToken) error {
	query := `
		INSERT INTO oauth_tokens (
			user_id, provider, access_token, refresh_token, token_type, expiry, scopes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.dbConn.ExecContext(ctx, query,
		token.UserID.String(),
		token.Provider,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		token.Expiry.UTC().Format(time.RFC3339),
		strings.Join(token.Scopes, ","),
		now,
		now,
	)
	return err
}

// FindByUserAndProvider fetches a token for a user/provider.
func (r *SQLiteTokenRepository) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*oauth.StoredToken, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, token_type, expiry, scopes
		FROM oauth_tokens
		WHERE user_id = ? AND provider = ?
	`

	var (
		rawUserID string
		rawExpiry string
		rawScopes string
		token     oauth.StoredToken
	)
	err := r.dbConn.QueryRowContext(ctx, query, userID.String(), provider).Scan(
		&rawUserID,
		&token.Provider,
		&token.AccessToken,
		&token.RefreshToken,
		&token.TokenType,
		&rawExpiry,
		&rawScopes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oauth.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	token.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return nil, err
	}
	token.Expiry, err = time.Parse(time.RFC3339, rawExpiry)
	if err != nil {
		return nil, err
	}
	if rawScopes != "" {
		token.Scopes = strings.Split(rawScopes, ",")
	}
	return &token, nil
}
