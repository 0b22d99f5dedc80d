package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/morningbrief/internal/identity/application/oauth"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/migrations"
)

func setupTokenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func TestSQLiteTokenRepository_FindMissing(t *testing.T) {
	repo := NewSQLiteTokenRepository(setupTokenDB(t))

	_, err := repo.FindByUserAndProvider(context.Background(), uuid.New(), oauth.ProviderGoogle)
	assert.ErrorIs(t, err, oauth.ErrTokenNotFound)
}

func TestSQLiteTokenRepository_SaveAndFind(t *testing.T) {
	repo := NewSQLiteTokenRepository(setupTokenDB(t))
	ctx := context.Background()

	userID := uuid.New()
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stored := oauth.StoredToken{
		UserID:       userID,
		Provider:     oauth.ProviderGoogle,
		AccessToken:  []byte("enc-access"),
		RefreshToken: []byte("enc-refresh"),
		TokenType:    "Bearer",
		Expiry:       expiry,
		Scopes:       []string{"calendar.readonly", "gmail.send"},
	}
	require.NoError(t, repo.Save(ctx, stored))

	got, err := repo.FindByUserAndProvider(ctx, userID, oauth.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, oauth.ProviderGoogle, got.Provider)
	assert.Equal(t, []byte("enc-access"), got.AccessToken)
	assert.Equal(t, []byte("enc-refresh"), got.RefreshToken)
	assert.Equal(t, "Bearer", got.TokenType)
	assert.True(t, got.Expiry.Equal(expiry))
	assert.Equal(t, []string{"calendar.readonly", "gmail.send"}, got.Scopes)
}

func TestSQLiteTokenRepository_SaveUpserts(t *testing.T) {
	db := setupTokenDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	first := oauth.StoredToken{
		UserID:      userID,
		Provider:    oauth.ProviderGoogle,
		AccessToken: []byte("first"),
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, first))

	second := first
	second.AccessToken = []byte("second")
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.FindByUserAndProvider(ctx, userID, oauth.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got.AccessToken)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM oauth_tokens").Scan(&count))
	assert.Equal(t, 1, count)
}
