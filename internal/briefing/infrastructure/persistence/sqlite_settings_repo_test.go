package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

func TestSQLiteSettingsRepository_GetMissing(t *testing.T) {
	repo := NewSQLiteSettingsRepository(setupBriefDB(t))

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
}

func TestSQLiteSettingsRepository_SaveAndGet(t *testing.T) {
	repo := NewSQLiteSettingsRepository(setupBriefDB(t))
	ctx := context.Background()
	userID := uuid.New()

	settings, err := domain.NewDeliverySettings(userID, "07:30", "Europe/Berlin", "user@acme.com")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, settings))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "07:30", got.DeliveryTime)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.Equal(t, "user@acme.com", got.Email)
	assert.True(t, got.Active)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteSettingsRepository_SaveUpserts(t *testing.T) {
	repo := NewSQLiteSettingsRepository(setupBriefDB(t))
	ctx := context.Background()
	userID := uuid.New()

	settings, err := domain.NewDeliverySettings(userID, "07:00", "UTC", "user@acme.com")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, settings))

	settings.DeliveryTime = "08:15"
	settings.Active = false
	require.NoError(t, repo.Save(ctx, settings))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "08:15", got.DeliveryTime)
	assert.False(t, got.Active)
}
