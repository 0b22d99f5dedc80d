package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all brief-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "BRIEF_USER_ID", "BRIEF_TIMEZONE", "BRIEF_ENCRYPTION_KEY",
		"DATABASE_URL", "REDIS_URL", "RABBITMQ_URL",
		"CALENDAR_IDS", "CALENDAR_PROVIDER", "CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD",
		"HISTORY_LOOKBACK_DAYS",
		"FILTER_EXCLUDE_RECURRING", "FILTER_REQUIRE_NON_OWNER", "FILTER_EXTERNAL_ONLY",
		"INTERNAL_DOMAINS", "TIME_WINDOW_HOURS",
		"CRM_API_KEY", "CRM_BASE_URL", "CRM_CACHE_TTL", "CRM_NOTE_LIMIT",
		"NEWS_API_KEY", "NEWS_BASE_URL", "MAX_NEWS_PER_PERSON",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "SUMMARY_MODEL", "SUMMARY_MAX_TOKENS", "SUMMARY_TEMPERATURE",
		"ENRICH_CONCURRENCY", "DELIVERY_TIME", "DELIVERY_EMAIL",
		"OAUTH_CLIENT_ID", "OAUTH_CLIENT_SECRET", "OAUTH_AUTH_URL", "OAUTH_TOKEN_URL",
		"OAUTH_REDIRECT_URL", "OAUTH_SCOPES",
		"API_ADDR", "WORKER_HEALTH_ADDR", "BRIEF_RETENTION_DAYS",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"primary"}, cfg.CalendarIDs)
	assert.Equal(t, "google", cfg.CalendarProvider)
	assert.Equal(t, 120, cfg.HistoryLookbackDays)
	assert.True(t, cfg.ExcludeRecurring)
	assert.True(t, cfg.RequireNonOwner)
	assert.True(t, cfg.ExternalOnly)
	assert.Nil(t, cfg.InternalDomains)
	assert.Equal(t, 0, cfg.TimeWindowHours)
	assert.Equal(t, 24*time.Hour, cfg.CRMCacheTTL)
	assert.Equal(t, 3, cfg.MaxNewsPerPerson)
	assert.Equal(t, "gpt-4o-mini", cfg.SummaryModel)
	assert.Equal(t, 500, cfg.SummaryMaxTokens)
	assert.Equal(t, 4, cfg.EnrichConcurrency)
	assert.Equal(t, "08:00", cfg.DeliveryTime)
	assert.False(t, cfg.NewsEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("CALENDAR_IDS", "primary, team@example.com ,")
	os.Setenv("INTERNAL_DOMAINS", "acme.com,acme.io")
	os.Setenv("TIME_WINDOW_HOURS", "2")
	os.Setenv("CRM_CACHE_TTL", "1h")
	os.Setenv("NEWS_API_KEY", "nk-123")
	os.Setenv("FILTER_EXCLUDE_RECURRING", "false")
	os.Setenv("SUMMARY_TEMPERATURE", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"primary", "team@example.com"}, cfg.CalendarIDs)
	assert.Equal(t, []string{"acme.com", "acme.io"}, cfg.InternalDomains)
	assert.Equal(t, 2, cfg.TimeWindowHours)
	assert.Equal(t, time.Hour, cfg.CRMCacheTTL)
	assert.True(t, cfg.NewsEnabled())
	assert.False(t, cfg.ExcludeRecurring)
	assert.InDelta(t, 0.2, cfg.SummaryTemperature, 1e-9)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("TIME_WINDOW_HOURS", "soon")
	os.Setenv("CRM_CACHE_TTL", "tomorrow")
	os.Setenv("FILTER_EXTERNAL_ONLY", "yep")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.TimeWindowHours)
	assert.Equal(t, 24*time.Hour, cfg.CRMCacheTTL)
	assert.True(t, cfg.ExternalOnly)
}
