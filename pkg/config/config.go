// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string
	Timezone string

	// Encryption key for stored OAuth tokens (base64, 32 bytes).
	EncryptionKey string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Calendar
	CalendarIDs         []string
	CalendarProvider    string
	CalDAVURL           string
	CalDAVUsername      string
	CalDAVPassword      string
	HistoryLookbackDays int

	// Filters
	ExcludeRecurring bool
	RequireNonOwner  bool
	ExternalOnly     bool
	InternalDomains  []string
	TimeWindowHours  int

	// CRM
	CRMAPIKey    string
	CRMBaseURL   string
	CRMCacheTTL  time.Duration
	CRMNoteLimit int

	// News
	NewsAPIKey       string
	NewsBaseURL      string
	MaxNewsPerPerson int

	// Summarization
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	SummaryModel       string
	SummaryMaxTokens   int
	SummaryTemperature float64

	// Enrichment
	EnrichConcurrency int

	// Delivery
	DeliveryTime  string
	DeliveryEmail string

	// OAuth (Google Calendar + Gmail)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthRedirectURL  string
	OAuthScopes       string

	// API server
	APIAddr string

	// Worker
	WorkerHealthAddr   string
	BriefRetentionDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("BRIEF_USER_ID", "00000000-0000-0000-0000-000000000001"),
		Timezone: getEnv("BRIEF_TIMEZONE", "America/New_York"),

		EncryptionKey: getEnv("BRIEF_ENCRYPTION_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CalendarIDs:         getListEnv("CALENDAR_IDS", []string{"primary"}),
		CalendarProvider:    getEnv("CALENDAR_PROVIDER", "google"),
		CalDAVURL:           getEnv("CALDAV_URL", ""),
		CalDAVUsername:      getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:      getEnv("CALDAV_PASSWORD", ""),
		HistoryLookbackDays: getIntEnv("HISTORY_LOOKBACK_DAYS", 120),

		ExcludeRecurring: getBoolEnv("FILTER_EXCLUDE_RECURRING", true),
		RequireNonOwner:  getBoolEnv("FILTER_REQUIRE_NON_OWNER", true),
		ExternalOnly:     getBoolEnv("FILTER_EXTERNAL_ONLY", true),
		InternalDomains:  getListEnv("INTERNAL_DOMAINS", nil),
		TimeWindowHours:  getIntEnv("TIME_WINDOW_HOURS", 0),

		CRMAPIKey:    getEnv("CRM_API_KEY", ""),
		CRMBaseURL:   getEnv("CRM_BASE_URL", "https://api.affinity.co/v2"),
		CRMCacheTTL:  getDurationEnv("CRM_CACHE_TTL", 24*time.Hour),
		CRMNoteLimit: getIntEnv("CRM_NOTE_LIMIT", 5),

		NewsAPIKey:       getEnv("NEWS_API_KEY", ""),
		NewsBaseURL:      getEnv("NEWS_BASE_URL", "https://newsapi.org/v2"),
		MaxNewsPerPerson: getIntEnv("MAX_NEWS_PER_PERSON", 3),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SummaryModel:       getEnv("SUMMARY_MODEL", "gpt-4o-mini"),
		SummaryMaxTokens:   getIntEnv("SUMMARY_MAX_TOKENS", 500),
		SummaryTemperature: getFloatEnv("SUMMARY_TEMPERATURE", 0.7),

		EnrichConcurrency: getIntEnv("ENRICH_CONCURRENCY", 4),

		DeliveryTime:  getEnv("DELIVERY_TIME", "08:00"),
		DeliveryEmail: getEnv("DELIVERY_EMAIL", ""),

		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthAuthURL:      getEnv("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
		OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", "http://localhost:8085/oauth/callback"),
		OAuthScopes:       getEnv("OAUTH_SCOPES", "https://www.googleapis.com/auth/calendar.readonly,https://www.googleapis.com/auth/gmail.send"),

		APIAddr: getEnv("API_ADDR", "0.0.0.0:8080"),

		WorkerHealthAddr:   getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		BriefRetentionDays: getIntEnv("BRIEF_RETENTION_DAYS", 30),
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NewsEnabled reports whether news enrichment is configured.
func (c *Config) NewsEnabled() bool {
	return c.NewsAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
