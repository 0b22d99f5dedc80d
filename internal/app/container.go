// Package app wires the application together: database, repositories,
// external clients, and the briefing pipeline handlers.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	briefingApp "github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	briefingDomain "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	briefingPersistence "github.com/felixgeelhaar/morningbrief/internal/briefing/infrastructure/persistence"
	calendarApp "github.com/felixgeelhaar/morningbrief/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
	"github.com/felixgeelhaar/morningbrief/internal/calendar/infrastructure/caldav"
	"github.com/felixgeelhaar/morningbrief/internal/calendar/infrastructure/google"
	"github.com/felixgeelhaar/morningbrief/internal/crm"
	"github.com/felixgeelhaar/morningbrief/internal/delivery"
	"github.com/felixgeelhaar/morningbrief/internal/identity/application/oauth"
	identityPersistence "github.com/felixgeelhaar/morningbrief/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/morningbrief/internal/news"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/morningbrief/internal/summarize"
	"github.com/felixgeelhaar/morningbrief/pkg/config"
	"github.com/google/uuid"
)

// Container holds all wired application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database (one of the two is set, depending on the driver)
	DB       *sql.DB
	Pool     *pgxpool.Pool
	DBDriver database.Driver

	// Repositories
	Briefs   briefingDomain.BriefRepository
	Settings briefingDomain.SettingsRepository
	Tokens   oauth.TokenRepository

	// Identity
	OAuth *oauth.Service

	// Calendar
	Fetcher *calendarApp.Fetcher

	// Publishers
	Publisher eventbus.Publisher

	// Briefing pipeline. Send and Cycle are nil when delivery is not
	// configured (no OAuth credentials for Gmail).
	Generate *briefingApp.GenerateBriefHandler
	Send     *briefingApp.SendBriefHandler
	Cycle    *briefingApp.GenerateAndSend

	// UserID is the single configured user the pipeline runs for.
	UserID uuid.UUID

	redisCache *cache.RedisCache
}

// NewContainer wires all dependencies from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid BRIEF_USER_ID: %w", err)
	}
	c.UserID = userID

	if err := c.openDatabase(ctx, cfg); err != nil {
		return nil, err
	}
	logger.Info("connected to database", slog.String("driver", string(c.DBDriver)))

	// Repositories
	switch c.DBDriver {
	case database.DriverPostgres:
		c.Briefs = briefingPersistence.NewPostgresBriefRepository(c.Pool)
		c.Settings = briefingPersistence.NewPostgresSettingsRepository(c.Pool)
		c.Tokens = identityPersistence.NewPostgresTokenRepository(c.Pool)
	default:
		c.Briefs = briefingPersistence.NewSQLiteBriefRepository(c.DB)
		c.Settings = briefingPersistence.NewSQLiteSettingsRepository(c.DB)
		c.Tokens = identityPersistence.NewSQLiteTokenRepository(c.DB)
	}

	// Cache for external lookups (Redis when configured, else in-process)
	cacheStore := c.openCache(cfg)

	// OAuth token service, needed for Google Calendar and Gmail
	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret != "" {
		if cfg.EncryptionKey == "" {
			c.Close()
			return nil, fmt.Errorf("BRIEF_ENCRYPTION_KEY is required when OAuth is configured")
		}
		encrypter, err := crypto.NewAESGCMFromBase64Key(cfg.EncryptionKey)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		svc, err := oauth.NewService(
			oauth.ProviderGoogle,
			cfg.OAuthClientID,
			cfg.OAuthClientSecret,
			cfg.OAuthAuthURL,
			cfg.OAuthTokenURL,
			cfg.OAuthRedirectURL,
			oauth.ScopesFromEnv(cfg.OAuthScopes),
			c.Tokens,
			encrypter,
		)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build oauth service: %w", err)
		}
		c.OAuth = svc
	}

	// Calendar source and fetcher
	source, err := c.calendarSource(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Fetcher = calendarApp.NewFetcher(source, calendarApp.FetcherConfig{
		CalendarIDs: cfg.CalendarIDs,
		OwnerEmail:  cfg.DeliveryEmail,
		Filters: calendarApp.FilterConfig{
			ExcludeRecurring: cfg.ExcludeRecurring,
			RequireNonOwner:  cfg.RequireNonOwner,
			ExternalOnly:     cfg.ExternalOnly,
			InternalDomains:  cfg.InternalDomains,
		},
		TimeWindowHours: cfg.TimeWindowHours,
	}, logger)

	// Attendee enrichment
	var crmEnricher briefingApp.AttendeeEnricher
	if cfg.CRMAPIKey != "" {
		crmClient, err := crm.NewClient(crm.ClientConfig{
			APIKey:   cfg.CRMAPIKey,
			BaseURL:  cfg.CRMBaseURL,
			CacheTTL: cfg.CRMCacheTTL,
		}, cacheStore, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build CRM client: %w", err)
		}
		crmEnricher = crm.NewEnricher(crmClient, cfg.CRMNoteLimit, logger)
	}
	newsClient := news.NewClient(cfg.NewsAPIKey, cfg.NewsBaseURL, cfg.MaxNewsPerPerson, logger)
	pool := briefingApp.NewEnrichPool(crmEnricher, newsClient, cfg.EnrichConcurrency, logger)
	history := briefingApp.NewHistoryAnnotator(c.Fetcher, cfg.HistoryLookbackDays, logger)

	// Summarization
	var ai summarize.AIClient
	if cfg.OpenAIAPIKey != "" {
		aiClient, err := summarize.NewOpenAIClient(summarize.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.SummaryModel,
			MaxTokens:   cfg.SummaryMaxTokens,
			Temperature: cfg.SummaryTemperature,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build OpenAI client: %w", err)
		}
		ai = aiClient
	}
	summarizer := summarize.NewService(ai, logger)

	// Event publisher (RabbitMQ, with a no-op fallback in development)
	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Publisher = publisher

	c.Generate = briefingApp.NewGenerateBriefHandler(
		c.Fetcher, pool, history, summarizer, c.Briefs, c.Publisher, logger)

	// Delivery requires Gmail, which requires OAuth
	if c.OAuth != nil {
		renderer, err := delivery.NewRenderer()
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build brief renderer: %w", err)
		}
		sender := delivery.NewGmailSender(c.OAuth, userID)
		c.Send = briefingApp.NewSendBriefHandler(
			c.Briefs, c.Settings, renderer, sender, c.Publisher, logger)
		c.Cycle = briefingApp.NewGenerateAndSend(
			c.Generate, c.Send, c.Briefs, c.Settings, logger)
	} else {
		logger.Warn("OAuth not configured, brief delivery is disabled")
	}

	return c, nil
}

func (c *Container) openDatabase(ctx context.Context, cfg *config.Config) error {
	c.DBDriver = database.DetectDriver(cfg.DatabaseURL)
	switch c.DBDriver {
	case database.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Pool = pool
	default:
		path := cfg.DatabaseURL
		if path == "" {
			path = database.DefaultSQLitePath()
		}
		db, err := database.OpenSQLite(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.DB = db
	}
	return nil
}

// openCache returns the Redis-backed cache when REDIS_URL is configured and
// reachable, falling back to the in-process cache otherwise.
func (c *Container) openCache(cfg *config.Config) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache()
	}
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, using in-memory cache", slog.Any("error", err))
		return cache.NewMemoryCache()
	}
	c.redisCache = redisCache
	c.Logger.Info("connected to Redis cache")
	return redisCache
}

func (c *Container) calendarSource(cfg *config.Config) (calendarDomain.Source, error) {
	switch cfg.CalendarProvider {
	case "caldav":
		if cfg.CalDAVURL == "" {
			return nil, fmt.Errorf("CALDAV_URL is required for the caldav provider")
		}
		return caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, c.Logger), nil
	case "google", "":
		if c.OAuth == nil {
			return nil, fmt.Errorf("OAuth credentials are required for the google calendar provider")
		}
		return google.NewClient(c.OAuth, c.UserID, c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown calendar provider %q", cfg.CalendarProvider)
	}
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (eventbus.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		return eventbus.NewNoopPublisher(logger), nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ unavailable, events will not be published", slog.Any("error", err))
			return eventbus.NewNoopPublisher(logger), nil
		}
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("connected to RabbitMQ")
	return publisher, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", slog.Any("error", err))
		}
	}
	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			c.Logger.Warn("error closing Redis cache", slog.Any("error", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("error closing database", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
