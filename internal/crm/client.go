// Package crm implements read-only enrichment against an Affinity-style CRM.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/retryx"
)

const (
	defaultBaseURL       = "https://api.affinity.co/v2"
	defaultLegacyBaseURL = "https://api.affinity.co"
	defaultCacheTTL      = 24 * time.Hour
)

// Person is a CRM person search result.
type Person struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PrimaryEmail string `json:"primary_email"`
}

// Organization is a company associated with a person.
type Organization struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	WebsiteURL string `json:"website_url"`
}

// SocialProfile is an explicit social link on a person record.
type SocialProfile struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// PersonDetails is the full person record.
type PersonDetails struct {
	Person
	Organizations  []Organization  `json:"organizations"`
	SocialProfiles []SocialProfile `json:"social_profiles"`
}

// Note is a CRM note attached to a person.
type Note struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// FieldValue is one custom field value on a list entry.
type FieldValue struct {
	FieldID string `json:"field_id"`
	Name    string `json:"name"`
	Value   any    `json:"value"`
}

// ListEntry is a person's membership row on a CRM list.
type ListEntry struct {
	ID     int64        `json:"id"`
	ListID int64        `json:"list_id"`
	Fields []FieldValue `json:"fields"`
}

// FieldMetadata describes a custom field definition.
type FieldMetadata struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ValueType string `json:"value_type"`
}

// ClientConfig configures the CRM client.
type ClientConfig struct {
	APIKey        string
	BaseURL       string
	LegacyBaseURL string
	CacheTTL      time.Duration
}

// Client is the CRM HTTP client. Every lookup is cache-first and retried on
// transient failures behind a circuit breaker.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	cache   cache.Cache
	retry   retryx.Policy
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewClient creates a CRM client. A missing API key is a configuration
// error surfaced at construction.
func NewClient(cfg ClientConfig, store cache.Cache, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("crm api key not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.LegacyBaseURL == "" {
		cfg.LegacyBaseURL = defaultLegacyBaseURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if store == nil {
		store = cache.NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:    "crm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   store,
		retry:   retryx.DefaultPolicy(),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}, nil
}

// get fetches a JSON payload into dest, consulting the cache first and
// populating it after a successful fetch.
func (c *Client) get(ctx context.Context, base, path string, query url.Values, cacheKey string, dest any) error {
	if found, err := c.cache.GetJSON(ctx, cacheKey, dest); err == nil && found {
		return nil
	}

	reqURL := base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	err := retryx.Do(ctx, c.retry, func(ctx context.Context) error {
		var execErr error
		body, execErr = c.breaker.Execute(func() ([]byte, error) {
			return c.doRequest(ctx, reqURL)
		})
		return execErr
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode crm response: %w", err)
	}
	if err := c.cache.SetJSON(ctx, cacheKey, dest, c.cfg.CacheTTL); err != nil {
		c.logger.Debug("crm cache write failed", "key", cacheKey, "error", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crm request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FindPersonByEmail returns the first person matching an email, or nil when
// the CRM has no record.
func (c *Client) FindPersonByEmail(ctx context.Context, email string) (*Person, error) {
	var payload struct {
		Data []Person `json:"data"`
	}
	query := url.Values{"email": {email}}
	key := cache.Key("crm", "person-by-email", email)
	if err := c.get(ctx, c.cfg.BaseURL, "/persons", query, key, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}
	return &payload.Data[0], nil
}

// GetPersonDetails returns the full person record.
func (c *Client) GetPersonDetails(ctx context.Context, personID int64) (*PersonDetails, error) {
	var details PersonDetails
	key := cache.Key("crm", "person-details", strconv.FormatInt(personID, 10))
	if err := c.get(ctx, c.cfg.BaseURL, "/persons/"+strconv.FormatInt(personID, 10), nil, key, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetPersonNotes returns up to limit recent notes for a person.
func (c *Client) GetPersonNotes(ctx context.Context, personID int64, limit int) ([]Note, error) {
	var payload struct {
		Data []Note `json:"data"`
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	key := cache.Key("crm", "person-notes", strconv.FormatInt(personID, 10), strconv.Itoa(limit))
	if err := c.get(ctx, c.cfg.BaseURL, "/persons/"+strconv.FormatInt(personID, 10)+"/notes", query, key, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// GetPersonListEntries returns a person's list memberships.
func (c *Client) GetPersonListEntries(ctx context.Context, personID int64, limit int) ([]ListEntry, error) {
	var payload struct {
		Data []ListEntry `json:"data"`
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	key := cache.Key("crm", "person-list-entries", strconv.FormatInt(personID, 10))
	if err := c.get(ctx, c.cfg.BaseURL, "/persons/"+strconv.FormatInt(personID, 10)+"/list-entries", query, key, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// GetFieldMetadata returns all custom field definitions. Cached once per TTL.
func (c *Client) GetFieldMetadata(ctx context.Context) ([]FieldMetadata, error) {
	var payload struct {
		Data []FieldMetadata `json:"data"`
	}
	key := cache.Key("crm", "field-metadata")
	if err := c.get(ctx, c.cfg.BaseURL, "/fields", nil, key, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// FindLegacyPerson queries the legacy API for a person by email. Last
// resort for LinkedIn resolution.
func (c *Client) FindLegacyPerson(ctx context.Context, email string) (*LegacyPerson, error) {
	var payload struct {
		Persons []LegacyPerson `json:"persons"`
	}
	query := url.Values{"term": {email}}
	key := cache.Key("crm", "legacy-person", email)
	if err := c.get(ctx, c.cfg.LegacyBaseURL, "/persons", query, key, &payload); err != nil {
		return nil, err
	}
	if len(payload.Persons) == 0 {
		return nil, nil
	}
	return &payload.Persons[0], nil
}

// LegacyPerson is the legacy-API person shape, carrying the first-class
// linkedin_url field the v2 API dropped.
type LegacyPerson struct {
	ID          int64  `json:"id"`
	LinkedInURL string `json:"linkedin_url"`
}
