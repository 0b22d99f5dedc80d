// Package news attaches recent news articles to meeting attendees.
package news

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

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	lookbackDays   = 30
)

// Client searches a NewsAPI-style source. A client without an API key is
// valid and permanently disabled: every enrichment yields an empty article
// list without any network call.
type Client struct {
	apiKey      string
	baseURL     string
	maxArticles int
	http        *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient creates a news client. maxArticles <= 0 defaults to 3.
func NewClient(apiKey, baseURL string, maxArticles int, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxArticles <= 0 {
		maxArticles = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		logger.Warn("news api key not configured, news enrichment disabled")
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		maxArticles: maxArticles,
		http:        &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		now:         time.Now,
	}
}

// Enabled reports whether the client will make network calls.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// EnrichAttendee sets attendee.NewsArticles from person and company
// searches. The field is always non-nil afterwards; failures degrade to an
// empty list and are only logged.
func (c *Client) EnrichAttendee(ctx context.Context, attendee *briefing.AttendeeInfo) {
	attendee.NewsArticles = []briefing.NewsArticle{}
	if !c.Enabled() {
		return
	}

	personQuery := attendee.Name
	if attendee.Company != "" {
		personQuery += " AND " + attendee.Company
	}
	articles := c.search(ctx, personQuery)

	if attendee.Company != "" {
		articles = append(articles, c.search(ctx, strconv.Quote(attendee.Company))...)
	}

	seen := make(map[string]struct{}, len(articles))
	for _, article := range articles {
		if len(attendee.NewsArticles) >= c.maxArticles {
			break
		}
		if _, ok := seen[article.URL]; ok {
			continue
		}
		seen[article.URL] = struct{}{}
		attendee.NewsArticles = append(attendee.NewsArticles, article)
	}
}

// search runs one everything-query over the last 30 days sorted by
// relevancy. Any failure returns an empty list.
func (c *Client) search(ctx context.Context, q string) []briefing.NewsArticle {
	end := c.now()
	start := end.AddDate(0, 0, -lookbackDays)

	query := url.Values{}
	query.Set("q", q)
	query.Set("from", start.Format("2006-01-02"))
	query.Set("to", end.Format("2006-01-02"))
	query.Set("sortBy", "relevancy")
	query.Set("language", "en")
	query.Set("pageSize", strconv.Itoa(c.maxArticles))
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+query.Encode(), nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("news search failed", "query", q, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("news search failed",
			"query", q,
			"error", fmt.Sprintf("status=%d body=%s", resp.StatusCode, string(body)))
		return nil
	}

	var payload struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("news response decode failed", "query", q, "error", err)
		return nil
	}

	articles := make([]briefing.NewsArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, briefing.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Source:      a.Source.Name,
		})
	}
	return articles
}
