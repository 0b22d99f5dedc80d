// Package google implements the calendar source against the Google
// Calendar REST API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// Client reads events from Google Calendar.
type Client struct {
	oauthService tokenSourceProvider
	userID       uuid.UUID
	logger       *slog.Logger
	baseURL      string
}

// NewClient creates a Google Calendar client for one user.
func NewClient(oauthService tokenSourceProvider, userID uuid.UUID, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		oauthService: oauthService,
		userID:       userID,
		logger:       logger,
		baseURL:      defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client with a custom base URL.
func NewClientWithBaseURL(oauthService tokenSourceProvider, userID uuid.UUID, logger *slog.Logger, baseURL string) *Client {
	c := NewClient(oauthService, userID, logger)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func (c *Client) httpClient(ctx context.Context) (*http.Client, error) {
	if c.oauthService == nil {
		return nil, fmt.Errorf("oauth service not configured")
	}
	tokenSource, err := c.oauthService.TokenSource(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: tokenSource,
		},
	}, nil
}

type eventsPayload struct {
	Items []struct {
		ID               string   `json:"id"`
		Summary          string   `json:"summary"`
		Description      string   `json:"description"`
		Location         string   `json:"location"`
		Status           string   `json:"status"`
		HTMLLink         string   `json:"htmlLink"`
		HangoutLink      string   `json:"hangoutLink"`
		RecurringEventID string   `json:"recurringEventId"`
		Recurrence       []string `json:"recurrence"`
		ConferenceData   struct {
			EntryPoints []struct {
				EntryPointType string `json:"entryPointType"`
				URI            string `json:"uri"`
			} `json:"entryPoints"`
		} `json:"conferenceData"`
		Attendees []struct {
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
			Self        bool   `json:"self"`
		} `json:"attendees"`
		Start struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"end"`
	} `json:"items"`
}

// ListEvents returns events in [start, end) from one calendar, expanded to
// single instances in source order.
func (c *Client) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
	client, err := c.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("timeMin", start.UTC().Format(time.RFC3339))
	query.Set("timeMax", end.UTC().Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")
	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(calendarID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var payload eventsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	events := make([]domain.RawEvent, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Status == "cancelled" {
			continue
		}

		ev := domain.RawEvent{
			ID:             item.ID,
			Title:          item.Summary,
			Description:    item.Description,
			Location:       item.Location,
			HTMLLink:       item.HTMLLink,
			DirectVideoURL: item.HangoutLink,
			Recurring:      item.RecurringEventID != "" || len(item.Recurrence) > 0,
		}

		// Timed events carry dateTime, all-day events only a date.
		switch {
		case item.Start.DateTime != "" && item.End.DateTime != "":
			startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				continue
			}
			ev.Start = startTime
			ev.End = endTime
		case item.Start.Date != "" && item.End.Date != "":
			startTime, err := time.Parse("2006-01-02", item.Start.Date)
			if err != nil {
				continue
			}
			endTime, err := time.Parse("2006-01-02", item.End.Date)
			if err != nil {
				continue
			}
			ev.Start = startTime
			ev.End = endTime
			ev.AllDay = true
		default:
			continue
		}

		for _, ep := range item.ConferenceData.EntryPoints {
			ev.EntryPoints = append(ev.EntryPoints, domain.EntryPoint{
				Type: ep.EntryPointType,
				URI:  ep.URI,
			})
		}
		for _, att := range item.Attendees {
			ev.Attendees = append(ev.Attendees, domain.RawAttendee{
				Email: att.Email,
				Name:  att.DisplayName,
				Self:  att.Self,
			})
		}

		events = append(events, ev)
	}
	return events, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("calendar request failed: status=%d body=%s", resp.StatusCode, string(body))
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
