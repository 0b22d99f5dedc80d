// Package caldav implements the calendar source against a CalDAV server
// (Apple Calendar, Fastmail, Nextcloud, etc.).
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// Client reads events from a CalDAV calendar.
type Client struct {
	baseURL  string
	username string
	password string // App-specific password for Apple
	logger   *slog.Logger
}

// NewClient creates a CalDAV calendar client.
func NewClient(baseURL, username, password string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// ListEvents returns events in [start, end) from one calendar. The
// calendarID is a calendar path; "primary" or "" selects the server's
// first calendar.
func (c *Client) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, err
	}

	calPath, err := c.resolveCalendarPath(ctx, client, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{
				{
					Name: "VEVENT",
					Props: []string{
						"SUMMARY", "DTSTART", "DTEND", "UID", "DESCRIPTION",
						"LOCATION", "STATUS", "ORGANIZER", "ATTENDEE", "RRULE", "URL",
					},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: start,
					End:   end,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]domain.RawEvent, 0, len(objects))
	for _, obj := range objects {
		ev := parseCalendarObject(&obj)
		if ev == nil {
			continue
		}
		events = append(events, *ev)
	}
	return events, nil
}

func (c *Client) getClient() (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, c.username, c.password), c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (c *Client) resolveCalendarPath(ctx context.Context, client *caldav.Client, calendarID string) (string, error) {
	if calendarID != "" && calendarID != "primary" {
		return calendarID, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	// First calendar is usually the default
	return cals[0].Path, nil
}

func parseCalendarObject(obj *caldav.CalendarObject) *domain.RawEvent {
	if obj == nil || obj.Data == nil {
		return nil
	}

	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}

		ev := &domain.RawEvent{ID: obj.Path}

		if props := child.Props[ical.PropUID]; len(props) > 0 && props[0].Value != "" {
			ev.ID = props[0].Value
		}
		if props := child.Props[ical.PropSummary]; len(props) > 0 {
			ev.Title = props[0].Value
		}
		if props := child.Props[ical.PropDescription]; len(props) > 0 {
			ev.Description = props[0].Value
		}
		if props := child.Props[ical.PropLocation]; len(props) > 0 {
			ev.Location = props[0].Value
		}
		if props := child.Props[ical.PropStatus]; len(props) > 0 &&
			strings.EqualFold(props[0].Value, "CANCELLED") {
			return nil
		}
		if props := child.Props[ical.PropURL]; len(props) > 0 {
			ev.DirectVideoURL = props[0].Value
		}

		// An RRULE marks the whole series as recurring.
		if props := child.Props[ical.PropRecurrenceRule]; len(props) > 0 {
			ev.Recurring = true
		}

		for _, prop := range child.Props[ical.PropAttendee] {
			email := strings.TrimPrefix(strings.ToLower(prop.Value), "mailto:")
			if email == "" {
				continue
			}
			ev.Attendees = append(ev.Attendees, domain.RawAttendee{
				Email: email,
				Name:  prop.Params.Get(ical.ParamCommonName),
			})
		}

		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(time.UTC)
		if err != nil {
			return nil
		}
		end, err := icalEvent.DateTimeEnd(time.UTC)
		if err != nil {
			return nil
		}
		ev.Start = start
		ev.End = end

		// Date-valued DTSTART/DTEND both land on midnight.
		if start.Hour() == 0 && start.Minute() == 0 &&
			end.Hour() == 0 && end.Minute() == 0 {
			ev.AllDay = true
		}

		return ev
	}
	return nil
}
