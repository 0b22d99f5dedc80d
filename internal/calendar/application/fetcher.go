// Package application turns raw provider events into filtered briefing
// meeting events.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
)

// FetcherConfig configures the fetcher.
type FetcherConfig struct {
	// CalendarIDs are the calendar identities to query. A provider alias
	// such as "primary" resolves its identity through OwnerEmail.
	CalendarIDs []string
	// OwnerEmail is the calendar owner's address, used for calendar IDs
	// that are not themselves email addresses.
	OwnerEmail string
	Filters    FilterConfig
	// TimeWindowHours, when positive and the target date is today, clips
	// the query range to [now, now+window].
	TimeWindowHours int
}

// Fetcher retrieves and filters a day's meetings from one or more calendars.
type Fetcher struct {
	source domain.Source
	cfg    FetcherConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewFetcher creates a fetcher. A nil logger falls back to slog.Default().
func NewFetcher(source domain.Source, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.CalendarIDs) == 0 {
		cfg.CalendarIDs = []string{"primary"}
	}
	return &Fetcher{source: source, cfg: cfg, logger: logger, now: time.Now}
}

// identity resolves the owner identity for a calendar ID.
func (f *Fetcher) identity(calendarID string) string {
	if strings.Contains(calendarID, "@") {
		return briefing.NormalizeEmail(calendarID)
	}
	return briefing.NormalizeEmail(f.cfg.OwnerEmail)
}

// FetchDay returns the filtered meetings for one local date. Each calendar
// is queried inside its own failure boundary: a failing calendar logs and
// contributes nothing, and the results keep the per-calendar source order
// without re-sorting across calendars. When every calendar fails the
// outage propagates as an error instead of an empty day.
func (f *Fetcher) FetchDay(ctx context.Context, date time.Time, loc *time.Location) ([]briefing.MeetingEvent, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	if f.cfg.TimeWindowHours > 0 {
		now := f.now().In(loc)
		if sameDay(now, start) {
			start = now
			end = now.Add(time.Duration(f.cfg.TimeWindowHours) * time.Hour)
		}
	}

	var out []briefing.MeetingEvent
	var errs []error
	for _, calID := range f.cfg.CalendarIDs {
		raw, err := f.source.ListEvents(ctx, calID, start, end)
		if err != nil {
			f.logger.Error("calendar fetch failed, skipping calendar",
				slog.String("calendar_id", calID),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("calendar %s: %w", calID, err))
			continue
		}
		out = append(out, f.filter(calID, raw)...)
	}
	if len(errs) == len(f.cfg.CalendarIDs) {
		return nil, fmt.Errorf("all calendars failed: %w", errors.Join(errs...))
	}
	return out, nil
}

// FetchRange returns events in an arbitrary range with only the attendee
// presence filter applied, for relationship history queries.
func (f *Fetcher) FetchRange(ctx context.Context, start, end time.Time) ([]briefing.MeetingEvent, error) {
	var out []briefing.MeetingEvent
	for _, calID := range f.cfg.CalendarIDs {
		raw, err := f.source.ListEvents(ctx, calID, start, end)
		if err != nil {
			f.logger.Error("calendar history fetch failed, skipping calendar",
				slog.String("calendar_id", calID),
				slog.String("error", err.Error()))
			continue
		}
		for _, ev := range raw {
			attendees := convertAttendees(ev.Attendees, f.identity(calID), false)
			if len(attendees) == 0 {
				continue
			}
			me, err := briefing.NewMeetingEvent(ev.ID, ev.Title, ev.Start, ev.End, attendees)
			if err != nil {
				continue
			}
			out = append(out, me)
		}
	}
	return out, nil
}

// filter applies the filter chain to one calendar's events.
func (f *Fetcher) filter(calendarID string, raw []domain.RawEvent) []briefing.MeetingEvent {
	identity := f.identity(calendarID)
	ownerDomain := briefing.EmailDomain(identity)
	fc := f.cfg.Filters

	out := make([]briefing.MeetingEvent, 0, len(raw))
	for _, ev := range raw {
		if fc.ExcludeRecurring && isRecurring(ev) {
			continue
		}
		if len(ev.Attendees) == 0 {
			continue
		}
		attendees := convertAttendees(ev.Attendees, identity, fc.RequireNonOwner)
		if fc.ExternalOnly {
			attendees = filterExternal(attendees, ownerDomain, fc.InternalDomains)
		}
		if len(attendees) == 0 {
			continue
		}

		me, err := briefing.NewMeetingEvent(ev.ID, ev.Title, ev.Start, ev.End, attendees)
		if err != nil {
			f.logger.Warn("dropping malformed event",
				slog.String("event_id", ev.ID),
				slog.String("error", err.Error()))
			continue
		}
		me.Description = ev.Description
		me.Location = ev.Location
		me.MeetingURL = MeetingURL(ev)
		me.CalendarURL = ev.HTMLLink
		out = append(out, me)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
