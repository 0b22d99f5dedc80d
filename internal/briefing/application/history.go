package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// DefaultHistoryLookbackDays is the window scanned for prior meetings with
// today's attendees.
const DefaultHistoryLookbackDays = 120

// HistoryAnnotator marks each attendee with how often and how recently they
// appeared in past meetings. One range query covers all attendees.
type HistoryAnnotator struct {
	fetcher      CalendarFetcher
	lookbackDays int
	logger       *slog.Logger
	now          func() time.Time
}

// NewHistoryAnnotator creates an annotator. A zero or negative lookback
// falls back to DefaultHistoryLookbackDays.
func NewHistoryAnnotator(fetcher CalendarFetcher, lookbackDays int, logger *slog.Logger) *HistoryAnnotator {
	if lookbackDays <= 0 {
		lookbackDays = DefaultHistoryLookbackDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryAnnotator{fetcher: fetcher, lookbackDays: lookbackDays, logger: logger, now: time.Now}
}

// Annotate writes meeting counts and last-meeting dates onto every attendee
// of today's events. A failed history fetch logs and leaves the annotations
// zeroed; the brief still generates.
func (h *HistoryAnnotator) Annotate(ctx context.Context, events []domain.MeetingEvent) {
	emails := make(map[string]struct{})
	for i := range events {
		for j := range events[i].Attendees {
			if email := events[i].Attendees[j].Email; email != "" {
				emails[email] = struct{}{}
			}
		}
	}
	if len(emails) == 0 {
		return
	}

	now := h.now()
	start := now.AddDate(0, 0, -h.lookbackDays)
	past, err := h.fetcher.FetchRange(ctx, start, now)
	if err != nil {
		h.logger.Error("history fetch failed, skipping annotation",
			slog.String("error", err.Error()))
		return
	}

	counts := make(map[string]int, len(emails))
	lastSeen := make(map[string]time.Time, len(emails))
	for i := range past {
		for j := range past[i].Attendees {
			email := past[i].Attendees[j].Email
			if _, wanted := emails[email]; !wanted {
				continue
			}
			counts[email]++
			if past[i].StartTime.After(lastSeen[email]) {
				lastSeen[email] = past[i].StartTime
			}
		}
	}

	for i := range events {
		for j := range events[i].Attendees {
			attendee := &events[i].Attendees[j]
			attendee.MeetingsInWindow = counts[attendee.Email]
			if last, ok := lastSeen[attendee.Email]; ok {
				t := last
				attendee.LastMeetingDate = &t
			}
		}
	}
}
