// Package application assembles the morning brief pipeline: calendar fetch,
// attendee enrichment, history annotation, summarization, and delivery.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	shareddomain "github.com/felixgeelhaar/morningbrief/internal/shared/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
)

// CalendarFetcher supplies the filtered meetings for a day and raw
// attendee history over a range.
type CalendarFetcher interface {
	FetchDay(ctx context.Context, date time.Time, loc *time.Location) ([]domain.MeetingEvent, error)
	FetchRange(ctx context.Context, start, end time.Time) ([]domain.MeetingEvent, error)
}

// AttendeeEnricher adds CRM context to a single attendee in place.
type AttendeeEnricher interface {
	Enrich(ctx context.Context, attendee *domain.AttendeeInfo)
}

// NewsSource adds recent press mentions to a single attendee in place. An
// unconfigured source must still set an empty article list rather than
// leaving the attendee untouched.
type NewsSource interface {
	EnrichAttendee(ctx context.Context, attendee *domain.AttendeeInfo)
}

// Summarizer turns an enriched day into brief content.
type Summarizer interface {
	GenerateBrief(ctx context.Context, date time.Time, events []domain.MeetingEvent) string
}

// EmailSender delivers a rendered brief.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// HTMLRenderer renders brief content plus the meeting snapshot into HTML.
type HTMLRenderer interface {
	RenderHTML(content string, events []domain.MeetingEvent) (string, error)
}

// publishEvents drains an aggregate's pending domain events onto the bus.
// Publish failures are logged, not returned: the aggregate is already
// persisted and a dropped event must not fail the command.
func publishEvents(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, events []shareddomain.DomainEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		payload, err := eventbus.EncodeEvent(event)
		if err != nil {
			logger.Error("failed to marshal domain event",
				slog.String("routing_key", event.RoutingKey()),
				slog.String("error", err.Error()))
			continue
		}
		if err := publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
			logger.Error("failed to publish domain event",
				slog.String("routing_key", event.RoutingKey()),
				slog.String("error", err.Error()))
		}
	}
}
