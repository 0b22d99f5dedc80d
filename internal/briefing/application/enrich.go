package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// DefaultEnrichConcurrency bounds parallel CRM and news lookups per brief.
const DefaultEnrichConcurrency = 4

// EnrichPool runs attendee enrichment across a day's meetings with a
// bounded number of workers. Each attendee is enriched inside its own
// failure boundary, so one bad lookup never poisons the rest of the brief.
type EnrichPool struct {
	crm         AttendeeEnricher
	news        NewsSource
	concurrency int
	logger      *slog.Logger
}

// NewEnrichPool creates an enrichment pool. A zero or negative concurrency
// falls back to DefaultEnrichConcurrency; a nil logger to slog.Default().
func NewEnrichPool(crm AttendeeEnricher, news NewsSource, concurrency int, logger *slog.Logger) *EnrichPool {
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichPool{crm: crm, news: news, concurrency: concurrency, logger: logger}
}

// EnrichAll enriches every attendee of every event in place. It returns
// once all workers have finished; a cancelled context stops scheduling new
// attendees but waits for in-flight ones.
func (p *EnrichPool) EnrichAll(ctx context.Context, events []domain.MeetingEvent) {
	var attendees []*domain.AttendeeInfo
	for i := range events {
		for j := range events[i].Attendees {
			attendees = append(attendees, &events[i].Attendees[j])
		}
	}
	if len(attendees) == 0 {
		return
	}

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for _, attendee := range attendees {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(a *domain.AttendeeInfo) {
			defer wg.Done()
			defer func() { <-sem }()
			p.enrichOne(ctx, a)
		}(attendee)
	}
	wg.Wait()
}

func (p *EnrichPool) enrichOne(ctx context.Context, attendee *domain.AttendeeInfo) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("attendee enrichment panicked",
				slog.String("email", attendee.Email),
				slog.Any("panic", r))
		}
	}()

	if p.crm != nil {
		p.crm.Enrich(ctx, attendee)
	}
	if p.news != nil {
		p.news.EnrichAttendee(ctx, attendee)
	}
	// Every attendee carries a news list, even without a configured source.
	if attendee.NewsArticles == nil {
		attendee.NewsArticles = []domain.NewsArticle{}
	}
}
