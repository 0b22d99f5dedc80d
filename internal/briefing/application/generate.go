package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
)

// GenerateBriefCommand asks for a brief covering one local date.
type GenerateBriefCommand struct {
	UserID uuid.UUID
	Date   time.Time
	// Location is the user's timezone for day boundaries. Nil means UTC.
	Location *time.Location
}

// GenerateBriefHandler runs the full generation pipeline: calendar fetch,
// bounded attendee enrichment, history annotation, summarization, and
// persistence. A brief is produced even when every enrichment source fails;
// only a calendar outage aborts.
type GenerateBriefHandler struct {
	fetcher    CalendarFetcher
	pool       *EnrichPool
	history    *HistoryAnnotator
	summarizer Summarizer
	briefs     domain.BriefRepository
	publisher  eventbus.Publisher
	logger     *slog.Logger
}

// NewGenerateBriefHandler creates the handler. History and the enrichment
// pool are optional; a nil logger falls back to slog.Default().
func NewGenerateBriefHandler(
	fetcher CalendarFetcher,
	pool *EnrichPool,
	history *HistoryAnnotator,
	summarizer Summarizer,
	briefs domain.BriefRepository,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *GenerateBriefHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateBriefHandler{
		fetcher:    fetcher,
		pool:       pool,
		history:    history,
		summarizer: summarizer,
		briefs:     briefs,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle generates and stores the brief for the command's date. An existing
// brief for the same user and date is replaced.
func (h *GenerateBriefHandler) Handle(ctx context.Context, cmd GenerateBriefCommand) (*domain.Brief, error) {
	loc := cmd.Location
	if loc == nil {
		loc = time.UTC
	}
	localDate := cmd.Date.In(loc)

	events, err := h.fetcher.FetchDay(ctx, localDate, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}

	if h.pool != nil {
		h.pool.EnrichAll(ctx, events)
	}
	if h.history != nil {
		h.history.Annotate(ctx, events)
	}

	content := h.summarizer.GenerateBrief(ctx, localDate, events)

	brief, err := domain.NewBrief(cmd.UserID, localDate.Format("2006-01-02"), content, events)
	if err != nil {
		return nil, err
	}
	if err := h.briefs.Save(ctx, brief); err != nil {
		return nil, fmt.Errorf("failed to save brief: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, brief.DomainEvents())
	brief.ClearDomainEvents()

	h.logger.Info("brief generated",
		slog.String("user_id", cmd.UserID.String()),
		slog.String("date", brief.Date()),
		slog.Int("meetings", brief.MeetingCount()))
	return brief, nil
}
