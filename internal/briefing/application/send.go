package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
)

// SendBriefCommand delivers the stored brief for one local date.
type SendBriefCommand struct {
	UserID uuid.UUID
	Date   string // YYYY-MM-DD
}

// SendBriefHandler renders a stored brief to HTML, emails it, and flips the
// sent flag.
type SendBriefHandler struct {
	briefs    domain.BriefRepository
	settings  domain.SettingsRepository
	renderer  HTMLRenderer
	sender    EmailSender
	publisher eventbus.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSendBriefHandler creates the handler. A nil logger falls back to
// slog.Default().
func NewSendBriefHandler(
	briefs domain.BriefRepository,
	settings domain.SettingsRepository,
	renderer HTMLRenderer,
	sender EmailSender,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *SendBriefHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendBriefHandler{
		briefs:    briefs,
		settings:  settings,
		renderer:  renderer,
		sender:    sender,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle sends the brief for the command's date. Sending an already-sent
// brief returns domain.ErrAlreadySent without a second delivery.
func (h *SendBriefHandler) Handle(ctx context.Context, cmd SendBriefCommand) error {
	brief, err := h.briefs.FindByDate(ctx, cmd.UserID, cmd.Date)
	if err != nil {
		return err
	}
	if brief.Sent() {
		return domain.ErrAlreadySent
	}

	settings, err := h.settings.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", brief.Date())
	if err != nil {
		return fmt.Errorf("invalid brief date %q: %w", brief.Date(), err)
	}
	subject := "Morning Brief - " + date.Format("January 02, 2006")

	htmlBody := ""
	if h.renderer != nil {
		htmlBody, err = h.renderer.RenderHTML(brief.Content(), brief.Events())
		if err != nil {
			h.logger.Warn("html rendering failed, sending plain text only",
				slog.String("error", err.Error()))
			htmlBody = ""
		}
	}

	if err := h.sender.Send(ctx, settings.Email, subject, brief.Content(), htmlBody); err != nil {
		return fmt.Errorf("failed to send brief: %w", err)
	}

	if err := brief.MarkSent(h.now()); err != nil {
		return err
	}
	if err := h.briefs.Save(ctx, brief); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, brief.DomainEvents())
	brief.ClearDomainEvents()

	h.logger.Info("brief sent",
		slog.String("user_id", cmd.UserID.String()),
		slog.String("date", cmd.Date),
		slog.String("to", settings.Email))
	return nil
}

// GenerateAndSend is the delivery worker's cycle: generate today's brief,
// then email it. Infrastructure failures log and skip the cycle; the next
// trigger retries from scratch.
type GenerateAndSend struct {
	generate *GenerateBriefHandler
	send     *SendBriefHandler
	briefs   domain.BriefRepository
	settings domain.SettingsRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewGenerateAndSend creates the worker cycle.
func NewGenerateAndSend(
	generate *GenerateBriefHandler,
	send *SendBriefHandler,
	briefs domain.BriefRepository,
	settings domain.SettingsRepository,
	logger *slog.Logger,
) *GenerateAndSend {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateAndSend{
		generate: generate,
		send:     send,
		briefs:   briefs,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one cycle for the user. Inactive settings skip silently; a
// brief already generated and sent today is left alone rather than
// regenerated, so duplicate triggers do not double-deliver.
func (c *GenerateAndSend) Run(ctx context.Context, userID uuid.UUID) error {
	settings, err := c.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			c.logger.Warn("no delivery settings, skipping cycle",
				slog.String("user_id", userID.String()))
			return nil
		}
		return err
	}
	if !settings.Active {
		c.logger.Debug("delivery inactive, skipping cycle",
			slog.String("user_id", userID.String()))
		return nil
	}

	loc := settings.Location()
	today := c.now().In(loc).Format("2006-01-02")
	if existing, err := c.briefs.FindByDate(ctx, userID, today); err == nil && existing.Sent() {
		c.logger.Info("brief already sent today",
			slog.String("user_id", userID.String()),
			slog.String("date", today))
		return nil
	}

	brief, err := c.generate.Handle(ctx, GenerateBriefCommand{
		UserID:   userID,
		Date:     c.now(),
		Location: loc,
	})
	if err != nil {
		c.logger.Error("brief generation failed, skipping cycle",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return err
	}

	err = c.send.Handle(ctx, SendBriefCommand{UserID: userID, Date: brief.Date()})
	if errors.Is(err, domain.ErrAlreadySent) {
		return nil
	}
	return err
}
