package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// DeliverRequestedConsumer runs a brief cycle when a delivery request
// arrives on the bus.
type DeliverRequestedConsumer struct {
	cycle  *GenerateAndSend
	logger *slog.Logger
}

// NewDeliverRequestedConsumer creates the consumer.
func NewDeliverRequestedConsumer(cycle *GenerateAndSend, logger *slog.Logger) *DeliverRequestedConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliverRequestedConsumer{cycle: cycle, logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (c *DeliverRequestedConsumer) EventTypes() []string {
	return []string{domain.DeliverRequestedRoutingKey}
}

// Handle implements eventbus.EventConsumer. A malformed payload is dropped
// rather than requeued; cycle failures are returned for redelivery.
func (c *DeliverRequestedConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Error("malformed delivery request",
			slog.String("event_id", event.EventID.String()),
			slog.Any("error", err))
		return nil
	}
	if payload.UserID == uuid.Nil {
		c.logger.Error("delivery request without user",
			slog.String("event_id", event.EventID.String()))
		return nil
	}

	if err := c.cycle.Run(ctx, payload.UserID); err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	return nil
}
