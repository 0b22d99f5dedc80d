package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/morningbrief/internal/shared/domain"
)

// EncodeEvent wraps a domain event in the wire envelope consumed by
// RabbitMQConsumer. The event's own exported fields become the payload.
func EncodeEvent(event domain.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	envelope := ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}
	return json.Marshal(envelope)
}
