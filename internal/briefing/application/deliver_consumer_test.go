package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCycle(t *testing.T, userID uuid.UUID, settings *memorySettingsRepo, sender *recordingSender) *GenerateAndSend {
	t.Helper()
	briefs := newMemoryBriefRepo()
	fetcher := &stubFetcher{day: []domain.MeetingEvent{
		meetingAt(t, "ev1", time.Now().Add(2*time.Hour), "carol@other.com"),
	}}
	generate := NewGenerateBriefHandler(fetcher, nil, nil, &stubSummarizer{content: "requested brief"}, briefs, nil, nil)
	send := NewSendBriefHandler(briefs, settings, nil, sender, nil, nil)
	return NewGenerateAndSend(generate, send, briefs, settings, nil)
}

func deliverEvent(t *testing.T, userID uuid.UUID) *eventbus.ConsumedEvent {
	t.Helper()
	body, err := eventbus.EncodeEvent(domain.NewDeliverRequested(userID))
	require.NoError(t, err)
	event := &eventbus.ConsumedEvent{}
	require.NoError(t, json.Unmarshal(body, event))
	return event
}

func TestDeliverRequestedConsumer(t *testing.T) {
	userID := uuid.New()

	t.Run("routes the delivery routing key", func(t *testing.T) {
		consumer := NewDeliverRequestedConsumer(nil, nil)
		assert.Equal(t, []string{"briefing.brief.deliver.requested"}, consumer.EventTypes())
	})

	t.Run("runs the cycle for the requested user", func(t *testing.T) {
		settings := newMemorySettingsRepo()
		seedSettings(t, settings, userID, true)
		sender := &recordingSender{}
		consumer := NewDeliverRequestedConsumer(newTestCycle(t, userID, settings, sender), nil)

		require.NoError(t, consumer.Handle(context.Background(), deliverEvent(t, userID)))
		assert.Equal(t, 1, sender.sends)
	})

	t.Run("drops malformed payloads without error", func(t *testing.T) {
		settings := newMemorySettingsRepo()
		sender := &recordingSender{}
		consumer := NewDeliverRequestedConsumer(newTestCycle(t, userID, settings, sender), nil)

		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: domain.DeliverRequestedRoutingKey,
			Payload:    json.RawMessage(`{"user_id": 42}`),
		}
		require.NoError(t, consumer.Handle(context.Background(), event))
		assert.Zero(t, sender.sends)
	})

	t.Run("drops requests without a user", func(t *testing.T) {
		settings := newMemorySettingsRepo()
		sender := &recordingSender{}
		consumer := NewDeliverRequestedConsumer(newTestCycle(t, userID, settings, sender), nil)

		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: domain.DeliverRequestedRoutingKey,
			Payload:    json.RawMessage(`{}`),
		}
		require.NoError(t, consumer.Handle(context.Background(), event))
		assert.Zero(t, sender.sends)
	})
}
