package eventbus

import (
	"encoding/json"
	"testing"

	shared "github.com/felixgeelhaar/morningbrief/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type briefOpened struct {
	shared.BaseEvent
	Date string `json:"date"`
}

func TestEncodeEventRoundTrip(t *testing.T) {
	aggregateID := uuid.New()
	event := briefOpened{
		BaseEvent: shared.NewBaseEvent(aggregateID, "brief", "briefing.brief.opened"),
		Date:      "2025-03-10",
	}

	body, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded := &ConsumedEvent{}
	require.NoError(t, json.Unmarshal(body, decoded))

	assert.Equal(t, event.EventID(), decoded.EventID)
	assert.Equal(t, aggregateID, decoded.AggregateID)
	assert.Equal(t, "brief", decoded.AggregateType)
	assert.Equal(t, "briefing.brief.opened", decoded.RoutingKey)
	assert.WithinDuration(t, event.OccurredAt(), decoded.OccurredAt, 0)

	var payload struct {
		Date string `json:"date"`
	}
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "2025-03-10", payload.Date)
}
