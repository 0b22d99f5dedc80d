package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBrief(t *testing.T) {
	userID := uuid.New()
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	ev, err := NewMeetingEvent("ev-1", "Kickoff", start, start.Add(30*time.Minute), nil)
	require.NoError(t, err)

	t.Run("creates brief and records generated event", func(t *testing.T) {
		brief, err := NewBrief(userID, "2026-03-09", "Good morning", []MeetingEvent{ev})
		require.NoError(t, err)

		assert.Equal(t, userID, brief.UserID())
		assert.Equal(t, "2026-03-09", brief.Date())
		assert.Equal(t, 1, brief.MeetingCount())
		assert.False(t, brief.Sent())
		assert.Nil(t, brief.SentAt())

		events := brief.DomainEvents()
		require.Len(t, events, 1)
		generated, ok := events[0].(*BriefGenerated)
		require.True(t, ok)
		assert.Equal(t, brief.ID(), generated.AggregateID())
		assert.Equal(t, "briefing.brief.generated", generated.RoutingKey())
		assert.Equal(t, 1, generated.MeetingCount)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := NewBrief(userID, "2026-03-09", "", nil)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		_, err := NewBrief(userID, "03/09/2026", "Good morning", nil)
		assert.Error(t, err)
	})
}

func TestBrief_MarkSent(t *testing.T) {
	brief, err := NewBrief(uuid.New(), "2026-03-09", "Good morning", nil)
	require.NoError(t, err)
	brief.ClearDomainEvents()

	sentAt := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	require.NoError(t, brief.MarkSent(sentAt))

	assert.True(t, brief.Sent())
	require.NotNil(t, brief.SentAt())
	assert.Equal(t, sentAt, *brief.SentAt())

	events := brief.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "briefing.brief.sent", events[0].RoutingKey())

	assert.ErrorIs(t, brief.MarkSent(sentAt.Add(time.Minute)), ErrAlreadySent)
}

func TestRehydrateBrief(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	sentAt := time.Date(2026, 3, 8, 8, 0, 0, 0, time.UTC)
	created := sentAt.Add(-time.Hour)

	brief := RehydrateBrief(id, userID, "2026-03-08", "content", nil, true, &sentAt, created, sentAt)

	assert.Equal(t, id, brief.ID())
	assert.True(t, brief.Sent())
	assert.Empty(t, brief.DomainEvents())
}

func TestNewMeetingEvent(t *testing.T) {
	start := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	t.Run("derives duration", func(t *testing.T) {
		ev, err := NewMeetingEvent("ev-1", "Sync", start, start.Add(45*time.Minute), nil)
		require.NoError(t, err)
		assert.Equal(t, 45, ev.DurationMinutes)
	})

	t.Run("defaults empty title", func(t *testing.T) {
		ev, err := NewMeetingEvent("ev-1", "", start, start, nil)
		require.NoError(t, err)
		assert.Equal(t, "Untitled Meeting", ev.Title)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NewMeetingEvent("ev-1", "Sync", start, start.Add(-time.Minute), nil)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := NewMeetingEvent("", "Sync", start, start, nil)
		assert.ErrorIs(t, err, ErrEmptyEventID)
	})
}

func TestNewAttendee(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		attName   string
		wantEmail string
		wantName  string
	}{
		{"normalizes email", " Alice@Example.COM ", "Alice Chen", "alice@example.com", "Alice Chen"},
		{"falls back to local part", "bob@acme.io", "", "bob@acme.io", "bob"},
		{"no domain keeps full string", "roomresource", "", "roomresource", "roomresource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAttendee(tt.email, tt.attName)
			assert.Equal(t, tt.wantEmail, a.Email)
			assert.Equal(t, tt.wantName, a.Name)
		})
	}
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "example.com", EmailDomain("alice@Example.com"))
	assert.Equal(t, "", EmailDomain("no-at-sign"))
	assert.Equal(t, "", EmailDomain("trailing@"))
}

func TestNewDeliverySettings(t *testing.T) {
	userID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		s, err := NewDeliverySettings(userID, "08:00", "America/New_York", "me@example.com")
		require.NoError(t, err)
		assert.True(t, s.Active)
		assert.Equal(t, "America/New_York", s.Location().String())
	})

	t.Run("bad time", func(t *testing.T) {
		_, err := NewDeliverySettings(userID, "8am", "UTC", "me@example.com")
		assert.ErrorIs(t, err, ErrInvalidDeliveryTime)
	})

	t.Run("bad timezone", func(t *testing.T) {
		_, err := NewDeliverySettings(userID, "08:00", "Mars/Olympus", "me@example.com")
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})
}
