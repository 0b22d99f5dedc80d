package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

type fakeAI struct {
	response string
	err      error
	calls    int
}

func (f *fakeAI) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func meeting(title string, attendees ...briefing.AttendeeInfo) briefing.MeetingEvent {
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	ev, _ := briefing.NewMeetingEvent("ev-"+title, title, start, start.Add(30*time.Minute), attendees)
	return ev
}

func TestGenerateBrief_EmptyDayNeverCallsAI(t *testing.T) {
	ai := &fakeAI{response: "should not be used"}
	svc := NewService(ai, nil)

	content := svc.GenerateBrief(context.Background(), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), nil)

	assert.Equal(t, "No meetings scheduled for March 09, 2026.", content)
	assert.Equal(t, 0, ai.calls)
}

func TestGenerateBrief_UsesAIResponse(t *testing.T) {
	ai := &fakeAI{response: "Your day at a glance."}
	svc := NewService(ai, nil)

	content := svc.GenerateBrief(context.Background(), time.Now(), []briefing.MeetingEvent{
		meeting("Kickoff", briefing.NewAttendee("carol@other.com", "Carol Ng")),
	})

	assert.Equal(t, "Your day at a glance.", content)
	assert.Equal(t, 1, ai.calls)
}

func TestGenerateBrief_FallsBackOnAIError(t *testing.T) {
	ai := &fakeAI{err: errors.New("model overloaded")}
	svc := NewService(ai, nil)

	content := svc.GenerateBrief(context.Background(), time.Now(), []briefing.MeetingEvent{
		meeting("Kickoff", briefing.NewAttendee("carol@other.com", "Carol Ng")),
	})

	assert.Contains(t, content, "Morning Brief - March 09, 2026")
	assert.Contains(t, content, "📅 9:00 AM–9:30 AM Kickoff — Carol")
}

func TestFallbackBrief_Deterministic(t *testing.T) {
	events := []briefing.MeetingEvent{
		meeting("Kickoff",
			briefing.NewAttendee("carol@other.com", "Carol Ng"),
			briefing.NewAttendee("dana@partner.io", "Dana O'Brien"),
		),
	}

	first := FallbackBrief(events)
	second := FallbackBrief(events)
	require.Equal(t, first, second)
}

func TestFallbackBrief_FiltersInternalAliases(t *testing.T) {
	events := []briefing.MeetingEvent{
		meeting("Review",
			briefing.NewAttendee("alice@ext.com", "Alice"),
			briefing.NewAttendee("internal.bot@acme.com", "Internal Bot"),
		),
	}

	content := FallbackBrief(events)
	assert.Contains(t, content, " — Alice")
	assert.NotContains(t, content, "Internal")
	assert.NotContains(t, content, "Bot")
}

func TestFallbackBrief_AttendeeOverflow(t *testing.T) {
	attendees := []briefing.AttendeeInfo{
		briefing.NewAttendee("a@x.com", "Ann"),
		briefing.NewAttendee("b@x.com", "Ben"),
		briefing.NewAttendee("c@x.com", "Cat"),
		briefing.NewAttendee("d@x.com", "Dev"),
		briefing.NewAttendee("e@x.com", "Eli"),
		briefing.NewAttendee("f@x.com", "Fay"),
		briefing.NewAttendee("g@x.com", "Gus"),
	}

	content := FallbackBrief([]briefing.MeetingEvent{meeting("All Hands", attendees...)})
	assert.Contains(t, content, "Ann, Ben, Cat, Dev, Eli +2")
}

func TestFallbackBrief_AboutPriority(t *testing.T) {
	t.Run("materials win", func(t *testing.T) {
		att := briefing.NewAttendee("carol@other.com", "Carol")
		att.Materials = []string{"https://docs.example/a", "https://docs.example/b", "https://docs.example/c"}
		att.LastNote = "a note"
		att.WebsiteURL = "https://other.com"

		content := FallbackBrief([]briefing.MeetingEvent{meeting("Sync", att)})
		assert.Contains(t, content, "About: Materials: https://docs.example/a • https://docs.example/b")
		assert.NotContains(t, content, "docs.example/c")
	})

	t.Run("note when no materials or description", func(t *testing.T) {
		att := briefing.NewAttendee("carol@other.com", "Carol")
		att.LastNote = "<p>Discussed the &amp; roadmap</p>"

		content := FallbackBrief([]briefing.MeetingEvent{meeting("Sync", att)})
		assert.Contains(t, content, "About: Discussed the & roadmap")
	})

	t.Run("website as last resort", func(t *testing.T) {
		att := briefing.NewAttendee("carol@other.com", "Carol")
		att.WebsiteURL = "https://other.com"

		content := FallbackBrief([]briefing.MeetingEvent{meeting("Sync", att)})
		assert.Contains(t, content, "About: Company site: https://other.com")
	})

	t.Run("long snippet truncated", func(t *testing.T) {
		ev := meeting("Sync", briefing.NewAttendee("carol@other.com", "Carol"))
		long := strings.Repeat("a", 200)
		ev.Description = long

		content := FallbackBrief([]briefing.MeetingEvent{ev})
		assert.Contains(t, content, "…")
		assert.NotContains(t, content, long)
	})
}

func TestIsInternalAlias(t *testing.T) {
	tests := []struct {
		name     string
		attName  string
		email    string
		internal bool
	}{
		{"name prefix", "Internal Sync Bot", "bot@acme.com", true},
		{"email local prefix", "Robo", "internal.bot@acme.com", true},
		{"regular attendee", "Alice", "alice@ext.com", false},
		{"internal substring elsewhere", "Winternal", "win@ext.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := briefing.NewAttendee(tt.email, tt.attName)
			assert.Equal(t, tt.internal, IsInternalAlias(a))
		})
	}
}
