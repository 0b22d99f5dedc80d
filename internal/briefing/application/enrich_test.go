package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

type funcEnricher struct {
	fn func(attendee *domain.AttendeeInfo)
}

func (e *funcEnricher) Enrich(_ context.Context, attendee *domain.AttendeeInfo) {
	e.fn(attendee)
}

type stubNews struct {
	enabled bool
	mu      sync.Mutex
	emails  []string
}

func (n *stubNews) EnrichAttendee(_ context.Context, attendee *domain.AttendeeInfo) {
	if !n.enabled {
		attendee.NewsArticles = []domain.NewsArticle{}
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, attendee.Email)
	attendee.NewsArticles = []domain.NewsArticle{{Title: "news for " + attendee.Email}}
}

func TestEnrichPool_EnrichesInPlace(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []domain.MeetingEvent{
		meetingAt(t, "ev1", start, "carol@other.com", "dana@partner.io"),
		meetingAt(t, "ev2", start.Add(time.Hour), "erin@acme.com"),
	}

	crm := &funcEnricher{fn: func(a *domain.AttendeeInfo) { a.Company = "enriched" }}
	news := &stubNews{enabled: true}
	pool := NewEnrichPool(crm, news, 2, nil)
	pool.EnrichAll(context.Background(), events)

	for _, ev := range events {
		for _, a := range ev.Attendees {
			assert.Equal(t, "enriched", a.Company, a.Email)
			assert.Len(t, a.NewsArticles, 1, a.Email)
		}
	}
	assert.Len(t, news.emails, 3)
}

func TestEnrichPool_DisabledNewsYieldsEmptyList(t *testing.T) {
	events := []domain.MeetingEvent{
		meetingAt(t, "ev1", time.Now(), "carol@other.com"),
	}
	news := &stubNews{enabled: false}
	pool := NewEnrichPool(&funcEnricher{fn: func(*domain.AttendeeInfo) {}}, news, 1, nil)
	pool.EnrichAll(context.Background(), events)

	assert.Empty(t, news.emails)
	assert.NotNil(t, events[0].Attendees[0].NewsArticles)
	assert.Empty(t, events[0].Attendees[0].NewsArticles)
}

func TestEnrichPool_NilNewsYieldsEmptyList(t *testing.T) {
	events := []domain.MeetingEvent{
		meetingAt(t, "ev1", time.Now(), "carol@other.com"),
	}
	pool := NewEnrichPool(&funcEnricher{fn: func(*domain.AttendeeInfo) {}}, nil, 1, nil)
	pool.EnrichAll(context.Background(), events)

	assert.NotNil(t, events[0].Attendees[0].NewsArticles)
	assert.Empty(t, events[0].Attendees[0].NewsArticles)
}

func TestEnrichPool_PanicIsolation(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []domain.MeetingEvent{
		meetingAt(t, "ev1", start, "bad@other.com", "good@partner.io"),
	}

	crm := &funcEnricher{fn: func(a *domain.AttendeeInfo) {
		if a.Email == "bad@other.com" {
			panic("lookup exploded")
		}
		a.Company = "enriched"
	}}
	pool := NewEnrichPool(crm, nil, 1, nil)
	pool.EnrichAll(context.Background(), events)

	assert.Empty(t, events[0].Attendees[0].Company)
	assert.Equal(t, "enriched", events[0].Attendees[1].Company)
}

func TestEnrichPool_BoundsConcurrency(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var emails []string
	for i := 0; i < 12; i++ {
		emails = append(emails, string(rune('a'+i))+"@other.com")
	}
	events := []domain.MeetingEvent{meetingAt(t, "ev1", start, emails...)}

	var inFlight, peak int64
	crm := &funcEnricher{fn: func(*domain.AttendeeInfo) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
	}}

	pool := NewEnrichPool(crm, nil, 3, nil)
	pool.EnrichAll(context.Background(), events)

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(0))
}
