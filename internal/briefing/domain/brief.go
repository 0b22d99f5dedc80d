package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	shared "github.com/felixgeelhaar/morningbrief/internal/shared/domain"
)

var (
	// ErrEmptyContent is returned when a brief would be created with no body.
	ErrEmptyContent = errors.New("brief content cannot be empty")
	// ErrAlreadySent is returned when a sent brief is marked sent again.
	ErrAlreadySent = errors.New("brief has already been sent")
)

// Brief is the aggregate root for one generated morning brief: the rendered
// content plus the meeting snapshot it was built from, keyed by local date.
type Brief struct {
	shared.BaseAggregateRoot

	userID  uuid.UUID
	date    string // YYYY-MM-DD in the user's timezone
	content string
	events  []MeetingEvent
	sent    bool
	sentAt  *time.Time
}

// NewBrief creates a brief for the given local date and records a
// BriefGenerated event.
func NewBrief(userID uuid.UUID, date string, content string, events []MeetingEvent) (*Brief, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, errors.New("brief date must be YYYY-MM-DD")
	}

	b := &Brief{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		userID:            userID,
		date:              date,
		content:           content,
		events:            events,
	}
	b.AddDomainEvent(NewBriefGenerated(b.ID(), userID, date, len(events)))
	return b, nil
}

// RehydrateBrief reconstructs a brief from persistence without emitting events.
func RehydrateBrief(
	id, userID uuid.UUID,
	date, content string,
	events []MeetingEvent,
	sent bool,
	sentAt *time.Time,
	createdAt, updatedAt time.Time,
) *Brief {
	return &Brief{
		BaseAggregateRoot: shared.RehydrateBaseAggregateRoot(shared.RehydrateBaseEntity(id, createdAt, updatedAt)),
		userID:            userID,
		date:              date,
		content:           content,
		events:            events,
		sent:              sent,
		sentAt:            sentAt,
	}
}

// MarkSent records delivery. Marking an already-sent brief is an error so
// duplicate delivery attempts surface instead of silently rewriting sentAt.
func (b *Brief) MarkSent(at time.Time) error {
	if b.sent {
		return ErrAlreadySent
	}
	b.sent = true
	t := at.UTC()
	b.sentAt = &t
	b.Touch()
	b.AddDomainEvent(NewBriefSent(b.ID(), b.userID, b.date))
	return nil
}

func (b *Brief) UserID() uuid.UUID      { return b.userID }
func (b *Brief) Date() string           { return b.date }
func (b *Brief) Content() string        { return b.content }
func (b *Brief) Events() []MeetingEvent { return b.events }
func (b *Brief) Sent() bool             { return b.sent }
func (b *Brief) SentAt() *time.Time     { return b.sentAt }
func (b *Brief) MeetingCount() int      { return len(b.events) }
