package domain

import (
	"github.com/google/uuid"

	shared "github.com/felixgeelhaar/morningbrief/internal/shared/domain"
)

const briefAggregateType = "brief"

// BriefGenerated is emitted when a new brief has been assembled.
type BriefGenerated struct {
	shared.BaseEvent
	UserID       uuid.UUID `json:"user_id"`
	Date         string    `json:"date"`
	MeetingCount int       `json:"meeting_count"`
}

// NewBriefGenerated creates a BriefGenerated event.
func NewBriefGenerated(briefID, userID uuid.UUID, date string, meetingCount int) *BriefGenerated {
	return &BriefGenerated{
		BaseEvent:    shared.NewBaseEvent(briefID, briefAggregateType, "briefing.brief.generated"),
		UserID:       userID,
		Date:         date,
		MeetingCount: meetingCount,
	}
}

// DeliverRequestedRoutingKey triggers a generate-and-send cycle for a user
// when consumed by the delivery worker.
const DeliverRequestedRoutingKey = "briefing.brief.deliver.requested"

// DeliverRequested asks the delivery worker to run a brief cycle for a user.
type DeliverRequested struct {
	shared.BaseEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewDeliverRequested creates a DeliverRequested event.
func NewDeliverRequested(userID uuid.UUID) *DeliverRequested {
	return &DeliverRequested{
		BaseEvent: shared.NewBaseEvent(userID, briefAggregateType, DeliverRequestedRoutingKey),
		UserID:    userID,
	}
}

// BriefSent is emitted after a brief was delivered.
type BriefSent struct {
	shared.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Date   string    `json:"date"`
}

// NewBriefSent creates a BriefSent event.
func NewBriefSent(briefID, userID uuid.UUID, date string) *BriefSent {
	return &BriefSent{
		BaseEvent: shared.NewBaseEvent(briefID, briefAggregateType, "briefing.brief.sent"),
		UserID:    userID,
		Date:      date,
	}
}
