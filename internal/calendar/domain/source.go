// Package domain defines the provider-neutral calendar source contract.
package domain

import (
	"context"
	"time"
)

// EntryPointVideo and EntryPointMore are the structured conference entry
// point types that carry a joinable URL.
const (
	EntryPointVideo = "video"
	EntryPointMore  = "more"
)

// RawAttendee is a participant as reported by the calendar provider.
type RawAttendee struct {
	Email string
	Name  string
	// Self marks the calendar owner's own entry in the attendee list.
	Self bool
}

// EntryPoint is a structured conferencing entry point attached to an event.
type EntryPoint struct {
	Type string
	URI  string
}

// RawEvent is one calendar event before filtering and enrichment.
type RawEvent struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Attendees   []RawAttendee
	Description string
	Location    string
	// Recurring is set when the event carries a recurrence or series marker.
	Recurring bool
	// DirectVideoURL is the provider's first-class video link, when present.
	DirectVideoURL string
	EntryPoints    []EntryPoint
	// HTMLLink is the provider's canonical permalink for the event.
	HTMLLink string
}

// Source lists events from one calendar backend.
type Source interface {
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]RawEvent, error)
}
