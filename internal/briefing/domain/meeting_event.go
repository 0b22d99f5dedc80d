// Package domain holds the briefing aggregate and the meeting snapshot types
// that flow through the enrichment pipeline.
package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeRange is returned when an event ends before it starts.
	ErrInvalidTimeRange = errors.New("event end time precedes start time")
	// ErrEmptyEventID is returned when an event has no source identifier.
	ErrEmptyEventID = errors.New("event id cannot be empty")
)

// NewsArticle is a single news item attached to an attendee.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
	Source      string `json:"source,omitempty"`
}

// AttendeeInfo describes a meeting participant. Identity is the lowercase
// email; enrichment stages progressively fill the optional fields.
type AttendeeInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`

	// CRM enrichment
	Company       string   `json:"company,omitempty"`
	Title         string   `json:"title,omitempty"`
	LinkedInURL   string   `json:"linkedin_url,omitempty"`
	CompanyDomain string   `json:"company_domain,omitempty"`
	WebsiteURL    string   `json:"website_url,omitempty"`
	RecentNotes   []string `json:"recent_notes,omitempty"`
	LastNote      string   `json:"last_note,omitempty"`
	LastNoteDate  string   `json:"last_note_date,omitempty"`
	Materials     []string `json:"materials,omitempty"`

	// News enrichment. Kept non-nil (possibly empty) once the news stage ran.
	NewsArticles []NewsArticle `json:"news_articles,omitempty"`

	// Relationship history
	LastMeetingDate  *time.Time `json:"last_meeting_date,omitempty"`
	MeetingsInWindow int        `json:"meetings_past_n_days,omitempty"`
}

// NewAttendee creates an attendee with a normalized email. When name is
// empty the local part of the email is used, matching calendar sources that
// omit display names.
func NewAttendee(email, name string) AttendeeInfo {
	email = NormalizeEmail(email)
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = email
		}
	}
	return AttendeeInfo{Email: email, Name: name}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the domain part of an email, lowercased, or "" when
// the address has no domain.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// Domain returns the attendee's email domain.
func (a AttendeeInfo) Domain() string {
	return EmailDomain(a.Email)
}

// MeetingEvent is one calendar meeting after filtering, carrying its
// enriched attendees. Serialized as part of the brief snapshot.
type MeetingEvent struct {
	EventID         string         `json:"event_id"`
	Title           string         `json:"title"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Attendees       []AttendeeInfo `json:"attendees"`
	Description     string         `json:"description,omitempty"`
	Location        string         `json:"location,omitempty"`
	MeetingURL      string         `json:"meeting_url,omitempty"`
	CalendarURL     string         `json:"calendar_url,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
}

// NewMeetingEvent creates a meeting event, validating the time range and
// deriving the duration in whole minutes.
func NewMeetingEvent(eventID, title string, start, end time.Time, attendees []AttendeeInfo) (MeetingEvent, error) {
	if eventID == "" {
		return MeetingEvent{}, ErrEmptyEventID
	}
	if end.Before(start) {
		return MeetingEvent{}, ErrInvalidTimeRange
	}
	if title == "" {
		title = "Untitled Meeting"
	}
	return MeetingEvent{
		EventID:         eventID,
		Title:           title,
		StartTime:       start,
		EndTime:         end,
		Attendees:       attendees,
		DurationMinutes: int(end.Sub(start).Minutes()),
	}, nil
}
