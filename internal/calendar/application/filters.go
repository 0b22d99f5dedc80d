package application

import (
	"strings"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
)

// FilterConfig holds the event filter toggles.
type FilterConfig struct {
	// ExcludeRecurring drops events that carry a recurrence marker.
	ExcludeRecurring bool
	// RequireNonOwner drops events whose only attendees are the owner.
	RequireNonOwner bool
	// ExternalOnly drops attendees on the owner's own domain.
	ExternalOnly bool
	// InternalDomains lists additional domains treated as internal when
	// ExternalOnly is set.
	InternalDomains []string
}

// isRecurring reports whether an event should be dropped by the recurring
// exclusion filter.
func isRecurring(ev domain.RawEvent) bool {
	return ev.Recurring
}

// isInternalDomain reports whether dom matches the owner's domain or the
// configured internal-domain list.
func isInternalDomain(dom, ownerDomain string, internalDomains []string) bool {
	if dom == "" {
		return true
	}
	if ownerDomain != "" && dom == ownerDomain {
		return true
	}
	for _, d := range internalDomains {
		if strings.EqualFold(strings.TrimSpace(d), dom) {
			return true
		}
	}
	return false
}

// convertAttendees maps provider attendees onto briefing attendees,
// dropping self entries and, when requireNonOwner is set, entries whose
// email equals the owner identity.
func convertAttendees(raw []domain.RawAttendee, ownerEmail string, requireNonOwner bool) []briefing.AttendeeInfo {
	out := make([]briefing.AttendeeInfo, 0, len(raw))
	for _, ra := range raw {
		if ra.Email == "" || ra.Self {
			continue
		}
		email := briefing.NormalizeEmail(ra.Email)
		if requireNonOwner && email == ownerEmail {
			continue
		}
		out = append(out, briefing.NewAttendee(ra.Email, ra.Name))
	}
	return out
}

// filterExternal keeps only attendees on external domains. When removing
// internal-domain attendees would leave nobody, the input set is returned
// unchanged so a meeting made up entirely of internal-listed contacts still
// shows its people.
func filterExternal(attendees []briefing.AttendeeInfo, ownerDomain string, internalDomains []string) []briefing.AttendeeInfo {
	external := make([]briefing.AttendeeInfo, 0, len(attendees))
	for _, a := range attendees {
		dom := a.Domain()
		if ownerDomain != "" && dom == ownerDomain {
			continue
		}
		if isInternalDomain(dom, "", internalDomains) {
			continue
		}
		external = append(external, a)
	}
	if len(external) == 0 {
		// Fall back to the pre-list set: attendees off the owner domain
		// survive even when every one of them is on a listed internal domain.
		nonOwner := make([]briefing.AttendeeInfo, 0, len(attendees))
		for _, a := range attendees {
			if ownerDomain != "" && a.Domain() == ownerDomain {
				continue
			}
			nonOwner = append(nonOwner, a)
		}
		return nonOwner
	}
	return external
}
