package application

import (
	"regexp"

	"github.com/felixgeelhaar/morningbrief/internal/calendar/domain"
)

// conferencePattern matches links from the conferencing providers we know
// how to join. Scanned over free text when no structured link exists.
var conferencePattern = regexp.MustCompile(
	`https?://[^\s<>"']*(?:` +
		`zoom\.us|` +
		`meet\.google\.com|` +
		`teams\.microsoft\.com|` +
		`teams\.live\.com|` +
		`webex\.com|` +
		`whereby\.com|` +
		`gotomeeting\.com|` +
		`bluejeans\.com` +
		`)[^\s<>"']*`,
)

// MeetingURL resolves the best conferencing URL for an event. Resolution
// order: the provider's direct video link, then structured entry points of
// type video or more, then a provider-domain scan over description and
// location. First match wins; "" when nothing matches.
func MeetingURL(ev domain.RawEvent) string {
	if ev.DirectVideoURL != "" {
		return ev.DirectVideoURL
	}
	for _, wanted := range []string{domain.EntryPointVideo, domain.EntryPointMore} {
		for _, ep := range ev.EntryPoints {
			if ep.Type == wanted && ep.URI != "" {
				return ep.URI
			}
		}
	}
	if m := conferencePattern.FindString(ev.Description); m != "" {
		return m
	}
	return conferencePattern.FindString(ev.Location)
}
