package summarize

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

const (
	maxShownNames    = 5
	maxAboutMaterial = 2
	aboutSnippetLen  = 120
)

var (
	nameCharPattern = regexp.MustCompile(`[^A-Za-z'\-]`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// IsInternalAlias reports whether an attendee is an internal tooling alias
// rather than a real external participant. The heuristic matches an
// "internal" prefix on either the display name or the email local part.
func IsInternalAlias(a briefing.AttendeeInfo) bool {
	name := strings.ToLower(strings.TrimSpace(a.Name))
	local := strings.ToLower(a.Email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	return strings.HasPrefix(name, "internal") || strings.HasPrefix(local, "internal")
}

// FallbackBrief renders the deterministic non-AI brief: one line per
// meeting, no locations.
func FallbackBrief(events []briefing.MeetingEvent) string {
	if len(events) == 0 {
		return ""
	}

	dateStr := events[0].StartTime.Format("January 02, 2006")
	var b strings.Builder
	fmt.Fprintf(&b, "Morning Brief - %s\n\n", dateStr)
	fmt.Fprintf(&b, "You have %d meetings scheduled today:\n\n", len(events))

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		line := fmt.Sprintf("📅 %s %s%s%s",
			formatTimeRange(ev),
			ev.Title,
			formatAttendees(ev.Attendees),
			formatAbout(ev.Description, ev.Attendees),
		)
		lines = append(lines, line)
	}

	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	return b.String()
}

func formatTimeRange(ev briefing.MeetingEvent) string {
	return ev.StartTime.Format("3:04 PM") + "–" + ev.EndTime.Format("3:04 PM")
}

// normalizeName reduces a raw display name to a clean capitalized first name.
func normalizeName(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return ""
	}
	first := nameCharPattern.ReplaceAllString(fields[0], "")
	if first == "" {
		return ""
	}
	runes := []rune(first)
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}

func formatAttendees(attendees []briefing.AttendeeInfo) string {
	var display []string
	seen := make(map[string]struct{})
	for _, att := range attendees {
		if IsInternalAlias(att) {
			continue
		}
		raw := att.Name
		if raw == "" {
			raw = att.Email
			if at := strings.Index(raw, "@"); at > 0 {
				raw = raw[:at]
			}
		}
		name := normalizeName(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		display = append(display, name)
	}
	if len(display) == 0 {
		return ""
	}

	shown := display
	if len(shown) > maxShownNames {
		shown = shown[:maxShownNames]
	}
	out := " — " + strings.Join(shown, ", ")
	if extra := len(display) - len(shown); extra > 0 {
		out += fmt.Sprintf(" +%d", extra)
	}
	return out
}

// stripHTML unescapes entities, drops tags, and collapses whitespace.
func stripHTML(text string) string {
	if text == "" {
		return ""
	}
	unescaped := html.UnescapeString(text)
	noTags := htmlTagPattern.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(noTags), " ")
}

// formatAbout picks the about snippet by priority: enrichment materials,
// then description / CRM note text, then the company website.
func formatAbout(description string, attendees []briefing.AttendeeInfo) string {
	var materials []string
	seen := make(map[string]struct{})
	for _, att := range attendees {
		for _, u := range att.Materials {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			materials = append(materials, u)
		}
	}
	if len(materials) > 0 {
		if len(materials) > maxAboutMaterial {
			materials = materials[:maxAboutMaterial]
		}
		return " — About: Materials: " + strings.Join(materials, " • ")
	}

	base := stripHTML(description)
	if base == "" {
		for _, att := range attendees {
			if att.LastNote != "" {
				if base = stripHTML(att.LastNote); base != "" {
					break
				}
			}
			if len(att.RecentNotes) > 0 {
				if base = stripHTML(att.RecentNotes[0]); base != "" {
					break
				}
			}
		}
	}
	if base == "" {
		for _, att := range attendees {
			if att.WebsiteURL != "" {
				base = "Company site: " + att.WebsiteURL
				break
			}
		}
	}
	if base == "" {
		return ""
	}

	runes := []rune(base)
	if len(runes) > aboutSnippetLen {
		base = string(runes[:aboutSnippetLen]) + "…"
	}
	return " — About: " + base
}
