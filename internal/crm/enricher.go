package crm

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

const (
	maxMaterials     = 3
	snippetRunes     = 200
	defaultNoteLimit = 5
	listEntryLimit   = 10
)

// socialNetworkDomains identifies URLs pointing at a social profile when
// scanning custom field values. Central predicate table, not inline
// literals, so the heuristic stays tunable and testable.
var socialNetworkDomains = []string{"linkedin.com"}

// isSocialNetworkURL reports whether s looks like a social profile link.
func isSocialNetworkURL(s string) bool {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	for _, dom := range socialNetworkDomains {
		if strings.Contains(lower, dom) {
			return true
		}
	}
	return false
}

// urlPattern extracts literal URLs from note bodies.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// Enricher fills attendee CRM fields on a best-effort basis.
type Enricher struct {
	client    *Client
	noteLimit int
	logger    *slog.Logger

	// Relevant social field IDs, resolved lazily from field metadata and
	// reused for the process lifetime.
	socialFieldIDs map[string]struct{}
}

// NewEnricher creates an enricher. noteLimit <= 0 falls back to the default.
func NewEnricher(client *Client, noteLimit int, logger *slog.Logger) *Enricher {
	if noteLimit <= 0 {
		noteLimit = defaultNoteLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{client: client, noteLimit: noteLimit, logger: logger}
}

// Enrich populates CRM-derived fields on the attendee. It never returns an
// error: any failure leaves the remaining fields unset and logs at debug.
func (e *Enricher) Enrich(ctx context.Context, attendee *briefing.AttendeeInfo) {
	person, err := e.client.FindPersonByEmail(ctx, attendee.Email)
	if err != nil {
		e.logger.Debug("crm person lookup failed", "email", attendee.Email, "error", err)
		return
	}
	if person == nil {
		return
	}

	details, err := e.client.GetPersonDetails(ctx, person.ID)
	if err != nil {
		e.logger.Debug("crm person details failed", "email", attendee.Email, "error", err)
		return
	}

	if len(details.Organizations) > 0 {
		org := details.Organizations[0]
		attendee.Company = org.Name
		attendee.CompanyDomain = org.Domain
		attendee.WebsiteURL = org.WebsiteURL
	}

	attendee.LinkedInURL = e.resolveLinkedIn(ctx, attendee.Email, details)

	e.applyNotes(ctx, person.ID, attendee)
}

// resolveLinkedIn runs the three-tier fallback: explicit social profile,
// then social-looking list-entry field values, then the legacy person
// record. First non-empty result wins.
func (e *Enricher) resolveLinkedIn(ctx context.Context, email string, details *PersonDetails) string {
	for _, profile := range details.SocialProfiles {
		if strings.EqualFold(profile.Type, "linkedin") && profile.URL != "" {
			return profile.URL
		}
	}

	if u := e.linkedInFromListEntries(ctx, details.ID); u != "" {
		return u
	}

	legacy, err := e.client.FindLegacyPerson(ctx, email)
	if err != nil {
		e.logger.Debug("crm legacy lookup failed", "email", email, "error", err)
		return ""
	}
	if legacy != nil {
		return legacy.LinkedInURL
	}
	return ""
}

func (e *Enricher) linkedInFromListEntries(ctx context.Context, personID int64) string {
	relevant, err := e.relevantFieldIDs(ctx)
	if err != nil {
		e.logger.Debug("crm field metadata failed", "error", err)
		return ""
	}

	entries, err := e.client.GetPersonListEntries(ctx, personID, listEntryLimit)
	if err != nil {
		e.logger.Debug("crm list entries failed", "person_id", personID, "error", err)
		return ""
	}

	for _, entry := range entries {
		for _, field := range entry.Fields {
			if len(relevant) > 0 {
				if _, ok := relevant[field.FieldID]; !ok {
					continue
				}
			}
			for _, value := range stringValues(field.Value) {
				if isSocialNetworkURL(value) {
					return value
				}
			}
		}
	}
	return ""
}

// relevantFieldIDs resolves which custom fields can carry a social URL,
// fetching field metadata once and reusing it afterwards.
func (e *Enricher) relevantFieldIDs(ctx context.Context) (map[string]struct{}, error) {
	if e.socialFieldIDs != nil {
		return e.socialFieldIDs, nil
	}
	metadata, err := e.client.GetFieldMetadata(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{})
	for _, field := range metadata {
		name := strings.ToLower(field.Name)
		if strings.Contains(name, "linkedin") || strings.Contains(name, "social") {
			ids[field.ID] = struct{}{}
		}
	}
	e.socialFieldIDs = ids
	return ids, nil
}

// applyNotes derives last note, recent context snippets, and materials from
// the person's recent notes.
func (e *Enricher) applyNotes(ctx context.Context, personID int64, attendee *briefing.AttendeeInfo) {
	notes, err := e.client.GetPersonNotes(ctx, personID, e.noteLimit)
	if err != nil {
		e.logger.Debug("crm notes failed", "email", attendee.Email, "error", err)
		return
	}

	seen := make(map[string]struct{})
	var lastAt time.Time
	for _, note := range notes {
		body := strings.TrimSpace(note.Body)
		if body == "" {
			continue
		}

		if attendee.LastNote == "" || note.CreatedAt.After(lastAt) {
			lastAt = note.CreatedAt
			attendee.LastNote = body
			attendee.LastNoteDate = note.CreatedAt.Format("2006-01-02")
		}

		attendee.RecentNotes = append(attendee.RecentNotes, snippet(body))

		for _, u := range urlPattern.FindAllString(body, -1) {
			if len(attendee.Materials) >= maxMaterials {
				break
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			attendee.Materials = append(attendee.Materials, u)
		}
	}
}

func snippet(body string) string {
	runes := []rune(body)
	if len(runes) <= snippetRunes {
		return body
	}
	return string(runes[:snippetRunes]) + "..."
}

// stringValues flattens a decoded JSON field value into its string leaves.
func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, stringValues(item)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, item := range val {
			out = append(out, stringValues(item)...)
		}
		return out
	default:
		return nil
	}
}
