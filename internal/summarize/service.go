package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

const systemPrompt = "You are an AI assistant that creates concise, professional morning briefs for meetings. " +
	"Your goal is to help the user be well-prepared for their meetings by providing:\n" +
	"1. A brief overview of each meeting\n" +
	"2. Key information about attendees\n" +
	"3. Recent news or context about attendees/companies\n" +
	"4. Suggested talking points or conversation starters\n" +
	"5. Any important notes or reminders\n\n" +
	"Keep the tone professional but conversational. Focus on actionable insights."

// AIClient is the summarization source.
type AIClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service produces the daily brief text: AI when available, the
// deterministic fallback otherwise.
type Service struct {
	ai     AIClient
	logger *slog.Logger
}

// NewService creates a summarization service. A nil AI client always uses
// the fallback formatter.
func NewService(ai AIClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ai: ai, logger: logger}
}

// NoMeetingsMessage is the whole brief content for an empty day.
func NoMeetingsMessage(date time.Time) string {
	return fmt.Sprintf("No meetings scheduled for %s.", date.Format("January 02, 2006"))
}

// GenerateBrief returns the brief text for a day's meetings. With zero
// events the AI source is never invoked.
func (s *Service) GenerateBrief(ctx context.Context, date time.Time, events []briefing.MeetingEvent) string {
	if len(events) == 0 {
		return NoMeetingsMessage(date)
	}
	if s.ai == nil {
		return FallbackBrief(events)
	}

	userPrompt := "Generate a morning brief for today's meetings:\n\n" + meetingContext(events)
	content, err := s.ai.Complete(ctx, systemPrompt, userPrompt)
	if err != nil || strings.TrimSpace(content) == "" {
		s.logger.Warn("ai summarization failed, using fallback", "error", err)
		return FallbackBrief(events)
	}
	return content
}

// meetingContext renders the structured per-meeting prompt section.
func meetingContext(events []briefing.MeetingEvent) string {
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		var b strings.Builder
		fmt.Fprintf(&b, "Meeting: %s\n", ev.Title)
		fmt.Fprintf(&b, "Time: %s - %s\n", ev.StartTime.Format("03:04 PM"), ev.EndTime.Format("03:04 PM"))
		if ev.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", ev.Description)
		}
		b.WriteString("Attendees:\n")
		for _, att := range ev.Attendees {
			fmt.Fprintf(&b, "  - %s (%s)", att.Name, att.Email)
			if att.Company != "" {
				fmt.Fprintf(&b, " from %s", att.Company)
			}
			if att.Title != "" {
				fmt.Fprintf(&b, ", %s", att.Title)
			}
			b.WriteString("\n")
			if len(att.RecentNotes) > 0 {
				n := len(att.RecentNotes)
				if n > 2 {
					n = 2
				}
				fmt.Fprintf(&b, "    Recent context: %s\n", strings.Join(att.RecentNotes[:n], " "))
			}
			if len(att.NewsArticles) > 0 {
				fmt.Fprintf(&b, "    Recent news: %d articles found\n", len(att.NewsArticles))
				for i, article := range att.NewsArticles {
					if i == 2 {
						break
					}
					fmt.Fprintf(&b, "      - %s\n", article.Title)
				}
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}
