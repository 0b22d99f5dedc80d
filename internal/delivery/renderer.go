package delivery

import (
	"html/template"
	"strings"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

const briefTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
.content { white-space: pre-wrap; }
.meeting { background: #f8f9fa; border-left: 4px solid #667eea; padding: 15px; margin: 15px 0; border-radius: 4px; }
.attendee { background: white; padding: 10px; margin: 10px 0; border-radius: 4px; border: 1px solid #e9ecef; }
.news-item { background: #fff3cd; border: 1px solid #ffeaa7; padding: 10px; margin: 5px 0; border-radius: 4px; }
.time { color: #6c757d; font-size: 0.9em; }
.company { color: #495057; font-weight: 500; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #e9ecef; color: #6c757d; font-size: 0.9em; }
</style>
</head>
<body>
<div class="header">
<h1>🌅 Morning Brief</h1>
<p>Your daily meeting preparation summary</p>
</div>
<div class="content">{{.Content}}</div>
{{range .Events}}
<div class="meeting">
<h3>📅 {{.Title}}</h3>
<p class="time">⏰ {{timeRange .}}</p>
{{if .MeetingURL}}<p>🔗 <a href="{{.MeetingURL}}">Join meeting</a></p>{{end}}
{{range .Attendees}}
<div class="attendee">
• {{.Name}}{{if .Company}}<span class="company"> ({{.Company}}{{if .Title}}, {{.Title}}{{end}})</span>{{end}}
{{if .LinkedInURL}} — <a href="{{.LinkedInURL}}">LinkedIn</a>{{end}}
{{range .NewsArticles}}
<div class="news-item">📰 <a href="{{.URL}}">{{.Title}}</a></div>
{{end}}
</div>
{{end}}
</div>
{{end}}
<div class="footer">
<p>Generated by Morning Brief - Calendar Notifier</p>
</div>
</body>
</html>`

// Renderer produces the HTML body of the brief email.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the brief template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("brief").Funcs(template.FuncMap{
		"timeRange": func(ev briefing.MeetingEvent) string {
			return ev.StartTime.Format("3:04 PM") + "–" + ev.EndTime.Format("3:04 PM")
		},
	}).Parse(briefTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderHTML renders the brief content and event cards.
func (r *Renderer) RenderHTML(content string, events []briefing.MeetingEvent) (string, error) {
	var b strings.Builder
	err := r.tmpl.Execute(&b, struct {
		Content string
		Events  []briefing.MeetingEvent
	}{Content: content, Events: events})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
