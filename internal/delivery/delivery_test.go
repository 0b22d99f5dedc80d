package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	briefing "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

type staticTokenProvider struct{}

func (staticTokenProvider) TokenSource(context.Context, uuid.UUID) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), nil
}

func TestGmailSender_Send(t *testing.T) {
	var gotAuth string
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me/messages/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var payload struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotRaw = payload.Raw
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewGmailSenderWithBaseURL(staticTokenProvider{}, uuid.New(), server.URL)
	err := sender.Send(context.Background(), "me@example.com", "Morning Brief - March 09, 2026",
		"plain body", "<html><body>html body</body></html>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)

	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	message := string(decoded)

	assert.Contains(t, message, "To: me@example.com")
	assert.Contains(t, message, "Subject: Morning Brief - March 09, 2026")
	assert.Contains(t, message, "multipart/alternative")
	assert.Contains(t, message, "text/plain")
	assert.Contains(t, message, "plain body")
	assert.Contains(t, message, "text/html")
	assert.Contains(t, message, "html body")
}

func TestGmailSender_SendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid grant", http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewGmailSenderWithBaseURL(staticTokenProvider{}, uuid.New(), server.URL)
	err := sender.Send(context.Background(), "me@example.com", "subject", "body", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestRenderer_RenderHTML(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	att := briefing.NewAttendee("carol@other.com", "Carol Ng")
	att.Company = "Other Corp"
	att.Title = "VP Sales"
	att.LinkedInURL = "https://linkedin.com/in/carol"
	att.NewsArticles = []briefing.NewsArticle{{Title: "Other Corp raises", URL: "https://news.example/a"}}

	ev, err := briefing.NewMeetingEvent("ev-1", "Partner Sync", start, start.Add(30*time.Minute), []briefing.AttendeeInfo{att})
	require.NoError(t, err)
	ev.MeetingURL = "https://meet.google.com/abc"

	html, err := renderer.RenderHTML("Brief text here", []briefing.MeetingEvent{ev})
	require.NoError(t, err)

	assert.Contains(t, html, "Brief text here")
	assert.Contains(t, html, "Partner Sync")
	assert.Contains(t, html, "9:00 AM–9:30 AM")
	assert.Contains(t, html, "Carol Ng")
	assert.Contains(t, html, "Other Corp, VP Sales")
	assert.Contains(t, html, `href="https://linkedin.com/in/carol"`)
	assert.Contains(t, html, "Other Corp raises")
	assert.Contains(t, html, `href="https://meet.google.com/abc"`)
}

func TestRenderer_EscapesContent(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	html, err := renderer.RenderHTML("<script>alert(1)</script>", nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.True(t, strings.Contains(html, "&lt;script&gt;"))
}
