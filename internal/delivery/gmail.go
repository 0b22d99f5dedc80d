// Package delivery renders and sends the brief email.
package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const defaultGmailBaseURL = "https://gmail.googleapis.com/gmail/v1"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// GmailSender sends email through the Gmail REST API.
type GmailSender struct {
	oauthService tokenSourceProvider
	userID       uuid.UUID
	baseURL      string
}

// NewGmailSender creates a Gmail sender for one user.
func NewGmailSender(oauthService tokenSourceProvider, userID uuid.UUID) *GmailSender {
	return &GmailSender{
		oauthService: oauthService,
		userID:       userID,
		baseURL:      defaultGmailBaseURL,
	}
}

// NewGmailSenderWithBaseURL creates a sender with a custom base URL.
func NewGmailSenderWithBaseURL(oauthService tokenSourceProvider, userID uuid.UUID, baseURL string) *GmailSender {
	s := NewGmailSender(oauthService, userID)
	if baseURL != "" {
		s.baseURL = baseURL
	}
	return s
}

// Send delivers a multipart/alternative message with text and optional
// HTML bodies.
func (s *GmailSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if s.oauthService == nil {
		return fmt.Errorf("oauth service not configured")
	}
	tokenSource, err := s.oauthService.TokenSource(ctx, s.userID)
	if err != nil {
		return err
	}

	raw, err := buildMessage(to, subject, textBody, htmlBody)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return err
	}

	client := http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: tokenSource,
		},
	}

	sendURL := s.baseURL + "/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail send failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// buildMessage assembles the RFC 2822 multipart/alternative message.
func buildMessage(to, subject, textBody, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(textBody)); err != nil {
		return nil, err
	}

	if htmlBody != "" {
		htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=\"UTF-8\""},
		})
		if err != nil {
			return nil, err
		}
		if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
