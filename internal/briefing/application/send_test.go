package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

type memorySettingsRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]domain.DeliverySettings
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{settings: make(map[uuid.UUID]domain.DeliverySettings)}
}

func (r *memorySettingsRepo) Get(_ context.Context, userID uuid.UUID) (domain.DeliverySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[userID]
	if !ok {
		return domain.DeliverySettings{}, domain.ErrSettingsNotFound
	}
	return s, nil
}

func (r *memorySettingsRepo) Save(_ context.Context, settings domain.DeliverySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.UserID] = settings
	return nil
}

type recordingSender struct {
	mu       sync.Mutex
	sends    int
	to       string
	subject  string
	textBody string
	htmlBody string
	err      error
}

func (s *recordingSender) Send(_ context.Context, to, subject, textBody, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sends++
	s.to = to
	s.subject = subject
	s.textBody = textBody
	s.htmlBody = htmlBody
	return nil
}

type stubRenderer struct {
	html string
	err  error
}

func (r *stubRenderer) RenderHTML(_ string, _ []domain.MeetingEvent) (string, error) {
	return r.html, r.err
}

func seedSettings(t *testing.T, repo *memorySettingsRepo, userID uuid.UUID, active bool) {
	t.Helper()
	settings, err := domain.NewDeliverySettings(userID, "07:00", "UTC", "user@acme.com")
	require.NoError(t, err)
	settings.Active = active
	require.NoError(t, repo.Save(context.Background(), settings))
}

func seedBrief(t *testing.T, repo *memoryBriefRepo, userID uuid.UUID, date string) *domain.Brief {
	t.Helper()
	brief, err := domain.NewBrief(userID, date, "brief body", nil)
	require.NoError(t, err)
	brief.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), brief))
	return brief
}

func TestSendBriefHandler_Handle(t *testing.T) {
	userID := uuid.New()
	briefs := newMemoryBriefRepo()
	settings := newMemorySettingsRepo()
	seedSettings(t, settings, userID, true)
	seedBrief(t, briefs, userID, "2025-03-10")

	sender := &recordingSender{}
	pub := &capturingPublisher{}
	handler := NewSendBriefHandler(briefs, settings, &stubRenderer{html: "<html>x</html>"}, sender, pub, nil)

	require.NoError(t, handler.Handle(context.Background(), SendBriefCommand{UserID: userID, Date: "2025-03-10"}))

	assert.Equal(t, 1, sender.sends)
	assert.Equal(t, "user@acme.com", sender.to)
	assert.Equal(t, "Morning Brief - March 10, 2025", sender.subject)
	assert.Equal(t, "brief body", sender.textBody)
	assert.Equal(t, "<html>x</html>", sender.htmlBody)

	stored, err := briefs.FindByDate(context.Background(), userID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, stored.Sent())
	require.NotNil(t, stored.SentAt())

	assert.Equal(t, []string{"briefing.brief.sent"}, pub.routingKeys)
}

func TestSendBriefHandler_AlreadySent(t *testing.T) {
	userID := uuid.New()
	briefs := newMemoryBriefRepo()
	settings := newMemorySettingsRepo()
	seedSettings(t, settings, userID, true)
	seedBrief(t, briefs, userID, "2025-03-10")

	sender := &recordingSender{}
	handler := NewSendBriefHandler(briefs, settings, nil, sender, nil, nil)
	cmd := SendBriefCommand{UserID: userID, Date: "2025-03-10"}

	require.NoError(t, handler.Handle(context.Background(), cmd))
	assert.ErrorIs(t, handler.Handle(context.Background(), cmd), domain.ErrAlreadySent)
	assert.Equal(t, 1, sender.sends)
}

func TestSendBriefHandler_SendFailureLeavesUnsent(t *testing.T) {
	userID := uuid.New()
	briefs := newMemoryBriefRepo()
	settings := newMemorySettingsRepo()
	seedSettings(t, settings, userID, true)
	seedBrief(t, briefs, userID, "2025-03-10")

	sender := &recordingSender{err: errors.New("smtp is a lie, gmail is down")}
	handler := NewSendBriefHandler(briefs, settings, nil, sender, nil, nil)

	err := handler.Handle(context.Background(), SendBriefCommand{UserID: userID, Date: "2025-03-10"})
	assert.ErrorContains(t, err, "failed to send brief")

	stored, err := briefs.FindByDate(context.Background(), userID, "2025-03-10")
	require.NoError(t, err)
	assert.False(t, stored.Sent())
}

func TestSendBriefHandler_RenderFailureFallsBackToPlainText(t *testing.T) {
	userID := uuid.New()
	briefs := newMemoryBriefRepo()
	settings := newMemorySettingsRepo()
	seedSettings(t, settings, userID, true)
	seedBrief(t, briefs, userID, "2025-03-10")

	sender := &recordingSender{}
	handler := NewSendBriefHandler(briefs, settings, &stubRenderer{err: errors.New("template broke")}, sender, nil, nil)

	require.NoError(t, handler.Handle(context.Background(), SendBriefCommand{UserID: userID, Date: "2025-03-10"}))
	assert.Equal(t, "", sender.htmlBody)
	assert.Equal(t, "brief body", sender.textBody)
}

func TestGenerateAndSend_Run(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

	newCycle := func(briefs *memoryBriefRepo, settings *memorySettingsRepo, sender *recordingSender) *GenerateAndSend {
		fetcher := &stubFetcher{day: []domain.MeetingEvent{
			meetingAt(t, "ev1", now.Add(2*time.Hour), "carol@other.com"),
		}}
		generate := NewGenerateBriefHandler(fetcher, nil, nil, &stubSummarizer{content: "cycle brief"}, briefs, nil, nil)
		send := NewSendBriefHandler(briefs, settings, nil, sender, nil, nil)
		cycle := NewGenerateAndSend(generate, send, briefs, settings, nil)
		cycle.now = func() time.Time { return now }
		return cycle
	}

	t.Run("generates and sends", func(t *testing.T) {
		briefs := newMemoryBriefRepo()
		settings := newMemorySettingsRepo()
		seedSettings(t, settings, userID, true)
		sender := &recordingSender{}

		require.NoError(t, newCycle(briefs, settings, sender).Run(context.Background(), userID))
		assert.Equal(t, 1, sender.sends)
		assert.Equal(t, "cycle brief", sender.textBody)
	})

	t.Run("second trigger is a no-op", func(t *testing.T) {
		briefs := newMemoryBriefRepo()
		settings := newMemorySettingsRepo()
		seedSettings(t, settings, userID, true)
		sender := &recordingSender{}
		cycle := newCycle(briefs, settings, sender)

		require.NoError(t, cycle.Run(context.Background(), userID))
		require.NoError(t, cycle.Run(context.Background(), userID))
		assert.Equal(t, 1, sender.sends)
	})

	t.Run("inactive settings skip", func(t *testing.T) {
		briefs := newMemoryBriefRepo()
		settings := newMemorySettingsRepo()
		seedSettings(t, settings, userID, false)
		sender := &recordingSender{}

		require.NoError(t, newCycle(briefs, settings, sender).Run(context.Background(), userID))
		assert.Zero(t, sender.sends)
	})

	t.Run("missing settings skip without error", func(t *testing.T) {
		briefs := newMemoryBriefRepo()
		settings := newMemorySettingsRepo()
		sender := &recordingSender{}

		require.NoError(t, newCycle(briefs, settings, sender).Run(context.Background(), userID))
		assert.Zero(t, sender.sends)
	})
}
