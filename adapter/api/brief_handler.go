package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	"github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
)

// BriefHandler serves brief generation, history, and delivery settings for
// the configured user.
type BriefHandler struct {
	generate *application.GenerateBriefHandler
	briefs   domain.BriefRepository
	settings domain.SettingsRepository
	userID   uuid.UUID
	logger   *slog.Logger
	now      func() time.Time
}

// BriefHandlerConfig holds dependencies for the brief handler.
type BriefHandlerConfig struct {
	Generate *application.GenerateBriefHandler
	Briefs   domain.BriefRepository
	Settings domain.SettingsRepository
	UserID   uuid.UUID
	Logger   *slog.Logger
}

// NewBriefHandler creates a brief handler.
func NewBriefHandler(cfg BriefHandlerConfig) *BriefHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &BriefHandler{
		generate: cfg.Generate,
		briefs:   cfg.Briefs,
		settings: cfg.Settings,
		userID:   cfg.UserID,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

type briefResponse struct {
	ID           string                `json:"id"`
	Date         string                `json:"date"`
	Content      string                `json:"content"`
	MeetingCount int                   `json:"meeting_count"`
	Events       []domain.MeetingEvent `json:"events,omitempty"`
	Sent         bool                  `json:"sent"`
	SentAt       *time.Time            `json:"sent_at,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func toBriefResponse(brief *domain.Brief, includeEvents bool) briefResponse {
	resp := briefResponse{
		ID:           brief.ID().String(),
		Date:         brief.Date(),
		Content:      brief.Content(),
		MeetingCount: brief.MeetingCount(),
		Sent:         brief.Sent(),
		SentAt:       brief.SentAt(),
		CreatedAt:    brief.CreatedAt(),
	}
	if includeEvents {
		resp.Events = brief.Events()
	}
	return resp
}

// GenerateBrief handles POST /api/v1/briefs/generate. An optional JSON
// body selects the date; the default is today in the user's timezone.
func (h *BriefHandler) GenerateBrief(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}

	loc := time.UTC
	if settings, err := h.settings.Get(r.Context(), h.userID); err == nil {
		loc = settings.Location()
	}

	date := h.now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	brief, err := h.generate.Handle(r.Context(), application.GenerateBriefCommand{
		UserID:   h.userID,
		Date:     date,
		Location: loc,
	})
	if err != nil {
		h.logger.Error("failed to generate brief", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate brief")
		return
	}

	writeJSON(w, http.StatusCreated, toBriefResponse(brief, true))
}

// ListBriefs handles GET /api/v1/briefs.
func (h *BriefHandler) ListBriefs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 10)

	briefs, err := h.briefs.ListRecent(r.Context(), h.userID, limit)
	if err != nil {
		h.logger.Error("failed to list briefs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list briefs")
		return
	}

	out := make([]briefResponse, 0, len(briefs))
	for _, brief := range briefs {
		out = append(out, toBriefResponse(brief, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"briefs": out})
}

// GetBrief handles GET /api/v1/briefs/{briefID}.
func (h *BriefHandler) GetBrief(w http.ResponseWriter, r *http.Request) {
	briefID, err := uuid.Parse(r.PathValue("briefID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Brief ID must be a UUID")
		return
	}

	brief, err := h.briefs.FindByID(r.Context(), briefID)
	if errors.Is(err, domain.ErrBriefNotFound) {
		writeError(w, http.StatusNotFound, "Brief not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load brief", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load brief")
		return
	}

	writeJSON(w, http.StatusOK, toBriefResponse(brief, true))
}

type settingsRequest struct {
	DeliveryTime string `json:"delivery_time"`
	Timezone     string `json:"timezone"`
	Email        string `json:"email"`
	Active       *bool  `json:"active"`
}

// GetSettings handles GET /api/v1/settings.
func (h *BriefHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context(), h.userID)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		writeError(w, http.StatusNotFound, "Delivery settings not configured")
		return
	}
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSettings handles PUT /api/v1/settings.
func (h *BriefHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	settings, err := domain.NewDeliverySettings(h.userID, req.DeliveryTime, req.Timezone, req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Active != nil {
		settings.Active = *req.Active
	}

	if err := h.settings.Save(r.Context(), settings); err != nil {
		h.logger.Error("failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
