package cli

import (
	"log/slog"
	"time"

	briefingApp "github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	briefingDomain "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/identity/application/oauth"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/morningbrief/pkg/config"
	"github.com/google/uuid"
)

// App bundles the services CLI commands need. Send, Cycle, and OAuth may
// be nil when the corresponding configuration is absent.
type App struct {
	Generate *briefingApp.GenerateBriefHandler
	Send     *briefingApp.SendBriefHandler
	Cycle    *briefingApp.GenerateAndSend

	Briefs    briefingDomain.BriefRepository
	Settings  briefingDomain.SettingsRepository
	OAuth     *oauth.Service
	Publisher eventbus.Publisher

	Config        *config.Config
	CurrentUserID uuid.UUID
	Logger        *slog.Logger
}

// Location resolves the configured timezone, falling back to UTC.
func (a *App) Location() *time.Location {
	if a.Config != nil && a.Config.Timezone != "" {
		if loc, err := time.LoadLocation(a.Config.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
