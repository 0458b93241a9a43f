package kcc

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const reportFlushTimeout = 5 * time.Second

// Reporter sends errors and recovered panics to sentry. Without a DSN it drops them.
type Reporter struct {
	hub *sentry.Hub
}

func NewReporter(dsn, environment string) (*Reporter, error) {
	r := &Reporter{}
	if dsn == "" {
		return r, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	r.hub = sentry.NewHub(client, sentry.NewScope())
	return r, nil
}

// Hub is nil when reporting is off.
func (r *Reporter) Hub() *sentry.Hub {
	if r == nil {
		return nil
	}
	return r.hub
}

func (r *Reporter) scoped(tags map[string]string) *sentry.Hub {
	hub := r.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	return hub
}

func (r *Reporter) Capture(err error, tags map[string]string) {
	if r == nil || r.hub == nil || err == nil {
		return
	}
	r.scoped(tags).CaptureException(err)
}

// Recover reports a value obtained from recover().
func (r *Reporter) Recover(v any, tags map[string]string) {
	if r == nil || r.hub == nil || v == nil {
		return
	}
	hub := r.scoped(tags)
	hub.Recover(v)
	hub.Flush(reportFlushTimeout)
}

func (r *Reporter) Flush() bool {
	if r == nil || r.hub == nil {
		return true
	}
	return r.hub.Flush(reportFlushTimeout)
}

// ReportingModule installs a Reporter. Install it before CharacterModule.
type ReportingModule struct {
	DSN         string
	Environment string
}

func (mod ReportingModule) Install(app *App, cmd *Commands) {
	r, err := NewReporter(mod.DSN, mod.Environment)
	if err != nil {
		app.Logger().Errorf("reporting disabled: %v", err)
		r = &Reporter{}
	}
	cmd.AddResources(r)
}
