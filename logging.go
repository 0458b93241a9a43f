package kcc

import (
	"github.com/gekko3d/kcc/logging"
)

type Logger = logging.Logger

func NewDefaultLogger(prefix string, debug bool) *logging.DefaultLogger {
	return logging.NewDefaultLogger(prefix, debug)
}

// LoggingModule installs a default logger as a resource.
type LoggingModule struct {
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewDefaultLogger(m.Prefix, m.Debug))
}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return logging.NewNopLogger()
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return logging.NewNopLogger()
}
