// Package logger provides the shared structured logger for the client.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the application logger with the given level ("debug", "info",
// "warn", "error"). An unknown level falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

// WithComponent returns an entry scoped to one component, so every line a
// component emits carries its name.
func WithComponent(log *logrus.Logger, component string) *logrus.Entry {
	return log.WithField("component", component)
}
