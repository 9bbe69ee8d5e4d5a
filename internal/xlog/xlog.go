// Package xlog centralizes logrus setup for the replay core: every
// component receives a *logrus.Entry pre-tagged with the fields needed to
// correlate a log line back to a specific replay run (spec.md §5
// "Observability").
package xlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter, matching the profile-driven
// config of SPEC_FULL.md §2 (text for local/dev runs, JSON for anything
// piped into a log aggregator).
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures the base logger.
type Options struct {
	Level  logrus.Level
	Format Format
	Output io.Writer
}

// DefaultOptions returns info-level text logging to stderr.
func DefaultOptions() Options {
	return Options{Level: logrus.InfoLevel, Format: FormatText, Output: os.Stderr}
}

// New builds a root logger per Options.
func New(opts Options) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(opts.Level)
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}
	switch opts.Format {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// ForReplay returns an entry tagged with the identifying fields every
// component's log lines should carry for one replay run (spec.md §5,
// §6 "correlation id").
func ForReplay(log *logrus.Logger, digest, correlationID string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"digest":         digest,
		"correlation_id": correlationID,
	})
}
