// Package logging builds the structured loggers shared by the tools.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          "tmm",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
