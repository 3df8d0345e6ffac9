// Package logger configures the structured logger shared by all services.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields are a representation of formatted log fields.
type Fields map[string]interface{}

// Log wraps a logrus entry so components can carry their own fields.
type Log struct {
	*logrus.Entry
}

// New creates a logger writing to stdout at the given level ("debug", "info", ...).
func New(level string) (*Log, error) {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.Formatter = &logrus.TextFormatter{
		TimestampFormat:  "2006-01-02 15:04:05.0000",
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	return &Log{Entry: logrus.NewEntry(l)}, nil
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Log {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Log{Entry: logrus.NewEntry(l)}
}

// With returns a child logger carrying the given fields.
func (l *Log) With(fields Fields) *Log {
	return &Log{Entry: l.WithFields(logrus.Fields(fields))}
}

// Module is shorthand for With(Fields{"module": name}).
func (l *Log) Module(name string) *Log {
	return l.With(Fields{"module": name})
}

// GetLevel returns the current level name.
func (l *Log) GetLevel() string {
	return l.Logger.GetLevel().String()
}
