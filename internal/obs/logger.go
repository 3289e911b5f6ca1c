// Package obs provides the structured logger the Processor and its
// collaborators accept as an explicit dependency. Grounded on
// virtengine-virtengine's zerolog usage (pkg/verification/oidc/jwks.go):
// a zerolog.Logger value passed at construction, never a package-level
// global (spec.md §9 "global mutable state: eliminate").
package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a logger writing level-tagged JSON lines to w at the given
// level. level accepts zerolog's names ("debug", "info", "warn", "error");
// an unrecognized name falls back to "info".
func New(w io.Writer, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(parsed).With().Timestamp().Logger()
}

// NewDefault builds a logger writing to stderr at info level, for callers
// (the demo binary) that have no configuration of their own yet.
func NewDefault() zerolog.Logger {
	return New(os.Stderr, "info")
}

// ForDocument returns a child logger with document_id bound as a field, so
// every log line the Processor emits for one document can be correlated
// without threading the ID through every call by hand.
func ForDocument(logger zerolog.Logger, documentID string) zerolog.Logger {
	return logger.With().Str("document_id", documentID).Logger()
}
