// Package cli implements the commands of the outline binary.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/outline/internal/logging"
)

// NewLogger configures the application logger.
// Debug wins over the configured level; logs always go to Stderr.
func NewLogger(level string, debug bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// PrintSystemMessage prints a standardized system message.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
