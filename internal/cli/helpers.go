package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/tui"
)

// NewLogger configures the application logger from cfg. Quiet mode keeps
// stderr clean for the interactive funnel unless debug was requested.
func NewLogger(cfg config.Config, quiet bool) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if quiet && level > slog.LevelDebug {
		return logging.NewNop()
	}
	return logging.New(level)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, tui.Notice(w, fmt.Sprintf(format, args...)))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
