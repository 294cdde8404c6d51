// Package cli holds what the seq* commands share: exit codes, error
// reporting, logger construction and configuration loading.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AgResearch/tardis/internal/config"
	"github.com/AgResearch/tardis/internal/parser"
)

// Process exit codes.
const (
	ExitSuccess = 0 // success, or help/version shown
	ExitError   = 1 // configuration, input or I/O error
	ExitParse   = 2 // malformed FASTA/FASTQ input
)

// ExitCode maps a run error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case parser.IsParseError(err):
		return ExitParse
	default:
		return ExitError
	}
}

// Fail reports err on w and returns its exit code.
func Fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	return ExitCode(err)
}

// NewLogger returns a text logger on w at the configured level, or at
// debug when verbose is set.
func NewLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// LoadConfig loads and validates the configuration. An empty path means
// the defaults; a named file must exist.
func LoadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
