// Package chunkwatch follows the chunk files of a running split as they
// are finalized.
package chunkwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/AgResearch/tardis/internal/split"
	"github.com/AgResearch/tardis/internal/stats"
)

const (
	// DefaultInterval is the poll interval when none is set.
	DefaultInterval = 2 * time.Second

	// maxStatsFailures bounds how often an unreadable stats file is retried.
	maxStatsFailures = 50

	slowWarning = time.Hour
)

// Watcher polls for the final names of chunk files rendered from Template.
// In-progress names are never reported.
type Watcher struct {
	Template string
	// StatsPath is the split's stats file. Once it exists its chunk count
	// ends the watch. Without it Watch runs until ctx is done.
	StatsPath string
	Interval  time.Duration
	Logger    *slog.Logger
}

// Watch calls fn for chunk 1, 2, ... in order as each appears under its
// final name. It returns the number of chunks reported. An error from fn
// stops the watch and is returned.
func (w *Watcher) Watch(ctx context.Context, fn func(ordinal int, path string) error) (int, error) {
	if err := split.ValidateTemplate(w.Template); err != nil {
		return 0, err
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := w.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		next         = 1
		total        = -1
		statsErrors  = 0
		waitingSince = time.Now()
		warned       = false
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if total < 0 && w.StatsPath != "" {
			st, err := stats.Read(w.StatsPath)
			switch {
			case err == nil:
				total = st.Chunks
				log.Info("split complete", "chunks", total, "stats", w.StatsPath)
			case errors.Is(err, os.ErrNotExist):
			default:
				statsErrors++
				log.Warn("reading stats file", "path", w.StatsPath, "error", err)
				if statsErrors >= maxStatsFailures {
					return next - 1, fmt.Errorf("giving up on stats file after %d attempts: %w", statsErrors, err)
				}
			}
		}
		if total >= 0 && next > total {
			return next - 1, nil
		}

		path := fmt.Sprintf(w.Template, next)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			if err := fn(next, path); err != nil {
				return next - 1, err
			}
			next++
			waitingSince = time.Now()
			warned = false
			continue
		}

		if !warned && time.Since(waitingSince) > slowWarning {
			log.Warn("chunk is taking a long time", "ordinal", next, "path", path)
			warned = true
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return next - 1, ctx.Err()
		case <-timer.C:
		}
	}
}
