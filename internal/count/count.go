// Package count counts FASTA/FASTQ records exactly or estimates the count
// from a compressed-size preview.
package count

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AgResearch/tardis/internal/input"
	"github.com/AgResearch/tardis/internal/parser"
	"github.com/AgResearch/tardis/internal/preview"
)

// ErrNeedsFile is returned when an approximate count is requested for a
// stream without an on-disk size.
var ErrNeedsFile = errors.New("approximate count needs a regular input file")

// Source yields records until io.EOF.
type Source interface {
	Next() (*parser.Record, error)
}

// Options configures counting.
type Options struct {
	Approximate bool
	SampleSize  int    // preview records (default: preview.SampleSize)
	TempDir     string // preview directory (default: os.TempDir)
	Workers     int    // concurrent files in Files (default: NumCPU)
	Logger      *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// cancelCheckInterval is how many records pass between context checks.
const cancelCheckInterval = 4096

// contextSource ends a pull loop with ctx.Err() once ctx is done.
type contextSource struct {
	ctx  context.Context
	src  Source
	seen int
}

func (s *contextSource) Next() (*parser.Record, error) {
	if s.seen%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
	}
	s.seen++
	return s.src.Next()
}

// Exact counts the records in src.
func Exact(src Source) (int64, error) {
	var n int64
	for {
		_, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// File counts the records of one input file.
func File(path string, opts Options) (int64, error) {
	return fileContext(context.Background(), path, opts)
}

// fileContext is File with cancellation checked between records, in both
// the exact count and the preview.
func fileContext(ctx context.Context, path string, opts Options) (int64, error) {
	if opts.Approximate && input.IsStdin(path) {
		return 0, ErrNeedsFile
	}

	in, err := input.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	src := &contextSource{ctx: ctx, src: parser.New(in.Reader)}
	if !opts.Approximate {
		n, err := Exact(src)
		if err != nil {
			return 0, fmt.Errorf("counting %s: %w", path, err)
		}
		return n, nil
	}

	art, err := preview.Sample(src, in.Format, preview.Options{Dir: opts.TempDir, Limit: opts.SampleSize})
	if err != nil {
		return 0, fmt.Errorf("sampling %s: %w", path, err)
	}
	defer func() { _ = art.Remove() }()

	est, err := Estimate(Inputs{
		Sampled:     int64(art.Records),
		Exhausted:   art.Exhausted,
		Format:      in.Format,
		FileSize:    in.Size,
		PreviewSize: art.Size,
	})
	if err != nil {
		return 0, fmt.Errorf("estimating %s: %w", path, err)
	}

	opts.logger().Debug("estimated record count",
		"path", path,
		"format", in.Format.String(),
		"file_size", in.Size,
		"preview_size", art.Size,
		"sampled", art.Records,
		"exhausted", art.Exhausted,
		"estimate", est,
	)
	return est, nil
}

// Files counts several files concurrently and returns the total. Each file
// is counted by a single pull loop; only independent files overlap. A
// cancelled ctx stops in-flight files between records.
func Files(ctx context.Context, paths []string, opts Options) (int64, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	counts := make([]int64, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := fileContext(ctx, path, opts)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// ReadListFile returns the paths listed in a file, one per line. Blank
// lines and lines starting with '#' are skipped.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("opening list file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading list file: %w", err)
	}
	return paths, nil
}
