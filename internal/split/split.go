// Package split writes a record stream into numbered chunk files,
// optionally keeping a random sample of the records.
//
// A chunk is written under its in-progress name (the rendered template
// plus InProgressMarker) and only renamed to its final name once it has
// been flushed, synced and closed. A consumer polling for final names
// therefore never observes a partially written chunk.
package split

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/AgResearch/tardis/internal/format"
	"github.com/AgResearch/tardis/internal/parser"
)

// InProgressMarker is appended to a chunk's name while it is being written.
const InProgressMarker = "_"

const writeBufferSize = 256 << 10

// Source yields records until io.EOF.
type Source interface {
	Next() (*parser.Record, error)
}

// Options configures a Splitter.
type Options struct {
	ChunkSize int64        // accepted records per chunk
	Template  string       // chunk path with one integer verb
	Shape     format.Shape // FASTA or FASTQ
	// Sampling enables a Bernoulli trial per record with probability
	// Proportion of acceptance.
	Sampling   bool
	Proportion float64
	Rand       *rand.Rand // sampling generator (default: PCG seeded from the clock)
	Logger     *slog.Logger
}

// Result summarizes a run.
type Result struct {
	Chunks    int      // chunks opened
	Records   int64    // records accepted
	Finalized []string // final chunk paths, in order
}

// Splitter splits one record stream into chunk files.
type Splitter struct {
	opts Options
	rng  *rand.Rand
	log  *slog.Logger
}

// New validates opts and returns a Splitter. The sampling generator is
// created here and seeded once.
func New(opts Options) (*Splitter, error) {
	if opts.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", opts.ChunkSize)
	}
	if err := ValidateTemplate(opts.Template); err != nil {
		return nil, err
	}
	if opts.Shape != format.FASTA && opts.Shape != format.FASTQ {
		return nil, fmt.Errorf("output format must be fasta or fastq, got %s", opts.Shape)
	}
	if opts.Sampling && (opts.Proportion < 0 || opts.Proportion > 1) {
		return nil, fmt.Errorf("sampling proportion must be in [0,1], got %v", opts.Proportion)
	}

	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // sampling, not security sensitive
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Splitter{opts: opts, rng: rng, log: log}, nil
}

// IsBoundary reports whether the accepted-th record (1-based) starts a
// new chunk.
func IsBoundary(accepted, chunkSize int64) bool {
	return chunkSize == 1 || accepted%chunkSize == 1
}

// ChunkName renders the final name of chunk ordinal.
func (s *Splitter) ChunkName(ordinal int) string {
	return fmt.Sprintf(s.opts.Template, ordinal)
}

// Run consumes src until io.EOF. On error the open chunk is closed but
// keeps its in-progress name, and the error is returned unchanged so
// parse errors stay distinguishable.
func (s *Splitter) Run(src Source) (Result, error) {
	var (
		res Result
		cur *chunk
	)
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cur.abandon()
			return res, err
		}

		if s.opts.Sampling && !s.accept() {
			continue
		}
		res.Records++

		if IsBoundary(res.Records, s.opts.ChunkSize) {
			if cur != nil {
				if err := s.finalize(cur, &res); err != nil {
					return res, err
				}
			}
			res.Chunks++
			cur, err = openChunk(s.ChunkName(res.Chunks))
			if err != nil {
				return res, err
			}
		}

		if err := format.Write(cur.w, rec, s.opts.Shape); err != nil {
			cur.abandon()
			return res, err
		}
		cur.records++
	}

	if cur != nil {
		if err := s.finalize(cur, &res); err != nil {
			return res, err
		}
	}
	s.log.Debug("split complete", "chunks", res.Chunks, "records", res.Records)
	return res, nil
}

// accept runs one sampling trial. A proportion of 0 rejects every record,
// including a draw of exactly 0.
func (s *Splitter) accept() bool {
	return s.opts.Proportion > 0 && s.rng.Float64() <= s.opts.Proportion
}

func (s *Splitter) finalize(c *chunk, res *Result) error {
	if err := c.finalize(); err != nil {
		return err
	}
	res.Finalized = append(res.Finalized, c.path)
	s.log.Debug("chunk finalized", "path", c.path, "records", c.records)
	return nil
}

// chunk is one open output file.
type chunk struct {
	path    string // final name
	file    *os.File
	w       *bufio.Writer
	records int64
}

func openChunk(path string) (*chunk, error) {
	f, err := os.Create(path + InProgressMarker) //nolint:gosec // path comes from the user's template
	if err != nil {
		return nil, fmt.Errorf("creating chunk: %w", err)
	}
	return &chunk{path: path, file: f, w: bufio.NewWriterSize(f, writeBufferSize)}, nil
}

// finalize flushes, syncs and closes the chunk, then renames it to its
// final name. The rename never happens before the close.
func (c *chunk) finalize() error {
	tmp := c.file.Name()
	if err := c.w.Flush(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("flushing chunk %s: %w", tmp, err)
	}
	if err := c.file.Sync(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("syncing chunk %s: %w", tmp, err)
	}
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("closing chunk %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("renaming chunk %s: %w", tmp, err)
	}
	return nil
}

// abandon closes the chunk under its in-progress name.
func (c *chunk) abandon() {
	if c == nil {
		return
	}
	_ = c.w.Flush()
	_ = c.file.Close()
}
