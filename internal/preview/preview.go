// Package preview captures a bounded prefix of a record stream into a
// scratch file written with the same compression class as the source.
package preview

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/AgResearch/tardis/internal/format"
	"github.com/AgResearch/tardis/internal/parser"
	"github.com/AgResearch/tardis/internal/sniff"
)

// SampleSize is the default number of records captured.
const SampleSize = 20000

// Source yields records until io.EOF.
type Source interface {
	Next() (*parser.Record, error)
}

// Options configures sampling.
type Options struct {
	Dir   string // Directory for the artifact (default: os.TempDir)
	Limit int    // Records to capture (default: SampleSize)
}

// Artifact is a closed preview file. The caller owns it and must Remove it.
type Artifact struct {
	Path      string
	Size      int64 // bytes on disk after the writer was closed
	Records   int   // records written
	Exhausted bool  // the source hit end of stream before Limit
}

// Remove deletes the artifact file.
func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing preview %s: %w", a.Path, err)
	}
	return nil
}

// Sample pulls up to opts.Limit records from src and writes them, in their
// own shape, to a fresh scratch file. Every compressed source format is
// previewed as gzip; bzip2, xz and zip sources are approximated by it.
func Sample(src Source, f sniff.Format, opts Options) (*Artifact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = SampleSize
	}

	file, err := os.CreateTemp(opts.Dir, "seqcount-*")
	if err != nil {
		return nil, fmt.Errorf("creating preview file: %w", err)
	}
	art := &Artifact{Path: file.Name()}

	records, exhausted, err := writeSample(src, file, f.Compressed(), limit)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing preview file: %w", cerr)
	}
	if err != nil {
		_ = art.Remove()
		return nil, err
	}

	info, err := os.Stat(art.Path)
	if err != nil {
		_ = art.Remove()
		return nil, fmt.Errorf("measuring preview file: %w", err)
	}
	art.Size = info.Size()
	art.Records = records
	art.Exhausted = exhausted
	return art, nil
}

func writeSample(src Source, file io.Writer, compressed bool, limit int) (int, bool, error) {
	bw := bufio.NewWriterSize(file, 1<<20)
	var w io.Writer = bw
	var gz *gzip.Writer
	if compressed {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	records := 0
	exhausted := false
	for records < limit {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			exhausted = true
			break
		}
		if err != nil {
			return records, false, fmt.Errorf("reading record %d: %w", records+1, err)
		}
		if err := format.Write(w, rec, format.Native); err != nil {
			return records, false, fmt.Errorf("writing preview: %w", err)
		}
		records++
	}

	// The gzip trailer must be flushed before the size means anything.
	if gz != nil {
		if err := gz.Close(); err != nil {
			return records, false, fmt.Errorf("closing preview gzip stream: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return records, false, fmt.Errorf("flushing preview file: %w", err)
	}
	return records, exhausted, nil
}
