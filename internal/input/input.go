// Package input opens sequence files and transparently removes their
// compression envelope.
package input

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"

	"github.com/AgResearch/tardis/internal/sniff"
)

// BufferSize is the read buffer placed over the decompressed stream. It
// matches the parser's buffer so the parser reuses it instead of stacking
// a second one.
const BufferSize = 1 << 20

// ErrUnsupported is returned for envelopes that are recognized but cannot
// be decoded.
var ErrUnsupported = errors.New("unsupported compression format")

// Input is an opened, decompressed sequence stream.
type Input struct {
	Reader *bufio.Reader // decompressed bytes
	Format sniff.Format  // envelope of the original file
	Path   string
	Size   int64 // on-disk size of the original file; 0 for stdin

	closers []io.Closer
}

// IsStdin reports whether the input is standard input.
func (in *Input) IsStdin() bool {
	return IsStdin(in.Path)
}

// Close closes every layer, innermost first, and returns the first error.
func (in *Input) Close() error {
	var err error
	for _, c := range in.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	in.closers = nil
	return err
}

// IsStdin reports whether path names standard input.
func IsStdin(path string) bool {
	return path == "" || path == "-"
}

// Open opens path ("-" for stdin), sniffs its envelope and returns the
// decompressed stream.
func Open(path string) (*Input, error) {
	if IsStdin(path) {
		return openStdin()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot open input: %s is a directory", path)
	}

	format, err := sniff.SniffFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot inspect input: %w", err)
	}

	in := &Input{Format: format, Path: path, Size: info.Size()}
	if format == sniff.Zip {
		if err := in.openZip(path); err != nil {
			_ = in.Close()
			return nil, err
		}
		return in, nil
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}
	in.closers = append(in.closers, f)

	if err := in.decode(bufio.NewReaderSize(f, BufferSize)); err != nil {
		_ = in.Close()
		return nil, err
	}
	return in, nil
}

func openStdin() (*Input, error) {
	br := bufio.NewReaderSize(os.Stdin, BufferSize)
	format, err := sniff.SniffReader(br)
	if err != nil {
		return nil, fmt.Errorf("cannot inspect input: %w", err)
	}
	in := &Input{Format: format, Path: "-"}
	if format == sniff.Zip {
		return nil, fmt.Errorf("zip input on stdin: %w", ErrUnsupported)
	}
	if err := in.decode(br); err != nil {
		_ = in.Close()
		return nil, err
	}
	return in, nil
}

func (in *Input) decode(r io.Reader) error {
	var decoded io.Reader
	switch in.Format {
	case sniff.None:
		decoded = r
	case sniff.Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("cannot open gzip input: %w", err)
		}
		// Close the gzip layer before the file beneath it.
		in.closers = append([]io.Closer{gz}, in.closers...)
		decoded = gz
	case sniff.Bzip2:
		decoded = bzip2.NewReader(r)
	case sniff.Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("cannot open xz input: %w", err)
		}
		decoded = xr
	case sniff.ZipEmptyA, sniff.ZipEmptyB:
		decoded = strings.NewReader("")
	default:
		return fmt.Errorf("%s input: %w", in.Format, ErrUnsupported)
	}
	in.Reader = bufio.NewReaderSize(decoded, BufferSize)
	return nil
}

// openZip reads the first file entry of a zip archive.
func (in *Input) openZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("cannot open zip input: %w", err)
	}
	in.closers = append(in.closers, zr)

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("cannot open zip entry %s: %w", entry.Name, err)
		}
		in.closers = append([]io.Closer{rc}, in.closers...)
		in.Reader = bufio.NewReaderSize(rc, BufferSize)
		return nil
	}

	in.Reader = bufio.NewReaderSize(strings.NewReader(""), BufferSize)
	return nil
}
