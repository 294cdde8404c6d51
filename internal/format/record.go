// Package format serializes sequence records as FASTA or FASTQ text.
package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AgResearch/tardis/internal/parser"
)

// Shape selects how a record is written.
type Shape uint8

// Output shapes.
const (
	Native Shape = iota // FASTQ if the record has quality, FASTA otherwise
	FASTA
	FASTQ
)

// ErrNoQuality is returned when a record without quality is written as FASTQ.
var ErrNoQuality = errors.New("record has no quality data to write as FASTQ")

func (s Shape) String() string {
	switch s {
	case Native:
		return "native"
	case FASTA:
		return "fasta"
	case FASTQ:
		return "fastq"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// ParseShape parses an output format selector ("fasta" or "fastq").
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(name) {
	case "fasta":
		return FASTA, nil
	case "fastq":
		return FASTQ, nil
	default:
		return Native, fmt.Errorf("unknown output format %q: must be fasta or fastq", name)
	}
}

// Write serializes rec to w in the given shape.
func Write(w io.Writer, rec *parser.Record, shape Shape) error {
	asFASTQ := rec.IsFASTQ()
	switch shape {
	case FASTA:
		asFASTQ = false
	case FASTQ:
		if !rec.IsFASTQ() {
			return fmt.Errorf("writing %q: %w", rec.Name, ErrNoQuality)
		}
		asFASTQ = true
	}

	// Build the record into one buffer so w sees a single write.
	needed := 1 + len(rec.Name) + 1 + len(rec.Comment) + 1 + len(rec.Sequence) + 1
	if asFASTQ {
		needed += 2 + len(rec.Quality) + 1
	}
	buf := make([]byte, 0, needed)
	if asFASTQ {
		buf = append(buf, '@')
	} else {
		buf = append(buf, '>')
	}
	buf = append(buf, rec.Name...)
	if rec.Comment != "" {
		buf = append(buf, ' ')
		buf = append(buf, rec.Comment...)
	}
	buf = append(buf, '\n')
	buf = append(buf, rec.Sequence...)
	buf = append(buf, '\n')
	if asFASTQ {
		buf = append(buf, '+', '\n')
		buf = append(buf, rec.Quality...)
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return err
}

// DetectShape peeks at the first non-blank byte of the stream without
// consuming records: '>' is FASTA, '@' is FASTQ. An empty stream, or one
// starting with anything else, reports Native and leaves the verdict to
// the parser.
func DetectShape(br *bufio.Reader) (Shape, error) {
	for n := 1; n <= br.Size(); n++ {
		peek, err := br.Peek(n)
		if len(peek) < n {
			if errors.Is(err, io.EOF) {
				return Native, nil
			}
			return Native, fmt.Errorf("peeking input: %w", err)
		}
		switch peek[n-1] {
		case '\n', '\r', ' ', '\t':
			continue
		case '>':
			return FASTA, nil
		case '@':
			return FASTQ, nil
		default:
			return Native, nil
		}
	}
	return Native, nil
}
