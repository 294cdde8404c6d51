// Package parser provides a pull parser for FASTA and FASTQ records.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Record represents a single FASTA or FASTQ record.
type Record struct {
	Name     string // Header up to the first space or tab, without '>' or '@'
	Comment  string // Remainder of the header line, if any
	Sequence []byte
	Quality  []byte // Empty for FASTA records
}

// IsFASTQ reports whether the record carries quality data.
func (r *Record) IsFASTQ() bool {
	return len(r.Quality) > 0
}

// ParseError reports malformed input. It is distinct from io.EOF, which
// marks a clean end of stream.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parser reads FASTA and FASTQ records from an input stream.
type Parser struct {
	reader  *bufio.Reader
	line    []byte // reusable buffer for reading lines
	lineNum int

	// Header line of the next record, read while scanning FASTA sequence.
	pending    []byte
	hasPending bool
}

// New creates a new parser.
func New(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReaderSize(r, 1<<20), // 1MB buffer
		line:   make([]byte, 0, 512),
	}
}

// Next reads and returns the next record.
// Returns io.EOF when no more records are available and a *ParseError
// when the input is malformed.
func (p *Parser) Next() (*Record, error) {
	header, err := p.nextHeader()
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	rec.Name, rec.Comment = splitHeader(header[1:])
	if rec.Name == "" {
		return nil, p.errorf("record has an empty name")
	}

	if header[0] == '>' {
		err = p.readFASTA(rec)
	} else {
		err = p.readFASTQ(rec)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *Parser) nextHeader() ([]byte, error) {
	if p.hasPending {
		p.hasPending = false
		return p.pending, nil
	}

	for {
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' && line[0] != '@' {
			return nil, p.errorf("header line must start with '>' or '@'")
		}
		return append([]byte(nil), line...), nil
	}
}

func (p *Parser) readFASTA(rec *Record) error {
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' || line[0] == '@' {
			p.pending = append(p.pending[:0], line...)
			p.hasPending = true
			return nil
		}
		rec.Sequence = append(rec.Sequence, line...)
	}
}

func (p *Parser) readFASTQ(rec *Record) error {
	// Sequence lines run up to the '+' separator.
	for {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return p.errorf("truncated FASTQ record %q: missing '+' line", rec.Name)
		}
		if err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '+' {
			break
		}
		rec.Sequence = append(rec.Sequence, line...)
	}

	// Quality may wrap; read until it covers the sequence.
	for len(rec.Quality) < len(rec.Sequence) {
		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return p.errorf("truncated quality for record %q", rec.Name)
		}
		if err != nil {
			return err
		}
		rec.Quality = append(rec.Quality, line...)
	}

	if len(rec.Quality) != len(rec.Sequence) {
		return p.errorf("sequence and quality lengths differ for record %q", rec.Name)
	}
	return nil
}

// readLine reads a line from the input, stripping the newline.
// Reuses an internal buffer to minimize allocations.
func (p *Parser) readLine() ([]byte, error) {
	p.line = p.line[:0]

	for {
		segment, isPrefix, err := p.reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading input: %w", err)
		}

		p.line = append(p.line, segment...)

		if !isPrefix {
			break
		}
	}
	p.lineNum++

	// Trim any trailing CR (for Windows line endings)
	p.line = bytes.TrimSuffix(p.line, []byte{'\r'})

	return p.line, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.lineNum, Msg: fmt.Sprintf(format, args...)}
}

func splitHeader(header []byte) (name, comment string) {
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		return string(header[:i]), string(header[i+1:])
	}
	return string(header), ""
}
