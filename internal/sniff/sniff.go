// Package sniff classifies the compression envelope of a file from its
// leading bytes.
package sniff

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is a compression envelope recognized by its magic bytes.
type Format uint8

// Recognized envelopes. None also covers unrecognized envelopes.
const (
	None Format = iota
	Gzip
	GzipByteSwapped
	Zip
	ZipEmptyA
	ZipEmptyB
	Compress
	Bzip2
	Xz
)

// HeaderLen is the number of leading bytes inspected. Buffers shorter
// than this never match.
const HeaderLen = 7

type signature struct {
	magic  []byte
	format Format
}

// signatures is scanned in order; the first match wins.
var signatures = []signature{
	{[]byte{0x1f, 0x8b}, Gzip},
	{[]byte{0x8b, 0x1f}, GzipByteSwapped},
	{[]byte{0x50, 0x4b, 0x03, 0x04}, Zip},
	{[]byte{0x50, 0x4b, 0x05, 0x06}, ZipEmptyA},
	{[]byte{0x50, 0x4b, 0x06, 0x06}, ZipEmptyB},
	{[]byte{0x1f, 0x9d}, Compress},
	{[]byte{0x42, 0x5a, 0x68}, Bzip2},
	{[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, Xz},
}

var names = map[Format]string{
	None:            "none",
	Gzip:            "gzip",
	GzipByteSwapped: "gzip-byteswapped",
	Zip:             "zip",
	ZipEmptyA:       "zip-empty",
	ZipEmptyB:       "zip-empty64",
	Compress:        "compress",
	Bzip2:           "bzip2",
	Xz:              "xz",
}

func (f Format) String() string {
	if name, ok := names[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Compressed reports whether f is any envelope other than None.
func (f Format) Compressed() bool {
	return f != None
}

// Sniff returns the format whose signature prefixes header.
func Sniff(header []byte) Format {
	if len(header) < HeaderLen {
		return None
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.format
		}
	}
	return None
}

// SniffFile reads the first HeaderLen bytes of path through its own
// handle and classifies them. Files shorter than HeaderLen are None.
func SniffFile(path string) (Format, error) {
	f, err := os.Open(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return None, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, HeaderLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return None, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return Sniff(header[:n]), nil
}

// SniffReader classifies the buffered stream without consuming it.
func SniffReader(br *bufio.Reader) (Format, error) {
	header, err := br.Peek(HeaderLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return None, fmt.Errorf("peeking header: %w", err)
	}
	return Sniff(header), nil
}
