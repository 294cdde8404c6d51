// Package stats reads and writes the split stats file.
//
// The file is plain key=value text. Its first line is always
// chunk_number=N, and its presence under the final name means the split
// has completed.
package stats

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Keys written to the stats file.
const (
	KeyChunks  = "chunk_number"
	KeyRecords = "record_count"
)

// Stats is the outcome of a split run.
type Stats struct {
	Chunks  int
	Records int64
}

// Write atomically writes s to path: the content goes to path+".tmp",
// which is synced, closed and then renamed.
func Write(path string, s Stats) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path is user-specified
	if err != nil {
		return fmt.Errorf("creating stats file: %w", err)
	}

	content := fmt.Sprintf("%s=%d\n%s=%d\n", KeyChunks, s.Chunks, KeyRecords, s.Records)
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing stats file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing stats file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing stats file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming stats file: %w", err)
	}
	return nil
}

// Read parses a stats file. Unknown keys are ignored. A missing file
// yields an error wrapping os.ErrNotExist.
func Read(path string) (Stats, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-specified
	if err != nil {
		return Stats{}, fmt.Errorf("opening stats file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var s Stats
	sc := bufio.NewScanner(f)
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Stats{}, fmt.Errorf("stats file %s line %d: expected key=value, got %q", path, lineNum, line)
		}
		switch strings.TrimSpace(key) {
		case KeyChunks:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return Stats{}, fmt.Errorf("stats file %s line %d: invalid %s %q", path, lineNum, KeyChunks, value)
			}
			s.Chunks = n
		case KeyRecords:
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || n < 0 {
				return Stats{}, fmt.Errorf("stats file %s line %d: invalid %s %q", path, lineNum, KeyRecords, value)
			}
			s.Records = n
		}
	}
	if err := sc.Err(); err != nil {
		return Stats{}, fmt.Errorf("reading stats file: %w", err)
	}
	return s, nil
}
