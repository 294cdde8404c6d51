package sniff

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pad(prefix ...byte) []byte {
	buf := make([]byte, HeaderLen)
	copy(buf, prefix)
	return buf
}

func TestSniffTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"gzip", pad(0x1f, 0x8b, 0x08), Gzip},
		{"gzip byte swapped", pad(0x8b, 0x1f), GzipByteSwapped},
		{"zip", pad(0x50, 0x4b, 0x03, 0x04), Zip},
		{"zip empty", pad(0x50, 0x4b, 0x05, 0x06), ZipEmptyA},
		{"zip64 empty", pad(0x50, 0x4b, 0x06, 0x06), ZipEmptyB},
		{"compress", pad(0x1f, 0x9d), Compress},
		{"bzip2", []byte("BZh91AY&SY"), Bzip2},
		{"xz", pad(0xfd, '7', 'z', 'X', 'Z', 0x00), Xz},
		{"zstd is not recognized", pad(0x28, 0xb5, 0x2f, 0xfd, 0x04), None},
		{"zeros", pad(0x00, 0x00, 0x00, 0x00), None},
		{"fastq text", []byte("@read1\nACGT\n"), None},
		{"fasta text", []byte(">chr1 desc\n"), None},
		{"zip partial signature", pad(0x50, 0x4b, 0x07, 0x08), None},
		{"xz missing trailing zero", pad(0xfd, '7', 'z', 'X', 'Z', 0x01), None},
		{"lowercase bzh", pad('b', 'z', 'h'), None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sniff(tt.header))
		})
	}
}

func TestSniffShortBufferNeverMatches(t *testing.T) {
	t.Parallel()

	for n := 0; n < HeaderLen; n++ {
		header := []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00}[:n]
		assert.Equal(t, None, Sniff(header), "length %d", n)
	}
}

func TestSniffFirstMatchWins(t *testing.T) {
	t.Parallel()

	// Every signature must be classified as its own entry, which only holds
	// if no earlier entry shadows a later one.
	for i, sig := range signatures {
		assert.Equal(t, sig.format, Sniff(pad(sig.magic...)), "entry %d", i)
	}

	// Gzip and compress share the leading 0x1f byte; table order decides.
	assert.Equal(t, Gzip, Sniff(pad(0x1f, 0x8b, 0x9d)))
	assert.Equal(t, Compress, Sniff(pad(0x1f, 0x9d, 0x8b)))
}

func TestSniffTotal(t *testing.T) {
	t.Parallel()

	known := make(map[Format]bool, len(names))
	for f := range names {
		known[f] = true
	}
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			got := Sniff(pad(byte(a), byte(b)))
			assert.True(t, known[got], "bytes %02x %02x gave %v", a, b, got)
		}
	}
}

func TestSniffFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte("@r1\nACGT\n+\nIIII\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	gzPath := filepath.Join(dir, "reads.fq.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o600))
	plainPath := filepath.Join(dir, "reads.fq")
	require.NoError(t, os.WriteFile(plainPath, []byte("@r1\nACGT\n+\nIIII\n"), 0o600))
	shortPath := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(shortPath, []byte{0x1f, 0x8b}, 0o600))
	emptyPath := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o600))

	tests := []struct {
		path string
		want Format
	}{
		{gzPath, Gzip},
		{plainPath, None},
		{shortPath, None},
		{emptyPath, None},
	}
	for _, tt := range tests {
		got, err := SniffFile(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err = SniffFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSniffReaderDoesNotConsume(t *testing.T) {
	t.Parallel()

	data := []byte{0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26}
	br := bufio.NewReader(bytes.NewReader(data))

	got, err := SniffReader(br)
	require.NoError(t, err)
	assert.Equal(t, Bzip2, got)

	rest := make([]byte, len(data))
	n, err := br.Read(rest)
	require.NoError(t, err)
	assert.Equal(t, data, rest[:n])
}

func TestFormatString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gzip", Gzip.String())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "Format(99)", Format(99).String())
	assert.False(t, None.Compressed())
	assert.True(t, Xz.Compressed())
}
