package format

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgResearch/tardis/internal/parser"
)

func fastqRecord() *parser.Record {
	return &parser.Record{
		Name:     "ST-E00118:256:H52J5ALXX:3:1101:2270:1309",
		Comment:  "1:N:0:0",
		Sequence: []byte("NGAGTTTGCT"),
		Quality:  []byte("#AA<AFJJJF"),
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	fasta := &parser.Record{Name: "chr1", Sequence: []byte("ACGT")}

	tests := []struct {
		name  string
		rec   *parser.Record
		shape Shape
		want  string
	}{
		{"native fastq", fastqRecord(), Native,
			"@ST-E00118:256:H52J5ALXX:3:1101:2270:1309 1:N:0:0\nNGAGTTTGCT\n+\n#AA<AFJJJF\n"},
		{"native fasta", fasta, Native, ">chr1\nACGT\n"},
		{"fastq coerced to fasta", fastqRecord(), FASTA,
			">ST-E00118:256:H52J5ALXX:3:1101:2270:1309 1:N:0:0\nNGAGTTTGCT\n"},
		{"fasta stays fasta", fasta, FASTA, ">chr1\nACGT\n"},
		{"fastq stays fastq", fastqRecord(), FASTQ,
			"@ST-E00118:256:H52J5ALXX:3:1101:2270:1309 1:N:0:0\nNGAGTTTGCT\n+\n#AA<AFJJJF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.rec, tt.shape))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteFASTAAsFASTQFails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Write(&buf, &parser.Record{Name: "chr1", Sequence: []byte("ACGT")}, FASTQ)
	require.ErrorIs(t, err, ErrNoQuality)
	assert.Zero(t, buf.Len())
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	records := []*parser.Record{
		fastqRecord(),
		{Name: "r2", Sequence: []byte("ACGTN"), Quality: []byte("IIII!")},
		{Name: "c3", Comment: "some words here", Sequence: []byte("GATTACA")},
	}

	var buf bytes.Buffer
	for _, rec := range records {
		require.NoError(t, Write(&buf, rec, Native))
	}

	p := parser.New(&buf)
	for _, want := range records {
		got, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Comment, got.Comment)
		assert.Equal(t, want.Sequence, got.Sequence)
		assert.Equal(t, string(want.Quality), string(got.Quality))
	}
}

func TestParseShape(t *testing.T) {
	t.Parallel()

	s, err := ParseShape("fasta")
	require.NoError(t, err)
	assert.Equal(t, FASTA, s)

	s, err = ParseShape("FASTQ")
	require.NoError(t, err)
	assert.Equal(t, FASTQ, s)

	_, err = ParseShape("sam")
	require.Error(t, err)
	_, err = ParseShape("")
	require.Error(t, err)
}

func TestDetectShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Shape
	}{
		{">chr1\nACGT\n", FASTA},
		{"@r1\nACGT\n+\nIIII\n", FASTQ},
		{"\n\n  >chr1\n", FASTA},
		{"", Native},
		{"\n\n", Native},
		{"garbage", Native},
	}

	for _, tt := range tests {
		br := bufio.NewReader(strings.NewReader(tt.input))
		got, err := DetectShape(br)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.input)

		// Nothing was consumed.
		rest, err := br.Peek(len(tt.input))
		if len(tt.input) > 0 {
			require.NoError(t, err)
		}
		assert.Equal(t, tt.input, string(rest))
	}
}
