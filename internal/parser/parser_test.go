package parser

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFASTQRecord(t *testing.T) {
	input := `@SEQ_ID description
ACGTACGT
+
IIIIIIII
`
	p := New(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)

	assert.Equal(t, "SEQ_ID", rec.Name)
	assert.Equal(t, "description", rec.Comment)
	assert.Equal(t, []byte("ACGTACGT"), rec.Sequence)
	assert.Equal(t, []byte("IIIIIIII"), rec.Quality)
	assert.True(t, rec.IsFASTQ())

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseMultipleRecords(t *testing.T) {
	input := `@SEQ_1
AAAA
+
!!!!
@SEQ_2
CCCC
+
####
@SEQ_3
GGGG
+
$$$$
`
	p := New(strings.NewReader(input))

	tests := []struct {
		name string
		seq  string
		qual string
	}{
		{"SEQ_1", "AAAA", "!!!!"},
		{"SEQ_2", "CCCC", "####"},
		{"SEQ_3", "GGGG", "$$$$"},
	}

	for _, tt := range tests {
		rec, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, tt.name, rec.Name)
		assert.Empty(t, rec.Comment)
		assert.Equal(t, []byte(tt.seq), rec.Sequence)
		assert.Equal(t, []byte(tt.qual), rec.Quality)
	}

	// Should get EOF after all records
	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseFASTAMultiLine(t *testing.T) {
	input := `>chr1 Homo sapiens chromosome 1
ACGTACGT
ACGT

>chr2
GGGG
>chr3 empty`
	p := New(strings.NewReader(input))

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "chr1", rec.Name)
	assert.Equal(t, "Homo sapiens chromosome 1", rec.Comment)
	assert.Equal(t, []byte("ACGTACGTACGT"), rec.Sequence)
	assert.False(t, rec.IsFASTQ())

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "chr2", rec.Name)
	assert.Equal(t, []byte("GGGG"), rec.Sequence)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "chr3", rec.Name)
	assert.Equal(t, "empty", rec.Comment)
	assert.Empty(t, rec.Sequence)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseFASTQMultiLineQuality(t *testing.T) {
	input := "@r1\nACGT\nACGT\n+r1\nIIII\n@@@@\n@r2\nTT\n+\n##\n"
	p := New(strings.NewReader(input))

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("ACGTACGT"), rec.Sequence)
	// A quality line may legitimately start with '@'.
	assert.Equal(t, []byte("IIII@@@@"), rec.Quality)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.Name)
	assert.Equal(t, []byte("##"), rec.Quality)
}

func TestParseCRLF(t *testing.T) {
	p := New(strings.NewReader("@r1 c\r\nAC\r\n+\r\nII\r\n"))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "c", rec.Comment)
	assert.Equal(t, []byte("AC"), rec.Sequence)
	assert.Equal(t, []byte("II"), rec.Quality)
}

func TestParseTabSeparatedComment(t *testing.T) {
	p := New(strings.NewReader(">r1\tlen=4 x\nACGT\n"))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.Name)
	assert.Equal(t, "len=4 x", rec.Comment)
}

func TestParseEmptyInput(t *testing.T) {
	p := New(strings.NewReader(""))
	_, err := p.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, IsParseError(err))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"no header marker", "SEQ_ID\nACGT\n+\nIIII\n", 1},
		{"mismatched length", "@SEQ_ID\nACGTACGT\n+\nIIIIIIIIII\n", 4},
		{"missing plus", "@SEQ_ID\nACGT\n", 2},
		{"truncated quality", "@SEQ_ID\nACGTACGT\n+\nIII\n", 4},
		{"empty name", "@ comment\nACGT\n+\nIIII\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(strings.NewReader(tt.input))
			_, err := p.Next()
			require.Error(t, err)
			assert.NotErrorIs(t, err, io.EOF)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParseErrorAfterGoodRecords(t *testing.T) {
	input := "@r1\nAC\n+\nII\n@r2\nACGT\n+\nI\n"
	p := New(strings.NewReader(input))

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.Name)

	_, err = p.Next()
	assert.True(t, IsParseError(err))
}

func TestParseIlluminaHeader(t *testing.T) {
	input := `@HWI-ST123:4:1101:14346:1976#0/1 1:N:0:0
ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT
+
IIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIII
`
	p := New(strings.NewReader(input))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "HWI-ST123:4:1101:14346:1976#0/1", rec.Name)
	assert.Equal(t, "1:N:0:0", rec.Comment)
}

func TestParseLongLine(t *testing.T) {
	seq := strings.Repeat("ACGT", 1<<19) // 2 MiB, larger than the reader buffer
	p := New(strings.NewReader(">big\n" + seq + "\n"))
	rec, err := p.Next()
	require.NoError(t, err)
	assert.Len(t, rec.Sequence, len(seq))
}

func BenchmarkParser(b *testing.B) {
	var buf bytes.Buffer
	seq := strings.Repeat("ACGT", 38) // 152 bp typical Illumina read
	qual := strings.Repeat("I", 152)
	for i := 0; i < 10000; i++ {
		buf.WriteString("@HWI-ST123:4:1101:14346:1976#0/1 1:N:0:0\n")
		buf.WriteString(seq + "\n")
		buf.WriteString("+\n")
		buf.WriteString(qual + "\n")
	}
	input := buf.Bytes()

	b.ResetTimer()
	b.SetBytes(int64(len(input)))

	for i := 0; i < b.N; i++ {
		p := New(bytes.NewReader(input))
		for {
			_, err := p.Next()
			if err != nil {
				break
			}
		}
	}
}
