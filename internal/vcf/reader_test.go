package vcf

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReader_Example(t *testing.T) {
	r, err := Open(findTestFile(t, "example.vcf"))
	require.NoError(t, err)
	defer r.Close()
	r.SetLogger(zaptest.NewLogger(t))

	assert.Equal(t, []string{"NA00001", "NA00002", "NA00003"}, r.Schema().Samples())
	assert.True(t, strings.HasPrefix(r.HeaderText(), "##fileformat=VCFv4.0\n"))
	assert.Equal(t, 18, r.LineNumber())

	var positions []int64
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		positions = append(positions, rec.Pos)
	}

	assert.Equal(t, []int64{14370, 17330, 1110696, 1230237, 1234567}, positions)
	assert.Equal(t, 23, r.LineNumber())
}

func TestReader_NoSamplesSkipsBlankLines(t *testing.T) {
	r, err := Open(findTestFile(t, "no_samples.vcf"))
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Schema().HasSamples())

	first, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "12", first.Chrom)
	assert.Equal(t, IntValue(30), first.Info["DP"])

	second, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, []string{"T", "G"}, second.Alt)
	assert.Equal(t, FloatValue(10.5), second.Qual)
	assert.Equal(t, 6, r.LineNumber())

	end, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, end)
}

func TestReader_LastLineWithoutNewline(t *testing.T) {
	input := "##x=y\n" + chromLine + "\n1\t5\t.\tA\tC\t.\t.\t."
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(5), rec.Pos)

	_, _, err = r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestReader_HeaderOnly(t *testing.T) {
	r, err := NewReader(strings.NewReader("##x=y\n" + chromLine))
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReader_HeaderError(t *testing.T) {
	input := "##fileformat=VCFv4.2\n##INFO=<ID=DP>\n" + chromLine + "\n"
	_, err := NewReader(strings.NewReader(input))
	require.Error(t, err)

	var syn *HeaderSyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 2, syn.Line)
}

func TestReader_MissingChromLine(t *testing.T) {
	_, err := NewReader(strings.NewReader("##x=y\n1\t5\t.\tA\tC\t.\t.\t.\n"))
	var syn *HeaderSyntaxError
	require.True(t, errors.As(err, &syn))
}

func TestReader_RecordErrorHasLine(t *testing.T) {
	input := "##x=y\n" + chromLine + "\n1\t5\t.\tA\tC\t.\t.\tXX=1\n"
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)

	var unknown *UnknownFieldError
	assert.True(t, errors.As(err, &unknown))
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line: 42,
		Err:  &RecordShapeError{Message: "expected 8 columns, found 7"},
	}

	expected := "vcf parse error at line 42: vcf record shape error: expected 8 columns, found 7"
	assert.Equal(t, expected, err.Error())
}
