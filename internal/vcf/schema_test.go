package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema_Example(t *testing.T) {
	s, err := ParseSchema(exampleHeader(t))
	require.NoError(t, err)

	assert.Len(t, s.MetaKeys(), 5)
	assert.Len(t, s.InfoIDs(), 6)
	assert.Len(t, s.FilterIDs(), 2)
	assert.Len(t, s.FormatIDs(), 4)
	assert.Equal(t, []string{"NA00001", "NA00002", "NA00003"}, s.Samples())
	assert.True(t, s.HasSamples())
	assert.Equal(t, 12, s.Columns())

	af, ok := s.Info("AF")
	require.True(t, ok)
	assert.Equal(t, NumberUnbounded, af.Number.Kind)
	assert.Equal(t, Float, af.Type)

	q10, ok := s.Filter("q10")
	require.True(t, ok)
	assert.Equal(t, "Quality below 10", q10.Description)

	v, ok := s.Meta("reference")
	require.True(t, ok)
	assert.Equal(t, "1000GenomesPilot-NCBI36", v)

	_, ok = s.Format("XX")
	assert.False(t, ok)
}

func TestNewSchema_LastWriteWins(t *testing.T) {
	s := NewSchema([]Declaration{
		MetaDecl{Key: "source", Value: "first"},
		InfoDecl{FieldDef{ID: "DP", Number: Fixed(1), Type: Integer, Description: "first"}},
		FormatDecl{FieldDef{ID: "GT", Number: Fixed(1), Type: String}},
		InfoDecl{FieldDef{ID: "AF", Number: NumberSpec{Kind: NumberPerAllele}, Type: Float}},
		InfoDecl{FieldDef{ID: "DP", Number: Fixed(1), Type: Float, Description: "second"}},
		MetaDecl{Key: "source", Value: "second"},
		SamplesDecl{Names: []string{}},
	})

	dp, ok := s.Info("DP")
	require.True(t, ok)
	assert.Equal(t, "second", dp.Description)
	assert.Equal(t, Float, dp.Type)
	assert.Equal(t, []string{"DP", "AF"}, s.InfoIDs())

	src, _ := s.Meta("source")
	assert.Equal(t, "second", src)
	assert.Equal(t, []string{"source"}, s.MetaKeys())
}

func TestNewSchema_NoSamples(t *testing.T) {
	s := NewSchema([]Declaration{MetaDecl{Key: "fileformat", Value: "VCFv4.2"}})
	assert.False(t, s.HasSamples())
	assert.NotNil(t, s.Samples())
	assert.Empty(t, s.Samples())
	assert.Equal(t, 8, s.Columns())
}

func TestSchema_SamplesIsCopy(t *testing.T) {
	s := NewSchema([]Declaration{SamplesDecl{Names: []string{"A", "B"}}})
	got := s.Samples()
	got[0] = "mutated"
	assert.Equal(t, []string{"A", "B"}, s.Samples())
}
