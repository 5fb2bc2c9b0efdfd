package main

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gusevfe/bio-db-vcf/internal/duckdb"
	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

const commandHeader = `##fileformat=VCFv4.2
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total Depth",Source="caller",Version="2">
##FILTER=<ID=q10,Description="Quality below 10">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1
`

// writeVCF writes n records at positions 1..n; the record at position bad,
// if any, has a non-integer depth.
func writeVCF(t *testing.T, n, bad int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(commandHeader)
	for i := 1; i <= n; i++ {
		dp := fmt.Sprint(i)
		if i == bad {
			dp = "abc"
		}
		filter := "PASS"
		if i%2 == 0 {
			filter = "q10"
		}
		fmt.Fprintf(&sb, "1\t%d\t.\tA\tT\t50\t%s\tDP=%s\tGT\t0|1\n", i, filter, dp)
	}
	path := filepath.Join(t.TempDir(), "input.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Decode.Workers = 4
	cfg.Load.DB = filepath.Join(t.TempDir(), "db", "variants.duckdb")
	cfg.Load.BatchSize = 2
	cfg.Load.LockTimeout = time.Second
	return cfg
}

func TestRunDecode(t *testing.T) {
	path := writeVCF(t, 20, -1)

	var out bytes.Buffer
	require.NoError(t, runDecode(context.Background(), path, &out, testConfig(t), false))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 20)
	assert.Contains(t, lines[0], `"pos":1`)
	assert.Contains(t, lines[0], `"DP":1`)
	assert.Contains(t, lines[19], `"pos":20`)
}

func TestRunDecode_PassOnly(t *testing.T) {
	path := writeVCF(t, 10, -1)

	var out bytes.Buffer
	require.NoError(t, runDecode(context.Background(), path, &out, testConfig(t), true))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 5)
}

func TestRunDecode_InvalidRecordFails(t *testing.T) {
	path := writeVCF(t, 500, 6)

	var out bytes.Buffer
	err := runDecode(context.Background(), path, &out, testConfig(t), false)
	require.Error(t, err)

	var vfe *vcf.ValueFormatError
	require.ErrorAs(t, err, &vfe)
	assert.Equal(t, "DP", vfe.Field)
}

func TestRunDecode_SkipInvalid(t *testing.T) {
	path := writeVCF(t, 50, 6)
	cfg := testConfig(t)
	cfg.Decode.SkipInvalid = true

	var out bytes.Buffer
	require.NoError(t, runDecode(context.Background(), path, &out, cfg, false))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 49)
	assert.NotContains(t, out.String(), `"pos":6,`)
}

func TestRunLoad(t *testing.T) {
	path := writeVCF(t, 7, -1)
	cfg := testConfig(t)

	require.NoError(t, runLoad(context.Background(), path, cfg, false))
	// unchanged file is skipped
	require.NoError(t, runLoad(context.Background(), path, cfg, false))

	store, err := duckdb.Open(cfg.Load.DB)
	require.NoError(t, err)
	defer store.Close()

	sources, err := store.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, 1, sources[0].SampleCount)

	n, err := store.CountRecords(sources[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	var out bytes.Buffer
	require.NoError(t, runQuery(&out, store, "1", 3, "S1"))
	assert.Contains(t, out.String(), "A|T")

	out.Reset()
	require.NoError(t, runSources(&out, store))
	assert.Contains(t, out.String(), sources[0].RunID)
	assert.Contains(t, out.String(), path)
}

func TestRunLoad_ForceReplacesRun(t *testing.T) {
	path := writeVCF(t, 3, -1)
	cfg := testConfig(t)

	require.NoError(t, runLoad(context.Background(), path, cfg, false))
	require.NoError(t, runLoad(context.Background(), path, cfg, true))

	store, err := duckdb.Open(cfg.Load.DB)
	require.NoError(t, err)
	defer store.Close()

	sources, err := store.Sources()
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestRunLoad_InvalidRecordLeavesNoRun(t *testing.T) {
	path := writeVCF(t, 500, 6)
	cfg := testConfig(t)

	err := runLoad(context.Background(), path, cfg, false)
	require.Error(t, err)

	var vfe *vcf.ValueFormatError
	require.ErrorAs(t, err, &vfe)

	store, err := duckdb.Open(cfg.Load.DB)
	require.NoError(t, err)
	defer store.Close()

	sources, err := store.Sources()
	require.NoError(t, err)
	assert.Empty(t, sources)

	var records, genotypes int
	require.NoError(t, store.DB().QueryRow(`SELECT count(*) FROM records`).Scan(&records))
	require.NoError(t, store.DB().QueryRow(`SELECT count(*) FROM genotypes`).Scan(&genotypes))
	assert.Zero(t, records)
	assert.Zero(t, genotypes)

	_, found, err := store.FindSource(mustStat(t, path))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHeaderSummary_Extra(t *testing.T) {
	schema, err := vcf.ParseSchema(commandHeader)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeHeaderSummary(&out, schema))
	assert.Contains(t, out.String(), "Source: caller")
	assert.Contains(t, out.String(), `Version: "2"`)
	assert.Contains(t, out.String(), "- S1")
}

func mustStat(t *testing.T, path string) duckdb.FileFingerprint {
	t.Helper()
	fp, err := duckdb.StatFile(path)
	require.NoError(t, err)
	return fp
}

func TestHeaderCmd_MissingFileHint(t *testing.T) {
	cmd := newHeaderCmd()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.vcf")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "check that the file path is correct")
}
