package vcf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parallelSchema() *Schema {
	return NewSchema([]Declaration{
		InfoDecl{FieldDef{ID: "DP", Number: Fixed(1), Type: Integer}},
	})
}

func makeItems(n int) <-chan WorkItem {
	ch := make(chan WorkItem, n)
	for i := range n {
		ch <- WorkItem{
			Seq:  i,
			Line: i + 2,
			Text: fmt.Sprintf("1\t%d\t.\tA\tT\t.\tPASS\tDP=%d", 100+i, i),
		}
	}
	close(ch)
	return ch
}

func TestParallelDecode_OrderPreservation(t *testing.T) {
	results := ParallelDecode(context.Background(), parallelSchema(), makeItems(200), 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		require.NoError(t, r.Err)
		assert.Equal(t, int64(100+r.Seq), r.Record.Pos)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelDecode_SingleWorker(t *testing.T) {
	results := ParallelDecode(context.Background(), parallelSchema(), makeItems(50), 1)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 50)
	for i, seq := range collected {
		assert.Equal(t, i, seq)
	}
}

func TestParallelDecode_EmptyInput(t *testing.T) {
	ch := make(chan WorkItem)
	close(ch)
	results := ParallelDecode(context.Background(), parallelSchema(), ch, 4)

	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestParallelDecode_ErrorCarriesLine(t *testing.T) {
	ch := make(chan WorkItem, 1)
	ch <- WorkItem{Seq: 0, Line: 7, Text: "1\t100\t.\tA\tT\t.\tPASS\tXX=1"}
	close(ch)

	err := OrderedCollect(ParallelDecode(context.Background(), parallelSchema(), ch, 2), func(r WorkResult) error {
		require.Error(t, r.Err)
		assert.Nil(t, r.Record)

		var pe *ParseError
		require.True(t, errors.As(r.Err, &pe))
		assert.Equal(t, 7, pe.Line)
		return nil
	})
	require.NoError(t, err)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	results := ParallelDecode(context.Background(), parallelSchema(), makeItems(100), 4)

	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}

func TestReader_DecodeAll(t *testing.T) {
	r, err := Open(findTestFile(t, "example.vcf"))
	require.NoError(t, err)
	defer r.Close()

	var lines []int
	var positions []int64
	err = r.DecodeAll(context.Background(), 3, func(res WorkResult) error {
		if res.Err != nil {
			return res.Err
		}
		lines = append(lines, res.Line)
		positions = append(positions, res.Record.Pos)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{19, 20, 21, 22, 23}, lines)
	assert.Equal(t, []int64{14370, 17330, 1110696, 1230237, 1234567}, positions)
}

func TestReader_DecodeAllStopsOnCallbackError(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Depth\">\n" + chromLine + "\n")
	for i := range 500 {
		fmt.Fprintf(&sb, "1\t%d\t.\tA\tT\t.\tPASS\tDP=%d\n", i+1, i)
	}

	r, err := NewReader(strings.NewReader(sb.String()))
	require.NoError(t, err)

	stop := errors.New("stop")
	seen := 0
	err = r.DecodeAll(context.Background(), 4, func(res WorkResult) error {
		seen++
		if seen == 10 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 10, seen)
}

func TestReader_DecodeAllStopsOnInvalidRecord(t *testing.T) {
	r, err := NewReader(strings.NewReader(manyRecords(500, 6)))
	require.NoError(t, err)

	var positions []int64
	err = r.DecodeAll(context.Background(), 4, func(res WorkResult) error {
		if res.Err != nil {
			return res.Err
		}
		positions = append(positions, res.Record.Pos)
		return nil
	})

	var vfe *ValueFormatError
	require.ErrorAs(t, err, &vfe)
	assert.Equal(t, "DP", vfe.Field)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 8, pe.Line)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, positions)
}

func TestReader_DecodeAllCanceled(t *testing.T) {
	r, err := NewReader(strings.NewReader(manyRecords(500, -1)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	err = r.DecodeAll(ctx, 2, func(res WorkResult) error {
		seen++
		if seen == 3 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, seen, 500)
}

func TestParallelDecode_CancelClosesResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make(chan WorkItem) // never closed
	results := ParallelDecode(ctx, parallelSchema(), items, 4)

	cancel()
	for range results {
	}
}

// manyRecords builds a DP-only VCF with n records at positions 1..n. The
// record at position bad, if any, carries a non-integer depth.
func manyRecords(n, bad int) string {
	var sb strings.Builder
	sb.WriteString("##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Depth\">\n" + chromLine + "\n")
	for i := 1; i <= n; i++ {
		dp := strconv.Itoa(i)
		if i == bad {
			dp = "abc"
		}
		fmt.Fprintf(&sb, "1\t%d\t.\tA\tT\t.\tPASS\tDP=%s\n", i, dp)
	}
	return sb.String()
}
