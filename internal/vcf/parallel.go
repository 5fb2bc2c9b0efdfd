package vcf

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkItem holds a raw record line ready for decoding.
type WorkItem struct {
	Seq  int
	Line int // line number in the source file
	Text string
}

// WorkResult holds the decoded record for a single line.
type WorkResult struct {
	Seq    int
	Line   int
	Record *Record
	Err    error
}

// ParallelDecode decodes work items against s using a pool of workers.
// Results are sent to the returned channel in arrival order; use
// OrderedCollect to consume them in sequence order. Workers stop when items
// is closed or ctx is done, and the channel is closed once they have all
// returned. If workers is 0, runtime.NumCPU() is used.
func ParallelDecode(ctx context.Context, s *Schema, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for {
				var item WorkItem
				select {
				case <-ctx.Done():
					return
				case it, ok := <-items:
					if !ok {
						return
					}
					item = it
				}

				rec, err := Decode(s, item.Text)
				if err != nil {
					err = &ParseError{Line: item.Line, Err: err}
				}
				select {
				case results <- WorkResult{Seq: item.Seq, Line: item.Line, Record: rec, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order, holding
// out-of-order results until their turn. It returns fn's first error after
// draining results, so cancel the pool's context first to stop it early.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// DecodeAll decodes every remaining record with a worker pool and calls fn
// for each result in input order. Decode failures are passed to fn in
// WorkResult.Err; fn decides whether to skip them or abort by returning an
// error, which DecodeAll returns. Reading stops early when ctx is done.
func (r *Reader) DecodeAll(ctx context.Context, workers int, fn func(WorkResult) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	poolCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	items := make(chan WorkItem, 2*workers)

	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			text, n, err := r.ReadLine()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}
			select {
			case items <- WorkItem{Seq: seq, Line: n, Text: text}:
			case <-poolCtx.Done():
				return nil
			}
		}
	})

	results := ParallelDecode(poolCtx, r.schema, items, workers)

	g.Go(func() error {
		return OrderedCollect(results, func(res WorkResult) error {
			if err := fn(res); err != nil {
				cancel()
				return err
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
