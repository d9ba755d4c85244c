package resolve

import (
	"context"
	"runtime"
	"sync"

	"github.com/genomenote/rsclass/internal/variant"
)

// WorkItem is an identifier queued for resolution.
type WorkItem struct {
	Seq int
	ID  string
}

// WorkResult is the outcome of resolving one identifier.
type WorkResult struct {
	Seq  int
	ID   string
	Rows []variant.Row
	Err  error
}

// ParallelResolve fans items out over workers goroutines. Results arrive in
// completion order; OrderedCollect restores request order. workers <= 0 means
// runtime.NumCPU(). All workers fetch through the same Fetcher, so a rate
// limit inside it is global.
func (r *Resolver) ParallelResolve(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				rows, err := r.Resolve(ctx, item.ID)
				results <- WorkResult{
					Seq:  item.Seq,
					ID:   item.ID,
					Rows: rows,
					Err:  err,
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

// OrderedCollect calls fn for each result in Seq order, holding early
// arrivals until their turn. If fn fails the channel is drained and the error
// returned.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for res := range results {
		pending[res.Seq] = res

		for {
			next, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(next); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// ResolveAll resolves ids with the configured number of workers and returns
// one result per identifier in input order.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) []WorkResult {
	items := make(chan WorkItem, len(ids))
	for i, id := range ids {
		items <- WorkItem{Seq: i, ID: id}
	}
	close(items)

	out := make([]WorkResult, 0, len(ids))
	OrderedCollect(r.ParallelResolve(ctx, items, r.workers), func(res WorkResult) error {
		out = append(out, res)
		return nil
	})
	return out
}
