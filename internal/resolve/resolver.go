// Package resolve turns RefSNP identifiers into annotation rows, following
// merge redirects to the live record.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/clinical"
	"github.com/genomenote/rsclass/internal/refsnp"
	"github.com/genomenote/rsclass/internal/variant"
)

// DefaultMaxRedirects bounds the number of merge hops followed per identifier.
const DefaultMaxRedirects = 10

var (
	// ErrRedirectLoop is returned when a merge chain revisits an identifier.
	ErrRedirectLoop = errors.New("merge redirect loop")
	// ErrRedirectLimit is returned when a merge chain exceeds the hop limit.
	ErrRedirectLimit = errors.New("merge redirect limit exceeded")
)

// Fetcher loads a RefSNP record. *refsnp.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*refsnp.Record, error)
}

// Resolver builds annotation rows for identifiers.
type Resolver struct {
	fetcher      Fetcher
	maxRedirects int
	workers      int
	logger       *zap.Logger
}

// NewResolver creates a resolver backed by the given fetcher.
func NewResolver(f Fetcher) *Resolver {
	return &Resolver{
		fetcher:      f,
		maxRedirects: DefaultMaxRedirects,
		workers:      1,
		logger:       zap.NewNop(),
	}
}

// SetMaxRedirects sets the merge hop limit. Values below zero are treated as zero.
func (r *Resolver) SetMaxRedirects(n int) {
	r.maxRedirects = max(n, 0)
}

// SetWorkers sets the number of identifiers resolved concurrently by ResolveAll.
func (r *Resolver) SetWorkers(n int) {
	r.workers = n
}

// SetLogger sets the logger.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Resolve returns the annotation rows for id. Merged records are followed to
// the live record; rows are tagged with id itself. A record without frequency
// data yields no rows and no error.
func (r *Resolver) Resolve(ctx context.Context, id string) ([]variant.Row, error) {
	rec, err := r.follow(ctx, id)
	if err != nil {
		return nil, err
	}

	obs := rec.Observations()
	if len(obs) == 0 {
		return nil, nil
	}

	rows := variant.BuildFrequencyTable(obs)
	clinical.Summarize(rec.AlleleAnnotations()).Apply(rows)
	for i := range rows {
		rows[i].Identifier = id
	}
	return rows, nil
}

// follow fetches id and walks merged_into links until a live record is found.
func (r *Resolver) follow(ctx context.Context, id string) (*refsnp.Record, error) {
	visited := map[string]bool{id: true}
	current := id

	for hops := 0; ; hops++ {
		rec, err := r.fetcher.Fetch(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", current, err)
		}

		next := rec.MergedInto()
		if next == "" {
			return rec, nil
		}
		if visited[next] {
			return nil, fmt.Errorf("resolve %s via %s: %w", id, next, ErrRedirectLoop)
		}
		if hops >= r.maxRedirects {
			return nil, fmt.Errorf("resolve %s after %d hops: %w", id, hops, ErrRedirectLimit)
		}

		r.logger.Debug("following merge redirect",
			zap.String("rsid", id), zap.String("from", current), zap.String("to", next))
		visited[next] = true
		current = next
	}
}
