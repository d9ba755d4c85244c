// Package cache maintains the persisted annotation table, extending it only
// with identifiers that have not been resolved before.
package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/resolve"
	"github.com/genomenote/rsclass/internal/variant"
)

// Store is the persisted annotation table. *duckdb.Store implements it.
type Store interface {
	KnownIdentifiers(ctx context.Context, ids []string) (map[string]bool, error)
	LoadAnnotations(ctx context.Context, ids []string) ([]variant.Row, error)
	AppendAnnotations(ctx context.Context, ids []string, rows []variant.Row) error
	ReplaceAnnotations(ctx context.Context, ids []string, rows []variant.Row) error
}

// Resolver resolves a batch of identifiers. *resolve.Resolver implements it.
type Resolver interface {
	ResolveAll(ctx context.Context, ids []string) []resolve.WorkResult
}

// Result is the annotation table restricted to the requested identifiers.
type Result struct {
	Rows []variant.Row
	// Fetched lists identifiers resolved during this call.
	Fetched []string
	// Failed lists identifiers whose resolution failed; they have no rows.
	Failed []string
	// Incomplete is set when any identifier failed, e.g. because the record
	// service could not be reached.
	Incomplete bool
}

// Cache serves annotation rows, resolving only identifiers the store has not
// seen. Each Cache owns its store handle; caches never share progress state.
type Cache struct {
	store    Store
	resolver Resolver
	logger   *zap.Logger
}

// New creates a cache over store, resolving missing identifiers with resolver.
func New(store Store, resolver Resolver) *Cache {
	return &Cache{store: store, resolver: resolver, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (c *Cache) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Rows returns the rows for ids. Identifiers already persisted are served from
// the store; the rest are resolved and appended in a single write at the end
// of the batch. A failed identifier does not abort the batch. A failed write is
// returned and nothing from the batch is kept.
func (c *Cache) Rows(ctx context.Context, ids []string) (*Result, error) {
	ids = unique(ids)

	known, err := c.store.KnownIdentifiers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load resolved identifiers: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}

	res := &Result{}
	if len(missing) > 0 {
		c.logger.Info("resolving new identifiers",
			zap.Int("requested", len(ids)),
			zap.Int("missing", len(missing)))

		fetched, rows := c.resolveBatch(ctx, missing, res)
		if err := c.store.AppendAnnotations(ctx, fetched, rows); err != nil {
			return nil, fmt.Errorf("persist annotations: %w", err)
		}
		res.Fetched = fetched
	}

	rows, err := c.store.LoadAnnotations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	res.Rows = rows
	return res, nil
}

// Rebuild re-resolves every identifier in ids regardless of what is persisted
// and replaces their stored rows. Identifiers that fail keep their old rows.
func (c *Cache) Rebuild(ctx context.Context, ids []string) (*Result, error) {
	ids = unique(ids)
	c.logger.Info("rebuilding annotations", zap.Int("identifiers", len(ids)))

	res := &Result{}
	fetched, rows := c.resolveBatch(ctx, ids, res)
	if err := c.store.ReplaceAnnotations(ctx, fetched, rows); err != nil {
		return nil, fmt.Errorf("persist annotations: %w", err)
	}
	res.Fetched = fetched

	loaded, err := c.store.LoadAnnotations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	res.Rows = loaded
	return res, nil
}

// resolveBatch resolves ids, recording failures on res, and returns the
// identifiers that resolved together with their rows.
func (c *Cache) resolveBatch(ctx context.Context, ids []string, res *Result) ([]string, []variant.Row) {
	var fetched []string
	var rows []variant.Row

	for _, r := range c.resolver.ResolveAll(ctx, ids) {
		if r.Err != nil {
			c.logger.Warn("resolve identifier failed", zap.String("rsid", r.ID), zap.Error(r.Err))
			res.Failed = append(res.Failed, r.ID)
			continue
		}
		fetched = append(fetched, r.ID)
		rows = append(rows, r.Rows...)
	}

	res.Incomplete = len(res.Failed) > 0
	if res.Incomplete {
		c.logger.Warn("annotation table is incomplete",
			zap.Int("failed", len(res.Failed)),
			zap.Int("resolved", len(fetched)))
	}
	return fetched, rows
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
