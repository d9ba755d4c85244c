package refsnp

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BlackoutWindow is a daily range of local hours, [StartHour, EndHour), during
// which bulk downloads are not attempted. A window whose start equals its end
// is empty; one whose start is after its end wraps past midnight.
type BlackoutWindow struct {
	StartHour int
	EndHour   int
}

// DefaultBlackout covers the service's busiest hours.
var DefaultBlackout = BlackoutWindow{StartHour: 10, EndHour: 15}

// Contains reports whether t falls inside the window.
func (w BlackoutWindow) Contains(t time.Time) bool {
	h := t.Hour()
	switch {
	case w.StartHour == w.EndHour:
		return false
	case w.StartHour < w.EndHour:
		return h >= w.StartHour && h < w.EndHour
	default:
		return h >= w.StartHour || h < w.EndHour
	}
}

// HasNewBulkData downloads every identifier in ids that is not yet on disk and
// reports whether at least one new record landed. Inside the blackout window
// nothing is requested and the result is false. Failures for individual
// identifiers are logged and skipped; only context cancellation is returned.
func (c *Client) HasNewBulkData(ctx context.Context, ids []string) (bool, error) {
	if c.opts.Blackout.Contains(c.now()) {
		c.logger.Info("skipping bulk download inside blackout window",
			zap.Int("start_hour", c.opts.Blackout.StartHour),
			zap.Int("end_hour", c.opts.Blackout.EndHour))
		return false, nil
	}
	if !c.opts.AllowDownload {
		return false, ErrOffline
	}

	var pending []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || !IsIdentifier(id) || c.Cached(id) {
			continue
		}
		seen[id] = true
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return false, nil
	}

	c.logger.Info("downloading refsnp records", zap.Int("count", len(pending)))

	var landed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, id := range pending {
		id := id
		g.Go(func() error {
			if _, err := c.Download(gctx, id); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("bulk download failed", zap.String("rsid", id), zap.Error(err))
				return nil
			}
			landed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return landed.Load() > 0, err
	}

	c.logger.Info("bulk download finished",
		zap.Int64("downloaded", landed.Load()),
		zap.Int("requested", len(pending)))
	return landed.Load() > 0, nil
}
