package refsnp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the NCBI Variation Services RefSNP endpoint.
const DefaultBaseURL = "https://api.ncbi.nlm.nih.gov/variation/v0/refsnp"

var (
	// ErrNotFound is returned when the service has no record for an identifier.
	ErrNotFound = errors.New("refsnp record not found")
	// ErrOffline is returned when a record is not on disk and downloads are disabled.
	ErrOffline = errors.New("refsnp record not cached and downloads are disabled")
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL       string
	RecordDir     string
	Timeout       time.Duration
	RatePerSecond float64
	Workers       int
	AllowDownload bool
	Blackout      BlackoutWindow
	HTTPClient    *http.Client
}

// Client fetches RefSNP records, keeping a copy of every downloaded document
// under RecordDir. All requests made through one Client share a single token
// bucket, so concurrent callers never exceed RatePerSecond.
type Client struct {
	opts    ClientOptions
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
	fetches atomic.Int64
}

// NewClient creates a Client. Zero-valued options fall back to the service
// defaults: one request per second and a five second timeout.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	limit := rate.Limit(opts.RatePerSecond)
	if opts.RatePerSecond < 0 {
		limit = rate.Inf
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		opts:    opts,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
}

// SetLogger sets the logger used for download diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Fetches returns the number of HTTP requests issued so far.
func (c *Client) Fetches() int64 {
	return c.fetches.Load()
}

// Cached reports whether the record for id is already on disk.
func (c *Client) Cached(id string) bool {
	_, err := os.Stat(c.recordPath(id))
	return err == nil
}

// Fetch returns the record for id, reading it from disk when present and
// downloading it otherwise.
func (c *Client) Fetch(ctx context.Context, id string) (*Record, error) {
	if _, err := Number(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.recordPath(id))
	if err == nil {
		rec, perr := Parse(data)
		if perr == nil {
			return rec, nil
		}
		if !c.opts.AllowDownload {
			return nil, fmt.Errorf("read cached %s: %w", id, perr)
		}
		c.logger.Warn("discarding unreadable cached record",
			zap.String("rsid", id), zap.Error(perr))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read cached %s: %w", id, err)
	}

	if !c.opts.AllowDownload {
		return nil, fmt.Errorf("%s: %w", id, ErrOffline)
	}

	data, err = c.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Download retrieves the record for id from the service and stores it under
// RecordDir, replacing any previous copy.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	n, err := Number(id)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + "/" + strconv.FormatUint(n, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.fetches.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", id, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	if _, err := Parse(data); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	if err := c.store(id, data); err != nil {
		return nil, err
	}
	c.logger.Debug("downloaded refsnp record", zap.String("rsid", id), zap.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) recordPath(id string) string {
	return filepath.Join(c.opts.RecordDir, id+".json")
}

// store writes data to a temporary file and renames it into place so readers
// never observe a partial record.
func (c *Client) store(id string, data []byte) error {
	if err := os.MkdirAll(c.opts.RecordDir, 0755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.opts.RecordDir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), c.recordPath(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename record %s: %w", id, err)
	}
	return nil
}
