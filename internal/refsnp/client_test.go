package refsnp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves testdata/rs<N>.json for /<N> and 404 for anything else.
func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		num := strings.TrimPrefix(r.URL.Path, "/")
		data, err := os.ReadFile(filepath.Join("testdata", "rs"+num+".json"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(t *testing.T, baseURL string, allow bool) *Client {
	t.Helper()
	return NewClient(ClientOptions{
		BaseURL:       baseURL,
		RecordDir:     t.TempDir(),
		RatePerSecond: -1,
		Workers:       2,
		AllowDownload: allow,
	})
}

func TestFetch_DownloadsOnceThenReadsDisk(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, true)
	ctx := context.Background()

	rec, err := c.Fetch(ctx, "rs328")
	require.NoError(t, err)
	assert.Equal(t, ID("328"), rec.RefSNPID)
	assert.True(t, c.Cached("rs328"))

	_, err = c.Fetch(ctx, "rs328")
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, int64(1), c.Fetches())

	// No temp files left behind.
	entries, err := os.ReadDir(c.opts.RecordDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rs328.json", entries[0].Name())
}

func TestFetch_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL, true)

	_, err := c.Fetch(context.Background(), "rs999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, c.Cached("rs999"))
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, true)

	_, err := c.Fetch(context.Background(), "rs1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetch_Offline(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, false)

	_, err := c.Fetch(context.Background(), "rs328")
	assert.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, hits.Load())
}

func TestFetch_OfflineServesDisk(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", false)
	data, err := os.ReadFile("testdata/rs328.json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(c.opts.RecordDir, "rs328.json"), data, 0644))

	rec, err := c.Fetch(context.Background(), "rs328")
	require.NoError(t, err)
	assert.Len(t, rec.AlleleAnnotations(), 2)
}

func TestFetch_ReplacesCorruptRecord(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, true)
	require.NoError(t, os.WriteFile(filepath.Join(c.opts.RecordDir, "rs328.json"), []byte("{"), 0644))

	rec, err := c.Fetch(context.Background(), "rs328")
	require.NoError(t, err)
	assert.Equal(t, ID("328"), rec.RefSNPID)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetch_InvalidIdentifier(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, true)

	_, err := c.Fetch(context.Background(), "i5000001")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Zero(t, hits.Load())
}

func TestFetch_SharedLimiter(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(ClientOptions{
		BaseURL:       srv.URL,
		RecordDir:     t.TempDir(),
		RatePerSecond: 20,
		AllowDownload: true,
	})

	start := time.Now()
	for _, id := range []string{"rs328", "rs100", "rs1", "rs2"} {
		c.Fetch(context.Background(), id)
	}
	// Burst of one: three waits of 50ms after the first request.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestBlackoutWindow(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2024, 3, 1, hour, 30, 0, 0, time.Local)
	}

	tests := []struct {
		name   string
		window BlackoutWindow
		hour   int
		want   bool
	}{
		{"before", DefaultBlackout, 9, false},
		{"start inclusive", DefaultBlackout, 10, true},
		{"inside", DefaultBlackout, 14, true},
		{"end exclusive", DefaultBlackout, 15, false},
		{"empty", BlackoutWindow{}, 0, false},
		{"wrapping late", BlackoutWindow{StartHour: 22, EndHour: 2}, 23, true},
		{"wrapping early", BlackoutWindow{StartHour: 22, EndHour: 2}, 1, true},
		{"wrapping outside", BlackoutWindow{StartHour: 22, EndHour: 2}, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(at(tt.hour)))
		})
	}
}

func TestHasNewBulkData(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, true)
	c.opts.Blackout = DefaultBlackout
	c.now = func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.Local) }
	ctx := context.Background()

	got, err := c.HasNewBulkData(ctx, []string{"rs328", "rs100", "rs999", "i1", "rs328"})
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, int64(3), hits.Load())
	assert.True(t, c.Cached("rs328"))
	assert.True(t, c.Cached("rs100"))
	assert.False(t, c.Cached("rs999"))

	// Everything that exists is on disk now; only the missing record is retried.
	got, err = c.HasNewBulkData(ctx, []string{"rs328", "rs100", "rs999"})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, int64(4), hits.Load())
}

func TestHasNewBulkData_Blackout(t *testing.T) {
	srv, hits := newTestServer(t)
	c := newTestClient(t, srv.URL, true)
	c.opts.Blackout = DefaultBlackout
	c.now = func() time.Time { return time.Date(2024, 3, 1, 11, 0, 0, 0, time.Local) }

	got, err := c.HasNewBulkData(context.Background(), []string{"rs328"})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Zero(t, hits.Load())
}

func TestHasNewBulkData_Offline(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", false)
	c.now = func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.Local) }

	_, err := c.HasNewBulkData(context.Background(), []string{"rs328"})
	assert.ErrorIs(t, err, ErrOffline)
}
