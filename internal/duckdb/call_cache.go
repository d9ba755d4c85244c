package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/genomenote/rsclass/internal/genotype"
)

// CallCache keeps the parsed calls of one raw genotype file as gob, next to
// the reports generated from it:
//
//	{dir}/calls.gob       (serialized calls)
//	{dir}/calls.gob.meta  (source file fingerprint)
type CallCache struct {
	dir string
}

// NewCallCache creates a call cache rooted at dir.
func NewCallCache(dir string) *CallCache {
	return &CallCache{dir: dir}
}

type callCacheData struct {
	Format genotype.Format
	Calls  []genotype.Call
}

func (cc *CallCache) gobPath() string {
	return filepath.Join(cc.dir, "calls.gob")
}

func (cc *CallCache) metaPath() string {
	return filepath.Join(cc.dir, "calls.gob.meta")
}

// Valid checks whether the cached calls were parsed from the current source file.
func (cc *CallCache) Valid(source FileFingerprint) bool {
	meta, err := cc.readMeta()
	if err != nil {
		return false
	}
	if !source.matches(meta, "source") {
		return false
	}

	if _, err := os.Stat(cc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the cached calls.
func (cc *CallCache) Load() ([]genotype.Call, genotype.Format, error) {
	f, err := os.Open(cc.gobPath())
	if err != nil {
		return nil, "", fmt.Errorf("open call cache: %w", err)
	}
	defer f.Close()

	var data callCacheData
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, "", fmt.Errorf("decode call cache: %w", err)
	}
	return data.Calls, data.Format, nil
}

// Write serializes calls to disk along with the source fingerprint.
func (cc *CallCache) Write(calls []genotype.Call, format genotype.Format, source FileFingerprint) error {
	if err := os.MkdirAll(cc.dir, 0755); err != nil {
		return fmt.Errorf("create call cache directory: %w", err)
	}

	f, err := os.Create(cc.gobPath())
	if err != nil {
		return fmt.Errorf("create call cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(callCacheData{Format: format, Calls: calls}); err != nil {
		f.Close()
		os.Remove(cc.gobPath())
		return fmt.Errorf("encode call cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close call cache: %w", err)
	}

	return cc.writeMeta(source)
}

// Clear removes the cached call files.
func (cc *CallCache) Clear() {
	os.Remove(cc.gobPath())
	os.Remove(cc.metaPath())
}

func (cc *CallCache) writeMeta(source FileFingerprint) error {
	lines := append(source.metaLines("source"),
		"source_path="+source.Path,
		"created_at="+time.Now().UTC().Format(time.RFC3339),
		"",
	)
	return os.WriteFile(cc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (cc *CallCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(cc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
