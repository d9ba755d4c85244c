package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/citations"
	"github.com/genomenote/rsclass/internal/config"
	"github.com/genomenote/rsclass/internal/duckdb"
	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/refsnp"
	"github.com/genomenote/rsclass/internal/resolve"
)

// reportBase returns the base name used for a raw file's report directory and
// report files.
func reportBase(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newClient builds the RefSNP client from the fetch settings.
func newClient(cfg config.FetchConfig, logger *zap.Logger) *refsnp.Client {
	c := refsnp.NewClient(refsnp.ClientOptions{
		BaseURL:       cfg.BaseURL,
		RecordDir:     cfg.RecordDir,
		Timeout:       cfg.Timeout(),
		RatePerSecond: cfg.RatePerSec,
		Workers:       cfg.Workers,
		AllowDownload: cfg.AllowDownload,
		Blackout:      cfg.Blackout(),
	})
	c.SetLogger(logger)
	return c
}

// newResolver builds a resolver that fetches through client.
func newResolver(cfg config.FetchConfig, client *refsnp.Client, logger *zap.Logger) *resolve.Resolver {
	r := resolve.NewResolver(client)
	r.SetMaxRedirects(cfg.MaxRedirects)
	r.SetWorkers(max(cfg.Workers, 1))
	r.SetLogger(logger)
	return r
}

// loadStudied returns the cited identifiers, or nil when citations are
// disabled or have not been downloaded yet.
func loadStudied(cfg config.CitationsConfig, logger *zap.Logger) (citations.Set, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	set, err := citations.LoadFile(cfg.Path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("citations index not found, annotating every identifier",
			zap.String("path", cfg.Path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("loaded citations index", zap.Int("identifiers", len(set)))
	return set, nil
}

// loadCalls parses the raw genotype file at path, reusing the gob copy in
// cacheDir when the source file has not changed.
func loadCalls(path, cacheDir string, logger *zap.Logger) ([]genotype.Call, error) {
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return nil, fmt.Errorf("stat genotype file: %w", err)
	}

	cc := duckdb.NewCallCache(cacheDir)
	if cc.Valid(fp) {
		calls, format, err := cc.Load()
		if err == nil {
			logger.Debug("loaded cached genotype calls",
				zap.String("format", string(format)), zap.Int("calls", len(calls)))
			return calls, nil
		}
		logger.Warn("ignoring unreadable call cache", zap.Error(err))
	}

	calls, format, err := genotype.ReadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed genotype file",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("calls", len(calls)))

	if err := cc.Write(calls, format, fp); err != nil {
		logger.Warn("could not cache genotype calls", zap.Error(err))
	}
	return calls, nil
}
