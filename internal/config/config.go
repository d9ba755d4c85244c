// Package config loads rsclass settings from defaults, ~/.rsclass.yaml and
// RSCLASS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/genomenote/rsclass/internal/citations"
	"github.com/genomenote/rsclass/internal/refsnp"
	"github.com/genomenote/rsclass/internal/resolve"
)

// FileName is the config file looked up in the home directory.
const FileName = ".rsclass.yaml"

// Config holds the full application configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir" mapstructure:"data_dir"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Citations CitationsConfig `yaml:"citations" mapstructure:"citations"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the annotation database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FetchConfig configures RefSNP record retrieval.
type FetchConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RecordDir         string  `yaml:"record_dir" mapstructure:"record_dir"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec        float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	AllowDownload     bool    `yaml:"allow_download" mapstructure:"allow_download"`
	MaxRedirects      int     `yaml:"max_redirects" mapstructure:"max_redirects"`
	BlackoutStartHour int     `yaml:"blackout_start_hour" mapstructure:"blackout_start_hour"`
	BlackoutEndHour   int     `yaml:"blackout_end_hour" mapstructure:"blackout_end_hour"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// Blackout returns the daily window in which bulk downloads are skipped.
func (f FetchConfig) Blackout() refsnp.BlackoutWindow {
	return refsnp.BlackoutWindow{StartHour: f.BlackoutStartHour, EndHour: f.BlackoutEndHour}
}

// CitationsConfig configures the ClinVar citation index.
type CitationsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	URL     string `yaml:"url" mapstructure:"url"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Dir           string   `yaml:"dir" mapstructure:"dir"`
	Formats       []string `yaml:"formats" mapstructure:"formats"`
	KeepUnmatched bool     `yaml:"keep_unmatched" mapstructure:"keep_unmatched"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultPath returns ~/.rsclass.yaml, or "" when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// New returns a viper instance with defaults, environment overrides and, when
// it exists, the config file at path. An empty path means DefaultPath.
func New(path string) (*viper.Viper, error) {
	v := viper.New()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}

	// Environment
	v.SetEnvPrefix("RSCLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "~/.rsclass")
	v.SetDefault("store.path", "")
	v.SetDefault("fetch.base_url", refsnp.DefaultBaseURL)
	v.SetDefault("fetch.record_dir", "")
	v.SetDefault("fetch.timeout_secs", 5)
	v.SetDefault("fetch.rate_per_sec", 1.0)
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("fetch.allow_download", true)
	v.SetDefault("fetch.max_redirects", resolve.DefaultMaxRedirects)
	v.SetDefault("fetch.blackout_start_hour", refsnp.DefaultBlackout.StartHour)
	v.SetDefault("fetch.blackout_end_hour", refsnp.DefaultBlackout.EndHour)
	v.SetDefault("citations.enabled", true)
	v.SetDefault("citations.url", citations.DefaultURL)
	v.SetDefault("citations.path", "")
	v.SetDefault("report.dir", "")
	v.SetDefault("report.formats", []string{"xlsx", "tab", "parquet"})
	v.SetDefault("report.keep_unmatched", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	return v, nil
}

// Load builds the configuration from the file at path (see New).
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes v into a Config and fills in paths derived from data_dir.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths() error {
	dataDir, err := expandHome(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dataDir

	derived := []struct {
		field *string
		name  string
	}{
		{&c.Store.Path, "annotations.duckdb"},
		{&c.Fetch.RecordDir, "refsnp"},
		{&c.Citations.Path, "var_citations.txt"},
		{&c.Report.Dir, "reports"},
	}
	for _, d := range derived {
		if *d.field == "" {
			*d.field = filepath.Join(dataDir, d.name)
			continue
		}
		if *d.field, err = expandHome(*d.field); err != nil {
			return err
		}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// InitLogger builds the process logger from cfg and installs it as the
// global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
