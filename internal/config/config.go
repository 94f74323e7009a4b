// Package config loads the application configuration from a YAML file,
// a .env file, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	LastFM  LastFMConfig  `yaml:"lastfm"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds dataset and cache file locations.
type DataConfig struct {
	// DatasetPath is the base CSV dataset the work lists derive from
	// and the merge step enriches.
	DatasetPath string `yaml:"dataset_path"`
	// InterimDir holds the durable enrichment cache files.
	InterimDir string `yaml:"interim_dir"`
	// OutputPath is where the merge step writes the enriched dataset.
	OutputPath string `yaml:"output_path"`
}

// LastFMConfig holds Last.fm API credentials.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// EnrichConfig holds crawl tuning knobs.
type EnrichConfig struct {
	// CheckpointInterval is the number of newly completed lookups
	// between durable cache flushes.
	CheckpointInterval int `yaml:"checkpoint_interval"`
	// MainstreamThreshold is the log-listeners cutoff selecting which
	// tracks get prominence lookups.
	MainstreamThreshold float64 `yaml:"mainstream_threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			DatasetPath: "data/processed/tracks.csv",
			InterimDir:  "data/interim",
			OutputPath:  "data/processed/tracks_enriched.csv",
		},
		Enrich: EnrichConfig{
			CheckpointInterval:  50,
			MainstreamThreshold: 13.09,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables, after best-effort loading of a local .env
// file. Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("PF_DATASET_PATH"); v != "" {
		c.Data.DatasetPath = v
	}
	if v := os.Getenv("PF_INTERIM_DIR"); v != "" {
		c.Data.InterimDir = v
	}
	if v := os.Getenv("PF_OUTPUT_PATH"); v != "" {
		c.Data.OutputPath = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("PF_CHECKPOINT_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Enrich.CheckpointInterval = n
		}
	}
	if v := os.Getenv("PF_MAINSTREAM_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Enrich.MainstreamThreshold = f
		}
	}
	if v := os.Getenv("PF_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PF_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PF_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Data.DatasetPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	if c.Data.InterimDir == "" {
		return fmt.Errorf("interim directory is required")
	}
	if c.Enrich.CheckpointInterval < 1 {
		return fmt.Errorf("checkpoint interval must be at least 1, got %d", c.Enrich.CheckpointInterval)
	}
	c.Data.InterimDir = strings.TrimRight(c.Data.InterimDir, "/")
	return nil
}

// RequireLastFMKey returns an error when no Last.fm API key is
// configured. Commands that talk to Last.fm call this at startup so
// missing credentials fail fast instead of poisoning a crawl.
func (c *Config) RequireLastFMKey() error {
	if c.LastFM.APIKey == "" {
		return fmt.Errorf("LASTFM_API_KEY not set (environment, .env, or lastfm.api_key in config)")
	}
	return nil
}
