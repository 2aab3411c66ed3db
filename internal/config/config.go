package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for martminer.
type Config struct {
	Categories map[string]string `mapstructure:"categories" yaml:"categories"`
	Harvest    HarvestConfig     `mapstructure:"harvest"    yaml:"harvest"`
	Fetcher    FetcherConfig     `mapstructure:"fetcher"    yaml:"fetcher"`
	Storage    StorageConfig     `mapstructure:"storage"    yaml:"storage"`
	ETL        ETLConfig         `mapstructure:"etl"        yaml:"etl"`
	Report     ReportConfig      `mapstructure:"report"     yaml:"report"`
	Logging    LoggingConfig     `mapstructure:"logging"    yaml:"logging"`
}

// HarvestConfig controls the listing crawl and the enrichment pool.
type HarvestConfig struct {
	MaxPages          int           `mapstructure:"max_pages"          yaml:"max_pages"`
	PerPageLimit      int           `mapstructure:"per_page_limit"     yaml:"per_page_limit"`
	RequestDelay      time.Duration `mapstructure:"request_delay"      yaml:"request_delay"`
	Timeout           time.Duration `mapstructure:"timeout"            yaml:"timeout"`
	RenderWait        time.Duration `mapstructure:"render_wait"        yaml:"render_wait"`
	ScrollCount       int           `mapstructure:"scroll_count"       yaml:"scroll_count"`
	ScrollPause       time.Duration `mapstructure:"scroll_pause"       yaml:"scroll_pause"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency" yaml:"enrich_concurrency"`
}

// FetcherConfig controls the per-item detail fetcher.
type FetcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// StorageConfig controls where raw per-category files land, plus the
// optional MongoDB sink.
type StorageConfig struct {
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir"`
	Mongo     MongoConfig `mapstructure:"mongo"      yaml:"mongo"`
}

// MongoConfig controls the optional MongoDB record sink.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// ETLConfig controls the cleaning stage.
type ETLConfig struct {
	ProcessedDir string `mapstructure:"processed_dir" yaml:"processed_dir"`
}

// ReportConfig controls the summary stage.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Harvest: HarvestConfig{
			MaxPages:          3,
			PerPageLimit:      20,
			RequestDelay:      2 * time.Second,
			Timeout:           30 * time.Second,
			RenderWait:        1500 * time.Millisecond,
			ScrollCount:       3,
			ScrollPause:       400 * time.Millisecond,
			EnrichConcurrency: 8,
		},
		Fetcher: FetcherConfig{
			Timeout:         10 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36",
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Storage: StorageConfig{
			OutputDir: "data/raw",
			Mongo: MongoConfig{
				Enabled:    false,
				URI:        "mongodb://localhost:27017",
				Database:   "martminer",
				Collection: "products",
			},
		},
		ETL: ETLConfig{
			ProcessedDir: "data/processed",
		},
		Report: ReportConfig{
			OutputDir: "data/reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
