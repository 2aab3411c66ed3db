package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
categories:
  pipes: https://www.example.com/impcat/pipes.html
  valves: https://www.example.com/impcat/valves.html
harvest:
  max_pages: 5
  request_delay: 3s
  enrich_concurrency: 4
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "martminer.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.Categories) != 2 {
		t.Errorf("categories = %d, want 2", len(cfg.Categories))
	}
	if cfg.Harvest.MaxPages != 5 {
		t.Errorf("max_pages = %d, want 5", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.RequestDelay != 3*time.Second {
		t.Errorf("request_delay = %s, want 3s", cfg.Harvest.RequestDelay)
	}
	// Unset keys keep their defaults.
	if cfg.Harvest.PerPageLimit != 20 {
		t.Errorf("per_page_limit = %d, want default 20", cfg.Harvest.PerPageLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_pages", func(c *Config) { c.Harvest.MaxPages = 0 }},
		{"zero per_page_limit", func(c *Config) { c.Harvest.PerPageLimit = 0 }},
		{"negative delay", func(c *Config) { c.Harvest.RequestDelay = -time.Second }},
		{"zero timeout", func(c *Config) { c.Harvest.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Harvest.EnrichConcurrency = 0 }},
		{"huge concurrency", func(c *Config) { c.Harvest.EnrichConcurrency = 10_000 }},
		{"empty user agent", func(c *Config) { c.Fetcher.UserAgent = "" }},
		{"empty output dir", func(c *Config) { c.Storage.OutputDir = "" }},
		{"bad category URL", func(c *Config) { c.Categories = map[string]string{"x": "ftp://nope"} }},
		{"mongo enabled without uri", func(c *Config) {
			c.Storage.Mongo.Enabled = true
			c.Storage.Mongo.URI = ""
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.example.com/impcat/pipes.html"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	for _, bad := range []string{"", "ftp://x", "https://", "not a url at all%%%"} {
		if err := ValidateURL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
