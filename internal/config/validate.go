package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Harvest.MaxPages < 1 {
		return fmt.Errorf("harvest.max_pages must be >= 1, got %d", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.PerPageLimit < 1 {
		return fmt.Errorf("harvest.per_page_limit must be >= 1, got %d", cfg.Harvest.PerPageLimit)
	}
	if cfg.Harvest.RequestDelay < 0 {
		return fmt.Errorf("harvest.request_delay must be >= 0")
	}
	if cfg.Harvest.Timeout <= 0 {
		return fmt.Errorf("harvest.timeout must be > 0")
	}
	if cfg.Harvest.ScrollCount < 0 {
		return fmt.Errorf("harvest.scroll_count must be >= 0, got %d", cfg.Harvest.ScrollCount)
	}
	if cfg.Harvest.EnrichConcurrency < 1 {
		return fmt.Errorf("harvest.enrich_concurrency must be >= 1, got %d", cfg.Harvest.EnrichConcurrency)
	}
	if cfg.Harvest.EnrichConcurrency > 256 {
		return fmt.Errorf("harvest.enrich_concurrency must be <= 256, got %d", cfg.Harvest.EnrichConcurrency)
	}

	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.UserAgent == "" {
		return fmt.Errorf("fetcher.user_agent must not be empty")
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must not be empty")
	}
	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri must not be empty when the sink is enabled")
		}
		if cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo.database and storage.mongo.collection must be set")
		}
	}

	for name, rawURL := range cfg.Categories {
		if name == "" {
			return fmt.Errorf("category with empty name for URL %q", rawURL)
		}
		if err := ValidateURL(rawURL); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a listing URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
