// Package fetcher implements the lightweight per-item detail fetch: one
// HTTP GET per product URL, body text extraction, and heuristic field
// extraction. A failure of any kind degrades to empty fields; it never
// aborts the caller's run.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"martminer/internal/config"
	"martminer/internal/extract"
	"martminer/internal/types"
)

// DetailFetcher enriches product URLs over plain HTTP. It is safe for
// concurrent use.
type DetailFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    *slog.Logger
}

// NewDetailFetcher creates a detail fetcher from config.
func NewDetailFetcher(cfg *config.Config, logger *slog.Logger) *DetailFetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetcher.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decompressed ourselves, including brotli
	}

	return &DetailFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Fetcher.Timeout,
		},
		userAgent: cfg.Fetcher.UserAgent,
		maxBody:   cfg.Fetcher.MaxBodySize,
		logger:    logger.With("component", "detail_fetcher"),
	}
}

// Enrich fetches the product detail page at url and extracts price,
// supplier, and location. It never fails: network errors, non-success
// statuses, and parse misses all collapse to zero-value fields.
func (f *DetailFetcher) Enrich(ctx context.Context, url string) types.EnrichmentFields {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Debug("bad detail URL", "url", url, "error", err)
		return types.EnrichmentFields{}
	}

	// The marketplace blocks default client identifiers, so present a
	// realistic browser fingerprint.
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("detail fetch failed", "url", url, "error", err)
		return types.EnrichmentFields{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Debug("detail fetch non-success", "url", url, "status", resp.StatusCode)
		return types.EnrichmentFields{}
	}

	var reader io.Reader = resp.Body
	if f.maxBody > 0 {
		reader = io.LimitReader(reader, f.maxBody)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		f.logger.Debug("detail decompress failed", "url", url, "error", err)
		return types.EnrichmentFields{}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		f.logger.Debug("detail body read failed", "url", url, "error", err)
		return types.EnrichmentFields{}
	}

	return extract.Fields(body)
}

// Close releases idle connections.
func (f *DetailFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
