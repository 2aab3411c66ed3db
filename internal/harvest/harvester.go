// Package harvest orchestrates one category crawl: listing discovery,
// bounded-parallel detail enrichment, and result persistence. Individual
// page and item failures are absorbed inside the sub-stages; only a
// session-initialization failure fails a category.
package harvest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"martminer/internal/types"
)

// Lister produces listing stubs for a category.
type Lister interface {
	Harvest(ctx context.Context, job types.CategoryJob) ([]types.ListingStub, error)
}

// Enricher fetches a detail page and extracts fields. It never fails;
// misses come back as zero-value fields.
type Enricher interface {
	Enrich(ctx context.Context, url string) types.EnrichmentFields
}

// Writer persists a category's enriched records and returns the path.
type Writer interface {
	WriteCategory(category string, records []types.EnrichedRecord) (string, error)
}

// Sink is an optional secondary destination for enriched records.
type Sink interface {
	Store(ctx context.Context, records []types.EnrichedRecord) error
}

// Harvester runs the two-phase crawl for configured categories.
type Harvester struct {
	lister      Lister
	enricher    Enricher
	writer      Writer
	sink        Sink // may be nil
	concurrency int
	logger      *slog.Logger
}

// New creates a Harvester. sink may be nil.
func New(lister Lister, enricher Enricher, writer Writer, sink Sink, concurrency int, logger *slog.Logger) *Harvester {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Harvester{
		lister:      lister,
		enricher:    enricher,
		writer:      writer,
		sink:        sink,
		concurrency: concurrency,
		logger:      logger.With("component", "harvester"),
	}
}

// RunCategory executes the full pipeline for one category. It fails only
// if listing discovery could not be initialized or the result file could
// not be written; page and item failures degrade the output instead.
func (h *Harvester) RunCategory(ctx context.Context, job types.CategoryJob) (types.CrawlResult, error) {
	stubs, err := h.lister.Harvest(ctx, job)
	if err != nil {
		return types.CrawlResult{}, err
	}

	// Enforce the record invariant before enrichment.
	valid := make([]types.ListingStub, 0, len(stubs))
	for _, s := range stubs {
		if s.Valid() {
			valid = append(valid, s)
		} else {
			h.logger.Warn("stub dropped", "category", job.Name, "name", s.ProductName, "url", s.ProductURL)
		}
	}

	h.logger.Info("listing phase complete", "category", job.Name, "stubs", len(valid))

	records := h.enrichAll(ctx, valid)

	path, err := h.writer.WriteCategory(job.Name, records)
	if err != nil {
		return types.CrawlResult{}, err
	}

	if h.sink != nil {
		if err := h.sink.Store(ctx, records); err != nil {
			h.logger.Warn("secondary sink failed", "category", job.Name, "error", err)
		}
	}

	return types.CrawlResult{
		Category:    job.Name,
		OutputPath:  path,
		RecordCount: len(records),
	}, nil
}

// RunAll processes categories sequentially. A failed category is recorded
// and the batch continues with the rest.
func (h *Harvester) RunAll(ctx context.Context, jobs []types.CategoryJob) []types.CrawlResult {
	results := make([]types.CrawlResult, 0, len(jobs))
	for _, job := range jobs {
		result, err := h.RunCategory(ctx, job)
		if err != nil {
			h.logger.Error("category failed", "category", job.Name, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results
}

// enrichAll runs the detail fetch over a bounded worker pool. Results are
// written back by stub index, so the output sequence preserves discovery
// order regardless of completion order. Enrichment is exhaustive: every
// valid stub is fetched.
func (h *Harvester) enrichAll(ctx context.Context, stubs []types.ListingStub) []types.EnrichedRecord {
	records := make([]types.EnrichedRecord, len(stubs))
	if len(stubs) == 0 {
		return records
	}

	workers := h.concurrency
	if workers > len(stubs) {
		workers = len(stubs)
	}

	indexes := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				stub := stubs[i]
				fields := h.enricher.Enrich(ctx, stub.ProductURL)
				records[i] = types.EnrichedRecord{ListingStub: stub, EnrichmentFields: fields}
				h.logger.Info("enriched",
					"done", done.Add(1),
					"total", len(stubs),
					"name", stub.ProductName,
				)
			}
		}()
	}

	for i := range stubs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return records
}
