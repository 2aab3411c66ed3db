package harvest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"martminer/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeLister struct {
	stubs []types.ListingStub
	err   error
}

func (f *fakeLister) Harvest(ctx context.Context, job types.CategoryJob) ([]types.ListingStub, error) {
	return f.stubs, f.err
}

// fakeEnricher answers with a per-URL latency so completion order differs
// from submission order.
type fakeEnricher struct {
	latency map[string]time.Duration
}

func (f *fakeEnricher) Enrich(ctx context.Context, url string) types.EnrichmentFields {
	if d, ok := f.latency[url]; ok {
		time.Sleep(d)
	}
	price := "₹" + url[len(url)-1:]
	return types.EnrichmentFields{Price: &price}
}

type captureWriter struct {
	category string
	records  []types.EnrichedRecord
	err      error
}

func (w *captureWriter) WriteCategory(category string, records []types.EnrichedRecord) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.category = category
	w.records = records
	return "/tmp/" + category + ".json", nil
}

func stub(name, url string) types.ListingStub {
	return types.ListingStub{Category: "pipes", ProductName: name, ProductURL: url}
}

func TestRunCategoryPreservesOrderUnderConcurrency(t *testing.T) {
	// C is fastest, A slowest; output must still read A, B, C.
	lister := &fakeLister{stubs: []types.ListingStub{
		stub("A", "https://x/proddetail/a"),
		stub("B", "https://x/proddetail/b"),
		stub("C", "https://x/proddetail/c"),
	}}
	enricher := &fakeEnricher{latency: map[string]time.Duration{
		"https://x/proddetail/a": 120 * time.Millisecond,
		"https://x/proddetail/b": 60 * time.Millisecond,
		"https://x/proddetail/c": 0,
	}}
	writer := &captureWriter{}

	h := New(lister, enricher, writer, nil, 3, testLogger)
	result, err := h.RunCategory(context.Background(), types.CategoryJob{Name: "pipes"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RecordCount != 3 {
		t.Fatalf("expected 3 records, got %d", result.RecordCount)
	}

	wantOrder := []string{"A", "B", "C"}
	for i, want := range wantOrder {
		if writer.records[i].ProductName != want {
			t.Errorf("record %d = %q, want %q", i, writer.records[i].ProductName, want)
		}
	}
}

func TestRunCategoryDropsInvalidStubs(t *testing.T) {
	lister := &fakeLister{stubs: []types.ListingStub{
		stub("Valid", "https://x/proddetail/v"),
		stub("", "https://x/proddetail/noname"),
		stub("NoURL", ""),
	}}
	writer := &captureWriter{}

	h := New(lister, &fakeEnricher{}, writer, nil, 2, testLogger)
	result, err := h.RunCategory(context.Background(), types.CategoryJob{Name: "pipes"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RecordCount != 1 {
		t.Fatalf("expected 1 record after dropping invalid stubs, got %d", result.RecordCount)
	}
	for _, rec := range writer.records {
		if rec.ProductName == "" || rec.ProductURL == "" {
			t.Errorf("record violates name/url invariant: %+v", rec)
		}
	}
}

func TestRunCategorySessionFailure(t *testing.T) {
	sessionErr := &types.SessionError{Category: "pipes", Err: errors.New("no chromium")}
	lister := &fakeLister{err: sessionErr}

	h := New(lister, &fakeEnricher{}, &captureWriter{}, nil, 2, testLogger)
	_, err := h.RunCategory(context.Background(), types.CategoryJob{Name: "pipes"})

	var got *types.SessionError
	if !errors.As(err, &got) {
		t.Fatalf("expected SessionError, got %v", err)
	}
}

func TestRunCategoryInterruptedDiscovery(t *testing.T) {
	lister := &fakeLister{
		stubs: []types.ListingStub{stub("A", "https://x/proddetail/a")},
		err:   context.Canceled,
	}
	writer := &captureWriter{}

	h := New(lister, &fakeEnricher{}, writer, nil, 2, testLogger)
	_, err := h.RunCategory(context.Background(), types.CategoryJob{Name: "pipes"})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if writer.category != "" {
		t.Errorf("artifact written for an interrupted run: %q", writer.category)
	}
}

func TestRunAllContinuesAfterFailedCategory(t *testing.T) {
	failing := &fakeLister{err: &types.SessionError{Category: "bad", Err: errors.New("boom")}}
	working := &fakeLister{stubs: []types.ListingStub{stub("A", "https://x/proddetail/a")}}

	// A lister that fails for one category and works for the next.
	lister := &switchLister{byCategory: map[string]Lister{
		"bad":  failing,
		"good": working,
	}}

	h := New(lister, &fakeEnricher{}, &captureWriter{}, nil, 1, testLogger)
	results := h.RunAll(context.Background(), []types.CategoryJob{
		{Name: "bad"}, {Name: "good"},
	})

	if len(results) != 1 {
		t.Fatalf("expected 1 successful category, got %d", len(results))
	}
	if results[0].Category != "good" {
		t.Errorf("expected the batch to continue to %q, got %q", "good", results[0].Category)
	}
}

type switchLister struct {
	byCategory map[string]Lister
}

func (s *switchLister) Harvest(ctx context.Context, job types.CategoryJob) ([]types.ListingStub, error) {
	return s.byCategory[job.Name].Harvest(ctx, job)
}

func TestRunCategoryEmptyListing(t *testing.T) {
	writer := &captureWriter{}
	h := New(&fakeLister{}, &fakeEnricher{}, writer, nil, 4, testLogger)

	result, err := h.RunCategory(context.Background(), types.CategoryJob{Name: "pipes"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RecordCount != 0 {
		t.Errorf("expected 0 records, got %d", result.RecordCount)
	}
	if writer.category != "pipes" {
		t.Errorf("empty category should still be written, got %q", writer.category)
	}
}
