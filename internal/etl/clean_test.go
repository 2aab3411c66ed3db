package etl

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"martminer/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func strPtr(s string) *string { return &s }

func TestPriceValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		nil_ bool
	}{
		{"₹1,250", 1250, false},
		{"₹ 500", 500, false},
		{"₹12,34,567", 1234567, false},
		{"₹99.50 per kg", 99.5, false},
		{"", 0, true},
		{"price on request", 0, true},
	}
	for _, tc := range cases {
		got := PriceValue(tc.in)
		if tc.nil_ {
			if got != nil {
				t.Errorf("PriceValue(%q) = %v, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("PriceValue(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func writeRawFile(t *testing.T, dir, name string, records []types.EnrichedRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	raw := writeRawFile(t, dir, "pipes_20260314_150926.json", []types.EnrichedRecord{
		{
			ListingStub: types.ListingStub{Category: "pipes", ProductName: "  Steel Pipe ", ProductURL: "https://x/p/1"},
			EnrichmentFields: types.EnrichmentFields{
				Price:    strPtr("₹1,250"),
				Supplier: strPtr(" Mehta Tubes "),
				Location: strPtr("Tamil Nadu"),
			},
		},
		{
			// Dropped: empty product name after trimming.
			ListingStub: types.ListingStub{Category: "pipes", ProductName: "   ", ProductURL: "https://x/p/2"},
		},
		{
			ListingStub: types.ListingStub{Category: "pipes", ProductName: "Brass Valve", ProductURL: "https://x/p/3"},
		},
	})

	processed := filepath.Join(dir, "processed")
	c := NewCleaner(processed, testLogger)

	csvPath, err := c.Clean([]string{raw})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	// Header + 2 surviving rows.
	if len(rows) != 3 {
		t.Fatalf("expected 3 csv rows, got %d: %v", len(rows), rows)
	}
	if rows[1][1] != "Steel Pipe" {
		t.Errorf("product name not trimmed: %q", rows[1][1])
	}
	if rows[1][4] != "Mehta Tubes" {
		t.Errorf("supplier not trimmed: %q", rows[1][4])
	}
	if rows[1][6] != "1250" {
		t.Errorf("price_value = %q, want 1250", rows[1][6])
	}
	if rows[2][6] != "" {
		t.Errorf("missing price should yield empty price_value, got %q", rows[2][6])
	}

	// The mirrored JSON artifact exists and round-trips.
	data, err := os.ReadFile(filepath.Join(processed, "cleaned_products.json"))
	if err != nil {
		t.Fatalf("read json artifact: %v", err)
	}
	var cleaned []Row
	if err := json.Unmarshal(data, &cleaned); err != nil {
		t.Fatalf("unmarshal json artifact: %v", err)
	}
	if len(cleaned) != 2 {
		t.Errorf("expected 2 cleaned rows in json, got %d", len(cleaned))
	}
}

func TestCleanMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	rawA := writeRawFile(t, dir, "a.json", []types.EnrichedRecord{
		{ListingStub: types.ListingStub{Category: "a", ProductName: "One", ProductURL: "https://x/1"}},
	})
	rawB := writeRawFile(t, dir, "b.json", []types.EnrichedRecord{
		{ListingStub: types.ListingStub{Category: "b", ProductName: "Two", ProductURL: "https://x/2"}},
	})

	c := NewCleaner(filepath.Join(dir, "processed"), testLogger)
	csvPath, err := c.Clean([]string{rawA, rawB})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	f, _ := os.Open(csvPath)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected rows from both files, got %d", len(rows)-1)
	}
}

func TestCleanMissingFile(t *testing.T) {
	c := NewCleaner(t.TempDir(), testLogger)
	if _, err := c.Clean([]string{"/nonexistent/raw.json"}); err == nil {
		t.Fatal("expected an error for a missing raw file")
	}
}
