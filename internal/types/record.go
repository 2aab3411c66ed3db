package types

// CategoryJob is one configured category to harvest: a human-readable name
// and the URL of its paginated listing view.
type CategoryJob struct {
	Name       string
	ListingURL string
}

// ListingStub is a minimal discovered item (name + URL) prior to enrichment.
// Stubs are emitted in page-then-anchor order; duplicates across pages are
// possible and pass through.
type ListingStub struct {
	Category    string `json:"category"`
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
}

// Valid reports whether the stub carries both a product name and a URL.
// Stubs failing this are dropped before enrichment.
func (s ListingStub) Valid() bool {
	return s.ProductName != "" && s.ProductURL != ""
}

// EnrichmentFields holds the best-effort fields pulled from a detail page.
// A nil field means "not found", never an error.
type EnrichmentFields struct {
	Price    *string `json:"price"`
	Supplier *string `json:"supplier"`
	Location *string `json:"location"`
}

// EnrichedRecord is a listing stub merged with its enrichment result.
// This is the unit written to output; a record with zero enrichment is
// still valid.
type EnrichedRecord struct {
	ListingStub
	EnrichmentFields
}

// CrawlResult summarizes one category crawl for the downstream ETL stage.
type CrawlResult struct {
	Category    string `json:"category"`
	OutputPath  string `json:"output_path"`
	RecordCount int    `json:"record_count"`
}
