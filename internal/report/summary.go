// Package report computes descriptive statistics over the cleaned tabular
// artifact and writes machine-readable report files: a summary with
// per-category coverage and price distributions, duplicate rows, and
// IQR price outliers.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// PriceStats summarizes the numeric price distribution of one category.
type PriceStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P90    float64 `json:"p90"`
}

// CategorySummary aggregates one category's cleaned rows.
type CategorySummary struct {
	Category     string      `json:"category"`
	Records      int         `json:"records"`
	WithPrice    int         `json:"with_price"`
	WithSupplier int         `json:"with_supplier"`
	WithLocation int         `json:"with_location"`
	Price        *PriceStats `json:"price,omitempty"`
}

// NameCount is one entry of a frequency table.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PriceOutliers reports the IQR fence over all numeric prices and how
// many fall outside it.
type PriceOutliers struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Summary is the full report artifact.
type Summary struct {
	TotalRecords  int               `json:"total_records"`
	DuplicateRows int               `json:"duplicate_rows"`
	TopSuppliers  []NameCount       `json:"top_suppliers,omitempty"`
	TopLocations  []NameCount       `json:"top_locations,omitempty"`
	PriceOutliers *PriceOutliers    `json:"price_outliers,omitempty"`
	Categories    []CategorySummary `json:"categories"`
}

// columns whose combined value identifies a duplicate row.
var duplicateKey = []string{"category", "product_name", "product_url", "supplier", "location"}

// outlierMinSamples is the minimum number of numeric prices required
// before the IQR fence is meaningful.
const outlierMinSamples = 5

// topN caps the supplier and location frequency tables.
const topN = 10

// Reporter runs the summary stage.
type Reporter struct {
	outputDir string
	logger    *slog.Logger
}

// NewReporter creates a reporter writing under outputDir.
func NewReporter(outputDir string, logger *slog.Logger) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		logger:    logger.With("component", "report"),
	}
}

// Summarize reads the cleaned CSV and writes summary.json, returning its
// path. Duplicate rows and price outlier rows, when present, are written
// alongside it as duplicates.csv and price_outliers.csv.
func (r *Reporter) Summarize(cleanedCSV string) (string, error) {
	rep, err := build(cleanedCSV)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(r.outputDir, "summary.json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep.summary); err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	if len(rep.duplicates) > 0 {
		dupPath := filepath.Join(r.outputDir, "duplicates.csv")
		if err := writeCSV(dupPath, rep.header, rep.duplicates); err != nil {
			return "", err
		}
		r.logger.Info("duplicates written", "path", dupPath, "rows", len(rep.duplicates))
	}
	if len(rep.outlierRows) > 0 {
		outPath := filepath.Join(r.outputDir, "price_outliers.csv")
		if err := writeCSV(outPath, rep.header, rep.outlierRows); err != nil {
			return "", err
		}
		r.logger.Info("price outliers written", "path", outPath, "rows", len(rep.outlierRows))
	}

	r.logger.Info("summary written",
		"path", path,
		"records", rep.summary.TotalRecords,
		"categories", len(rep.summary.Categories),
		"duplicates", rep.summary.DuplicateRows,
	)
	return path, nil
}

// Build computes the summary from a cleaned CSV produced by the ETL stage.
func Build(cleanedCSV string) (*Summary, error) {
	rep, err := build(cleanedCSV)
	if err != nil {
		return nil, err
	}
	return rep.summary, nil
}

// reportData carries the summary plus the row sets that get their own
// CSV artifacts.
type reportData struct {
	summary     *Summary
	header      []string
	duplicates  [][]string
	outlierRows [][]string
}

func build(cleanedCSV string) (*reportData, error) {
	f, err := os.Open(cleanedCSV)
	if err != nil {
		return nil, fmt.Errorf("open cleaned csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cleaned csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("cleaned csv %s is empty", cleanedCSV)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{"category", "product_name", "product_url", "price", "supplier", "location", "price_value"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("cleaned csv missing column %q", required)
		}
	}

	type agg struct {
		summary CategorySummary
		prices  []float64
	}
	byCategory := make(map[string]*agg)
	var order []string

	type pricedRow struct {
		row   []string
		value float64
	}
	var priced []pricedRow
	supplierCounts := make(map[string]int)
	locationCounts := make(map[string]int)
	keyCounts := make(map[string]int)

	for _, row := range rows[1:] {
		category := row[col["category"]]
		a, ok := byCategory[category]
		if !ok {
			a = &agg{summary: CategorySummary{Category: category}}
			byCategory[category] = a
			order = append(order, category)
		}
		a.summary.Records++
		if row[col["price"]] != "" {
			a.summary.WithPrice++
		}
		if supplier := row[col["supplier"]]; supplier != "" {
			a.summary.WithSupplier++
			supplierCounts[supplier]++
		}
		if location := row[col["location"]]; location != "" {
			a.summary.WithLocation++
			if norm := normalizeLocation(location); norm != "" {
				locationCounts[norm]++
			}
		}
		if raw := row[col["price_value"]]; raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				a.prices = append(a.prices, v)
				priced = append(priced, pricedRow{row: row, value: v})
			}
		}
		keyCounts[duplicateKeyOf(row, col)]++
	}

	summary := &Summary{
		TopSuppliers: topCounts(supplierCounts, topN),
		TopLocations: topCounts(locationCounts, topN),
	}
	for _, category := range order {
		a := byCategory[category]
		if len(a.prices) > 0 {
			ps, err := priceStats(a.prices)
			if err != nil {
				return nil, err
			}
			a.summary.Price = ps
		}
		summary.TotalRecords += a.summary.Records
		summary.Categories = append(summary.Categories, a.summary)
	}

	rep := &reportData{summary: summary, header: rows[0]}

	// Every row whose key tuple occurs more than once is a duplicate.
	for _, row := range rows[1:] {
		if keyCounts[duplicateKeyOf(row, col)] > 1 {
			rep.duplicates = append(rep.duplicates, row)
		}
	}
	summary.DuplicateRows = len(rep.duplicates)
	sort.Slice(rep.duplicates, func(i, j int) bool {
		return duplicateKeyOf(rep.duplicates[i], col) < duplicateKeyOf(rep.duplicates[j], col)
	})

	if len(priced) > outlierMinSamples {
		all := make([]float64, len(priced))
		for i, p := range priced {
			all[i] = p.value
		}
		q, err := stats.Quartile(stats.Float64Data(all))
		if err != nil {
			return nil, fmt.Errorf("price quartiles: %w", err)
		}
		iqr := q.Q3 - q.Q1
		fence := &PriceOutliers{Lower: q.Q1 - 1.5*iqr, Upper: q.Q3 + 1.5*iqr}
		for _, p := range priced {
			if p.value < fence.Lower || p.value > fence.Upper {
				fence.Count++
				rep.outlierRows = append(rep.outlierRows, p.row)
			}
		}
		summary.PriceOutliers = fence
	}

	return rep, nil
}

func duplicateKeyOf(row []string, col map[string]int) string {
	parts := make([]string, len(duplicateKey))
	for i, name := range duplicateKey {
		parts[i] = row[col[name]]
	}
	return strings.Join(parts, "\x1f")
}

// normalizeLocation folds "City, State" variants onto the trailing
// component, so "Chennai, Tamil Nadu" and "Tamil Nadu" count together.
func normalizeLocation(loc string) string {
	parts := strings.Split(loc, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return strings.TrimSpace(loc)
}

// topCounts flattens a frequency map into its n most common entries.
// Ties break alphabetically so the output is deterministic.
func topCounts(counts map[string]int, n int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func priceStats(prices []float64) (*PriceStats, error) {
	data := stats.Float64Data(prices)
	ps := &PriceStats{Count: len(prices)}
	var err error
	if ps.Mean, err = data.Mean(); err != nil {
		return nil, fmt.Errorf("price mean: %w", err)
	}
	if ps.Median, err = data.Median(); err != nil {
		return nil, fmt.Errorf("price median: %w", err)
	}
	if ps.Min, err = data.Min(); err != nil {
		return nil, fmt.Errorf("price min: %w", err)
	}
	if ps.Max, err = data.Max(); err != nil {
		return nil, fmt.Errorf("price max: %w", err)
	}
	if ps.P90, err = data.Percentile(90); err != nil {
		return nil, fmt.Errorf("price p90: %w", err)
	}
	return ps, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	w.Flush()
	return w.Error()
}
