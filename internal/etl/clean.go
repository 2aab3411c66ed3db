// Package etl converts raw per-category scrape files into one cleaned
// tabular artifact (CSV) plus a mirrored JSON artifact. It is purely
// deterministic: trimming, numeric price derivation, and dropping records
// with no product name.
package etl

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"martminer/internal/types"
)

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// Row is one cleaned record: the raw fields trimmed, plus the derived
// numeric price. PriceValue is nil when no numeric token could be read.
type Row struct {
	Category    string   `json:"category"`
	ProductName string   `json:"product_name"`
	ProductURL  string   `json:"product_url"`
	Price       string   `json:"price"`
	Supplier    string   `json:"supplier"`
	Location    string   `json:"location"`
	PriceValue  *float64 `json:"price_value"`
}

// Cleaner runs the cleaning stage.
type Cleaner struct {
	processedDir string
	logger       *slog.Logger
}

// NewCleaner creates a cleaner writing under processedDir.
func NewCleaner(processedDir string, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		processedDir: processedDir,
		logger:       logger.With("component", "etl"),
	}
}

// Clean reads the raw per-category JSON files, normalizes them, drops
// records with empty product names, and writes cleaned_products.csv and
// cleaned_products.json. It returns the CSV path for the reporting stage.
func (c *Cleaner) Clean(rawFiles []string) (string, error) {
	var rows []Row
	for _, file := range rawFiles {
		records, err := readRawFile(file)
		if err != nil {
			return "", fmt.Errorf("read raw file %s: %w", file, err)
		}
		for _, rec := range records {
			row := cleanRecord(rec)
			if row.ProductName == "" {
				continue
			}
			rows = append(rows, row)
		}
	}

	if err := os.MkdirAll(c.processedDir, 0o755); err != nil {
		return "", fmt.Errorf("create processed dir: %w", err)
	}

	csvPath := filepath.Join(c.processedDir, "cleaned_products.csv")
	if err := writeCSV(csvPath, rows); err != nil {
		return "", err
	}

	jsonPath := filepath.Join(c.processedDir, "cleaned_products.json")
	if err := writeJSON(jsonPath, rows); err != nil {
		return "", err
	}

	c.logger.Info("cleaned artifacts written", "csv", csvPath, "json", jsonPath, "rows", len(rows))
	return csvPath, nil
}

// cleanRecord trims the string fields and derives the numeric price.
func cleanRecord(rec types.EnrichedRecord) Row {
	return Row{
		Category:    strings.TrimSpace(rec.Category),
		ProductName: strings.TrimSpace(rec.ProductName),
		ProductURL:  strings.TrimSpace(rec.ProductURL),
		Price:       deref(rec.Price),
		Supplier:    deref(rec.Supplier),
		Location:    deref(rec.Location),
		PriceValue:  PriceValue(deref(rec.Price)),
	}
}

// PriceValue extracts the first numeric token from a raw price string,
// with grouping commas stripped. "₹1,250" yields 1250.
func PriceValue(price string) *float64 {
	if price == "" {
		return nil
	}
	m := numberRe.FindString(strings.ReplaceAll(price, ",", ""))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func readRawFile(path string) ([]types.EnrichedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []types.EnrichedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

var csvHeader = []string{"category", "product_name", "product_url", "price", "supplier", "location", "price_value"}

func writeCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		priceValue := ""
		if row.PriceValue != nil {
			priceValue = strconv.FormatFloat(*row.PriceValue, 'f', -1, 64)
		}
		record := []string{
			row.Category, row.ProductName, row.ProductURL,
			row.Price, row.Supplier, row.Location, priceValue,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json: %w", err)
	}
	defer f.Close()

	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
