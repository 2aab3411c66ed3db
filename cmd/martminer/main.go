package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"martminer/internal/config"
	"martminer/internal/crawler"
	"martminer/internal/etl"
	"martminer/internal/fetcher"
	"martminer/internal/harvest"
	"martminer/internal/report"
	"martminer/internal/storage"
	"martminer/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	outputDir   string
	maxPages    int
	delay       string
	concurrency int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "martminer",
		Short: "martminer — marketplace category harvester",
		Long: `martminer harvests product listings for configured marketplace
categories, enriches each listing with price/supplier/location data, and
feeds the results through cleaning and reporting stages.

Stages:
  • harvest — browser-driven listing discovery + per-item enrichment
  • etl     — clean raw files into one tabular artifact
  • report  — descriptive statistics over the cleaned table
  • run     — all three in sequence`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(etlCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func harvestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "raw output directory (overrides config)")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "listing pages per category (overrides config)")
	cmd.Flags().StringVar(&delay, "delay", "", "inter-page delay, e.g. 2s (overrides config)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "enrichment workers (overrides config)")
}

// runCmd sequences crawl -> clean -> report, the full batch.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest all categories, then clean and report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			results, err := runHarvest(ctx, cfg, logger)
			if err != nil {
				return err
			}

			rawFiles := make([]string, len(results))
			for i, r := range results {
				rawFiles[i] = r.OutputPath
			}

			cleaner := etl.NewCleaner(cfg.ETL.ProcessedDir, logger)
			cleanedCSV, err := cleaner.Clean(rawFiles)
			if err != nil {
				return fmt.Errorf("etl: %w", err)
			}

			reporter := report.NewReporter(cfg.Report.OutputDir, logger)
			summaryPath, err := reporter.Summarize(cleanedCSV)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}

			fmt.Printf("Cleaned table: %s\n", cleanedCSV)
			fmt.Printf("Summary:       %s\n", summaryPath)
			return nil
		},
	}
	harvestFlags(cmd)
	return cmd
}

// harvestCmd runs only the crawl stage.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Crawl all configured categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			_, err = runHarvest(ctx, cfg, logger)
			return err
		},
	}
	harvestFlags(cmd)
	return cmd
}

// etlCmd cleans raw files into the tabular artifact. With no args it picks
// up every raw JSON file under the configured output directory.
func etlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "etl [raw files...]",
		Short: "Clean raw scrape files into one tabular artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := setup()
			if err != nil {
				return err
			}

			rawFiles := args
			if len(rawFiles) == 0 {
				rawFiles, err = filepath.Glob(filepath.Join(cfg.Storage.OutputDir, "*.json"))
				if err != nil {
					return err
				}
				sort.Strings(rawFiles)
			}
			if len(rawFiles) == 0 {
				return fmt.Errorf("no raw files found under %s", cfg.Storage.OutputDir)
			}

			cleaner := etl.NewCleaner(cfg.ETL.ProcessedDir, logger)
			cleanedCSV, err := cleaner.Clean(rawFiles)
			if err != nil {
				return err
			}
			fmt.Printf("Cleaned table: %s\n", cleanedCSV)
			return nil
		},
	}
}

// reportCmd summarizes a cleaned CSV.
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [cleaned csv]",
		Short: "Summarize the cleaned tabular artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := setup()
			if err != nil {
				return err
			}

			cleanedCSV := filepath.Join(cfg.ETL.ProcessedDir, "cleaned_products.csv")
			if len(args) == 1 {
				cleanedCSV = args[0]
			}

			reporter := report.NewReporter(cfg.Report.OutputDir, logger)
			summaryPath, err := reporter.Summarize(cleanedCSV)
			if err != nil {
				return err
			}
			fmt.Printf("Summary: %s\n", summaryPath)
			return nil
		},
	}
}

// configCmd shows the effective configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Categories:          %d configured\n", len(cfg.Categories))
			for _, name := range sortedCategories(cfg.Categories) {
				fmt.Printf("  %-18s %s\n", name, cfg.Categories[name])
			}
			fmt.Printf("\nHarvest:\n")
			fmt.Printf("  Max Pages:         %d\n", cfg.Harvest.MaxPages)
			fmt.Printf("  Per-Page Limit:    %d\n", cfg.Harvest.PerPageLimit)
			fmt.Printf("  Request Delay:     %s\n", cfg.Harvest.RequestDelay)
			fmt.Printf("  Timeout:           %s\n", cfg.Harvest.Timeout)
			fmt.Printf("  Scrolls:           %d × %s\n", cfg.Harvest.ScrollCount, cfg.Harvest.ScrollPause)
			fmt.Printf("  Enrich Workers:    %d\n", cfg.Harvest.EnrichConcurrency)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Timeout:           %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Mongo Sink:        %v\n", cfg.Storage.Mongo.Enabled)
			fmt.Printf("\nETL Processed Dir:   %s\n", cfg.ETL.ProcessedDir)
			fmt.Printf("Report Output Dir:   %s\n", cfg.Report.OutputDir)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("martminer %s\n", config.Version)
		},
	}
}

// runHarvest wires the pipeline and crawls every configured category.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]types.CrawlResult, error) {
	if len(cfg.Categories) == 0 {
		return nil, types.ErrNoCategories
	}

	jobs := make([]types.CategoryJob, 0, len(cfg.Categories))
	for _, name := range sortedCategories(cfg.Categories) {
		jobs = append(jobs, types.CategoryJob{Name: name, ListingURL: cfg.Categories[name]})
	}

	lister := crawler.NewListingCrawler(cfg, logger)
	detail := fetcher.NewDetailFetcher(cfg, logger)
	defer detail.Close()

	writer := storage.NewResultWriter(cfg.Storage.OutputDir, logger)

	var sink harvest.Sink
	if cfg.Storage.Mongo.Enabled {
		mongoSink, err := storage.NewMongoSink(cfg.Storage.Mongo, logger)
		if err != nil {
			// The file writer is the source of truth; a missing sink only
			// loses the mirror.
			logger.Warn("mongo sink unavailable", "error", err)
		} else {
			defer mongoSink.Close()
			sink = mongoSink
		}
	}

	h := harvest.New(lister, detail, writer, sink, cfg.Harvest.EnrichConcurrency, logger)

	start := time.Now()
	results := h.RunAll(ctx, jobs)
	elapsed := time.Since(start)

	total := 0
	for _, r := range results {
		total += r.RecordCount
		fmt.Printf("  %-18s %4d records → %s\n", r.Category, r.RecordCount, r.OutputPath)
	}
	fmt.Printf("Harvest complete in %s: %d/%d categories, %d records\n",
		elapsed.Round(time.Millisecond), len(results), len(jobs), total)

	if len(results) == 0 {
		return nil, fmt.Errorf("all %d categories failed", len(jobs))
	}
	return results, nil
}

// setup loads and validates config and builds the logger.
func setup() (*slog.Logger, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return setupLogger(cfg), cfg, nil
}

func applyCLIOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if maxPages > 0 {
		cfg.Harvest.MaxPages = maxPages
	}
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Harvest.RequestDelay = d
		}
	}
	if concurrency > 0 {
		cfg.Harvest.EnrichConcurrency = concurrency
	}
}

// setupLogger creates a structured logger from config (CLI -v wins).
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func sortedCategories(categories map[string]string) []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
