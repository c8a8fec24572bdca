package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"usedcar-market/config"
	"usedcar-market/services"
	"usedcar-market/storage"
	"usedcar-market/utils"
)

var (
	// Global flags
	cfgFile           string
	debug             bool
	flagInputs        []string
	flagReferenceYear int
	flagBucketFile    string
	flagSource        string

	// Loaded configuration
	cfg    *config.Config
	logger = utils.NewLogger()
)

var rootCmd = &cobra.Command{
	Use:   "usedcar",
	Short: "Prepare and explore used-vehicle listings",
	Long: `usedcar loads a used-vehicle listings table, fills missing values, derives
manufacturer, age and listing-age categories, and serves filtered views of the
prepared data to a dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug output")
	f.StringSliceVarP(&flagInputs, "input", "i", nil, "input CSV file(s) (overrides config)")
	f.IntVar(&flagReferenceYear, "reference-year", 0, "year vehicle age is measured against (default current year)")
	f.StringVar(&flagBucketFile, "buckets", "", "YAML file with age/listing-age bucket schemes")
	f.StringVar(&flagSource, "source", "", "input source: csv, postgres or sqlite (overrides config)")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("input") {
		c.InputPaths = flagInputs
	}
	if f.Changed("reference-year") {
		c.ReferenceYear = flagReferenceYear
	}
	if f.Changed("buckets") {
		c.BucketFile = flagBucketFile
	}
	if f.Changed("source") {
		c.Source = flagSource
	}
	if f.Changed("debug") {
		c.Debug = debug
	}
	if err := c.Validate(); err != nil {
		return err
	}
	logger.SetDebug(c.Debug)
	cfg = c
	return nil
}

func activeSchemes() (services.Schemes, error) {
	if cfg.BucketFile == "" {
		return services.DefaultSchemes(), nil
	}
	return services.LoadSchemes(cfg.BucketFile)
}

func openSource(ctx context.Context) (storage.ListingSource, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay(),
		Logger:      logger,
	}
	switch cfg.Source {
	case config.SourcePostgres:
		return storage.NewSQLReader(ctx, storage.DriverPostgres, cfg.DSN(), cfg.Table, retry)
	case config.SourceSQLite:
		return storage.NewSQLReader(ctx, storage.DriverSQLite, cfg.SQLitePath, cfg.Table, retry)
	default:
		return storage.NewMultiReader(cfg.InputPaths, cfg.DelimiterRune(), cfg.MaxConcurrency, logger)
	}
}

// sourcePaths returns the local files the active source reads from.
func sourcePaths() []string {
	switch cfg.Source {
	case config.SourceSQLite:
		return []string{cfg.SQLitePath}
	case config.SourcePostgres:
		return nil
	default:
		return cfg.InputPaths
	}
}

// loadSnapshot reads the configured source and prepares it.
func loadSnapshot(ctx context.Context) (*services.Snapshot, error) {
	schemes, err := activeSchemes()
	if err != nil {
		return nil, err
	}
	pipeline, err := services.NewPipeline(cfg.EffectiveReferenceYear(time.Now()), schemes, logger)
	if err != nil {
		return nil, err
	}

	src, err := openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	start := time.Now()
	raws, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("[loader] Loaded %d rows in %v", len(raws), time.Since(start).Round(time.Millisecond))

	return pipeline.Prepare(ctx, raws)
}
