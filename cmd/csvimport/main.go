package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/rickgao/futures-data/internal/config"
	"github.com/rickgao/futures-data/internal/csvio"
	"github.com/rickgao/futures-data/internal/model"
	"github.com/rickgao/futures-data/internal/reconcile"
	"github.com/rickgao/futures-data/internal/store"
	"github.com/rickgao/futures-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	filePath := flag.String("file", "", "canonical CSV file to import (- for stdin)")
	dryRun := flag.Bool("dry-run", false, "classify rows without writing")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting csv import",
		"version", version.Version,
		"commit", version.Commit,
		"file", *filePath,
	)

	if *filePath == "" {
		logger.Error("missing -file")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	input := os.Stdin
	if *filePath != "-" {
		f, err := os.Open(*filePath)
		if err != nil {
			logger.Error("failed to open file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	bars, rowErrs, err := csvio.Decode(input)
	if err != nil {
		logger.Error("failed to read csv", "error", err)
		os.Exit(1)
	}
	for _, re := range rowErrs {
		logger.Warn("row rejected", "line", re.Line, "reason", re.Reason)
	}
	logger.Info("csv parsed", "rows", len(bars), "rejected", len(rowErrs))

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.InitSchema(ctx, pool); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	st := store.New(pool, logger)
	changed, counts, err := classify(ctx, st, bars)
	if err != nil {
		logger.Error("failed to classify rows", "error", err)
		os.Exit(1)
	}
	logger.Info("rows classified",
		"inserted", counts.Inserted,
		"overwritten", counts.Overwritten,
		"unchanged", counts.Unchanged,
	)

	if *dryRun {
		logger.Info("dry run, nothing written")
		return
	}

	batchSize := cfg.Pipeline.BatchSize
	for start := 0; start < len(changed); start += batchSize {
		end := min(start+batchSize, len(changed))
		if err := st.UpsertDailyBars(ctx, changed[start:end]); err != nil {
			logger.Error("failed to upsert batch", "offset", start, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("import complete", "written", len(changed))

	if len(rowErrs) > 0 {
		os.Exit(1)
	}
}

// classify splits the file by (exchange, product), loads the stored rows
// covering each group's date span, and tags every bar so unchanged rows
// skip the write path.
func classify(ctx context.Context, st *store.Store, bars []model.DailyBar) ([]model.DailyBar, reconcile.Counts, error) {
	type group struct {
		ex      model.Exchange
		product string
	}
	grouped := make(map[group][]model.DailyBar)
	for _, b := range bars {
		key := group{ex: b.Exchange, product: b.ProductCode}
		grouped[key] = append(grouped[key], b)
	}

	var (
		changed []model.DailyBar
		total   reconcile.Counts
	)
	for key, members := range grouped {
		start, end := members[0].TradeDate, members[0].TradeDate
		for _, b := range members[1:] {
			if b.TradeDate.Before(start) {
				start = b.TradeDate
			}
			if end.Before(b.TradeDate) {
				end = b.TradeDate
			}
		}

		existing, err := st.ExistingBars(ctx, key.ex, key.product, start, end)
		if err != nil {
			return nil, total, err
		}
		decisions := reconcile.Classify(members, existing)
		counts := reconcile.Count(decisions)
		total.Inserted += counts.Inserted
		total.Overwritten += counts.Overwritten
		total.Unchanged += counts.Unchanged
		changed = append(changed, reconcile.Changed(decisions)...)
	}
	return changed, total, nil
}
