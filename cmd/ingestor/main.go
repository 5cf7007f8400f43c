package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/futures-data/internal/calendar"
	"github.com/rickgao/futures-data/internal/config"
	"github.com/rickgao/futures-data/internal/fetch"
	"github.com/rickgao/futures-data/internal/model"
	"github.com/rickgao/futures-data/internal/pipeline"
	"github.com/rickgao/futures-data/internal/reconcile"
	"github.com/rickgao/futures-data/internal/store"
	"github.com/rickgao/futures-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	lookback := flag.Int("lookback", 7, "calendar days before today to cover")
	force := flag.Bool("force", false, "re-fetch dates the checkpoints already cover")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"exchanges", cfg.EnabledExchanges(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

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
	logger.Info("database connected")

	holidays, err := cfg.HolidayDates()
	if err != nil {
		logger.Error("invalid holiday list", "error", err)
		os.Exit(1)
	}

	client := newFetchClient(cfg, logger)
	st := store.New(pool, logger)

	p := pipeline.New(client, st, calendar.NewTable(holidays),
		pipeline.WithLogger(logger),
		pipeline.WithConcurrency(cfg.Pipeline.ExchangeConcurrency),
		pipeline.WithProducts(cfg.ProductFilter()),
	)

	end := model.DateOf(time.Now())
	start := model.DateOf(time.Now().AddDate(0, 0, -*lookback))

	report, err := p.Run(ctx, pipeline.Request{
		Exchanges: cfg.EnabledExchanges(),
		Range:     reconcile.DateRange{Start: start, End: end},
		Force:     *force,
	})
	if err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}

	inserted, overwritten, unchanged := report.Totals()
	logger.Info("run complete",
		"run_id", report.RunID,
		"inserted", inserted,
		"overwritten", overwritten,
		"unchanged", unchanged,
		"failed", report.Failed(),
	)
	if report.Failed() {
		os.Exit(1)
	}
}

func newFetchClient(cfg *config.Config, logger *slog.Logger) *fetch.Client {
	opts := []fetch.ClientOption{
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithRetries(cfg.Fetch.MaxRetries, cfg.Fetch.RetryBackoff),
		fetch.WithRateLimit(cfg.Fetch.RequestsPerSecond),
	}
	for name, baseURL := range cfg.Fetch.Sources {
		opts = append(opts, fetch.WithSource(model.Exchange(name), baseURL))
	}
	return fetch.NewClient(opts...)
}
