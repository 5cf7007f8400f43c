package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

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
	startFlag := flag.String("start", "", "first date to cover (YYYY-MM-DD)")
	endFlag := flag.String("end", "", "last date to cover (YYYY-MM-DD)")
	exchangesFlag := flag.String("exchanges", "", "comma-separated exchange subset (default: configured set)")
	force := flag.Bool("force", false, "re-fetch dates the checkpoints already cover")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting backfill",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	start, err := model.ParseDate(*startFlag)
	if err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	end, err := model.ParseDate(*endFlag)
	if err != nil {
		logger.Error("invalid -end", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

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

	holidays, err := cfg.HolidayDates()
	if err != nil {
		logger.Error("invalid holiday list", "error", err)
		os.Exit(1)
	}

	exchanges := cfg.EnabledExchanges()
	if *exchangesFlag != "" {
		exchanges = nil
		for _, name := range strings.Split(*exchangesFlag, ",") {
			ex := model.Exchange(strings.ToUpper(strings.TrimSpace(name)))
			if !ex.Valid() {
				logger.Error("unknown exchange in -exchanges", "name", name)
				os.Exit(1)
			}
			exchanges = append(exchanges, ex)
		}
	}

	opts := []fetch.ClientOption{
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithRetries(cfg.Fetch.MaxRetries, cfg.Fetch.RetryBackoff),
		fetch.WithRateLimit(cfg.Fetch.RequestsPerSecond),
	}
	for name, baseURL := range cfg.Fetch.Sources {
		opts = append(opts, fetch.WithSource(model.Exchange(name), baseURL))
	}

	p := pipeline.New(fetch.NewClient(opts...), store.New(pool, logger), calendar.NewTable(holidays),
		pipeline.WithLogger(logger),
		pipeline.WithConcurrency(cfg.Pipeline.ExchangeConcurrency),
		pipeline.WithProducts(cfg.ProductFilter()),
	)

	logger.Info("backfill range",
		"start", start.String(),
		"end", end.String(),
		"exchanges", exchanges,
		"force", *force,
	)

	report, err := p.Run(ctx, pipeline.Request{
		Exchanges: exchanges,
		Range:     reconcile.DateRange{Start: start, End: end},
		Force:     *force,
	})
	if err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}

	inserted, overwritten, unchanged := report.Totals()
	logger.Info("backfill complete",
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
