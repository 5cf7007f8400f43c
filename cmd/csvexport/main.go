package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rickgao/futures-data/internal/config"
	"github.com/rickgao/futures-data/internal/csvio"
	"github.com/rickgao/futures-data/internal/model"
	"github.com/rickgao/futures-data/internal/store"
	"github.com/rickgao/futures-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	exchangeName := flag.String("exchange", "", "exchange to export (SHFE, CZCE, DCE, CFFEX, GFEX)")
	product := flag.String("product", "", "product code to export")
	series := flag.String("type", "daily", "series to export: daily, main, or weighted")
	startStr := flag.String("start", "", "first trade date (2006-01-02)")
	endStr := flag.String("end", "", "last trade date (2006-01-02)")
	outPath := flag.String("out", "-", "output file (- for stdout)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting csv export",
		"version", version.Version,
		"commit", version.Commit,
		"type", *series,
	)

	ex := model.Exchange(strings.ToUpper(*exchangeName))
	if !ex.Valid() {
		logger.Error("missing or unknown -exchange", "value", *exchangeName)
		os.Exit(1)
	}
	if *product == "" {
		logger.Error("missing -product")
		os.Exit(1)
	}
	start, err := model.ParseDate(*startStr)
	if err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	end, err := model.ParseDate(*endStr)
	if err != nil {
		logger.Error("invalid -end", "error", err)
		os.Exit(1)
	}
	if end.Before(start) {
		logger.Error("-end before -start")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool, logger)
	rows := 0
	switch *series {
	case "daily":
		bars, err := st.DailyBars(ctx, ex, *product, start, end)
		if err != nil {
			logger.Error("failed to query daily bars", "error", err)
			os.Exit(1)
		}
		if err := csvio.Encode(out, bars); err != nil {
			logger.Error("failed to write csv", "error", err)
			os.Exit(1)
		}
		rows = len(bars)
	case "main", "weighted":
		bars, err := st.ContinuousBars(ctx, ex, *product, model.ContractType(*series), start, end)
		if err != nil {
			logger.Error("failed to query continuous bars", "error", err)
			os.Exit(1)
		}
		if err := csvio.EncodeContinuous(out, bars); err != nil {
			logger.Error("failed to write csv", "error", err)
			os.Exit(1)
		}
		rows = len(bars)
	default:
		logger.Error("unknown -type", "value", *series)
		os.Exit(1)
	}

	logger.Info("export complete", "rows", rows, "out", *outPath)
}
