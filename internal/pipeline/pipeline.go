package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/futures-data/internal/adapter"
	"github.com/rickgao/futures-data/internal/calendar"
	"github.com/rickgao/futures-data/internal/model"
	"github.com/rickgao/futures-data/internal/reconcile"
	"github.com/rickgao/futures-data/internal/synth"
)

// Scraper fetches one exchange's daily quote table.
type Scraper interface {
	Daily(ctx context.Context, ex model.Exchange, date model.Date) ([]model.RawRecord, error)
}

// Storage is the persistence surface the pipeline drives.
type Storage interface {
	ExistingBars(ctx context.Context, ex model.Exchange, product string, start, end model.Date) (map[model.BarKey]model.DailyBar, error)
	Checkpoints(ctx context.Context, ex model.Exchange) (map[string]model.CoverageCheckpoint, error)
	PrevMainContract(ctx context.Context, ex model.Exchange, product string, d model.Date) (string, error)
	CommitDate(ctx context.Context, cp model.CoverageCheckpoint, bars []model.DailyBar, continuous []model.ContinuousBar) error
}

// Pipeline runs update and backfill passes over the configured exchanges.
type Pipeline struct {
	scraper  Scraper
	store    Storage
	cal      calendar.Calendar
	logger   *slog.Logger
	workers  int
	products map[model.Exchange][]string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithConcurrency caps how many exchanges run in parallel.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProducts restricts an exchange to the given product codes. Exchanges
// without a filter process every product their table reports.
func WithProducts(filter map[model.Exchange][]string) Option {
	return func(p *Pipeline) {
		p.products = filter
	}
}

// New creates a Pipeline.
func New(scraper Scraper, store Storage, cal calendar.Calendar, opts ...Option) *Pipeline {
	p := &Pipeline{
		scraper: scraper,
		store:   store,
		cal:     cal,
		logger:  slog.Default(),
		workers: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request describes one run.
type Request struct {
	Exchanges []model.Exchange
	Range     reconcile.DateRange

	// Force re-fetches dates the checkpoints already cover (the
	// fix-bad-data path). Upserts make the re-write safe.
	Force bool
}

// Run executes the request. Per-exchange failures are reported, not
// returned: one exchange going down must not abort the others. The
// returned error covers run-level problems only (context cancellation,
// invalid request).
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	if !req.Range.Valid() {
		return nil, &reconcile.PlanError{Err: errors.New("invalid date range")}
	}
	exchanges := req.Exchanges
	if len(exchanges) == 0 {
		exchanges = model.Exchanges()
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Started:   time.Now(),
		Exchanges: make([]*ExchangeReport, len(exchanges)),
	}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("run started",
		"exchanges", len(exchanges),
		"start", req.Range.Start.String(),
		"end", req.Range.End.String(),
		"force", req.Force,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, ex := range exchanges {
		g.Go(func() error {
			report.Exchanges[i] = p.runExchange(gctx, logger, ex, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Finished = time.Now()
	logger.Info("run finished",
		"duration", report.Finished.Sub(report.Started),
		"failed", report.Failed(),
	)
	return report, nil
}

// runExchange walks the exchange's trading dates in ascending order. A
// fetch failure stalls the whole exchange: later dates must not commit
// past a hole in coverage.
func (p *Pipeline) runExchange(ctx context.Context, logger *slog.Logger, ex model.Exchange, req Request) *ExchangeReport {
	rep := newExchangeReport(ex)
	logger = logger.With("exchange", ex)

	// Plan with force=true enumerates every trading day in range;
	// coverage is applied below, where fully covered dates skip the
	// download and products checkpoint independently.
	dates, err := reconcile.Plan(ex, "", req.Range, model.CoverageCheckpoint{}, p.cal, true)
	if err != nil {
		rep.fail(err)
		return rep
	}

	checkpoints, err := p.store.Checkpoints(ctx, ex)
	if err != nil {
		rep.fail(err)
		return rep
	}
	state := newExchangeState(checkpoints)
	for _, date := range dates {
		if ctx.Err() != nil {
			rep.fail(ctx.Err())
			return rep
		}
		// A date already behind every known checkpoint cannot produce
		// new writes; skip the download. A product first listed on such
		// a date is picked up by the next uncovered one.
		if !req.Force && state.covered(date) {
			continue
		}

		records, err := p.scraper.Daily(ctx, ex, date)
		if err != nil {
			logger.Error("fetch failed", "date", date.String(), "error", err)
			rep.fail(err)
			return rep
		}
		rep.DatesFetched++

		byProduct, rowErrs := p.normalize(logger, ex, date, records)
		rep.RowErrors += rowErrs
		for _, product := range sortedProducts(byProduct) {
			if !p.wantProduct(ex, product) {
				continue
			}
			p.runProduct(ctx, logger, rep, state, ex, product, date, byProduct[product], req.Force)
		}
	}
	return rep
}

// normalize converts raw records into bars grouped by product. Summary
// rows vanish here. Rejected rows are recovered locally: logged, counted,
// and skipped, so one bad row never fails the date. A day where nothing
// normalizes commits no product and leaves every checkpoint untouched.
func (p *Pipeline) normalize(logger *slog.Logger, ex model.Exchange, date model.Date, records []model.RawRecord) (map[string][]model.DailyBar, int) {
	byProduct := make(map[string][]model.DailyBar)
	rowErrs := 0

	for _, raw := range records {
		bar, err := adapter.Normalize(raw)
		if errors.Is(err, adapter.ErrSummaryRow) {
			continue
		}
		if err != nil {
			logger.Warn("row rejected",
				"date", date.String(),
				"error", err,
			)
			rowErrs++
			continue
		}
		byProduct[bar.ProductCode] = append(byProduct[bar.ProductCode], bar)
	}
	return byProduct, rowErrs
}

// runProduct processes one (product, date): classify against storage,
// derive continuous bars, and commit atomically. Any unrecovered error
// stalls the product so its checkpoint cannot skip the failed date.
func (p *Pipeline) runProduct(ctx context.Context, logger *slog.Logger, rep *ExchangeReport, state *exchangeState, ex model.Exchange, product string, date model.Date, bars []model.DailyBar, force bool) {
	stats := rep.product(product)
	if state.stalled[product] {
		return
	}

	cp, ok := state.checkpoints[product]
	if !ok {
		cp = model.CoverageCheckpoint{Exchange: ex, ProductCode: product}
	}
	if !force && !cp.LastCompleteDate.IsZero() && !cp.LastCompleteDate.Before(date) {
		return
	}

	existing, err := p.store.ExistingBars(ctx, ex, product, date, date)
	if err != nil {
		p.stall(logger, state, stats, product, date, err)
		return
	}
	decisions := reconcile.Classify(bars, existing)
	counts := reconcile.Count(decisions)

	prevMain, ok := state.prevMain[product]
	if !ok {
		prevMain, err = p.store.PrevMainContract(ctx, ex, product, date)
		if err != nil {
			p.stall(logger, state, stats, product, date, err)
			return
		}
	}

	// Synthesis ranks the full stored set for the date, not just what
	// this fetch returned: a bulk import or an earlier richer fetch may
	// hold contracts the site no longer reports, and the main selection
	// must agree with everything persisted.
	result, err := synth.Derive(mergeBars(bars, existing), prevMain)
	if err != nil {
		p.stall(logger, state, stats, product, date, err)
		return
	}

	var continuous []model.ContinuousBar
	if result != nil {
		continuous = append(continuous, result.Main)
		if result.Weighted != nil {
			continuous = append(continuous, *result.Weighted)
		}
	}

	cp.Exchange = ex
	cp.ProductCode = product
	cp.LastCompleteDate = date
	if err := p.store.CommitDate(ctx, cp, reconcile.Changed(decisions), continuous); err != nil {
		p.stall(logger, state, stats, product, date, err)
		return
	}

	state.checkpoints[product] = cp
	if result != nil {
		state.prevMain[product] = result.Main.ContractCode
		if result.Rolled {
			stats.Rolls++
			logger.Info("main contract rolled",
				"product", product,
				"date", date.String(),
				"from", result.PrevMain,
				"to", result.Main.ContractCode,
			)
		}
	}

	stats.DatesAdvanced++
	stats.Inserted += counts.Inserted
	stats.Overwritten += counts.Overwritten
	stats.Unchanged += counts.Unchanged
}

func (p *Pipeline) stall(logger *slog.Logger, state *exchangeState, stats *ProductStats, product string, date model.Date, err error) {
	logger.Error("product stalled",
		"product", product,
		"date", date.String(),
		"error", err,
	)
	state.stalled[product] = true
	stats.Stalled = true
	stats.DatesFailed++
	stats.Errs = append(stats.Errs, err)
}

func (p *Pipeline) wantProduct(ex model.Exchange, product string) bool {
	filter := p.products[ex]
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		if want == product {
			return true
		}
	}
	return false
}

// exchangeState carries per-product run state across the sequential date
// walk of one exchange.
type exchangeState struct {
	checkpoints map[string]model.CoverageCheckpoint
	prevMain    map[string]string
	stalled     map[string]bool
}

func newExchangeState(checkpoints map[string]model.CoverageCheckpoint) *exchangeState {
	if checkpoints == nil {
		checkpoints = make(map[string]model.CoverageCheckpoint)
	}
	return &exchangeState{
		checkpoints: checkpoints,
		prevMain:    make(map[string]string),
		stalled:     make(map[string]bool),
	}
}

// covered reports whether every known checkpoint already includes date.
// An exchange with no checkpoints yet covers nothing.
func (s *exchangeState) covered(date model.Date) bool {
	if len(s.checkpoints) == 0 {
		return false
	}
	for _, cp := range s.checkpoints {
		if cp.LastCompleteDate.Before(date) {
			return false
		}
	}
	return true
}

// mergeBars combines freshly fetched bars with the rows already stored
// for the same date. Incoming wins per contract; stored contracts absent
// from the fetch stay in. The result is sorted so weighted sums do not
// depend on map order.
func mergeBars(incoming []model.DailyBar, existing map[model.BarKey]model.DailyBar) []model.DailyBar {
	merged := make([]model.DailyBar, 0, len(incoming)+len(existing))
	seen := make(map[model.BarKey]bool, len(incoming))
	for _, b := range incoming {
		seen[b.Key()] = true
		merged = append(merged, b)
	}
	for key, b := range existing {
		if !seen[key] {
			merged = append(merged, b)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ContractCode < merged[j].ContractCode
	})
	return merged
}

func sortedProducts(byProduct map[string][]model.DailyBar) []string {
	products := make([]string, 0, len(byProduct))
	for product := range byProduct {
		products = append(products, product)
	}
	sort.Strings(products)
	return products
}
