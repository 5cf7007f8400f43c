package pipeline

import (
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

// ProductStats tallies one product's outcome within a run.
type ProductStats struct {
	DatesAdvanced int
	DatesFailed   int
	Inserted      int
	Overwritten   int
	Unchanged     int
	Rolls         int
	Stalled       bool
	Errs          []error
}

// ExchangeReport summarizes one exchange within a run. RowErrors counts
// rows rejected during normalization; they are exchange-level because a
// row that fails to parse has no attributable product.
type ExchangeReport struct {
	Exchange     model.Exchange
	DatesFetched int
	RowErrors    int
	Products     map[string]*ProductStats
	Errs         []error
}

func newExchangeReport(ex model.Exchange) *ExchangeReport {
	return &ExchangeReport{
		Exchange: ex,
		Products: make(map[string]*ProductStats),
	}
}

func (r *ExchangeReport) product(name string) *ProductStats {
	stats, ok := r.Products[name]
	if !ok {
		stats = &ProductStats{}
		r.Products[name] = stats
	}
	return stats
}

func (r *ExchangeReport) fail(err error) {
	r.Errs = append(r.Errs, err)
}

// Failed reports whether the exchange hit any exchange-level or
// product-level error.
func (r *ExchangeReport) Failed() bool {
	if len(r.Errs) > 0 {
		return true
	}
	for _, stats := range r.Products {
		if stats.Stalled {
			return true
		}
	}
	return false
}

// Report summarizes one run.
type Report struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Exchanges []*ExchangeReport
}

// Failed reports whether any exchange in the run failed.
func (r *Report) Failed() bool {
	for _, ex := range r.Exchanges {
		if ex != nil && ex.Failed() {
			return true
		}
	}
	return false
}

// Totals sums decision counts across the whole run.
func (r *Report) Totals() (inserted, overwritten, unchanged int) {
	for _, ex := range r.Exchanges {
		if ex == nil {
			continue
		}
		for _, stats := range ex.Products {
			inserted += stats.Inserted
			overwritten += stats.Overwritten
			unchanged += stats.Unchanged
		}
	}
	return inserted, overwritten, unchanged
}
