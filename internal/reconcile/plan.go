package reconcile

import (
	"fmt"

	"github.com/rickgao/futures-data/internal/calendar"
	"github.com/rickgao/futures-data/internal/model"
)

// DateRange is an inclusive calendar span.
type DateRange struct {
	Start model.Date
	End   model.Date
}

// Valid reports whether the range is non-empty and well-ordered.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// PlanError wraps failures while computing a fetch plan (bad range,
// unavailable calendar). It aborts the current date span; the checkpoint
// is left untouched.
type PlanError struct {
	Exchange model.Exchange
	Product  string
	Err      error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan %s/%s: %v", e.Exchange, e.Product, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Plan computes the ordered dates that must be fetched for one
// exchange/product: every trading day in the requested range that is not
// already covered by the checkpoint. Force-refresh ignores the checkpoint
// (the re-import and fix-bad-data paths); upsert semantics make the
// re-fetch safe. Dates come back ascending; synthesis depends on
// chronological processing for roll continuity.
func Plan(ex model.Exchange, product string, r DateRange, cp model.CoverageCheckpoint, cal calendar.Calendar, force bool) ([]model.Date, error) {
	if !r.Valid() {
		return nil, &PlanError{Exchange: ex, Product: product,
			Err: fmt.Errorf("invalid range %s..%s", r.Start, r.End)}
	}
	if cal == nil {
		return nil, &PlanError{Exchange: ex, Product: product,
			Err: fmt.Errorf("no trading calendar")}
	}

	start := r.Start
	if !force && !cp.LastCompleteDate.IsZero() && !cp.LastCompleteDate.Before(start) {
		start = cp.LastCompleteDate.Next()
	}

	var dates []model.Date
	for d := start; !r.End.Before(d); d = d.Next() {
		if cal.IsTradingDay(ex, d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
