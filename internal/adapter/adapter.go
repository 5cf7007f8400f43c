package adapter

import (
	"errors"
	"fmt"

	"github.com/rickgao/futures-data/internal/model"
)

// ErrSummaryRow marks subtotal/total rows interleaved with data rows.
// They are filtered, not normalized, and not counted as row errors.
var ErrSummaryRow = errors.New("summary row")

// ErrorKind classifies why a row could not be normalized.
type ErrorKind int

const (
	// MalformedRow: a required field is absent, or non-numeric where a
	// number is required.
	MalformedRow ErrorKind = iota

	// InvariantViolation: the row parsed but breaks OHLC ordering or
	// sign invariants.
	InvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedRow:
		return "malformed_row"
	case InvariantViolation:
		return "invariant_violation"
	}
	return "unknown"
}

// RowError describes a single row that failed normalization. Row errors are
// local: the caller logs them and continues with the rest of the batch.
type RowError struct {
	Exchange model.Exchange
	Kind     ErrorKind
	Field    string // offending column, if identifiable
	Value    string // offending cell text
	Reason   string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s: field %q = %q: %s", e.Exchange, e.Kind, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Exchange, e.Kind, e.Reason)
}

// IsMalformed reports whether err is a MalformedRow row error.
func IsMalformed(err error) bool {
	var re *RowError
	return errors.As(err, &re) && re.Kind == MalformedRow
}

// IsInvariantViolation reports whether err is an InvariantViolation row error.
func IsInvariantViolation(err error) bool {
	var re *RowError
	return errors.As(err, &re) && re.Kind == InvariantViolation
}

// Normalize converts one scraped row into a canonical DailyBar, dispatching
// on the row's exchange. It is pure; callers may invoke it concurrently.
func Normalize(raw model.RawRecord) (model.DailyBar, error) {
	var (
		bar model.DailyBar
		err error
	)

	switch raw.Exchange {
	case model.SHFE:
		bar, err = normalizeSHFE(raw)
	case model.CZCE:
		bar, err = normalizeCZCE(raw)
	case model.DCE:
		bar, err = normalizeDCE(raw)
	case model.CFFEX:
		bar, err = normalizeCFFEX(raw)
	case model.GFEX:
		bar, err = normalizeGFEX(raw)
	default:
		return model.DailyBar{}, &RowError{
			Exchange: raw.Exchange,
			Kind:     MalformedRow,
			Reason:   "unsupported exchange",
		}
	}
	if err != nil {
		return model.DailyBar{}, err
	}

	if err := Validate(&bar); err != nil {
		return model.DailyBar{}, err
	}
	return bar, nil
}

// Validate enforces the canonical bar invariants after exchange-specific
// parsing: non-negative volume and open interest, and OHLC ordering
// (High >= max(Open, Close, Low), Low <= min(Open, Close, High)). The CSV
// import path runs the same checks, so a file import can never admit a bar
// a live fetch would reject.
func Validate(b *model.DailyBar) error {
	if b.Volume < 0 {
		return &RowError{Exchange: b.Exchange, Kind: InvariantViolation,
			Field: "volume", Value: fmt.Sprint(b.Volume), Reason: "negative volume"}
	}
	if b.OpenInterest < 0 {
		return &RowError{Exchange: b.Exchange, Kind: InvariantViolation,
			Field: "open_interest", Value: fmt.Sprint(b.OpenInterest), Reason: "negative open interest"}
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return &RowError{Exchange: b.Exchange, Kind: InvariantViolation,
			Field: "high", Value: fmt.Sprint(b.High),
			Reason: fmt.Sprintf("high below open/close/low (O=%v C=%v L=%v)", b.Open, b.Close, b.Low)}
	}
	if b.Low > b.Open || b.Low > b.Close {
		return &RowError{Exchange: b.Exchange, Kind: InvariantViolation,
			Field: "low", Value: fmt.Sprint(b.Low),
			Reason: fmt.Sprintf("low above open/close (O=%v C=%v)", b.Open, b.Close)}
	}
	return nil
}
