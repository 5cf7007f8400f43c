package adapter

import (
	"strconv"
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// row wraps a RawRecord with error-accumulating field accessors so each
// exchange adapter reads like a straight-line field mapping.
type row struct {
	raw model.RawRecord
	err error
}

// fail records the first error encountered. Later accessors become no-ops.
func (r *row) fail(kind ErrorKind, field, value, reason string) {
	if r.err == nil {
		r.err = &RowError{Exchange: r.raw.Exchange, Kind: kind, Field: field, Value: value, Reason: reason}
	}
}

// text returns the trimmed cell under the first label that exists.
// A missing column is a malformed row.
func (r *row) text(labels ...string) string {
	if r.err != nil {
		return ""
	}
	for _, l := range labels {
		if v, ok := r.raw.Fields[l]; ok {
			return strings.TrimSpace(v)
		}
	}
	r.fail(MalformedRow, labels[0], "", "required column missing")
	return ""
}

// price parses a price cell. Placeholder cells ("", "-", "--") mean the
// contract did not trade and map to zero rather than an error.
func (r *row) price(labels ...string) float64 {
	s := cleanNumber(r.text(labels...))
	if r.err != nil || s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(MalformedRow, labels[0], s, "not a number")
		return 0
	}
	return f
}

// lots parses a volume/open-interest cell, with the same placeholder rule.
// Some sources report lots with a decimal point ("1234.0").
func (r *row) lots(labels ...string) int64 {
	s := cleanNumber(r.text(labels...))
	if r.err != nil || s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(MalformedRow, labels[0], s, "not a number")
		return 0
	}
	return int64(f)
}

// tradeDate returns the per-row date column when present (CZCE and CFFEX
// tables carry one), falling back to the fetch-stamped request date.
func (r *row) tradeDate(labels ...string) model.Date {
	for _, l := range labels {
		if v, ok := r.raw.Fields[l]; ok && strings.TrimSpace(v) != "" {
			d, err := model.ParseDate(strings.TrimSpace(v))
			if err != nil {
				r.fail(MalformedRow, l, v, "invalid date")
				return model.Date{}
			}
			return d
		}
	}
	return r.raw.TradeDate
}

// cleanNumber strips thousands separators and placeholder dashes.
func cleanNumber(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "-" || s == "--" {
		return ""
	}
	return s
}

// productCode extracts the leading letter run of a contract code:
// "rb2305" -> "rb", "SR305" -> "SR", "IF2306" -> "IF".
func productCode(contract string) string {
	for i, c := range contract {
		if c >= '0' && c <= '9' {
			return contract[:i]
		}
	}
	return contract
}

// isSummaryCell reports whether a product/contract cell marks a subtotal or
// total row rather than a contract.
func isSummaryCell(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, marker := range []string{"小计", "总计", "合计", "Total", "Subtotal"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
