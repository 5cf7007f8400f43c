// Package csvio reads and writes daily bars in the canonical CSV layout
// used for bulk import and export.
//
// The column set mirrors the futures_daily_data table. Imported rows pass
// the same invariant checks as freshly scraped ones; bad rows are
// collected, not fatal, so one typo does not sink a million-row file.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rickgao/futures-data/internal/adapter"
	"github.com/rickgao/futures-data/internal/model"
)

// Header is the canonical column order.
var Header = []string{
	"trade_date", "exchange", "product_code", "contract_code",
	"open", "high", "low", "close", "settle",
	"volume", "turnover", "open_interest",
}

// RowError reports one unusable CSV row.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error { return e.Err }

// Decode reads canonical CSV into validated bars. The header row is
// required and checked. Row-level problems come back alongside the good
// rows; only a broken stream or header is a hard error.
func Decode(r io.Reader) ([]model.DailyBar, []*RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	head, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, want := range Header {
		if strings.TrimSpace(head[i]) != want {
			return nil, nil, fmt.Errorf("csv header column %d = %q, want %q", i+1, head[i], want)
		}
	}

	var (
		bars    []model.DailyBar
		rowErrs []*RowError
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: err.Error(), Err: err})
			continue
		}

		bar, err := decodeRow(record)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: err.Error(), Err: err})
			continue
		}
		bars = append(bars, bar)
	}
	return bars, rowErrs, nil
}

func decodeRow(record []string) (model.DailyBar, error) {
	var bar model.DailyBar

	date, err := model.ParseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return bar, fmt.Errorf("trade_date: %w", err)
	}
	ex := model.Exchange(strings.TrimSpace(record[1]))
	if !ex.Valid() {
		return bar, fmt.Errorf("exchange: unknown %q", record[1])
	}

	bar.TradeDate = date
	bar.Exchange = ex
	bar.ProductCode = strings.TrimSpace(record[2])
	bar.ContractCode = strings.TrimSpace(record[3])
	if bar.ProductCode == "" || bar.ContractCode == "" {
		return bar, fmt.Errorf("empty product or contract code")
	}

	prices := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low},
		{"close", &bar.Close}, {"settle", &bar.Settle},
	}
	for i, p := range prices {
		v, err := parseFloat(record[4+i])
		if err != nil {
			return bar, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = v
	}

	if bar.Volume, err = parseInt(record[9]); err != nil {
		return bar, fmt.Errorf("volume: %w", err)
	}
	if bar.Turnover, err = parseFloat(record[10]); err != nil {
		return bar, fmt.Errorf("turnover: %w", err)
	}
	if bar.OpenInterest, err = parseInt(record[11]); err != nil {
		return bar, fmt.Errorf("open_interest: %w", err)
	}

	if err := adapter.Validate(&bar); err != nil {
		return bar, err
	}
	return bar, nil
}

// Encode writes bars as canonical CSV, header included.
func Encode(w io.Writer, bars []model.DailyBar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bars {
		record := []string{
			b.TradeDate.String(),
			string(b.Exchange),
			b.ProductCode,
			b.ContractCode,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Settle),
			strconv.FormatInt(b.Volume, 10),
			formatFloat(b.Turnover),
			strconv.FormatInt(b.OpenInterest, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ContinuousHeader is the column order for continuous series exports.
var ContinuousHeader = []string{
	"trade_date", "exchange", "product_code", "contract_type", "contract_code",
	"open", "high", "low", "close", "settle",
	"volume", "turnover", "open_interest",
}

// EncodeContinuous writes continuous bars as CSV, header included.
func EncodeContinuous(w io.Writer, bars []model.ContinuousBar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ContinuousHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bars {
		record := []string{
			b.TradeDate.String(),
			string(b.Exchange),
			b.ProductCode,
			string(b.ContractType),
			b.ContractCode,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Settle),
			strconv.FormatInt(b.Volume, 10),
			formatFloat(b.Turnover),
			strconv.FormatInt(b.OpenInterest, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
