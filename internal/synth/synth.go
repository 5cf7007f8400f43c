// Package synth derives continuous-contract series from one day's
// normalized bars.
//
// Two series per product per date: "main" copies the single contract with
// the highest open interest verbatim, "weighted" volume-weights every
// contract that traded. Derivation is a pure function of the day's bars
// plus the previous trading day's main-contract code (passed in explicitly
// so roll events can be detected without hidden state).
package synth

import (
	"fmt"

	"github.com/rickgao/futures-data/internal/model"
)

// Error reports a programmer-level invariant break reaching synthesis,
// e.g. a negative volume that adapter validation should have rejected.
// Fatal for the date it occurs on.
type Error struct {
	Exchange model.Exchange
	Product  string
	Date     model.Date
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("synthesize %s/%s %s: %s", e.Exchange, e.Product, e.Date, e.Reason)
}

// Result holds one date's derived bars for a product.
type Result struct {
	Main     model.ContinuousBar
	Weighted *model.ContinuousBar // nil on fully suspended days
	Rolled   bool                 // main selection changed vs. previous date
	PrevMain string               // previous main contract code, for roll reports
}

// Derive computes the continuous bars for the bars of one
// (exchange, product, trade date). prevMain is the main contract selected
// on the previous trading date ("" if none); a differing selection flags a
// roll event. Empty input returns (nil, nil): a day without trading is a
// valid state, not an error.
func Derive(bars []model.DailyBar, prevMain string) (*Result, error) {
	if len(bars) == 0 {
		return nil, nil
	}

	first := bars[0]
	for _, b := range bars {
		if b.Exchange != first.Exchange || b.ProductCode != first.ProductCode || b.TradeDate != first.TradeDate {
			return nil, &Error{Exchange: first.Exchange, Product: first.ProductCode, Date: first.TradeDate,
				Reason: fmt.Sprintf("mixed input: got %s/%s on %s", b.Exchange, b.ProductCode, b.TradeDate)}
		}
		if b.Volume < 0 || b.OpenInterest < 0 {
			return nil, &Error{Exchange: first.Exchange, Product: first.ProductCode, Date: first.TradeDate,
				Reason: fmt.Sprintf("contract %s has negative volume or open interest", b.ContractCode)}
		}
	}

	main := selectMain(bars)
	res := &Result{
		Main:     copyBar(main, model.MainContract),
		Weighted: weighted(bars),
		Rolled:   prevMain != "" && prevMain != main.ContractCode,
		PrevMain: prevMain,
	}
	return res, nil
}

// selectMain picks the contract with maximal open interest; ties go to the
// lexicographically earliest contract code (nearer expiry by convention).
func selectMain(bars []model.DailyBar) model.DailyBar {
	best := bars[0]
	for _, b := range bars[1:] {
		if b.OpenInterest > best.OpenInterest ||
			(b.OpenInterest == best.OpenInterest && b.ContractCode < best.ContractCode) {
			best = b
		}
	}
	return best
}

func copyBar(b model.DailyBar, typ model.ContractType) model.ContinuousBar {
	return model.ContinuousBar{
		TradeDate:    b.TradeDate,
		Exchange:     b.Exchange,
		ProductCode:  b.ProductCode,
		ContractType: typ,
		ContractCode: b.ContractCode,
		Open:         b.Open,
		High:         b.High,
		Low:          b.Low,
		Close:        b.Close,
		Settle:       b.Settle,
		Volume:       b.Volume,
		Turnover:     b.Turnover,
		OpenInterest: b.OpenInterest,
	}
}

// weighted builds the volume-weighted aggregate over contracts with
// nonzero volume. Returns nil when nothing traded (never divides by zero).
func weighted(bars []model.DailyBar) *model.ContinuousBar {
	var totalVolume int64
	for _, b := range bars {
		totalVolume += b.Volume
	}
	if totalVolume == 0 {
		return nil
	}

	first := bars[0]
	out := &model.ContinuousBar{
		TradeDate:    first.TradeDate,
		Exchange:     first.Exchange,
		ProductCode:  first.ProductCode,
		ContractType: model.WeightedContract,
	}

	tv := float64(totalVolume)
	for _, b := range bars {
		if b.Volume == 0 {
			continue
		}
		w := float64(b.Volume) / tv
		out.Open += b.Open * w
		out.High += b.High * w
		out.Low += b.Low * w
		out.Close += b.Close * w
		out.Settle += b.Settle * w
		out.Volume += b.Volume
		out.Turnover += b.Turnover
		out.OpenInterest += b.OpenInterest
	}
	return out
}
