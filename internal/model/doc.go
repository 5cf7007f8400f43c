// Package model defines the canonical domain types shared by all pipeline
// components.
//
// Conventions:
//   - Prices: float64 yuan (exchanges quote two decimal places)
//   - Volume / open interest: int64 lots
//   - Turnover: float64 yuan (CZCE reports 万元, its adapter rescales)
//   - Dates: model.Date, a pure calendar date with no time-of-day or zone
//
// The natural key of a daily bar is (trade date, exchange, contract code);
// continuous bars are keyed by (trade date, exchange, product code,
// contract type). Storage upserts on these keys, so re-processing a date
// is idempotent.
package model
