// Package adapter normalizes exchange-specific raw daily tables into
// canonical model.DailyBar records.
//
// Each exchange publishes a different layout:
//   - SHFE: product id + delivery month columns, English headers
//   - CZCE: single contract-code column, 3-digit expiry, turnover in 万元
//   - DCE: Chinese product names mapped to codes, turnover in 万元
//   - CFFEX: uppercase contract codes, turnover in 万元
//   - GFEX: Chinese product names, DCE-style layout
//
// Normalize is a pure function: no I/O, no state, identical input yields
// identical output. Summary/subtotal rows return ErrSummaryRow so callers
// can filter them without treating them as failures; genuinely broken rows
// return a *RowError describing what was wrong.
package adapter
