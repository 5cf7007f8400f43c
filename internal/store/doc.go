// Package store persists bars and coverage checkpoints in PostgreSQL.
//
// Tables:
//   - futures_daily_data: one row per (trade_date, exchange, contract_code)
//   - continuous_contracts: one row per (trade_date, exchange,
//     product_code, contract_type)
//   - coverage_checkpoints: one row per (exchange, product_code)
//
// All writes are upserts on the natural key, which makes re-processing a
// date idempotent. CommitDate writes a date's daily bars, continuous bars
// and checkpoint advance in a single transaction so the checkpoint can
// never claim coverage the data rows lack.
package store
