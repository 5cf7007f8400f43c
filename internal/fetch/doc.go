// Package fetch downloads daily quote tables from the exchange websites.
//
// Each exchange publishes its own format: SHFE and GFEX serve JSON, CZCE
// serves a pipe-delimited text file, DCE exports a tab-separated table,
// and CFFEX serves CSV. Every source is reduced here to []model.RawRecord
// (string field maps) so the adapter layer owns all interpretation.
//
// CZCE, DCE and CFFEX encode their tables as GBK; responses are decoded
// to UTF-8 before parsing.
package fetch
