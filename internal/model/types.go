package model

// -----------------------------------------------------------------------------
// Exchanges
// -----------------------------------------------------------------------------

// Exchange identifies one of the five mainland futures exchanges. The set is
// closed; adapters dispatch on it.
type Exchange string

const (
	SHFE  Exchange = "SHFE"  // Shanghai Futures Exchange
	CZCE  Exchange = "CZCE"  // Zhengzhou Commodity Exchange
	DCE   Exchange = "DCE"   // Dalian Commodity Exchange
	CFFEX Exchange = "CFFEX" // China Financial Futures Exchange
	GFEX  Exchange = "GFEX"  // Guangzhou Futures Exchange
)

// Exchanges lists every supported exchange in canonical order.
func Exchanges() []Exchange {
	return []Exchange{SHFE, CZCE, DCE, CFFEX, GFEX}
}

// Valid reports whether e names a supported exchange.
func (e Exchange) Valid() bool {
	switch e {
	case SHFE, CZCE, DCE, CFFEX, GFEX:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Raw input
// -----------------------------------------------------------------------------

// RawRecord is one row of a scraped daily table, untouched: column label to
// cell text in whatever layout the exchange publishes. Ephemeral; only the
// matching adapter understands it.
type RawRecord struct {
	Exchange  Exchange
	TradeDate Date              // stamped by the fetcher from the request date
	Fields    map[string]string // column label -> raw cell text
}

// -----------------------------------------------------------------------------
// Normalized bars
// -----------------------------------------------------------------------------

// DailyBar is the canonical per-contract daily record all exchange layouts
// normalize into. Natural key: (TradeDate, Exchange, ContractCode).
type DailyBar struct {
	TradeDate    Date
	Exchange     Exchange
	ProductCode  string // e.g. "rb", "SR", "IF"
	ContractCode string // e.g. "rb2305", "SR2305", "IF2306"

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Settle float64

	Volume       int64
	Turnover     float64
	OpenInterest int64
}

// Key returns the bar's natural storage key.
func (b DailyBar) Key() BarKey {
	return BarKey{TradeDate: b.TradeDate, Exchange: b.Exchange, ContractCode: b.ContractCode}
}

// BarKey is the unique key of a DailyBar in storage.
type BarKey struct {
	TradeDate    Date
	Exchange     Exchange
	ContractCode string
}

// ContractType distinguishes the two synthetic continuous series.
type ContractType string

const (
	MainContract     ContractType = "main"
	WeightedContract ContractType = "weighted"
)

// ContinuousBar is a derived per-product daily record: either the
// most-active ("main") contract copied verbatim, or the volume-weighted
// aggregate of every active contract. Natural key:
// (TradeDate, Exchange, ProductCode, ContractType). Never hand-edited;
// always recomputed from the day's DailyBars.
type ContinuousBar struct {
	TradeDate    Date
	Exchange     Exchange
	ProductCode  string
	ContractType ContractType
	ContractCode string // populated for main, empty for weighted

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Settle float64

	Volume       int64
	Turnover     float64
	OpenInterest int64
}

// Key returns the continuous bar's natural storage key.
func (b ContinuousBar) Key() ContinuousKey {
	return ContinuousKey{
		TradeDate:    b.TradeDate,
		Exchange:     b.Exchange,
		ProductCode:  b.ProductCode,
		ContractType: b.ContractType,
	}
}

// ContinuousKey is the unique key of a ContinuousBar in storage.
type ContinuousKey struct {
	TradeDate    Date
	Exchange     Exchange
	ProductCode  string
	ContractType ContractType
}

// -----------------------------------------------------------------------------
// Coverage bookkeeping
// -----------------------------------------------------------------------------

// CoverageCheckpoint marks the last trade date for which both daily and
// continuous bars of a product are confirmed durably stored. It advances
// only inside the transaction that writes that date's rows.
type CoverageCheckpoint struct {
	Exchange         Exchange
	ProductCode      string
	LastCompleteDate Date
}
