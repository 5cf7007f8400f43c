package adapter

import (
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// SHFE publishes its daily table with English column ids. Contracts are
// split across a product id ("rb_f") and a four-digit delivery month;
// the canonical contract code joins them in lowercase ("rb2305").
const (
	shfeProductID     = "PRODUCTID"
	shfeDeliveryMonth = "DELIVERYMONTH"
	shfeOpen          = "OPENPRICE"
	shfeHigh          = "HIGHESTPRICE"
	shfeLow           = "LOWESTPRICE"
	shfeClose         = "CLOSEPRICE"
	shfeSettle        = "SETTLEMENTPRICE"
	shfeVolume        = "VOLUME"
	shfeTurnover      = "TURNOVER"
	shfeOpenInterest  = "OPENINTEREST"
)

func normalizeSHFE(raw model.RawRecord) (model.DailyBar, error) {
	product := strings.TrimSpace(raw.Fields[shfeProductID])
	month := strings.TrimSpace(raw.Fields[shfeDeliveryMonth])

	// The table interleaves per-product subtotal rows (delivery month
	// "小计") and efp rows with real contracts.
	if isSummaryCell(product) || isSummaryCell(month) || strings.Contains(product, "efp") {
		return model.DailyBar{}, ErrSummaryRow
	}

	r := &row{raw: raw}

	// "rb_f" -> "rb"
	code := strings.ToLower(strings.TrimSuffix(r.text(shfeProductID), "_f"))
	contract := code + r.text(shfeDeliveryMonth)

	bar := model.DailyBar{
		TradeDate:    raw.TradeDate,
		Exchange:     model.SHFE,
		ProductCode:  code,
		ContractCode: contract,
		Open:         r.price(shfeOpen),
		High:         r.price(shfeHigh),
		Low:          r.price(shfeLow),
		Close:        r.price(shfeClose),
		Settle:       r.price(shfeSettle),
		Volume:       r.lots(shfeVolume),
		Turnover:     r.price(shfeTurnover),
		OpenInterest: r.lots(shfeOpenInterest),
	}
	if r.err != nil {
		return model.DailyBar{}, r.err
	}
	return bar, nil
}
