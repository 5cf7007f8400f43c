package adapter

import (
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// GFEX mirrors the DCE layout (Chinese product names, separate delivery
// month) but lists only its own young product set. Turnover is in 元.
const (
	gfexProductName   = "品种"
	gfexDeliveryMonth = "交割月份"
	gfexOpen          = "开盘价"
	gfexHigh          = "最高价"
	gfexLow           = "最低价"
	gfexClose         = "收盘价"
	gfexSettle        = "结算价"
	gfexVolume        = "成交量"
	gfexTurnover      = "成交额"
	gfexOpenInterest  = "持仓量"
)

var gfexProducts = map[string]string{
	"工业硅": "si",
	"碳酸锂": "lc",
	"多晶硅": "ps",
}

func normalizeGFEX(raw model.RawRecord) (model.DailyBar, error) {
	name := strings.TrimSpace(raw.Fields[gfexProductName])
	if isSummaryCell(name) {
		return model.DailyBar{}, ErrSummaryRow
	}

	code, ok := gfexProducts[name]
	if !ok {
		return model.DailyBar{}, &RowError{Exchange: model.GFEX, Kind: MalformedRow,
			Field: gfexProductName, Value: name, Reason: "unknown product name"}
	}

	r := &row{raw: raw}
	contract := code + r.text(gfexDeliveryMonth)

	bar := model.DailyBar{
		TradeDate:    raw.TradeDate,
		Exchange:     model.GFEX,
		ProductCode:  code,
		ContractCode: contract,
		Open:         r.price(gfexOpen),
		High:         r.price(gfexHigh),
		Low:          r.price(gfexLow),
		Close:        r.price(gfexClose),
		Settle:       r.price(gfexSettle),
		Volume:       r.lots(gfexVolume),
		Turnover:     r.price(gfexTurnover),
		OpenInterest: r.lots(gfexOpenInterest),
	}
	if r.err != nil {
		return model.DailyBar{}, r.err
	}
	return bar, nil
}
