package adapter

import (
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// CFFEX publishes uppercase contract codes directly ("IF2306") with
// turnover in 万元. Option series share the table and are skipped along
// with subtotal rows.
const (
	cffexContract     = "合约代码"
	cffexDate         = "交易日"
	cffexOpen         = "今开盘"
	cffexHigh         = "最高价"
	cffexLow          = "最低价"
	cffexClose        = "今收盘"
	cffexSettle       = "今结算"
	cffexVolume       = "成交量"
	cffexTurnover     = "成交金额"
	cffexOpenInterest = "持仓量"
)

func normalizeCFFEX(raw model.RawRecord) (model.DailyBar, error) {
	contract := strings.TrimSpace(raw.Fields[cffexContract])
	if isSummaryCell(contract) {
		return model.DailyBar{}, ErrSummaryRow
	}
	// Option codes embed a strike segment ("IO2306-C-4000"); only plain
	// futures codes belong in the daily bar table.
	if strings.Contains(contract, "-") {
		return model.DailyBar{}, ErrSummaryRow
	}

	r := &row{raw: raw}
	contract = r.text(cffexContract)

	bar := model.DailyBar{
		TradeDate:    r.tradeDate(cffexDate),
		Exchange:     model.CFFEX,
		ProductCode:  strings.ToUpper(productCode(contract)),
		ContractCode: strings.ToUpper(contract),
		Open:         r.price(cffexOpen),
		High:         r.price(cffexHigh),
		Low:          r.price(cffexLow),
		Close:        r.price(cffexClose),
		Settle:       r.price(cffexSettle),
		Volume:       r.lots(cffexVolume),
		Turnover:     r.price(cffexTurnover) * 10000, // 万元 -> 元
		OpenInterest: r.lots(cffexOpenInterest),
	}
	if r.err != nil {
		return model.DailyBar{}, r.err
	}
	return bar, nil
}
