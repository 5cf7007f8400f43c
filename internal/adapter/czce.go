package adapter

import (
	"fmt"
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// CZCE publishes Chinese headers, a single contract-code column with a
// 3-digit expiry ("SR305", widened to "SR2305" on the way in), comma-grouped
// numbers, and turnover in 万元. Open interest is labelled 空盘量 on this
// exchange.
const (
	czceContract     = "合约代码"
	czceDate         = "交易日期"
	czceOpen         = "今开盘"
	czceHigh         = "最高价"
	czceLow          = "最低价"
	czceClose        = "今收盘"
	czceSettle       = "今结算"
	czceVolume       = "成交量(手)"
	czceTurnover     = "成交额(万元)"
	czceOpenInterest = "空盘量"
)

func normalizeCZCE(raw model.RawRecord) (model.DailyBar, error) {
	contract := strings.TrimSpace(raw.Fields[czceContract])
	if isSummaryCell(contract) {
		return model.DailyBar{}, ErrSummaryRow
	}

	r := &row{raw: raw}
	contract = r.text(czceContract)
	product := strings.ToUpper(productCode(contract))
	date := r.tradeDate(czceDate)

	bar := model.DailyBar{
		TradeDate:    date,
		Exchange:     model.CZCE,
		ProductCode:  product,
		ContractCode: product + expandExpiry(contract[len(product):], date),
		Open:         r.price(czceOpen),
		High:         r.price(czceHigh),
		Low:          r.price(czceLow),
		Close:        r.price(czceClose),
		Settle:       r.price(czceSettle),
		Volume:       r.lots(czceVolume),
		Turnover:     r.price(czceTurnover) * 10000, // 万元 -> 元
		OpenInterest: r.lots(czceOpenInterest),
	}
	if r.err != nil {
		return model.DailyBar{}, r.err
	}
	if bar.ProductCode == "" || bar.ProductCode == contract {
		return model.DailyBar{}, &RowError{Exchange: model.CZCE, Kind: MalformedRow,
			Field: czceContract, Value: contract, Reason: "contract code has no expiry digits"}
	}
	return bar, nil
}

// expandExpiry widens CZCE's 3-digit expiry to the four-digit form the
// other exchanges use ("305" quoted in 2023 becomes "2305") so contract
// codes sort chronologically. The decade comes from the trade date; a
// year digit behind the current year belongs to the next decade ("001"
// quoted in late 2019 is January 2020).
func expandExpiry(expiry string, d model.Date) string {
	if len(expiry) != 3 || d.IsZero() {
		return expiry
	}
	year := d.Year - d.Year%10 + int(expiry[0]-'0')
	if year < d.Year {
		year += 10
	}
	return fmt.Sprintf("%02d%s", year%100, expiry[1:])
}
