package adapter

import (
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// DCE identifies products by Chinese display name rather than code, so the
// adapter carries a name table. Turnover is reported in 万元.
const (
	dceProductName   = "商品名称"
	dceDeliveryMonth = "交割月份"
	dceOpen          = "开盘价"
	dceHigh          = "最高价"
	dceLow           = "最低价"
	dceClose         = "收盘价"
	dceSettle        = "结算价"
	dceVolume        = "成交量"
	dceTurnover      = "成交额"
	dceOpenInterest  = "持仓量"
)

// dceProducts maps DCE display names to lowercase product codes.
var dceProducts = map[string]string{
	"玉米":   "c",
	"玉米淀粉": "cs",
	"豆一":   "a",
	"豆二":   "b",
	"豆粕":   "m",
	"豆油":   "y",
	"棕榈油":  "p",
	"纤维板":  "fb",
	"胶合板":  "bb",
	"鸡蛋":   "jd",
	"聚乙烯":  "l",
	"聚氯乙烯": "v",
	"聚丙烯":  "pp",
	"焦炭":   "j",
	"焦煤":   "jm",
	"铁矿石":  "i",
	"乙二醇":  "eg",
	"苯乙烯":  "eb",
	"液化石油气": "pg",
	"粳米":   "rr",
	"生猪":   "lh",
}

func normalizeDCE(raw model.RawRecord) (model.DailyBar, error) {
	name := strings.TrimSpace(raw.Fields[dceProductName])
	if isSummaryCell(name) {
		return model.DailyBar{}, ErrSummaryRow
	}

	code, ok := dceProducts[name]
	if !ok {
		return model.DailyBar{}, &RowError{Exchange: model.DCE, Kind: MalformedRow,
			Field: dceProductName, Value: name, Reason: "unknown product name"}
	}

	r := &row{raw: raw}
	contract := code + r.text(dceDeliveryMonth)

	bar := model.DailyBar{
		TradeDate:    raw.TradeDate,
		Exchange:     model.DCE,
		ProductCode:  code,
		ContractCode: contract,
		Open:         r.price(dceOpen),
		High:         r.price(dceHigh),
		Low:          r.price(dceLow),
		Close:        r.price(dceClose),
		Settle:       r.price(dceSettle),
		Volume:       r.lots(dceVolume),
		Turnover:     r.price(dceTurnover) * 10000, // 万元 -> 元
		OpenInterest: r.lots(dceOpenInterest),
	}
	if r.err != nil {
		return model.DailyBar{}, r.err
	}
	return bar, nil
}
