package adapter

import (
	"errors"
	"testing"
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

var testDate = model.NewDate(2023, time.May, 16)

func shfeRow(fields map[string]string) model.RawRecord {
	return model.RawRecord{Exchange: model.SHFE, TradeDate: testDate, Fields: fields}
}

func TestNormalizeSHFE(t *testing.T) {
	raw := shfeRow(map[string]string{
		"PRODUCTID":       "rb_f",
		"DELIVERYMONTH":   "2305",
		"OPENPRICE":       "3795",
		"HIGHESTPRICE":    "3821",
		"LOWESTPRICE":     "3780",
		"CLOSEPRICE":      "3800",
		"SETTLEMENTPRICE": "3801",
		"VOLUME":          "1234567",
		"TURNOVER":        "46913546500",
		"OPENINTEREST":    "987654",
	})

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.ContractCode != "rb2305" {
		t.Errorf("ContractCode = %q, want %q", bar.ContractCode, "rb2305")
	}
	if bar.ProductCode != "rb" {
		t.Errorf("ProductCode = %q, want %q", bar.ProductCode, "rb")
	}
	if bar.Exchange != model.SHFE {
		t.Errorf("Exchange = %q, want SHFE", bar.Exchange)
	}
	if bar.TradeDate != testDate {
		t.Errorf("TradeDate = %v, want %v", bar.TradeDate, testDate)
	}
	if bar.Open != 3795 || bar.High != 3821 || bar.Low != 3780 || bar.Close != 3800 {
		t.Errorf("OHLC = %v/%v/%v/%v, want 3795/3821/3780/3800", bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Volume != 1234567 {
		t.Errorf("Volume = %d, want 1234567", bar.Volume)
	}
	if bar.OpenInterest != 987654 {
		t.Errorf("OpenInterest = %d, want 987654", bar.OpenInterest)
	}
}

func TestNormalizeSHFE_SummaryRows(t *testing.T) {
	for _, fields := range []map[string]string{
		{"PRODUCTID": "总计", "DELIVERYMONTH": ""},
		{"PRODUCTID": "rb_f", "DELIVERYMONTH": "小计"},
		{"PRODUCTID": "sc_tas_efp", "DELIVERYMONTH": "2306"},
	} {
		if _, err := Normalize(shfeRow(fields)); !errors.Is(err, ErrSummaryRow) {
			t.Errorf("Normalize(%v) error = %v, want ErrSummaryRow", fields, err)
		}
	}
}

func TestNormalizeCZCE(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.CZCE,
		TradeDate: testDate,
		Fields: map[string]string{
			"合约代码":    "SR305",
			"交易日期":    "2023-05-16",
			"今开盘":     "6,780",
			"最高价":     "6,835",
			"最低价":     "6,771",
			"今收盘":     "6,820",
			"今结算":     "6,808",
			"成交量(手)":  "210,450",
			"成交额(万元)": "1,432,870.50",
			"空盘量":     "389,220",
		},
	}

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.ContractCode != "SR2305" {
		t.Errorf("ContractCode = %q, want %q (3-digit expiry widened)", bar.ContractCode, "SR2305")
	}
	if bar.ProductCode != "SR" {
		t.Errorf("ProductCode = %q, want %q", bar.ProductCode, "SR")
	}
	if bar.Open != 6780 {
		t.Errorf("Open = %v, want 6780 (comma-grouped input)", bar.Open)
	}
	if bar.Turnover != 14328705000 {
		t.Errorf("Turnover = %v, want 14328705000 (万元 rescaled)", bar.Turnover)
	}
	if bar.Volume != 210450 {
		t.Errorf("Volume = %d, want 210450", bar.Volume)
	}
	if bar.OpenInterest != 389220 {
		t.Errorf("OpenInterest = %d, want 389220", bar.OpenInterest)
	}
}

func TestNormalizeCZCE_ExpiryDecade(t *testing.T) {
	// The year digit alone is ambiguous across decades; the trade date
	// decides. "001" quoted in December 2019 is January 2020, not 2010.
	tests := []struct {
		name     string
		trade    string
		contract string
		want     string
	}{
		{"same decade", "2023-05-16", "SR305", "SR2305"},
		{"rolls into next decade", "2019-12-10", "CF001", "CF2001"},
		{"current year", "2019-12-10", "CF912", "CF1912"},
		{"already four digits", "2023-05-16", "SR2305", "SR2305"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := model.RawRecord{
				Exchange: model.CZCE,
				Fields: map[string]string{
					"合约代码": tt.contract, "交易日期": tt.trade,
					"今开盘": "100", "最高价": "110", "最低价": "90",
					"今收盘": "105", "今结算": "104",
					"成交量(手)": "10", "成交额(万元)": "1", "空盘量": "20",
				},
			}
			bar, err := Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if bar.ContractCode != tt.want {
				t.Errorf("ContractCode = %q, want %q", bar.ContractCode, tt.want)
			}
		})
	}
}

func TestNormalizeCZCE_NoExpiryDigits(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.CZCE,
		TradeDate: testDate,
		Fields: map[string]string{
			"合约代码": "SRX", "今开盘": "1", "最高价": "1", "最低价": "1",
			"今收盘": "1", "今结算": "1", "成交量(手)": "0", "成交额(万元)": "0", "空盘量": "0",
		},
	}
	if _, err := Normalize(raw); !IsMalformed(err) {
		t.Errorf("Normalize() error = %v, want malformed row", err)
	}
}

func TestNormalizeDCE(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.DCE,
		TradeDate: testDate,
		Fields: map[string]string{
			"商品名称": "铁矿石",
			"交割月份": "2309",
			"开盘价":  "700.5",
			"最高价":  "712.0",
			"最低价":  "698.0",
			"收盘价":  "705.5",
			"结算价":  "704.0",
			"成交量":  "1,050,233",
			"成交额":  "7,390,120.5",
			"持仓量":  "880,112",
		},
	}

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.ContractCode != "i2309" {
		t.Errorf("ContractCode = %q, want %q", bar.ContractCode, "i2309")
	}
	if bar.ProductCode != "i" {
		t.Errorf("ProductCode = %q, want %q", bar.ProductCode, "i")
	}
	if bar.Turnover != 73901205000 {
		t.Errorf("Turnover = %v, want 73901205000", bar.Turnover)
	}
}

func TestNormalizeDCE_UnknownProduct(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.DCE,
		TradeDate: testDate,
		Fields:    map[string]string{"商品名称": "未知品种", "交割月份": "2309"},
	}
	if _, err := Normalize(raw); !IsMalformed(err) {
		t.Errorf("Normalize() error = %v, want malformed row", err)
	}
}

func TestNormalizeCFFEX(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.CFFEX,
		TradeDate: testDate,
		Fields: map[string]string{
			"合约代码": "IF2306",
			"今开盘":  "3980.2",
			"最高价":  "4012.8",
			"最低价":  "3975.0",
			"今收盘":  "4001.6",
			"今结算":  "3999.4",
			"成交量":  "85,230",
			"成交金额": "10,210,556.2",
			"持仓量":  "160,420",
		},
	}

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.ContractCode != "IF2306" {
		t.Errorf("ContractCode = %q, want %q", bar.ContractCode, "IF2306")
	}
	if bar.ProductCode != "IF" {
		t.Errorf("ProductCode = %q, want %q", bar.ProductCode, "IF")
	}
}

func TestNormalizeCFFEX_SkipsOptionRows(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.CFFEX,
		TradeDate: testDate,
		Fields:    map[string]string{"合约代码": "IO2306-C-4000"},
	}
	if _, err := Normalize(raw); !errors.Is(err, ErrSummaryRow) {
		t.Errorf("Normalize() error = %v, want ErrSummaryRow", err)
	}
}

func TestNormalizeGFEX(t *testing.T) {
	raw := model.RawRecord{
		Exchange:  model.GFEX,
		TradeDate: testDate,
		Fields: map[string]string{
			"品种":   "工业硅",
			"交割月份": "2308",
			"开盘价":  "13200",
			"最高价":  "13350",
			"最低价":  "13100",
			"收盘价":  "13235",
			"结算价":  "13240",
			"成交量":  "150,230",
			"成交额":  "9,884,220,100",
			"持仓量":  "88,450",
		},
	}

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.ContractCode != "si2308" {
		t.Errorf("ContractCode = %q, want %q", bar.ContractCode, "si2308")
	}
}

func TestNormalize_SuspendedContractZeroFields(t *testing.T) {
	// Suspended contracts publish dashes; they normalize to zero bars
	// rather than being dropped.
	raw := shfeRow(map[string]string{
		"PRODUCTID":       "wr_f",
		"DELIVERYMONTH":   "2309",
		"OPENPRICE":       "-",
		"HIGHESTPRICE":    "-",
		"LOWESTPRICE":     "-",
		"CLOSEPRICE":      "-",
		"SETTLEMENTPRICE": "4100",
		"VOLUME":          "",
		"TURNOVER":        "-",
		"OPENINTEREST":    "--",
	})

	bar, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if bar.Volume != 0 || bar.OpenInterest != 0 {
		t.Errorf("Volume/OpenInterest = %d/%d, want 0/0", bar.Volume, bar.OpenInterest)
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 {
		t.Errorf("OHLC = %v/%v/%v/%v, want all zero", bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Settle != 4100 {
		t.Errorf("Settle = %v, want 4100", bar.Settle)
	}
}

func TestNormalize_MalformedNumeric(t *testing.T) {
	raw := shfeRow(map[string]string{
		"PRODUCTID":       "rb_f",
		"DELIVERYMONTH":   "2305",
		"OPENPRICE":       "3795",
		"HIGHESTPRICE":    "3821",
		"LOWESTPRICE":     "3780",
		"CLOSEPRICE":      "n/a",
		"SETTLEMENTPRICE": "3801",
		"VOLUME":          "100",
		"TURNOVER":        "1",
		"OPENINTEREST":    "100",
	})

	_, err := Normalize(raw)
	if !IsMalformed(err) {
		t.Fatalf("Normalize() error = %v, want malformed row", err)
	}
	var re *RowError
	if errors.As(err, &re) && re.Field != "CLOSEPRICE" {
		t.Errorf("RowError.Field = %q, want CLOSEPRICE", re.Field)
	}
}

func TestNormalize_MissingColumn(t *testing.T) {
	raw := shfeRow(map[string]string{
		"PRODUCTID":     "rb_f",
		"DELIVERYMONTH": "2305",
		// no price columns at all
	})
	if _, err := Normalize(raw); !IsMalformed(err) {
		t.Errorf("Normalize() error = %v, want malformed row", err)
	}
}

func TestNormalize_OHLCInvariants(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{
			"PRODUCTID":       "rb_f",
			"DELIVERYMONTH":   "2305",
			"OPENPRICE":       "3795",
			"HIGHESTPRICE":    "3821",
			"LOWESTPRICE":     "3780",
			"CLOSEPRICE":      "3800",
			"SETTLEMENTPRICE": "3801",
			"VOLUME":          "100",
			"TURNOVER":        "1",
			"OPENINTEREST":    "100",
		}
	}

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"high below close", "HIGHESTPRICE", "3790"},
		{"low above open", "LOWESTPRICE", "3810"},
	}
	for _, tt := range tests {
		fields := base()
		fields[tt.field] = tt.value
		if _, err := Normalize(shfeRow(fields)); !IsInvariantViolation(err) {
			t.Errorf("%s: Normalize() error = %v, want invariant violation", tt.name, err)
		}
	}
}

func TestNormalize_Pure(t *testing.T) {
	raw := shfeRow(map[string]string{
		"PRODUCTID":       "cu_f",
		"DELIVERYMONTH":   "2307",
		"OPENPRICE":       "64500",
		"HIGHESTPRICE":    "64980",
		"LOWESTPRICE":     "64310",
		"CLOSEPRICE":      "64720",
		"SETTLEMENTPRICE": "64690",
		"VOLUME":          "52,118",
		"TURNOVER":        "16,852,330,000",
		"OPENINTEREST":    "33,874",
	})

	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize() run %d error = %v", i, err)
		}
		if got != first {
			t.Fatalf("Normalize() run %d = %+v, want %+v", i, got, first)
		}
	}
}
