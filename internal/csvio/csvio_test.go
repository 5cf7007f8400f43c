package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rickgao/futures-data/internal/model"
)

func sampleBar() model.DailyBar {
	return model.DailyBar{
		TradeDate:    model.NewDate(2023, 7, 5),
		Exchange:     model.SHFE,
		ProductCode:  "rb",
		ContractCode: "rb2310",
		Open:         3712,
		High:         3745,
		Low:          3701,
		Close:        3740,
		Settle:       3728,
		Volume:       1520330,
		Turnover:     56681902100,
		OpenInterest: 2140553,
	}
}

func TestDecode(t *testing.T) {
	t.Run("valid rows", func(t *testing.T) {
		input := strings.Join(Header, ",") + "\n" +
			"2023-07-05,SHFE,rb,rb2310,3712,3745,3701,3740,3728,1520330,56681902100,2140553\n" +
			"2023-07-05,CZCE,SR,SR309,6655,6702,6640,6690,6680,210450,14328705000,380122\n"

		bars, rowErrs, err := Decode(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rowErrs) != 0 {
			t.Fatalf("rowErrs = %v, want none", rowErrs)
		}
		if len(bars) != 2 {
			t.Fatalf("len(bars) = %d, want 2", len(bars))
		}
		if bars[0] != sampleBar() {
			t.Errorf("bars[0] = %+v, want %+v", bars[0], sampleBar())
		}
		if bars[1].Exchange != model.CZCE || bars[1].ContractCode != "SR309" {
			t.Errorf("bars[1] = %+v", bars[1])
		}
	})

	t.Run("compact date format", func(t *testing.T) {
		input := strings.Join(Header, ",") + "\n" +
			"20230705,SHFE,rb,rb2310,3712,3745,3701,3740,3728,1520330,56681902100,2140553\n"

		bars, rowErrs, err := Decode(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rowErrs) != 0 || len(bars) != 1 {
			t.Fatalf("bars/rowErrs = %d/%d, want 1/0", len(bars), len(rowErrs))
		}
		if bars[0].TradeDate != model.NewDate(2023, 7, 5) {
			t.Errorf("TradeDate = %v, want 2023-07-05", bars[0].TradeDate)
		}
	})

	t.Run("bad rows collected, good rows kept", func(t *testing.T) {
		input := strings.Join(Header, ",") + "\n" +
			"2023-07-05,SHFE,rb,rb2310,3712,3745,3701,3740,3728,1520330,56681902100,2140553\n" +
			"2023-07-05,NYSE,rb,rb2310,3712,3745,3701,3740,3728,10,100,20\n" +
			"2023-07-05,SHFE,rb,rb2311,3712,3745,3701,3740,3728,abc,100,20\n" +
			"2023-07-05,SHFE,rb,rb2312,3712,3700,3701,3740,3728,10,100,20\n"

		bars, rowErrs, err := Decode(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(bars) != 1 {
			t.Errorf("len(bars) = %d, want 1", len(bars))
		}
		if len(rowErrs) != 3 {
			t.Fatalf("len(rowErrs) = %d, want 3: %v", len(rowErrs), rowErrs)
		}
		// Unknown exchange, bad volume, then high below close.
		if rowErrs[0].Line != 3 || rowErrs[1].Line != 4 || rowErrs[2].Line != 5 {
			t.Errorf("error lines = %d,%d,%d, want 3,4,5",
				rowErrs[0].Line, rowErrs[1].Line, rowErrs[2].Line)
		}
	})

	t.Run("wrong header", func(t *testing.T) {
		input := "date,exchange,product_code,contract_code,open,high,low,close,settle,volume,turnover,open_interest\n"
		if _, _, err := Decode(strings.NewReader(input)); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("empty cells mean suspended", func(t *testing.T) {
		input := strings.Join(Header, ",") + "\n" +
			"2023-07-05,SHFE,cu,cu2308,,,,,67850,0,0,8120\n"

		bars, rowErrs, err := Decode(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rowErrs) != 0 || len(bars) != 1 {
			t.Fatalf("bars/rowErrs = %d/%d, want 1/0", len(bars), len(rowErrs))
		}
		if bars[0].Open != 0 || bars[0].Settle != 67850 {
			t.Errorf("Open/Settle = %v/%v, want 0/67850", bars[0].Open, bars[0].Settle)
		}
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bars := []model.DailyBar{sampleBar()}

	var buf bytes.Buffer
	if err := Encode(&buf, bars); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, rowErrs, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("rowErrs = %v, want none", rowErrs)
	}
	if len(got) != 1 || got[0] != bars[0] {
		t.Errorf("round trip = %+v, want %+v", got, bars)
	}
}

func TestEncodeContinuous(t *testing.T) {
	bars := []model.ContinuousBar{
		{
			TradeDate:    model.NewDate(2023, 7, 5),
			Exchange:     model.SHFE,
			ProductCode:  "rb",
			ContractType: model.MainContract,
			ContractCode: "rb2310",
			Open:         3712,
			High:         3745,
			Low:          3701,
			Close:        3740,
			Settle:       3728,
			Volume:       1520330,
			Turnover:     56681902100,
			OpenInterest: 2140553,
		},
		{
			TradeDate:    model.NewDate(2023, 7, 5),
			Exchange:     model.SHFE,
			ProductCode:  "rb",
			ContractType: model.WeightedContract,
			Open:         3705.5,
			Close:        3732.5,
			Volume:       1620330,
		},
	}

	var buf bytes.Buffer
	if err := EncodeContinuous(&buf, bars); err != nil {
		t.Fatalf("encode: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if lines[0] != strings.Join(ContinuousHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], ",main,rb2310,") {
		t.Errorf("main row = %q", lines[1])
	}
	// The weighted series has no single underlying contract.
	if !strings.Contains(lines[2], ",weighted,,") {
		t.Errorf("weighted row = %q", lines[2])
	}
}
