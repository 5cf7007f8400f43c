package synth

import (
	"testing"
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

func bar(contract string, oi, vol int64, close float64) model.DailyBar {
	return model.DailyBar{
		TradeDate:    model.NewDate(2023, time.May, 16),
		Exchange:     model.SHFE,
		ProductCode:  "rb",
		ContractCode: contract,
		Open:         close,
		High:         close,
		Low:          close,
		Close:        close,
		Settle:       close,
		Volume:       vol,
		Turnover:     close * float64(vol),
		OpenInterest: oi,
	}
}

func TestDerive_MainAndWeighted(t *testing.T) {
	bars := []model.DailyBar{
		bar("rb2305", 1000, 500, 3800),
		bar("rb2310", 1500, 300, 3820),
	}

	res, err := Derive(bars, "")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	// Main: rb2310 wins on open interest (1500 > 1000), copied verbatim.
	if res.Main.ContractCode != "rb2310" {
		t.Errorf("Main.ContractCode = %q, want rb2310", res.Main.ContractCode)
	}
	if res.Main.Close != 3820 || res.Main.Volume != 300 || res.Main.OpenInterest != 1500 {
		t.Errorf("Main = close %v vol %d oi %d, want 3820/300/1500",
			res.Main.Close, res.Main.Volume, res.Main.OpenInterest)
	}
	if res.Main.ContractType != model.MainContract {
		t.Errorf("Main.ContractType = %q, want main", res.Main.ContractType)
	}

	// Weighted: (3800*500 + 3820*300) / 800 = 3807.5
	if res.Weighted == nil {
		t.Fatal("Weighted = nil, want aggregate bar")
	}
	if res.Weighted.Close != 3807.5 {
		t.Errorf("Weighted.Close = %v, want 3807.5", res.Weighted.Close)
	}
	if res.Weighted.Volume != 800 {
		t.Errorf("Weighted.Volume = %d, want 800", res.Weighted.Volume)
	}
	if res.Weighted.OpenInterest != 2500 {
		t.Errorf("Weighted.OpenInterest = %d, want 2500", res.Weighted.OpenInterest)
	}
	if res.Weighted.ContractCode != "" {
		t.Errorf("Weighted.ContractCode = %q, want empty", res.Weighted.ContractCode)
	}
}

func TestDerive_WeightedVolumeSum(t *testing.T) {
	bars := []model.DailyBar{
		bar("cu2306", 10, 7, 64000),
		bar("cu2307", 20, 13, 64100),
		bar("cu2308", 30, 0, 0), // suspended, excluded from weighting
	}
	res, err := Derive(bars, "")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if res.Weighted.Volume != 20 {
		t.Errorf("Weighted.Volume = %d, want exact sum 20", res.Weighted.Volume)
	}
	if res.Weighted.OpenInterest != 30 {
		t.Errorf("Weighted.OpenInterest = %d, want 30 (zero-volume contract excluded)", res.Weighted.OpenInterest)
	}
}

func TestDerive_OpenInterestTie(t *testing.T) {
	bars := []model.DailyBar{
		bar("rb2310", 1000, 10, 3820),
		bar("rb2305", 1000, 10, 3800),
	}
	res, err := Derive(bars, "")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if res.Main.ContractCode != "rb2305" {
		t.Errorf("Main.ContractCode = %q, want rb2305 (lexicographic tie-break)", res.Main.ContractCode)
	}
}

func TestDerive_ZeroVolumeDay(t *testing.T) {
	bars := []model.DailyBar{
		bar("wr2305", 500, 0, 0),
		bar("wr2310", 800, 0, 0),
	}
	res, err := Derive(bars, "")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if res.Weighted != nil {
		t.Errorf("Weighted = %+v, want nil on zero-volume day", res.Weighted)
	}
	if res.Main.ContractCode != "wr2310" {
		t.Errorf("Main.ContractCode = %q, want wr2310 (open-interest ranking still applies)", res.Main.ContractCode)
	}
}

func TestDerive_RollDetection(t *testing.T) {
	bars := []model.DailyBar{
		bar("rb2305", 1000, 500, 3800),
		bar("rb2310", 1500, 300, 3820),
	}

	res, err := Derive(bars, "rb2305")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if !res.Rolled {
		t.Error("Rolled = false, want true when selection changes rb2305 -> rb2310")
	}
	if res.PrevMain != "rb2305" {
		t.Errorf("PrevMain = %q, want rb2305", res.PrevMain)
	}

	res, err = Derive(bars, "rb2310")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if res.Rolled {
		t.Error("Rolled = true, want false when selection is unchanged")
	}

	// First ever date for a product: no previous selection, no roll.
	res, err = Derive(bars, "")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if res.Rolled {
		t.Error("Rolled = true, want false with no previous main")
	}
}

func TestDerive_EmptyInput(t *testing.T) {
	res, err := Derive(nil, "rb2305")
	if err != nil {
		t.Errorf("Derive(nil) error = %v, want nil (absence of trading is valid)", err)
	}
	if res != nil {
		t.Errorf("Derive(nil) = %+v, want nil result", res)
	}
}

func TestDerive_NegativeVolumeFatal(t *testing.T) {
	b := bar("rb2305", 100, 10, 3800)
	b.Volume = -1
	if _, err := Derive([]model.DailyBar{b}, ""); err == nil {
		t.Error("Derive(negative volume) error = nil, want synthesis error")
	}
}

func TestDerive_MixedInputFatal(t *testing.T) {
	a := bar("rb2305", 100, 10, 3800)
	b := bar("hc2305", 100, 10, 3900)
	b.ProductCode = "hc"
	if _, err := Derive([]model.DailyBar{a, b}, ""); err == nil {
		t.Error("Derive(mixed products) error = nil, want synthesis error")
	}
}
