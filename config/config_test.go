package config

import "testing"

func TestParseAssets(t *testing.T) {
	got := parseAssets("BTC:64000, eth:3400,BAD,NEG:-5,SOL:180")
	if len(got) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(got))
	}
	if got[0].Symbol != "BTC" || got[0].BasePrice != 64000 {
		t.Errorf("asset 0: %+v", got[0])
	}
	if got[1].Symbol != "ETH" {
		t.Errorf("asset 1 not uppercased: %+v", got[1])
	}
	if got[2].Symbol != "SOL" || got[2].BasePrice != 180 {
		t.Errorf("asset 2: %+v", got[2])
	}
}

func TestParseInts(t *testing.T) {
	got := parseInts("60, 120,abc,-3,900,")
	want := []int{60, 120, 900}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.TickIntervalMs != 800 {
		t.Errorf("tick interval default: %d", cfg.TickIntervalMs)
	}
	if cfg.CandleCap != 500 {
		t.Errorf("candle cap default: %d", cfg.CandleCap)
	}
	if len(cfg.Assets) == 0 || len(cfg.Timeframes) == 0 || len(cfg.ZoomLevels) == 0 {
		t.Error("default topology is empty")
	}
}
