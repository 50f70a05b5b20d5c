package indicator

import (
	"encoding/json"
	"math"
	"testing"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func assertUndefinedBefore(t *testing.T, label string, vals []float64, firstDefined int) {
	t.Helper()
	for i := 0; i < len(vals) && i < firstDefined; i++ {
		if Defined(vals[i]) {
			t.Errorf("%s: index %d should be undefined, got %v", label, i, vals[i])
		}
	}
	if firstDefined < len(vals) && !Defined(vals[firstDefined]) {
		t.Errorf("%s: index %d should be defined", label, firstDefined)
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_HandCalculated(t *testing.T) {
	// SMA(3) over 100, 102, 104, 103, 105:
	// idx 2: (100+102+104)/3 = 102
	// idx 3: (102+104+103)/3 = 103
	// idx 4: (104+103+105)/3 = 104
	got := SMA([]float64{100, 102, 104, 103, 105}, 3)

	if len(got) != 5 {
		t.Fatalf("length: got %d, want 5", len(got))
	}
	assertUndefinedBefore(t, "SMA(3)", got, 2)
	for i, want := range map[int]float64{2: 102, 3: 103, 4: 104} {
		assertClose(t, "SMA(3)", got[i], want, 1e-9)
	}
}

func TestSMA_ConstantSeries(t *testing.T) {
	got := SMA(constant(42.5, 200), 20)
	assertUndefinedBefore(t, "SMA(20)", got, 19)
	for i := 19; i < len(got); i++ {
		assertClose(t, "SMA(20) constant", got[i], 42.5, 1e-9)
	}
}

func TestSMA_ShortOrInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		name   string
		closes []float64
		period int
	}{
		{"short series", []float64{1, 2, 3}, 5},
		{"zero period", []float64{1, 2, 3}, 0},
		{"negative period", []float64{1, 2, 3}, -4},
		{"empty series", nil, 5},
	} {
		got := SMA(tc.closes, tc.period)
		if len(got) != len(tc.closes) {
			t.Errorf("%s: length %d, want %d", tc.name, len(got), len(tc.closes))
		}
		for i, v := range got {
			if Defined(v) {
				t.Errorf("%s: index %d defined (%v), want all-undefined", tc.name, i, v)
			}
		}
	}
}

// ────────────────────────────────────────────────────────────
// EMA
// ────────────────────────────────────────────────────────────

func TestEMA_SeededWithSMA(t *testing.T) {
	// EMA(3), k = 0.5, over 10, 11, 12, 13, 14:
	// idx 2 (seed): (10+11+12)/3 = 11
	// idx 3: 13*0.5 + 11*0.5 = 12
	// idx 4: 14*0.5 + 12*0.5 = 13
	got := EMA([]float64{10, 11, 12, 13, 14}, 3)

	assertUndefinedBefore(t, "EMA(3)", got, 2)
	assertClose(t, "EMA(3) seed", got[2], 11, 1e-9)
	assertClose(t, "EMA(3) idx3", got[3], 12, 1e-9)
	assertClose(t, "EMA(3) idx4", got[4], 13, 1e-9)
}

func TestEMA_ConstantSeriesStaysFlat(t *testing.T) {
	got := EMA(constant(77, 100), 12)
	assertUndefinedBefore(t, "EMA(12)", got, 11)
	for i := 11; i < len(got); i++ {
		assertClose(t, "EMA(12) constant", got[i], 77, 1e-9)
	}
}

func TestEMA_ConvergesToNewLevel(t *testing.T) {
	// 50 closes at 100, then 200 closes at 200: EMA must end within a
	// hair of 200.
	closes := append(constant(100, 50), constant(200, 200)...)
	got := EMA(closes, 12)
	assertClose(t, "EMA(12) convergence", got[len(got)-1], 200, 0.01)
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_HandCalculated(t *testing.T) {
	// Window 2, 4, 6 (period 3): mid = 4,
	// population variance = ((2-4)²+(4-4)²+(6-4)²)/3 = 8/3, std ≈ 1.632993
	// mult 2: upper ≈ 7.265986, lower ≈ 0.734014
	mid, upper, lower := Bollinger([]float64{2, 4, 6}, 3, 2)

	assertClose(t, "BB mid", mid[2], 4, 1e-9)
	assertClose(t, "BB upper", upper[2], 4+2*math.Sqrt(8.0/3.0), 1e-9)
	assertClose(t, "BB lower", lower[2], 4-2*math.Sqrt(8.0/3.0), 1e-9)
}

func TestBollinger_ZeroVarianceCollapsesToMid(t *testing.T) {
	mid, upper, lower := Bollinger(constant(50, 40), 20, 2)
	for i := 19; i < 40; i++ {
		assertClose(t, "BB mid flat", mid[i], 50, 1e-9)
		assertClose(t, "BB upper flat", upper[i], 50, 1e-9)
		assertClose(t, "BB lower flat", lower[i], 50, 1e-9)
	}
}

func TestBollinger_UndefinedWhereMidUndefined(t *testing.T) {
	mid, upper, lower := Bollinger([]float64{1, 2, 3, 4, 5}, 3, 2)
	for i := 0; i < 2; i++ {
		if Defined(mid[i]) || Defined(upper[i]) || Defined(lower[i]) {
			t.Errorf("index %d: expected all bands undefined", i)
		}
	}
	for i := 2; i < 5; i++ {
		if !Defined(mid[i]) || !Defined(upper[i]) || !Defined(lower[i]) {
			t.Errorf("index %d: expected all bands defined", i)
		}
		if !(lower[i] <= mid[i] && mid[i] <= upper[i]) {
			t.Errorf("index %d: band ordering violated: %v %v %v", i, lower[i], mid[i], upper[i])
		}
	}
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_FirstDefinedIndex(t *testing.T) {
	got := RSI(constant(10, 30), 14)
	assertUndefinedBefore(t, "RSI(14)", got, 14)
}

func TestRSI_MonotonicUpConvergesTo100(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := RSI(closes, 14)

	// No losses at all: avgLoss stays 0, RSI pegged at 100 from the start.
	for i := 14; i < len(got); i++ {
		assertClose(t, "RSI up", got[i], 100, 1e-9)
	}
}

func TestRSI_MonotonicDownConvergesTo0(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 500 - float64(i)
	}
	got := RSI(closes, 14)

	for i := 14; i < len(got); i++ {
		assertClose(t, "RSI down", got[i], 0, 1e-9)
	}
}

func TestRSI_FlatSeriesNoDivisionByZero(t *testing.T) {
	// Zero total movement: both averages are 0; the avgLoss==0 rule wins.
	got := RSI(constant(25, 50), 14)
	for i := 14; i < len(got); i++ {
		assertClose(t, "RSI flat", got[i], 100, 1e-9)
	}
}

func TestRSI_HandCalculated(t *testing.T) {
	// period 2, closes 10, 11, 10, 12:
	// seed deltas: +1, -1 → avgGain=0.5, avgLoss=0.5 → RS=1 → RSI=50 at idx 2
	// idx 3: delta +2 → avgGain=(0.5*1+2)/2=1.25, avgLoss=(0.5*1+0)/2=0.25
	//        RS=5 → RSI=100-100/6 ≈ 83.3333
	got := RSI([]float64{10, 11, 10, 12}, 2)
	assertClose(t, "RSI(2) idx2", got[2], 50, 1e-9)
	assertClose(t, "RSI(2) idx3", got[3], 100-100.0/6.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Compute dispatch
// ────────────────────────────────────────────────────────────

func TestCompute_Dispatch(t *testing.T) {
	closes := constant(10, 30)

	for _, tc := range []struct {
		kind  string
		lines int
	}{
		{KindSMA, 1},
		{KindEMA, 1},
		{KindBollinger, 3},
		{KindRSI, 1},
	} {
		got := Compute(tc.kind, Params{}, closes)
		if len(got) != tc.lines {
			t.Errorf("%s: got %d lines, want %d", tc.kind, len(got), tc.lines)
		}
		for _, line := range got {
			if len(line.Values) != len(closes) {
				t.Errorf("%s/%s: length %d, want %d", tc.kind, line.Name, len(line.Values), len(closes))
			}
		}
	}

	if got := Compute("macd", Params{}, closes); got != nil {
		t.Errorf("unknown kind: expected nil, got %d lines", len(got))
	}
}

func TestLine_MarshalJSONNullsUndefined(t *testing.T) {
	l := Line{Name: "sma", Values: []float64{math.NaN(), 1.5, math.Inf(1)}}
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"sma","values":[null,1.5,null]}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	// Must round-trip through the stdlib decoder.
	var decoded struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Values[0] != nil || decoded.Values[1] == nil || *decoded.Values[1] != 1.5 {
		t.Errorf("round-trip mismatch: %+v", decoded.Values)
	}
}
