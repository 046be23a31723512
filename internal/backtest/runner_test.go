package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"fvgtrader/config"
	"fvgtrader/internal/candidate"
	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
	"fvgtrader/internal/risk"
	"fvgtrader/internal/zone"
)

// testStrategy uses short indicator periods and permissive guards so the
// fixture below exercises the whole pipeline in a handful of bars.
func testStrategy(equity float64) config.Strategy {
	s := config.DefaultStrategy()
	s.Symbol = "EURUSD"
	s.Timeframe = "H1"
	s.Equity = equity
	s.SlippageBps = 0

	s.Indicators = indicator.Config{
		EMAFastPeriod:  2,
		EMASlowPeriod:  3,
		ATRPeriod:      2,
		VolumePeriod:   2,
		MomentumPeriod: 2,
		RegimeBandPct:  0.001,
	}
	s.Detector = zone.DetectorConfig{
		PipSize:          0.0001,
		MinSizePips:      20, // keeps the tiny incidental gap out
		WeightSize:       0.5,
		WeightVolume:     0.3,
		WeightMomentum:   0.2,
		HighQuality:      0.55,
		PremiumQuality:   0.75,
		ExpiryMinutes:    600,
		HitTolerancePips: 0,
	}
	s.Watcher = zone.WatcherConfig{
		MaxTrackedZones:        10,
		ThrottleEnabled:        false,
		CandidateExpiryMinutes: 600,
	}
	s.Candidate = candidate.Config{
		EMACheckEnabled:  true,
		EMATolerancePct:  0.005,
		DefaultTimeframe: "H1",
	}
	s.Risk = risk.DefaultConfig()
	return s
}

// fvgSeries builds an hourly uptrend with one clear bullish imbalance
// (bar 3 high 1.0830 < bar 5 low 1.0870) followed by a pullback that
// closes inside the gap at 1.0850.
func fvgSeries() []model.Candle {
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) // Wednesday
	bars := []struct{ o, h, l, c float64 }{
		{1.0800, 1.0810, 1.0790, 1.0805},
		{1.0805, 1.0815, 1.0795, 1.0810},
		{1.0810, 1.0820, 1.0800, 1.0815},
		{1.0815, 1.0830, 1.0805, 1.0825}, // prev
		{1.0830, 1.0900, 1.0825, 1.0890}, // impulse
		{1.0890, 1.0920, 1.0870, 1.0910}, // next: zone [1.0830,1.0870]
		{1.0910, 1.0915, 1.0845, 1.0850}, // pullback into the zone
		{1.0850, 1.0880, 1.0845, 1.0870},
		{1.0870, 1.0885, 1.0860, 1.0880},
	}
	out := make([]model.Candle, len(bars))
	for i, b := range bars {
		out[i] = model.Candle{
			Symbol:    "EURUSD",
			Timeframe: "H1",
			TS:        base.Add(time.Duration(i) * time.Hour),
			Open:      b.o,
			High:      b.h,
			Low:       b.l,
			Close:     b.c,
			Volume:    100,
		}
	}
	return out
}

func TestRunner_EmitsOneLongSignalFromBullishGap(t *testing.T) {
	runner := NewRunner(testStrategy(10000), nil, nil)
	res := runner.Run(context.Background(), fvgSeries())

	if !res.Success {
		t.Fatalf("run failed: %s", res.Error)
	}
	if res.Bars != 9 {
		t.Errorf("bars = %d, want 9", res.Bars)
	}
	if res.ZonesDetected != 1 {
		t.Fatalf("zones detected = %d, want 1", res.ZonesDetected)
	}
	if res.ZoneEntries != 1 {
		t.Errorf("zone entries = %d, want 1", res.ZoneEntries)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("signals = %d, want 1", len(res.Signals))
	}

	sig := res.Signals[0]
	if sig.Direction != model.DirectionLong {
		t.Errorf("direction = %s, want LONG", sig.Direction)
	}
	if math.Abs(sig.EntryPrice-1.0850) > 1e-9 {
		t.Errorf("entry price = %v, want 1.0850", sig.EntryPrice)
	}
	if sig.Timeframe != "H1" {
		t.Errorf("timeframe = %q, want H1", sig.Timeframe)
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		t.Errorf("confidence out of range: %v", sig.Confidence)
	}

	// Sizing passed, so a position is open.
	if got := len(runner.Portfolio().Positions()); got != 1 {
		t.Errorf("open positions = %d, want 1", got)
	}
	pos := runner.Portfolio().Positions()[0]
	if pos.Qty <= 0 {
		t.Errorf("long position qty = %v, want > 0", pos.Qty)
	}
	if pos.StopLoss >= pos.AvgPrice || pos.TakeProfit <= pos.AvgPrice {
		t.Errorf("long SL/TP backwards: sl=%v avg=%v tp=%v", pos.StopLoss, pos.AvgPrice, pos.TakeProfit)
	}
}

func TestRunner_EquityFloorBlocksTradingNotSignals(t *testing.T) {
	runner := NewRunner(testStrategy(50), nil, nil) // below min_equity 100
	res := runner.Run(context.Background(), fvgSeries())

	if !res.Success {
		t.Fatalf("run failed: %s", res.Error)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("signals = %d, want 1 (research output is equity-independent)", len(res.Signals))
	}
	if got := len(runner.Portfolio().Positions()); got != 0 {
		t.Errorf("open positions = %d, want 0 below the equity floor", got)
	}
	if res.FinalEquity != 50 {
		t.Errorf("final equity = %v, want untouched 50", res.FinalEquity)
	}
}

func TestRunner_Deterministic(t *testing.T) {
	first := NewRunner(testStrategy(10000), nil, nil).Run(context.Background(), fvgSeries())
	second := NewRunner(testStrategy(10000), nil, nil).Run(context.Background(), fvgSeries())

	if len(first.Signals) != len(second.Signals) {
		t.Fatalf("signal counts differ: %d vs %d", len(first.Signals), len(second.Signals))
	}
	for i := range first.Signals {
		a, b := first.Signals[i], second.Signals[i]
		if a.ZoneID != b.ZoneID || a.EntryPrice != b.EntryPrice || a.Strength != b.Strength {
			t.Errorf("signal %d differs: %+v vs %+v", i, a, b)
		}
	}
	if first.FinalEquity != second.FinalEquity {
		t.Errorf("equity differs: %v vs %v", first.FinalEquity, second.FinalEquity)
	}
}

func TestRunner_FailsOnMalformedCandle(t *testing.T) {
	series := fvgSeries()
	series[4].High = series[4].Low - 0.01 // impossible bar

	res := NewRunner(testStrategy(10000), nil, nil).Run(context.Background(), series)
	if res.Success {
		t.Fatal("expected failed result for malformed candle")
	}
	if res.Error == "" {
		t.Error("failed result carries no error message")
	}
}
