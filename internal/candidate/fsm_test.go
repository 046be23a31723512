package candidate

import (
	"testing"
	"time"

	"fvgtrader/internal/indicator"
	"fvgtrader/internal/model"
)

func fptr(v float64) *float64 { return &v }

func testCandidate(dir model.Direction) model.SignalCandidate {
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return model.SignalCandidate{
		ID:         "cand-1",
		ZoneID:     "H1:1709546400",
		ZoneKind:   model.ZoneKindPool,
		Symbol:     "EURUSD",
		Direction:  dir,
		EntryPrice: 1.0850,
		Strength:   0.7,
		State:      model.StateWaitEMA,
		CreatedAt:  created,
		ExpiresAt:  created.Add(4 * time.Hour),
	}
}

func bullBar(ts time.Time, close float64) model.Candle {
	return model.Candle{
		Symbol: "EURUSD", Timeframe: "H1", TS: ts,
		Open: close - 0.0010, High: close + 0.0005, Low: close - 0.0015,
		Close: close, Volume: 1000,
	}
}

func alignedSnap() indicator.Snapshot {
	return indicator.Snapshot{
		EMAFast: fptr(1.0840), EMASlow: fptr(1.0830),
		ATR: fptr(0.0012), VolumeSMA: fptr(800),
	}
}

func TestTransitionHappyPath(t *testing.T) {
	cfg := DefaultConfig()
	c := testCandidate(model.DirectionLong)
	bar := bullBar(c.CreatedAt.Add(time.Hour), 1.0860)

	res := Transition(c, bar, alignedSnap(), cfg)
	if res.Candidate.State != model.StateFilters {
		t.Fatalf("after aligned bar state = %v, want FILTERS", res.Candidate.State)
	}
	if res.Signal != nil {
		t.Fatal("WAIT_EMA transition must not emit a signal")
	}

	bar2 := bullBar(c.CreatedAt.Add(2*time.Hour), 1.0865)
	res2 := Transition(res.Candidate, bar2, alignedSnap(), cfg)
	if res2.Candidate.State != model.StateReady {
		t.Fatalf("after filters bar state = %v, want READY", res2.Candidate.State)
	}
	if res2.Signal == nil {
		t.Fatal("FILTERS→READY must emit a signal")
	}
	sig := *res2.Signal
	if sig.CandidateID != c.ID || sig.ZoneID != c.ZoneID {
		t.Errorf("signal lineage = (%s,%s), want (%s,%s)", sig.CandidateID, sig.ZoneID, c.ID, c.ZoneID)
	}
	if sig.EntryPrice != c.EntryPrice {
		t.Errorf("signal entry = %v, want zone-entry price %v", sig.EntryPrice, c.EntryPrice)
	}
	if sig.CurrentPrice != bar2.Close {
		t.Errorf("signal current price = %v, want bar close %v", sig.CurrentPrice, bar2.Close)
	}
	if sig.Confidence != c.Strength {
		t.Errorf("confidence = %v, want strength %v", sig.Confidence, c.Strength)
	}
	if sig.Timeframe != "H1" {
		t.Errorf("timeframe = %q, want H1 from zone id", sig.Timeframe)
	}
	if sig.Metadata["ema_fast"] != 1.0840 || sig.Metadata["atr"] != 0.0012 {
		t.Errorf("metadata missing indicator values: %v", sig.Metadata)
	}
}

func TestTransitionOneStatePerBar(t *testing.T) {
	// A single bar that passes every guard still only advances one state.
	cfg := DefaultConfig()
	c := testCandidate(model.DirectionLong)
	bar := bullBar(c.CreatedAt.Add(time.Hour), 1.0860)

	res := Transition(c, bar, alignedSnap(), cfg)
	if res.Candidate.State == model.StateReady {
		t.Fatal("candidate jumped WAIT_EMA→READY in one bar")
	}
	if res.Candidate.State != model.StateFilters {
		t.Fatalf("state = %v, want FILTERS", res.Candidate.State)
	}
}

func TestTransitionExpiryDominates(t *testing.T) {
	cfg := DefaultConfig()
	for _, start := range []model.CandidateState{model.StateWaitEMA, model.StateFilters} {
		c := testCandidate(model.DirectionLong)
		c.State = start
		// Bar exactly at expires_at, with guards that would otherwise pass.
		bar := bullBar(c.ExpiresAt, 1.0860)
		res := Transition(c, bar, alignedSnap(), cfg)
		if res.Candidate.State != model.StateExpired {
			t.Errorf("from %v at expires_at: state = %v, want EXPIRED", start, res.Candidate.State)
		}
		if res.Signal != nil {
			t.Errorf("from %v: expired candidate emitted a signal", start)
		}
	}
}

func TestTransitionTerminalUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	for _, st := range []model.CandidateState{model.StateReady, model.StateExpired} {
		c := testCandidate(model.DirectionLong)
		c.State = st
		res := Transition(c, bullBar(c.CreatedAt.Add(time.Hour), 1.0860), alignedSnap(), cfg)
		if res.Candidate.State != st {
			t.Errorf("terminal %v advanced to %v", st, res.Candidate.State)
		}
		if res.Signal != nil {
			t.Errorf("terminal %v emitted a signal", st)
		}
	}
}

func TestTransitionNeverReadyWithoutEMA(t *testing.T) {
	// Strong volume and regime cannot shortcut the EMA stage: a misaligned
	// candidate stays in WAIT_EMA indefinitely.
	cfg := DefaultConfig()
	c := testCandidate(model.DirectionLong)
	snap := indicator.Snapshot{EMAFast: fptr(1.0900), EMASlow: fptr(1.0950)} // fast < slow
	for i := 1; i <= 3; i++ {
		res := Transition(c, bullBar(c.CreatedAt.Add(time.Duration(i)*time.Hour), 1.0860), snap, cfg)
		if res.Candidate.State != model.StateWaitEMA {
			t.Fatalf("bar %d: state = %v, want WAIT_EMA", i, res.Candidate.State)
		}
		c = res.Candidate
	}
}

func TestTransitionFiltersBlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeMultiple = 2.0
	c := testCandidate(model.DirectionLong)
	c.State = model.StateFilters

	snap := alignedSnap() // VolumeSMA 800, bar volume 1000 < 1600
	res := Transition(c, bullBar(c.CreatedAt.Add(time.Hour), 1.0860), snap, cfg)
	if res.Candidate.State != model.StateFilters {
		t.Fatalf("state = %v, want FILTERS held by volume guard", res.Candidate.State)
	}
	if res.Signal != nil {
		t.Fatal("blocked filters emitted a signal")
	}
}

func TestEMAAligned(t *testing.T) {
	bar := bullBar(time.Now(), 1.0860)
	cfg := Config{EMACheckEnabled: true}

	if emaAligned(model.DirectionLong, bar, indicator.Snapshot{}, cfg) {
		t.Error("nil EMAs must fail the guard, not pass it")
	}
	if !emaAligned(model.DirectionLong, bar, indicator.Snapshot{}, Config{EMACheckEnabled: false}) {
		t.Error("disabled check must pass regardless of snapshot")
	}

	long := indicator.Snapshot{EMAFast: fptr(1.0850), EMASlow: fptr(1.0840)}
	if !emaAligned(model.DirectionLong, bar, long, cfg) {
		t.Error("close > fast > slow should pass LONG")
	}
	if emaAligned(model.DirectionShort, bar, long, cfg) {
		t.Error("bullish stacking should fail SHORT")
	}

	short := indicator.Snapshot{EMAFast: fptr(1.0870), EMASlow: fptr(1.0880)}
	if !emaAligned(model.DirectionShort, bar, short, cfg) {
		t.Error("close < fast < slow should pass SHORT")
	}

	// Tolerance admits a close just under the fast EMA.
	near := indicator.Snapshot{EMAFast: fptr(1.0862), EMASlow: fptr(1.0840)}
	if emaAligned(model.DirectionLong, bar, near, cfg) {
		t.Error("close below fast without tolerance should fail")
	}
	cfgTol := Config{EMACheckEnabled: true, EMATolerancePct: 0.001}
	if !emaAligned(model.DirectionLong, bar, near, cfgTol) {
		t.Error("tolerance should admit close marginally below fast EMA")
	}
}

func TestVolumeOK(t *testing.T) {
	bar := bullBar(time.Now(), 1.0860) // volume 1000
	if !volumeOK(bar, indicator.Snapshot{VolumeSMA: fptr(900.0)}, Config{}) {
		t.Error("zero multiple must be permissive")
	}
	if !volumeOK(bar, indicator.Snapshot{}, Config{VolumeMultiple: 1.5}) {
		t.Error("unwarmed volume SMA must be permissive")
	}
	if !volumeOK(bar, indicator.Snapshot{VolumeSMA: fptr(600.0)}, Config{VolumeMultiple: 1.5}) {
		t.Error("1000 >= 1.5*600 should pass")
	}
	if volumeOK(bar, indicator.Snapshot{VolumeSMA: fptr(800.0)}, Config{VolumeMultiple: 1.5}) {
		t.Error("1000 < 1.5*800 should fail")
	}
}

func TestInKillzone(t *testing.T) {
	bar := bullBar(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), 1.0860)
	if !inKillzone(bar, Config{}) {
		t.Error("empty window must be permissive")
	}
	if !inKillzone(bar, Config{KillzoneStart: "08:00", KillzoneEnd: "11:00"}) {
		t.Error("09:30 inside 08:00-11:00")
	}
	if inKillzone(bar, Config{KillzoneStart: "13:00", KillzoneEnd: "16:00"}) {
		t.Error("09:30 outside 13:00-16:00")
	}
	if !inKillzone(bar, Config{KillzoneStart: "junk", KillzoneEnd: "16:00"}) {
		t.Error("unparsable window must be permissive")
	}
}

func TestRegimeAllowed(t *testing.T) {
	bull := indicator.Snapshot{Regime: indicator.RegimeBull}
	if !regimeAllowed(bull, Config{}) {
		t.Error("empty allow-list must be permissive")
	}
	if !regimeAllowed(bull, Config{AllowedRegimes: []string{"BULL", "NEUTRAL"}}) {
		t.Error("BULL in allow-list")
	}
	if regimeAllowed(bull, Config{AllowedRegimes: []string{"BEAR"}}) {
		t.Error("BULL not in BEAR-only list")
	}
	unknown := indicator.Snapshot{Regime: indicator.RegimeUnknown}
	if !regimeAllowed(unknown, Config{AllowedRegimes: []string{"BEAR"}}) {
		t.Error("unknown regime must be permissive")
	}
}

func TestTrackerLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	a := testCandidate(model.DirectionLong)
	a.ID = "a"
	b := testCandidate(model.DirectionLong)
	b.ID = "b"
	b.ExpiresAt = b.CreatedAt.Add(30 * time.Minute) // expires on the first bar
	tr.Add(a)
	tr.Add(b)

	var readyOrder []string
	tr.OnReady(func(c model.SignalCandidate, ts time.Time) {
		readyOrder = append(readyOrder, c.ID)
	})

	bar1 := bullBar(a.CreatedAt.Add(time.Hour), 1.0860)
	sigs := tr.OnBar(bar1, alignedSnap())
	if len(sigs) != 0 {
		t.Fatalf("bar1 signals = %d, want 0", len(sigs))
	}
	if tr.Expired != 1 {
		t.Fatalf("Expired = %d, want 1 (b timed out)", tr.Expired)
	}
	if tr.Active() != 1 {
		t.Fatalf("Active = %d, want 1", tr.Active())
	}

	bar2 := bullBar(a.CreatedAt.Add(2*time.Hour), 1.0865)
	sigs = tr.OnBar(bar2, alignedSnap())
	if len(sigs) != 1 {
		t.Fatalf("bar2 signals = %d, want 1", len(sigs))
	}
	if len(readyOrder) != 1 || readyOrder[0] != "a" {
		t.Fatalf("onReady fired for %v, want [a]", readyOrder)
	}
	if tr.Active() != 0 {
		t.Fatalf("Active = %d after READY, want 0", tr.Active())
	}
}

func TestTrackerSignalOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMACheckEnabled = false
	tr := NewTracker(cfg)

	for _, id := range []string{"first", "second", "third"} {
		c := testCandidate(model.DirectionLong)
		c.ID = id
		c.State = model.StateFilters
		tr.Add(c)
	}
	sigs := tr.OnBar(bullBar(time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), 1.0860), indicator.Snapshot{})
	if len(sigs) != 3 {
		t.Fatalf("signals = %d, want 3", len(sigs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if sigs[i].CandidateID != want {
			t.Errorf("signal %d from %q, want %q", i, sigs[i].CandidateID, want)
		}
	}
}
