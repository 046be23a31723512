package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"fvgtrader/internal/model"
)

func storeCandle(symbol string, hour int, close float64) model.Candle {
	return model.Candle{
		Symbol: symbol, Timeframe: "H1",
		TS:   time.Date(2024, 3, 4, hour, 0, 0, 0, time.UTC),
		Open: close - 0.0010, High: close + 0.0005, Low: close - 0.0015,
		Close: close, Volume: 1000,
	}
}

func TestCandleRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "candles.db")
	w, err := NewWriter(dbPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	// Written out of order; the reader must return them sorted by ts.
	batch := []model.Candle{
		storeCandle("EURUSD", 12, 1.0860),
		storeCandle("EURUSD", 10, 1.0840),
		storeCandle("EURUSD", 11, 1.0850),
		storeCandle("GBPUSD", 10, 1.2700),
	}
	if err := w.WriteCandleBatch(batch); err != nil {
		t.Fatalf("WriteCandleBatch: %v", err)
	}

	r, err := NewReader(dbPath)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadCandles("EURUSD", "H1", 0)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadCandles returned %d candles, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].TS.After(got[i-1].TS) {
			t.Fatalf("candles not in ascending ts order: %v then %v", got[i-1].TS, got[i].TS)
		}
	}
	if got[0].Close != 1.0840 || got[0].Volume != 1000 {
		t.Errorf("first candle = %+v, want close 1.0840 volume 1000", got[0])
	}
	if !got[0].TS.Equal(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("first candle ts = %v, want 10:00 UTC", got[0].TS)
	}
}

func TestCandleReplaceAndAfterTS(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "candles.db")
	w, err := NewWriter(dbPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.WriteCandleBatch([]model.Candle{storeCandle("EURUSD", 10, 1.0840)}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// Re-importing a corrected row replaces, never duplicates.
	if err := w.WriteCandleBatch([]model.Candle{storeCandle("EURUSD", 10, 1.0845)}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if err := w.WriteCandleBatch([]model.Candle{storeCandle("EURUSD", 11, 1.0850)}); err != nil {
		t.Fatalf("third write: %v", err)
	}

	r, err := NewReader(dbPath)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadCandles("EURUSD", "H1", 0)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candles after replace, want 2", len(got))
	}
	if got[0].Close != 1.0845 {
		t.Errorf("replaced close = %v, want corrected 1.0845", got[0].Close)
	}

	// afterTS is exclusive: cursoring from the first bar yields only the second.
	after, err := r.ReadCandles("EURUSD", "H1", got[0].TS.Unix())
	if err != nil {
		t.Fatalf("ReadCandles afterTS: %v", err)
	}
	if len(after) != 1 || !after[0].TS.Equal(got[1].TS) {
		t.Errorf("afterTS cursor returned %d candles, want only the 11:00 bar", len(after))
	}
}

func TestReadAllCandlesAcrossSymbols(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "candles.db")
	w, err := NewWriter(dbPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	m15 := storeCandle("EURUSD", 9, 1.0830)
	m15.Timeframe = "M15"
	if err := w.WriteCandleBatch([]model.Candle{
		storeCandle("EURUSD", 11, 1.0850),
		storeCandle("GBPUSD", 10, 1.2700),
		m15,
	}); err != nil {
		t.Fatalf("WriteCandleBatch: %v", err)
	}

	r, err := NewReader(dbPath)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadAllCandles("H1", 0)
	if err != nil {
		t.Fatalf("ReadAllCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAllCandles returned %d candles, want 2 (M15 row excluded)", len(got))
	}
	if got[0].Symbol != "GBPUSD" || got[1].Symbol != "EURUSD" {
		t.Errorf("order = [%s %s], want ts-ascending across symbols [GBPUSD EURUSD]",
			got[0].Symbol, got[1].Symbol)
	}
}

func TestWriteSignalIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "candles.db")
	w, err := NewWriter(dbPath)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	sig := model.TradingSignal{
		ID: "sig-1", CandidateID: "cand-1", ZoneID: "H1:1709546400",
		Symbol: "EURUSD", Timeframe: "H1", Direction: model.DirectionLong,
		EntryPrice: 1.0850, CurrentPrice: 1.0855, Strength: 0.7, Confidence: 0.7,
		TS: time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
	}
	if err := w.WriteSignal(sig); err != nil {
		t.Fatalf("WriteSignal: %v", err)
	}
	// Replays re-emit the same signal id; the second write is a no-op.
	if err := w.WriteSignal(sig); err != nil {
		t.Errorf("duplicate WriteSignal: %v", err)
	}
}
