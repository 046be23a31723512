package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"fvgtrader/internal/model"
)

func candleAt(ts time.Time, close float64) CandleEvent {
	return CandleEvent{Candle: model.Candle{
		Symbol: "EURUSD", Timeframe: "H1", TS: ts,
		Open: close, High: close, Low: close, Close: close, Volume: 1,
	}}
}

func TestRunOrdersByTimestamp(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	// Added out of order.
	e.Add(candleAt(base.Add(2*time.Hour), 3))
	e.Add(candleAt(base, 1))
	e.Add(candleAt(base.Add(time.Hour), 2))

	var seen []float64
	e.Subscribe("collect", func(ev Event) error {
		seen = append(seen, ev.(CandleEvent).Candle.Close)
		return nil
	})
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", seen, want)
		}
	}
	if e.Processed() != 3 {
		t.Errorf("Processed = %d, want 3", e.Processed())
	}
}

func TestRunTiesKeepInsertionOrder(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	e.Add(MarkEvent{TS: ts, Label: "a"})
	e.Add(MarkEvent{TS: ts, Label: "b"})
	e.Add(MarkEvent{TS: ts, Label: "c"})

	var labels []string
	e.Subscribe("collect", func(ev Event) error {
		labels = append(labels, ev.(MarkEvent).Label)
		return nil
	})
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(labels) != 3 || labels[0] != "a" || labels[1] != "b" || labels[2] != "c" {
		t.Errorf("tie order = %v, want [a b c]", labels)
	}
}

func TestRunHandlerIsolation(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	e.Add(MarkEvent{TS: ts, Label: "only"})

	var order []string
	e.Subscribe("panics", func(ev Event) error {
		order = append(order, "panics")
		panic("boom")
	})
	e.Subscribe("errors", func(ev Event) error {
		order = append(order, "errors")
		return errors.New("handler failed")
	})
	e.Subscribe("healthy", func(ev Event) error {
		order = append(order, "healthy")
		return nil
	})

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 3 || order[2] != "healthy" {
		t.Errorf("handler order = %v, want all three despite panic and error", order)
	}
	if e.Processed() != 1 {
		t.Errorf("Processed = %d, want 1", e.Processed())
	}
}

func TestRunHandlersInRegistrationOrder(t *testing.T) {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	e.Add(MarkEvent{TS: ts})

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		e.Subscribe(name, func(ev Event) error {
			order = append(order, name)
			return nil
		})
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if order[i] != want {
			t.Fatalf("registration order = %v", order)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	for i := 0; i < 5; i++ {
		e.Add(candleAt(base.Add(time.Duration(i)*time.Hour), float64(i)))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run on cancelled ctx = %v, want context.Canceled", err)
	}
	if e.Processed() != 0 {
		t.Errorf("Processed = %d, want 0", e.Processed())
	}
}

func TestRunStopAtEventBoundary(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeFast, 1)
	for i := 0; i < 5; i++ {
		e.Add(candleAt(base.Add(time.Duration(i)*time.Hour), float64(i)))
	}
	e.Subscribe("stopper", func(ev Event) error {
		if ev.(CandleEvent).Candle.Close == 2 {
			e.Stop()
		}
		return nil
	})
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The stopping event itself completes; the loop exits before the next.
	if e.Processed() != 3 {
		t.Errorf("Processed = %d, want 3 (stop honored at next boundary)", e.Processed())
	}
}

func TestSteppedMode(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeStepped, 1)
	e.Add(candleAt(base, 1))
	e.Add(candleAt(base.Add(time.Hour), 2))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.Step(ctx); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if err := e.Step(ctx); err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("engine did not finish after stepping every event")
	}
	if e.Processed() != 2 {
		t.Errorf("Processed = %d, want 2", e.Processed())
	}
}

func TestStatus(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	e := New(ModeRealTime, 10)
	e.Add(candleAt(base, 1))
	e.Prepare()

	st := e.Status()
	if st.Mode != "realtime" {
		t.Errorf("Mode = %q, want realtime", st.Mode)
	}
	if st.Running || st.Processed != 0 || st.Total != 1 {
		t.Errorf("pre-run status = %+v", st)
	}

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st = e.Status()
	if st.Running || st.Processed != 1 || !st.CurrentTS.Equal(base) {
		t.Errorf("post-run status = %+v", st)
	}
}
