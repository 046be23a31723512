package ringbuf

import (
	"testing"
	"time"

	"fvgtrader/internal/model"
)

func candleAt(i int) model.Candle {
	return model.Candle{
		TS:    time.Unix(int64(1700000000+i*60), 0).UTC(),
		Open:  1.0 + float64(i)*0.001,
		High:  1.001 + float64(i)*0.001,
		Low:   0.999 + float64(i)*0.001,
		Close: 1.0005 + float64(i)*0.001,
	}
}

func TestWindowEviction(t *testing.T) {
	w := New(3)
	for i := 0; i < 5; i++ {
		w.Push(candleAt(i))
	}
	if w.Len() != 3 {
		t.Fatalf("len = %d, want 3", w.Len())
	}
	// oldest surviving bar is i=2
	if got := w.At(0).TS; !got.Equal(candleAt(2).TS) {
		t.Errorf("At(0).TS = %v, want %v", got, candleAt(2).TS)
	}
	if got := w.At(2).TS; !got.Equal(candleAt(4).TS) {
		t.Errorf("At(2).TS = %v, want %v", got, candleAt(4).TS)
	}
}

func TestWindowLast(t *testing.T) {
	w := New(8)
	for i := 0; i < 6; i++ {
		w.Push(candleAt(i))
	}
	last := w.Last(3)
	if len(last) != 3 {
		t.Fatalf("Last(3) len = %d", len(last))
	}
	for i, c := range last {
		want := candleAt(3 + i)
		if !c.TS.Equal(want.TS) {
			t.Errorf("Last[%d].TS = %v, want %v", i, c.TS, want.TS)
		}
	}
	// asking for more than held returns everything
	if got := w.Last(10); len(got) != 6 {
		t.Errorf("Last(10) len = %d, want 6", len(got))
	}
}

func TestWindowMinCapacity(t *testing.T) {
	w := New(1)
	if w.Cap() != 3 {
		t.Errorf("cap = %d, want 3", w.Cap())
	}
}
