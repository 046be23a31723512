package indicator

import "fvgtrader/internal/model"

// Momentum calculates the rate of change of close over the last `period`
// bars: (close - close[n-period]) / close[n-period].
type Momentum struct {
	period  int
	buf     []float64 // circular buffer of closes
	idx     int
	count   int
	current float64
}

// NewMomentum creates a new momentum (rate-of-change) indicator.
func NewMomentum(period int) *Momentum {
	return &Momentum{
		period: period,
		buf:    make([]float64, period),
	}
}

func (m *Momentum) Name() string { return "MOM" }

func (m *Momentum) Update(candle model.Candle) {
	price := candle.Close

	if m.count >= m.period {
		old := m.buf[m.idx]
		if old != 0 {
			m.current = (price - old) / old
		}
	}

	m.buf[m.idx] = price
	m.idx = (m.idx + 1) % m.period
	m.count++
}

func (m *Momentum) Value() float64 { return m.current }
func (m *Momentum) Ready() bool    { return m.count > m.period }

// Reset clears the state for reuse.
func (m *Momentum) Reset() {
	m.idx = 0
	m.count = 0
	m.current = 0
	for i := range m.buf {
		m.buf[i] = 0
	}
}

// Checkpoint serializes the state for warm-restart persistence.
func (m *Momentum) Checkpoint() State {
	bufCopy := make([]float64, len(m.buf))
	copy(bufCopy, m.buf)
	return State{
		Type:    "MOM",
		Period:  m.period,
		Buf:     bufCopy,
		Idx:     m.idx,
		Count:   m.count,
		Current: m.current,
	}
}

// Restore rebuilds state from a checkpoint.
func (m *Momentum) Restore(state State) error {
	m.period = state.Period
	m.idx = state.Idx
	m.count = state.Count
	m.current = state.Current
	if len(state.Buf) > 0 {
		m.buf = make([]float64, len(state.Buf))
		copy(m.buf, state.Buf)
	} else {
		m.buf = make([]float64, state.Period)
	}
	return nil
}
