package indicator

import "fvgtrader/internal/model"

// VolumeSMA calculates a Simple Moving Average over bar volume.
// Uses a preallocated circular buffer for zero-allocation hot path.
type VolumeSMA struct {
	period  int
	buf     []float64 // preallocated circular buffer
	idx     int       // current write position
	count   int       // total values received
	sum     float64
	current float64
}

// NewVolumeSMA creates a new volume SMA with the given period.
func NewVolumeSMA(period int) *VolumeSMA {
	return &VolumeSMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *VolumeSMA) Name() string { return "VOL_SMA" }

func (s *VolumeSMA) Update(candle model.Candle) {
	v := candle.Volume

	if s.count >= s.period {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = v
	s.sum += v
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

func (s *VolumeSMA) Value() float64 { return s.current }
func (s *VolumeSMA) Ready() bool    { return s.count >= s.period }

// Reset clears the state for reuse.
func (s *VolumeSMA) Reset() {
	s.idx = 0
	s.count = 0
	s.sum = 0
	s.current = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}

// Checkpoint serializes the state for warm-restart persistence.
func (s *VolumeSMA) Checkpoint() State {
	bufCopy := make([]float64, len(s.buf))
	copy(bufCopy, s.buf)
	return State{
		Type:    "VOL_SMA",
		Period:  s.period,
		Buf:     bufCopy,
		Idx:     s.idx,
		Count:   s.count,
		Sum:     s.sum,
		Current: s.current,
	}
}

// Restore rebuilds state from a checkpoint.
func (s *VolumeSMA) Restore(state State) error {
	s.period = state.Period
	s.idx = state.Idx
	s.count = state.Count
	s.sum = state.Sum
	s.current = state.Current
	if len(state.Buf) > 0 {
		s.buf = make([]float64, len(state.Buf))
		copy(s.buf, state.Buf)
	} else {
		s.buf = make([]float64, state.Period)
	}
	return nil
}
