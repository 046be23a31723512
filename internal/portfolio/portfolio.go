// Package portfolio tracks positions, account equity, and P&L.
//
// It maintains the view of all open positions with their protective levels,
// realizes P&L on position exits, and answers the first-touch question the
// backtest loop asks every bar: did this bar hit the stop or the target?
package portfolio

import (
	"sync"

	"fvgtrader/internal/model"
)

// ExitReason describes why a position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitManual     ExitReason = "MANUAL"
)

// Closed describes a completed round trip.
type Closed struct {
	Position model.Position
	Reason   ExitReason
	ExitPx   float64
	PnL      float64
	Won      bool
}

// Portfolio tracks all open positions and account equity.
type Portfolio struct {
	mu        sync.RWMutex
	positions map[string]*model.Position // key = symbol
	equity    float64
	peak      float64
	realized  float64
	wins      int
	losses    int
}

// New creates a Portfolio with the given starting equity.
func New(initialEquity float64) *Portfolio {
	return &Portfolio{
		positions: make(map[string]*model.Position),
		equity:    initialEquity,
		peak:      initialEquity,
	}
}

// Open records a filled entry. An existing same-direction position is
// averaged in; opposite signs are the caller's bug (pre-trade validation
// forbids them).
func (pf *Portfolio) Open(symbol string, qty, fillPrice, stopLoss, takeProfit float64) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pos, ok := pf.positions[symbol]
	if !ok {
		pf.positions[symbol] = &model.Position{
			Symbol:     symbol,
			Qty:        qty,
			AvgPrice:   fillPrice,
			LastPrice:  fillPrice,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
		}
		return
	}
	totalCost := pos.AvgPrice*pos.Qty + fillPrice*qty
	pos.Qty += qty
	if pos.Qty != 0 {
		pos.AvgPrice = totalCost / pos.Qty
	}
	pos.LastPrice = fillPrice
	pos.StopLoss = stopLoss
	pos.TakeProfit = takeProfit
}

// OnBar updates position marks from the bar and closes any position whose
// stop or target the bar traded through. When a bar spans both levels the
// stop is assumed hit first — the conservative first-touch resolution.
func (pf *Portfolio) OnBar(c model.Candle) []Closed {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	var closed []Closed
	for sym, pos := range pf.positions {
		if sym != c.Symbol {
			continue
		}
		pos.LastPrice = c.Close

		long := pos.Qty > 0
		var exit ExitReason
		var px float64
		switch {
		case long && pos.StopLoss > 0 && c.Low <= pos.StopLoss:
			exit, px = ExitStopLoss, pos.StopLoss
		case long && pos.TakeProfit > 0 && c.High >= pos.TakeProfit:
			exit, px = ExitTakeProfit, pos.TakeProfit
		case !long && pos.StopLoss > 0 && c.High >= pos.StopLoss:
			exit, px = ExitStopLoss, pos.StopLoss
		case !long && pos.TakeProfit > 0 && c.Low <= pos.TakeProfit:
			exit, px = ExitTakeProfit, pos.TakeProfit
		default:
			continue
		}
		closed = append(closed, pf.closeLocked(pos, exit, px))
	}
	return closed
}

// Close closes a position at the given price, realizing its P&L.
func (pf *Portfolio) Close(symbol string, price float64) (Closed, bool) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	pos, ok := pf.positions[symbol]
	if !ok {
		return Closed{}, false
	}
	return pf.closeLocked(pos, ExitManual, price), true
}

func (pf *Portfolio) closeLocked(pos *model.Position, reason ExitReason, px float64) Closed {
	pnl := (px - pos.AvgPrice) * pos.Qty
	pf.realized += pnl
	pf.equity += pnl
	if pf.equity > pf.peak {
		pf.peak = pf.equity
	}
	won := pnl > 0
	if won {
		pf.wins++
	} else {
		pf.losses++
	}
	delete(pf.positions, pos.Symbol)

	snapshot := *pos
	snapshot.RealizedPnL = pnl
	return Closed{Position: snapshot, Reason: reason, ExitPx: px, PnL: pnl, Won: won}
}

// Positions returns a snapshot of all open positions.
func (pf *Portfolio) Positions() []model.Position {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	out := make([]model.Position, 0, len(pf.positions))
	for _, p := range pf.positions {
		out = append(out, *p)
	}
	return out
}

// Equity returns current account equity (realized only; open positions mark
// separately via UnrealizedPnL).
func (pf *Portfolio) Equity() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.equity
}

// UnrealizedPnL returns the total unrealized P&L across open positions.
func (pf *Portfolio) UnrealizedPnL() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	var total float64
	for _, p := range pf.positions {
		total += p.UnrealizedPnL()
	}
	return total
}

// Stats returns realized P&L and the win/loss counters.
func (pf *Portfolio) Stats() (realized float64, wins, losses int) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.realized, pf.wins, pf.losses
}

// Drawdown returns the current drawdown fraction from peak equity.
func (pf *Portfolio) Drawdown() float64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	if pf.peak <= 0 {
		return 0
	}
	return (pf.peak - pf.equity) / pf.peak
}
