package execution

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fvgtrader/internal/model"
)

// Fill represents a simulated order fill.
type Fill struct {
	OrderID   string      `json:"order_id"`
	Order     model.Order `json:"order"`
	FillPrice float64     `json:"fill_price"`
	FillQty   float64     `json:"fill_qty"`
	FilledAt  time.Time   `json:"filled_at"`
	Slippage  float64     `json:"slippage"` // simulated, in price units
}

// PaperExecutor simulates order execution without real broker calls.
// Used by backtests and paper trading; market orders fill immediately at
// the submitted reference price plus basis-point slippage.
type PaperExecutor struct {
	mu       sync.RWMutex
	fills    []Fill
	orderSeq int64

	// Simulation parameters
	slippageBps float64 // basis points of slippage (e.g., 5 = 0.05%)

	journal *Journal // optional fill persistence
}

// NewPaperExecutor creates a paper trading executor. journal may be nil.
func NewPaperExecutor(slippageBps float64, journal *Journal) *PaperExecutor {
	return &PaperExecutor{
		fills:       make([]Fill, 0, 1000),
		slippageBps: slippageBps,
		journal:     journal,
	}
}

// Execute fills an order synchronously. Fill price is the order price
// worsened by slippage in the trade direction.
func (p *PaperExecutor) Execute(order model.Order, refPrice float64, ts time.Time) OrderResult {
	p.mu.Lock()
	p.orderSeq++
	orderID := fmt.Sprintf("PAPER-%d", p.orderSeq)

	fillPrice := refPrice
	if order.Price > 0 {
		fillPrice = order.Price
	}
	slippage := 0.0
	if fillPrice > 0 && p.slippageBps > 0 {
		slippage = fillPrice * p.slippageBps / 10000
		if order.Qty > 0 {
			fillPrice += slippage // buy higher
		} else {
			fillPrice -= slippage // sell lower
		}
	}

	fill := Fill{
		OrderID:   orderID,
		Order:     order,
		FillPrice: fillPrice,
		FillQty:   order.Qty,
		FilledAt:  ts,
		Slippage:  slippage,
	}
	p.fills = append(p.fills, fill)
	p.mu.Unlock()

	if p.journal != nil {
		if err := p.journal.RecordFill(fill); err != nil {
			log.Printf("[paper] journal write failed: %v", err)
		}
	}

	log.Printf("[paper] %s %s qty=%.4f px=%.5f (slip=%.5f) sl=%.5f tp=%.5f order=%s",
		order.Direction, order.Symbol, order.Qty, fillPrice, slippage,
		order.StopLoss, order.TakeProfit, orderID)

	order.OrderID = orderID
	order.Status = model.OrderFilled
	order.FilledQty = order.Qty
	order.AvgPrice = fillPrice
	order.UpdatedAt = ts

	return OrderResult{
		OrderID: orderID,
		Status:  "FILLED",
		Message: fmt.Sprintf("paper filled at %.5f", fillPrice),
		Order:   order,
	}
}

// Fills returns a snapshot of all fills.
func (p *PaperExecutor) Fills() []Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]Fill, len(p.fills))
	copy(cp, p.fills)
	return cp
}

// ── Broker interface adapter ──
// PaperExecutor can stand in wherever a Broker is expected.

type paperBroker struct {
	exec *PaperExecutor
	px   func() float64 // latest reference price
}

// AsBroker wraps the executor in the Broker capability interface. px supplies
// the current reference price for market fills.
func (p *PaperExecutor) AsBroker(px func() float64) Broker {
	return &paperBroker{exec: p, px: px}
}

func (b *paperBroker) Connect(ctx context.Context) error { return nil }

func (b *paperBroker) PlaceOrder(ctx context.Context, order model.Order) (string, error) {
	res := b.exec.Execute(order, b.px(), time.Now().UTC())
	return res.OrderID, nil
}

func (b *paperBroker) OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error) {
	return model.OrderFilled, nil
}

func (b *paperBroker) Positions(ctx context.Context) ([]model.Position, error) {
	return nil, nil
}

func (b *paperBroker) Balance(ctx context.Context) (float64, error) {
	return 0, nil
}
