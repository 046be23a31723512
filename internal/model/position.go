package model

// Position represents a tracked trading position.
type Position struct {
	Symbol      string  `json:"symbol"`
	Qty         float64 `json:"qty"`       // positive = long, negative = short
	AvgPrice    float64 `json:"avg_price"` // average entry price
	LastPrice   float64 `json:"last_price"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// UnrealizedPnL computes unrealized profit/loss at the last seen price.
func (p *Position) UnrealizedPnL() float64 {
	return (p.LastPrice - p.AvgPrice) * p.Qty
}

// Direction derives the trade direction from the position sign.
func (p *Position) Direction() Direction {
	if p.Qty < 0 {
		return DirectionShort
	}
	return DirectionLong
}
