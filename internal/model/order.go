package model

import "time"

// OrderStatus is the broker-side order lifecycle state.
type OrderStatus string

const (
	OrderPlaced   OrderStatus = "PLACED"
	OrderOpen     OrderStatus = "OPEN"
	OrderFilled   OrderStatus = "FILLED"
	OrderRejected OrderStatus = "REJECTED"
	OrderCanceled OrderStatus = "CANCELED"
)

// Order represents a broker order derived from a sized signal.
type Order struct {
	OrderID    string      `json:"order_id"`
	SignalID   string      `json:"signal_id"`
	Symbol     string      `json:"symbol"`
	Direction  Direction   `json:"direction"`
	Qty        float64     `json:"qty"` // signed: negative = short
	OrderType  string      `json:"order_type"` // MARKET, LIMIT
	Price      float64     `json:"price"`      // limit price (0 for market)
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	Status     OrderStatus `json:"status"`
	FilledQty  float64     `json:"filled_qty"`
	AvgPrice   float64     `json:"avg_price"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
