// Package execution handles order placement for sized signals, either
// against a real broker or a paper simulator.
//
// Callers hold the Broker capability interface, never a concrete backend.
package execution

import (
	"context"

	"fvgtrader/internal/model"
)

// Broker is the capability interface every order backend implements.
// The signal pipeline has no dependency on broker health: live supervision
// sits above it.
type Broker interface {
	// Connect establishes a session with the backend.
	Connect(ctx context.Context) error

	// PlaceOrder submits an order and returns the broker order id.
	PlaceOrder(ctx context.Context, order model.Order) (string, error)

	// OrderStatus queries the current status of a placed order.
	OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error)

	// Positions returns the broker-side open positions.
	Positions(ctx context.Context) ([]model.Position, error)

	// Balance returns available account equity.
	Balance(ctx context.Context) (float64, error)
}

// OrderResult reports the outcome of an order placement attempt.
type OrderResult struct {
	OrderID string      `json:"order_id"`
	Status  string      `json:"status"` // FILLED, PLACED, REJECTED, ERROR
	Message string      `json:"message"`
	Order   model.Order `json:"order"`
}
