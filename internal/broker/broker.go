// Package broker defines the capability set the Executor (C7) needs from
// any brokerage integration, a circuit breaker that wraps every call to it,
// and an in-memory PaperBroker implementation for development and tests.
package broker

import (
	"github.com/Headhunte-121/trading-bot/models"
)

// OrderRequest is the parameter set submit_order accepts. TrailPrice and
// TrailPercent are mutually exclusive; leave both zero for a plain market
// or limit order with no trailing stop. ClientOrderID, when set, is an
// idempotency key: resubmitting the same ClientOrderID after a timed-out or
// retried call returns the order already on file rather than a duplicate
// fill.
type OrderRequest struct {
	Symbol        string
	Quantity      float64
	Side          models.OrderSide
	Type          models.OrderType
	TimeInForce   models.TimeInForce
	TrailPrice    float64
	TrailPercent  float64
	ClientOrderID string
}

// Broker is the capability set spec'd for the Executor: submit_order,
// get_order, list_positions, list_orders, cancel_order, get_position. Any
// brokerage integration — paper or live — implements this interface.
type Broker interface {
	Name() string
	Connect() error
	IsConnected() bool

	SubmitOrder(req OrderRequest) (*models.Order, error)
	GetOrder(orderID string) (*models.Order, error)
	ListOrders() ([]models.Order, error)
	CancelOrder(orderID string) error
	ListPositions() ([]models.Position, error)
	GetPosition(symbol string) (*models.Position, error)
	GetBalance() (*models.Balance, error)
}
