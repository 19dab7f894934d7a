package models

import "time"

// OrderSide represents the direction of a broker order. Casing is
// canonicalized to lowercase throughout this module — the original
// reference sources mix "BUY"/"buy" inconsistently (an open question in
// spec §9); every boundary normalizes to this type.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents the type of order submitted to the broker. Market
// orders drive the Executor's entry/exit pipelines; TrailingStop is used
// exclusively for protective-stop attachment after a fill. Limit exists
// for broker-interface completeness; no pipeline submits it.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

// TimeInForce controls how long a broker order remains active if unfilled.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
)

// OrderStatus is the broker-reported lifecycle of a submitted order —
// distinct from models.SignalStatus, which tracks the signal that caused
// the order to be submitted.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusExpired   OrderStatus = "expired"
)

// Order is the broker-facing order record the Executor submits and polls.
// TrailPrice and TrailPercent are mutually exclusive; at most one is set,
// per the protective-stop submission in spec §4.7.
type Order struct {
	ID             string      `json:"id"`
	ClientOrderID  string      `json:"client_order_id"`
	Symbol         string      `json:"symbol"`
	Side           OrderSide   `json:"side"`
	Type           OrderType   `json:"type"`
	TimeInForce    TimeInForce `json:"time_in_force"`
	Quantity       float64     `json:"quantity"`
	TrailPrice     float64     `json:"trail_price,omitempty"`
	TrailPercent   float64     `json:"trail_percent,omitempty"`
	Status         OrderStatus `json:"status"`
	FilledQuantity float64     `json:"filled_quantity"`
	FilledPrice    float64     `json:"filled_price"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsTerminal reports whether the broker considers the order done —
// filled, cancelled, rejected or expired — matching the Executor's
// submission-monitor classification in spec §4.7 step 3.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	default:
		return false
	}
}
