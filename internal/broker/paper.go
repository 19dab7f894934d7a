package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Headhunte-121/trading-bot/models"
)

// PaperBroker simulates a broker for paper trading: every order fills
// instantly at the last price SetPrice recorded for the symbol. No real
// money is at risk.
type PaperBroker struct {
	name         string
	connected    bool
	balance      models.Balance
	positions    map[string]models.Position
	orders       map[string]models.Order
	orderCounter int
	mu           sync.RWMutex
	latestPrices map[string]float64
	clientOrders map[string]models.Order
}

// NewPaperBroker creates a paper broker seeded with initialCash.
func NewPaperBroker(initialCash float64) *PaperBroker {
	return &PaperBroker{
		name: "paper",
		balance: models.Balance{
			Cash:           initialCash,
			Equity:         initialCash,
			BuyingPower:    initialCash,
			PortfolioValue: initialCash,
			UpdatedAt:      time.Now(),
		},
		positions:    make(map[string]models.Position),
		orders:       make(map[string]models.Order),
		latestPrices: make(map[string]float64),
		clientOrders: make(map[string]models.Order),
	}
}

func (b *PaperBroker) Name() string { return b.name }

func (b *PaperBroker) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	return nil
}

func (b *PaperBroker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetPrice records the latest price for symbol, used to fill the next
// market order against it.
func (b *PaperBroker) SetPrice(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latestPrices[symbol] = price
}

// SubmitOrder simulates instant order fill.
func (b *PaperBroker) SubmitOrder(req OrderRequest) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return nil, fmt.Errorf("paper broker not connected")
	}

	if req.ClientOrderID != "" {
		if existing, ok := b.clientOrders[req.ClientOrderID]; ok {
			return &existing, nil
		}
	}

	price, ok := b.latestPrices[req.Symbol]
	if !ok {
		return nil, fmt.Errorf("no price available for %s", req.Symbol)
	}

	b.orderCounter++
	order := models.Order{
		ID:            fmt.Sprintf("paper-%06d", b.orderCounter),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		Quantity:      req.Quantity,
		TrailPrice:    req.TrailPrice,
		TrailPercent:  req.TrailPercent,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if req.Side == models.OrderSideBuy {
		cost := price * req.Quantity
		if cost > b.balance.BuyingPower {
			order.Status = models.OrderStatusRejected
			b.orders[order.ID] = order
			b.rememberClientOrder(req.ClientOrderID, order)
			return &order, fmt.Errorf("insufficient buying power: need %.2f, have %.2f", cost, b.balance.BuyingPower)
		}
	}

	// A trailing stop is a standing conditional order, not an instant fill:
	// it sits submitted until price moves against the position far enough
	// to trigger it, which this simulator never models.
	if req.Type == models.OrderTypeTrailingStop {
		order.Status = models.OrderStatusSubmitted
		b.orders[order.ID] = order
		b.rememberClientOrder(req.ClientOrderID, order)
		log.Info().
			Str("order_id", order.ID).
			Str("symbol", order.Symbol).
			Float64("trail_price", req.TrailPrice).
			Float64("trail_percent", req.TrailPercent).
			Msg("paper trailing stop accepted")
		return &order, nil
	}

	order.Status = models.OrderStatusFilled
	order.FilledQuantity = req.Quantity
	order.FilledPrice = price
	order.UpdatedAt = time.Now()

	if req.Side == models.OrderSideBuy {
		b.executeBuy(req.Symbol, req.Quantity, price)
	} else {
		b.executeSell(req.Symbol, req.Quantity, price)
	}

	b.orders[order.ID] = order
	b.rememberClientOrder(req.ClientOrderID, order)

	log.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Float64("quantity", order.Quantity).
		Float64("price", price).
		Msg("paper order filled")

	return &order, nil
}

// rememberClientOrder caches order under its client-assigned idempotency
// key, if any, so a retried submission with the same key returns this order
// instead of creating a duplicate.
func (b *PaperBroker) rememberClientOrder(clientOrderID string, order models.Order) {
	if clientOrderID == "" {
		return
	}
	b.clientOrders[clientOrderID] = order
}

func (b *PaperBroker) executeBuy(symbol string, quantity, price float64) {
	cost := quantity * price
	b.balance.Cash -= cost
	b.balance.BuyingPower -= cost
	b.balance.UpdatedAt = time.Now()

	pos, exists := b.positions[symbol]
	if exists {
		totalQty := pos.Quantity + quantity
		totalCost := (pos.AverageCost * pos.Quantity) + cost
		pos.AverageCost = totalCost / totalQty
		pos.Quantity = totalQty
	} else {
		pos = models.Position{Symbol: symbol, Quantity: quantity, AverageCost: price}
	}
	pos.CurrentPrice = price
	pos.MarketValue = pos.Quantity * price
	pos.UnrealizedPL = pos.MarketValue - (pos.Quantity * pos.AverageCost)
	if pos.Quantity*pos.AverageCost != 0 {
		pos.PLPC = pos.UnrealizedPL / (pos.Quantity * pos.AverageCost)
	}
	pos.UpdatedAt = time.Now()
	b.positions[symbol] = pos
}

func (b *PaperBroker) executeSell(symbol string, quantity, price float64) {
	proceeds := quantity * price
	b.balance.Cash += proceeds
	b.balance.BuyingPower += proceeds
	b.balance.UpdatedAt = time.Now()

	pos, exists := b.positions[symbol]
	if !exists {
		return
	}
	pos.Quantity -= quantity
	if pos.Quantity <= 0 {
		delete(b.positions, symbol)
		return
	}
	pos.CurrentPrice = price
	pos.MarketValue = pos.Quantity * price
	pos.UnrealizedPL = pos.MarketValue - (pos.Quantity * pos.AverageCost)
	if pos.Quantity*pos.AverageCost != 0 {
		pos.PLPC = pos.UnrealizedPL / (pos.Quantity * pos.AverageCost)
	}
	pos.UpdatedAt = time.Now()
	b.positions[symbol] = pos
}

func (b *PaperBroker) CancelOrder(orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, exists := b.orders[orderID]
	if !exists {
		return fmt.Errorf("order not found: %s", orderID)
	}
	if order.Status == models.OrderStatusFilled {
		return fmt.Errorf("cannot cancel filled order: %s", orderID)
	}
	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	b.orders[orderID] = order
	return nil
}

func (b *PaperBroker) GetOrder(orderID string) (*models.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, exists := b.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("order not found: %s", orderID)
	}
	return &order, nil
}

func (b *PaperBroker) ListOrders() ([]models.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	orders := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (b *PaperBroker) ListPositions() ([]models.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	positions := make([]models.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		positions = append(positions, pos)
	}
	return positions, nil
}

func (b *PaperBroker) GetPosition(symbol string) (*models.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pos, exists := b.positions[symbol]
	if !exists {
		return nil, fmt.Errorf("no position for %s", symbol)
	}
	return &pos, nil
}

func (b *PaperBroker) GetBalance() (*models.Balance, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &b.balance, nil
}
