// Package executor implements the Executor (C7): it drives SIZED signals
// to terminal states against a broker, attaches protective stops after
// entry fills, and halts trading for the process lifetime once the
// circuit breaker trips.
package executor

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Headhunte-121/trading-bot/internal/auditctx"
	"github.com/Headhunte-121/trading-bot/internal/broker"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

const (
	stopAttachAttempts = 3
	stopAttachPause    = 3 * time.Second
)

// Engine drives the entry pipeline, exit pipeline and submission monitor
// each cycle.
type Engine struct {
	store               *store.Store
	brkr                broker.Broker
	breaker             *broker.SafeCaller
	trailPercentDefault float64
}

// New constructs an Engine. breaker is shared across every broker call so
// a trip in one pipeline halts the others for the rest of the process.
func New(s *store.Store, b broker.Broker, brk *broker.SafeCaller, trailPercentDefault float64) *Engine {
	return &Engine{store: s, brkr: b, breaker: brk, trailPercentDefault: trailPercentDefault}
}

// Tripped reports whether the circuit breaker has halted trading.
func (e *Engine) Tripped() bool {
	return e.breaker.Tripped()
}

// Cycle runs the entry pipeline, then the exit pipeline, then the
// submission monitor, and reports whether any signal is still SUBMITTED
// once the cycle finishes — the caller uses this to shorten its next sleep
// so an outstanding order gets polled again soon.
func (e *Engine) Cycle(ctx context.Context, logger zerolog.Logger) bool {
	if e.breaker.Tripped() {
		logger.Error().Msg("circuit breaker tripped, halting trading")
		return false
	}

	ctx = auditctx.NewWorkerContext(ctx, "executor")

	// Snapshot which signals were already SUBMITTED before this cycle's
	// entries run, so the submission monitor only polls orders that had a
	// chance to fill asynchronously between cycles — an entry submitted
	// moments ago in this same cycle is checked next cycle, not this one.
	alreadySubmitted, err := e.store.SignalsWithStatus(ctx, models.StatusSubmitted)
	if err != nil {
		logger.Error().Err(err).Msg("failed to snapshot submitted signals")
		alreadySubmitted = nil
	}

	e.processEntries(ctx, logger)
	e.processExits(ctx, logger)
	return e.processSubmissions(ctx, logger, alreadySubmitted)
}

func (e *Engine) processEntries(ctx context.Context, logger zerolog.Logger) {
	sized, err := e.store.SignalsWithStatus(ctx, models.StatusSized)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load sized signals")
		return
	}

	for _, sig := range sized {
		if sig.Type.IsExit() || sig.Size == nil {
			continue
		}

		req := broker.OrderRequest{
			Symbol:        sig.Symbol,
			Quantity:      *sig.Size,
			Side:          models.OrderSideBuy,
			Type:          models.OrderTypeMarket,
			TimeInForce:   models.TimeInForceDay,
			ClientOrderID: uuid.NewString(),
		}

		var order *models.Order
		callErr := e.breaker.Call(func() error {
			o, err := e.brkr.SubmitOrder(req)
			order = o
			return err
		})

		if callErr != nil {
			if e.breaker.Tripped() {
				logger.Warn().Int64("signal_id", sig.ID).Msg("circuit breaker tripped mid-submit, leaving signal sized")
				return
			}
			logger.Error().Err(callErr).Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Msg("entry submission failed")
			if err := sig.TransitionTo(models.StatusFailed); err != nil {
				logger.Error().Err(err).Msg("illegal transition")
				continue
			}
			if err := e.store.UpdateSignal(ctx, sig); err != nil {
				logger.Error().Err(err).Msg("failed to persist failed signal")
			}
			continue
		}

		sig.OrderID = &order.ID
		if err := sig.TransitionTo(models.StatusSubmitted); err != nil {
			logger.Error().Err(err).Msg("illegal transition")
			continue
		}
		if err := e.store.UpdateSignal(ctx, sig); err != nil {
			logger.Error().Err(err).Msg("failed to persist submitted signal")
			continue
		}
		logger.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Str("order_id", order.ID).Msg("entry order submitted")
	}
}

func (e *Engine) processExits(ctx context.Context, logger zerolog.Logger) {
	sized, err := e.store.SignalsWithStatus(ctx, models.StatusSized)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load sized signals")
		return
	}

	for _, sig := range sized {
		if !sig.Type.IsExit() {
			continue
		}
		if e.breaker.Tripped() {
			return
		}

		e.cancelOpenOrders(sig.Symbol, logger)

		var pos *models.Position
		posErr := e.breaker.Call(func() error {
			p, err := e.brkr.GetPosition(sig.Symbol)
			pos = p
			return err
		})
		if posErr != nil || pos == nil || pos.Quantity <= 0 {
			logger.Warn().Str("symbol", sig.Symbol).Msg("no open position to exit, leaving signal sized")
			continue
		}

		req := broker.OrderRequest{
			Symbol:        sig.Symbol,
			Quantity:      pos.Quantity,
			Side:          models.OrderSideSell,
			Type:          models.OrderTypeMarket,
			TimeInForce:   models.TimeInForceDay,
			ClientOrderID: uuid.NewString(),
		}
		var order *models.Order
		callErr := e.breaker.Call(func() error {
			o, err := e.brkr.SubmitOrder(req)
			order = o
			return err
		})
		if callErr != nil {
			logger.Error().Err(callErr).Str("symbol", sig.Symbol).Msg("exit submission failed, leaving signal sized")
			continue
		}

		if err := e.store.InsertExecutedTrade(ctx, models.ExecutedTrade{
			Symbol:     sig.Symbol,
			Timestamp:  time.Now().UTC(),
			Price:      order.FilledPrice,
			Qty:        order.FilledQuantity,
			Side:       models.OrderSideSell,
			SignalType: sig.Type,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to record executed trade")
		}

		if err := sig.TransitionTo(models.StatusExecuted); err != nil {
			logger.Error().Err(err).Msg("illegal transition")
			continue
		}
		if err := e.store.UpdateSignal(ctx, sig); err != nil {
			logger.Error().Err(err).Msg("failed to persist executed exit signal")
			continue
		}
		logger.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Float64("qty", pos.Quantity).Msg("exit executed")
	}
}

// cancelOpenOrders cancels every non-terminal order for symbol on a
// best-effort basis; a cancel failure (already filled, already gone)
// never blocks the exit.
func (e *Engine) cancelOpenOrders(symbol string, logger zerolog.Logger) {
	var orders []models.Order
	err := e.breaker.Call(func() error {
		o, err := e.brkr.ListOrders()
		orders = o
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to list orders for cancellation")
		return
	}
	for _, o := range orders {
		if o.Symbol != symbol || o.IsTerminal() {
			continue
		}
		_ = e.breaker.Call(func() error {
			return e.brkr.CancelOrder(o.ID)
		})
	}
}

func (e *Engine) processSubmissions(ctx context.Context, logger zerolog.Logger, eligible []models.Signal) bool {
	for _, sig := range eligible {
		if sig.OrderID == nil {
			if err := sig.TransitionTo(models.StatusFailed); err != nil {
				logger.Error().Err(err).Msg("illegal transition")
				continue
			}
			if err := e.store.UpdateSignal(ctx, sig); err != nil {
				logger.Error().Err(err).Msg("failed to persist failed signal")
			}
			continue
		}

		var order *models.Order
		callErr := e.breaker.Call(func() error {
			o, err := e.brkr.GetOrder(*sig.OrderID)
			order = o
			return err
		})
		if callErr != nil {
			logger.Warn().Err(callErr).Int64("signal_id", sig.ID).Msg("failed to poll order, retrying next cycle")
			continue
		}

		switch order.Status {
		case models.OrderStatusFilled:
			if err := e.store.InsertExecutedTrade(ctx, models.ExecutedTrade{
				Symbol:     sig.Symbol,
				Timestamp:  time.Now().UTC(),
				Price:      order.FilledPrice,
				Qty:        order.FilledQuantity,
				Side:       models.OrderSideBuy,
				SignalType: sig.Type,
			}); err != nil {
				logger.Error().Err(err).Msg("failed to record executed trade")
			}
			e.attachProtectiveStop(ctx, logger, sig, *order)
		case models.OrderStatusCancelled, models.OrderStatusRejected, models.OrderStatusExpired:
			if err := sig.TransitionTo(models.StatusFailed); err != nil {
				logger.Error().Err(err).Msg("illegal transition")
				continue
			}
			if err := e.store.UpdateSignal(ctx, sig); err != nil {
				logger.Error().Err(err).Msg("failed to persist failed signal")
			}
		default:
			// pending/submitted at the broker: no state change this cycle.
		}
	}

	stillSubmitted, err := e.store.SignalsWithStatus(ctx, models.StatusSubmitted)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check remaining submitted signals")
		return len(eligible) > 0
	}
	return len(stillSubmitted) > 0
}

// attachProtectiveStop submits a trailing stop sized from the signal's
// ATR (or the configured percent fallback), retrying up to
// stopAttachAttempts times with stopAttachPause between attempts.
func (e *Engine) attachProtectiveStop(ctx context.Context, logger zerolog.Logger, sig models.Signal, order models.Order) {
	var trailPrice, trailPercent float64
	if multiplier, ok := sig.Type.TrailMultiplier(); ok && sig.ATR != nil {
		trailPrice = math.Round(multiplier*(*sig.ATR)*100) / 100
	} else {
		trailPercent = e.trailPercentDefault
	}

	// One client order id for every attempt in this loop: a retried
	// submission after a timeout must land as the same order at the broker,
	// not a second stop on the same position.
	req := broker.OrderRequest{
		Symbol:        sig.Symbol,
		Quantity:      order.FilledQuantity,
		Side:          models.OrderSideSell,
		Type:          models.OrderTypeTrailingStop,
		TrailPrice:    trailPrice,
		TrailPercent:  trailPercent,
		ClientOrderID: uuid.NewString(),
	}

	var lastErr error
	for attempt := 1; attempt <= stopAttachAttempts; attempt++ {
		lastErr = e.breaker.Call(func() error {
			_, err := e.brkr.SubmitOrder(req)
			return err
		})
		if lastErr == nil {
			if err := sig.TransitionTo(models.StatusExecuted); err != nil {
				logger.Error().Err(err).Msg("illegal transition")
				return
			}
			if err := e.store.UpdateSignal(ctx, sig); err != nil {
				logger.Error().Err(err).Msg("failed to persist executed signal")
			}
			logger.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Msg("protective stop attached")
			return
		}
		if attempt < stopAttachAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(stopAttachPause):
			}
		}
	}

	if err := sig.TransitionTo(models.StatusExecutedNoStop); err != nil {
		logger.Error().Err(err).Msg("illegal transition")
		return
	}
	if err := e.store.UpdateSignal(ctx, sig); err != nil {
		logger.Error().Err(err).Msg("failed to persist executed-no-stop signal")
	}
	e.store.LogEvent(ctx, "executor", models.LogLevelCritical, "position held without protective stop after exhausting stop-attachment retries")
	logger.Error().Err(lastErr).Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Msg("protective stop attachment exhausted, position unprotected")
}
