// Package strategy implements the Strategy Engine (C5): it evaluates the
// entry tier table and the exit rules each cycle and inserts PENDING
// Signal rows for the Risk Manager to pick up. It never sizes or submits
// anything itself.
package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Headhunte-121/trading-bot/internal/broker"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

// Regime is the macro market regime derived from SPY's close relative to
// its 50-period SMA.
type Regime string

const (
	RegimeBull Regime = "BULL"
	RegimeBear Regime = "BEAR"
)

const entryLookback = 60 * time.Minute

// Engine evaluates entries and exits once per cycle.
type Engine struct {
	store     *store.Store
	brkr      broker.Broker
	kingsList map[string]bool
}

// New constructs an Engine. kingsList is the symbol set eligible for
// DEEP_VALUE_BUY (spec §4.5).
func New(s *store.Store, b broker.Broker, kingsList []string) *Engine {
	set := make(map[string]bool, len(kingsList))
	for _, sym := range kingsList {
		set[sym] = true
	}
	return &Engine{store: s, brkr: b, kingsList: set}
}

// Cycle evaluates exits first, then entries, mirroring the original's
// run order: open positions are checked for a reason to leave before new
// capital is committed.
func (e *Engine) Cycle(ctx context.Context, logger zerolog.Logger) {
	if err := e.evaluateExits(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("exit evaluation failed")
	}
	if err := e.evaluateEntries(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("entry evaluation failed")
	}
}

// macroRegime resolves BULL/BEAR from the latest SPY close vs its SMA-50,
// defaulting to BULL when SPY has no indicators row yet (spec §4.5).
func (e *Engine) macroRegime(ctx context.Context) Regime {
	closePrice, sma50, err := e.store.LatestSPYRegimeInputs(ctx)
	if err != nil || sma50 == nil {
		return RegimeBull
	}
	if closePrice < *sma50 {
		return RegimeBear
	}
	return RegimeBull
}

func (e *Engine) evaluateEntries(ctx context.Context, logger zerolog.Logger) error {
	regime := e.macroRegime(ctx)

	candidates, err := e.store.EntryCandidates(ctx, entryLookback)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, c := range candidates {
		// Only the most recent row per symbol within the lookback matters;
		// the query is ordered newest-first.
		if seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true

		if !c.Complete() {
			continue
		}

		exists, err := e.store.HasSignal(ctx, c.Symbol, c.Timestamp)
		if err != nil {
			logger.Error().Err(err).Str("symbol", c.Symbol).Msg("dedup check failed")
			continue
		}
		if exists {
			continue
		}

		signalType, ok := e.classify(c, regime)
		if !ok {
			continue
		}

		sig := models.Signal{
			Symbol:    c.Symbol,
			Timestamp: c.Timestamp,
			Type:      signalType,
			Status:    models.StatusPending,
			ATR:       c.ATR14,
		}
		if _, err := e.store.InsertSignal(ctx, sig); err != nil {
			logger.Error().Err(err).Str("symbol", c.Symbol).Msg("insert signal failed")
			continue
		}
		logger.Info().Str("symbol", c.Symbol).Str("signal_type", string(signalType)).Msg("entry signal generated")
	}
	return nil
}

// classify applies the three-tier table in strict priority order
// (spec §4.5): VWAP_SCALP, then DEEP_VALUE_BUY, then TREND_BUY.
func (e *Engine) classify(c store.EntryCandidate, regime Regime) (models.SignalType, bool) {
	pctChange := *c.EnsemblePctChange
	rsi := *c.RSI14
	sma200 := *c.SMA200
	vwap := *c.VWAP
	volSMA := *c.VolumeSMA20

	if pctChange > 0.3 && c.Volume > volSMA && c.Close > vwap {
		return models.SignalVWAPScalp, true
	}
	if e.kingsList[c.Symbol] && c.Close < sma200 && rsi < 30 && pctChange > 0.5 {
		return models.SignalDeepValueBuy, true
	}
	if regime == RegimeBull && c.Close > sma200 && rsi > 35 && rsi < 55 && pctChange > 0.5 && c.Volume > volSMA {
		return models.SignalTrendBuy, true
	}
	return "", false
}

// evaluateExits reads every open broker position and applies the
// TAKE_PROFIT_EXIT / PANIC_EXIT rules (spec §4.5) against its latest
// indicators and forecast.
func (e *Engine) evaluateExits(ctx context.Context, logger zerolog.Logger) error {
	positions, err := e.brkr.ListPositions()
	if err != nil {
		return err
	}

	for _, pos := range positions {
		signalType, ok := e.classifyExit(ctx, pos)
		if !ok {
			continue
		}

		pending, err := e.store.HasPendingExitSignal(ctx, pos.Symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", pos.Symbol).Msg("exit dedup check failed")
			continue
		}
		if pending {
			continue
		}

		zero := 0.0
		sig := models.Signal{
			Symbol:    pos.Symbol,
			Timestamp: time.Now().UTC(),
			Type:      signalType,
			Status:    models.StatusPending,
			Size:      &zero,
		}
		if _, err := e.store.InsertSignal(ctx, sig); err != nil {
			logger.Error().Err(err).Str("symbol", pos.Symbol).Msg("insert exit signal failed")
			continue
		}
		logger.Info().Str("symbol", pos.Symbol).Str("signal_type", string(signalType)).Msg("exit signal generated")
	}
	return nil
}

func (e *Engine) classifyExit(ctx context.Context, pos models.Position) (models.SignalType, bool) {
	indicators, err := e.store.LatestIndicators(ctx, pos.Symbol, models.Timeframe5m)
	if err != nil {
		return "", false
	}
	forecast, err := e.store.LatestForecast(ctx, pos.Symbol)
	if err != nil {
		return "", false
	}
	if indicators.SMA50 == nil || indicators.RSI14 == nil {
		return "", false
	}
	plpc := pos.PLPC
	pctChange := forecast.EnsemblePctChange
	sma50 := *indicators.SMA50
	rsi := *indicators.RSI14

	closePrice, closeErr := e.store.LatestCloseSubquery(ctx, pos.Symbol)
	closeBelowSMA := closeErr == nil && closePrice < sma50

	if plpc > 0.01 && (pctChange < -0.4 || closeBelowSMA) {
		return models.SignalTakeProfitExit, true
	}
	if plpc < 0 && pctChange < -0.5 && rsi < 40 {
		return models.SignalPanicExit, true
	}
	return "", false
}
