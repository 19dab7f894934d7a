// Package forecaster implements the Forecaster (C4): per cycle it produces
// a short-horizon ensemble price forecast for every symbol with sufficient
// intraday context. Spec leaves the forecasting model unspecified beyond
// the ensemble contract (0.7*large + 0.3*small, each the median of a
// probabilistic forecaster's sample distribution at a 6-step horizon); this
// package implements that contract with two independently-parameterized
// random-walk-with-drift estimators in place of the original's Chronos
// model pair.
package forecaster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

const (
	contextWindow  = 64
	minContext     = 10
	horizonSteps   = 6
	sampleCount    = 200
	smallLookback  = 16 // recent volatility window for the "small" estimator
	largeLookback  = 64 // full-context volatility window for the "large" estimator
)

// Forecaster runs one ensemble pass over every tracked symbol per cycle.
type Forecaster struct {
	store   *store.Store
	symbols []string
	rng     *rand.Rand
}

// New constructs a Forecaster over symbols.
func New(s *store.Store, symbols []string) *Forecaster {
	return &Forecaster{store: s, symbols: symbols, rng: rand.New(rand.NewSource(1))}
}

// Cycle produces and persists one Forecast row per symbol with sufficient
// context, skipping (and logging) any symbol that does not.
func (f *Forecaster) Cycle(ctx context.Context, logger zerolog.Logger) {
	for _, symbol := range f.symbols {
		if err := f.forecastSymbol(ctx, symbol); err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("skipping forecast")
		}
	}
}

func (f *Forecaster) forecastSymbol(ctx context.Context, symbol string) error {
	bars, err := f.store.RecentIntradayBars(ctx, symbol, models.Timeframe5m, contextWindow)
	if err != nil {
		return fmt.Errorf("fetch context: %w", err)
	}
	if len(bars) < minContext {
		return fmt.Errorf("insufficient context: have %d, need %d", len(bars), minContext)
	}
	reverseBars(bars)

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	if !fillGaps(closes) {
		return fmt.Errorf("unresolvable gaps in context window")
	}

	currentPrice := closes[len(closes)-1]
	latestTimestamp := bars[len(bars)-1].Timestamp

	small := f.medianForecast(closes, smallLookback, currentPrice)
	large := f.medianForecast(closes, largeLookback, currentPrice)

	forecast := models.NewForecast(symbol, latestTimestamp, currentPrice, small, large)
	if err := f.store.UpsertForecast(ctx, forecast); err != nil {
		return fmt.Errorf("upsert forecast: %w", err)
	}
	return nil
}

// medianForecast simulates sampleCount geometric-random-walk paths of
// horizonSteps using the mean/stddev of log returns over the trailing
// lookback window, and returns the median terminal price across samples —
// the "median of its sample distribution at the horizon" the ensemble
// contract requires of each independent forecaster.
func (f *Forecaster) medianForecast(closes []float64, lookback int, currentPrice float64) float64 {
	window := closes
	if len(window) > lookback {
		window = window[len(window)-lookback:]
	}
	logReturns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 {
			continue
		}
		logReturns = append(logReturns, math.Log(window[i]/window[i-1]))
	}
	if len(logReturns) == 0 {
		return currentPrice
	}

	mean := stat.Mean(logReturns, nil)
	stddev := stat.StdDev(logReturns, nil)

	samples := make([]float64, sampleCount)
	for s := 0; s < sampleCount; s++ {
		price := currentPrice
		for step := 0; step < horizonSteps; step++ {
			shock := mean + stddev*f.rng.NormFloat64()
			price *= math.Exp(shock)
		}
		samples[s] = price
	}
	sort.Float64s(samples)
	return stat.Quantile(0.5, stat.Empirical, samples, nil)
}

func reverseBars(bars []models.MarketBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

// fillGaps forward-fills, then back-fills, missing (zero-valued) entries in
// place. Returns false if every value is missing (unresolvable).
func fillGaps(closes []float64) bool {
	last := 0.0
	seen := false
	for i, v := range closes {
		if v == 0 {
			if seen {
				closes[i] = last
			}
			continue
		}
		last = v
		seen = true
	}
	if !seen {
		return false
	}
	last = 0.0
	seen = false
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] == 0 {
			if seen {
				closes[i] = last
			}
			continue
		}
		last = closes[i]
		seen = true
	}
	for _, v := range closes {
		if v == 0 {
			return false
		}
	}
	return true
}
