// Package indicatorengine implements the Indicator Engine (C3): for every
// tracked symbol plus the SPY benchmark, it recomputes intraday technical
// indicators over the current trading day and upserts them into Store.
package indicatorengine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Headhunte-121/trading-bot/internal/indicators"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

const (
	dailyLookback    = 300
	intradayLookback = 3000
	maxConcurrency   = 5
	smaShortPeriod   = 50
	smaLongPeriod    = 200
	rsiPeriod        = 14
	atrPeriod        = 14
	volumeSMAPeriod  = 20
	bollingerPeriod  = 20
	bollingerStdDev  = 2.0
)

// spyBenchmarkSymbol is the macro regime benchmark the Strategy Engine
// reads back out of this worker's own output (spec §4.5).
const spyBenchmarkSymbol = "SPY"

// Engine is the Indicator Engine worker. One Engine instance is built per
// process and its Cycle method is invoked by the worker's main loop on
// Cadence's schedule.
type Engine struct {
	store   *store.Store
	cache   *dailySMACache
	symbols []string
}

// New constructs an Engine tracking symbols plus the SPY benchmark.
func New(s *store.Store, symbols []string) *Engine {
	tracked := append([]string{spyBenchmarkSymbol}, symbols...)
	return &Engine{store: s, cache: newDailySMACache(), symbols: dedupe(tracked)}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Cycle runs one pass over every tracked symbol, bounded to at most
// maxConcurrency concurrent symbol tasks. A failing symbol is logged and
// does not prevent the others from completing (spec §4.3 "Failure").
func (e *Engine) Cycle(ctx context.Context, logger zerolog.Logger) {
	sem := make(chan struct{}, maxConcurrency)
	done := make(chan struct{}, len(e.symbols))

	for _, symbol := range e.symbols {
		sem <- struct{}{}
		go func(sym string) {
			defer func() { <-sem; done <- struct{}{} }()
			if err := e.processSymbol(ctx, sym); err != nil {
				logger.Error().Err(err).Str("symbol", sym).Msg("indicator computation failed")
				e.store.LogEvent(ctx, "indicator_engine", models.LogLevelError,
					fmt.Sprintf("symbol %s: %v", sym, err))
			}
		}(symbol)
	}

	for range e.symbols {
		<-done
	}
}

func (e *Engine) processSymbol(ctx context.Context, symbol string) error {
	sma200, date, err := e.resolveDailySMA200(ctx, symbol)
	if err != nil {
		return fmt.Errorf("resolve daily sma200: %w", err)
	}

	bars, err := e.store.RecentIntradayBars(ctx, symbol, models.Timeframe5m, intradayLookback)
	if err != nil {
		return fmt.Errorf("fetch intraday bars: %w", err)
	}
	if len(bars) == 0 {
		return nil
	}
	reverseBars(bars)

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}
	sanitizeVolume(volumes)

	sma50 := indicators.SMA(closes, smaShortPeriod)
	rsi := indicators.RSI(closes, rsiPeriod)
	atr := indicators.ATR(highs, lows, closes, atrPeriod)
	volSMA := indicators.VolumeSMA(volumes, volumeSMAPeriod)
	_, _, lowerBB := indicators.BollingerBands(closes, bollingerPeriod, bollingerStdDev)
	vwap := sessionVWAP(bars, highs, lows, closes, volumes)

	maxDate := bars[len(bars)-1].Timestamp.UTC().Format("2006-01-02")

	rows := make([]models.Indicators, 0, len(bars))
	for i, b := range bars {
		if b.Timestamp.UTC().Format("2006-01-02") != maxDate {
			continue
		}
		rsiVal := ptrOrNil(rsi, i)
		sma50Val := ptrOrNil(sma50, i)
		if rsiVal == nil || sma50Val == nil {
			continue
		}
		rows = append(rows, models.Indicators{
			Symbol:      symbol,
			Timestamp:   b.Timestamp,
			Timeframe:   models.Timeframe5m,
			RSI14:       rsiVal,
			SMA50:       sma50Val,
			SMA200:      sma200,
			LowerBB:     ptrOrNil(lowerBB, i),
			VWAP:        ptrOrNil(vwap, i),
			ATR14:       ptrOrNil(atr, i),
			VolumeSMA20: ptrOrNil(volSMA, i),
		})
	}

	for _, row := range rows {
		if err := e.store.UpsertIndicators(ctx, row); err != nil {
			return fmt.Errorf("upsert indicators: %w", err)
		}
	}

	_ = date
	return nil
}

// resolveDailySMA200 returns the cached Daily SMA-200 for symbol, keyed by
// the UTC date of its most recent daily bar, recomputing from the last
// dailyLookback daily bars on a cache miss (spec §4.3 step 1). It returns a
// nil value (not an error) when there are no daily bars or too few for the
// 200-period average, so the intraday rows are still written with SMA-200
// left null.
func (e *Engine) resolveDailySMA200(ctx context.Context, symbol string) (*float64, string, error) {
	bars, err := e.store.RecentDailyBars(ctx, symbol, dailyLookback)
	if err != nil {
		return nil, "", err
	}
	if len(bars) == 0 {
		return nil, "", nil
	}
	reverseBars(bars)

	today := bars[len(bars)-1].Timestamp.UTC().Format("2006-01-02")
	if cached, ok := e.cache.Get(symbol, today); ok {
		return floatPtr(cached), today, nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	sma := indicators.SMA(closes, smaLongPeriod)
	if sma == nil {
		return nil, today, nil
	}
	value := sma[len(sma)-1]
	e.cache.Set(symbol, today, value)
	return floatPtr(value), today, nil
}

func reverseBars(bars []models.MarketBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

// sanitizeVolume replaces zero volume with a missing marker (NaN handled
// inline here via a sentinel), forward-fills, then zero-fills any residual
// leading gap — spec §4.3 step 3.
func sanitizeVolume(volumes []float64) {
	const missing = -1
	for i, v := range volumes {
		if v == 0 {
			volumes[i] = missing
		}
	}
	last := 0.0
	seen := false
	for i, v := range volumes {
		if v == missing {
			if seen {
				volumes[i] = last
			}
			continue
		}
		last = v
		seen = true
	}
	for i, v := range volumes {
		if v == missing {
			volumes[i] = 0
		}
	}
}

// sessionVWAP computes VWAP anchored to each session day, resetting the
// cumulative price*volume/volume accumulators whenever the UTC date changes
// (spec §4.3 step 4: "session-anchored VWAP (resets each session day)").
func sessionVWAP(bars []models.MarketBar, highs, lows, closes, volumes []float64) []float64 {
	result := make([]float64, len(bars))
	var sessionStart int
	currentDate := ""
	for i, b := range bars {
		date := b.Timestamp.UTC().Format("2006-01-02")
		if date != currentDate {
			currentDate = date
			sessionStart = i
		}
		seg := indicators.SessionVWAP(highs[sessionStart:i+1], lows[sessionStart:i+1], closes[sessionStart:i+1], volumes[sessionStart:i+1])
		result[i] = seg[len(seg)-1]
	}
	return result
}

func ptrOrNil(series []float64, i int) *float64 {
	if series == nil || i >= len(series) {
		return nil
	}
	v := series[i]
	if isNaN(v) {
		return nil
	}
	return &v
}

func isNaN(f float64) bool { return f != f }

func floatPtr(v float64) *float64 { return &v }
