package store

import (
	"context"
	"database/sql"

	"github.com/Headhunte-121/trading-bot/models"
)

// RecentDailyBars returns the most recent n daily MarketBar rows for symbol
// in descending order — the shape the Indicator Engine's SMA-200 cache-miss
// path needs (spec §4.3 step 1: "query the last 300 daily bars in
// descending order, reverse, compute SMA-200").
func (s *Store) RecentDailyBars(ctx context.Context, symbol string, n int) ([]models.MarketBar, error) {
	var bars []models.MarketBar
	err := s.Read(ctx, &bars, `
		SELECT symbol, timestamp, timeframe, open, high, low, close, volume
		FROM market_bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, models.Timeframe1d, n)
	return bars, err
}

// RecentIntradayBars returns the most recent n bars for symbol at the given
// intraday timeframe, in descending order — used by the Indicator Engine
// (5m, n=3000) and the Forecaster (5m, n=64) per spec §4.3/§4.4.
func (s *Store) RecentIntradayBars(ctx context.Context, symbol string, timeframe models.Timeframe, n int) ([]models.MarketBar, error) {
	var bars []models.MarketBar
	err := s.Read(ctx, &bars, `
		SELECT symbol, timestamp, timeframe, open, high, low, close, volume
		FROM market_bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, timeframe, n)
	return bars, err
}

// LatestIndicators returns the most recent Indicators row for symbol at the
// given timeframe, or sql.ErrNoRows if none exists.
func (s *Store) LatestIndicators(ctx context.Context, symbol string, timeframe models.Timeframe) (models.Indicators, error) {
	var ind models.Indicators
	err := s.ReadOne(ctx, &ind, `
		SELECT symbol, timestamp, timeframe, rsi_14, sma_50, sma_200, lower_bb, vwap, atr_14, volume_sma_20
		FROM indicators
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT 1`, symbol, timeframe)
	return ind, err
}

// UpsertIndicators writes one Indicators row, overwriting any
// existing row for the same (symbol, timestamp, timeframe) — the
// "ON CONFLICT DO UPDATE" semantics spec §4.1 calls for on this table.
func (s *Store) UpsertIndicators(ctx context.Context, ind models.Indicators) error {
	_, err := s.Exec(ctx, `
		INSERT INTO indicators (symbol, timestamp, timeframe, rsi_14, sma_50, sma_200, lower_bb, vwap, atr_14, volume_sma_20)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp, timeframe) DO UPDATE SET
			rsi_14 = excluded.rsi_14,
			sma_50 = excluded.sma_50,
			sma_200 = excluded.sma_200,
			lower_bb = excluded.lower_bb,
			vwap = excluded.vwap,
			atr_14 = excluded.atr_14,
			volume_sma_20 = excluded.volume_sma_20`,
		ind.Symbol, ind.Timestamp, ind.Timeframe,
		ind.RSI14, ind.SMA50, ind.SMA200, ind.LowerBB, ind.VWAP, ind.ATR14, ind.VolumeSMA20,
	)
	return err
}

// LatestForecast returns the most recent Forecast row for symbol, or
// sql.ErrNoRows if none exists.
func (s *Store) LatestForecast(ctx context.Context, symbol string) (models.Forecast, error) {
	var f models.Forecast
	err := s.ReadOne(ctx, &f, `
		SELECT symbol, timestamp, current_price, small_predicted_price, large_predicted_price, ensemble_predicted_price, ensemble_pct_change
		FROM forecasts
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT 1`, symbol)
	return f, err
}

// UpsertForecast writes one Forecast row, overwriting any existing row for
// the same (symbol, timestamp).
func (s *Store) UpsertForecast(ctx context.Context, f models.Forecast) error {
	_, err := s.Exec(ctx, `
		INSERT INTO forecasts (symbol, timestamp, current_price, small_predicted_price, large_predicted_price, ensemble_predicted_price, ensemble_pct_change)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp) DO UPDATE SET
			current_price = excluded.current_price,
			small_predicted_price = excluded.small_predicted_price,
			large_predicted_price = excluded.large_predicted_price,
			ensemble_predicted_price = excluded.ensemble_predicted_price,
			ensemble_pct_change = excluded.ensemble_pct_change`,
		f.Symbol, f.Timestamp, f.CurrentPrice, f.SmallPredictedPrice, f.LargePredictedPrice, f.EnsemblePredictedPrice, f.EnsemblePctChange,
	)
	return err
}

// ErrNoRows re-exports sql.ErrNoRows so callers outside this package don't
// need to import database/sql solely to compare against it.
var ErrNoRows = sql.ErrNoRows
