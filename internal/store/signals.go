package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Headhunte-121/trading-bot/models"
)

// EntryCandidate is one joined row of MarketBar + Indicators + Forecast the
// Strategy Engine's entry evaluator scores against the tier table.
type EntryCandidate struct {
	Symbol            string    `db:"symbol"`
	Timestamp         time.Time `db:"timestamp"`
	Close             float64   `db:"close"`
	Volume            float64   `db:"volume"`
	SMA200            *float64  `db:"sma_200"`
	RSI14             *float64  `db:"rsi_14"`
	VWAP              *float64  `db:"vwap"`
	ATR14             *float64  `db:"atr_14"`
	VolumeSMA20       *float64  `db:"volume_sma_20"`
	EnsemblePctChange *float64  `db:"ensemble_pct_change"`
}

// Complete reports whether every field the spec §4.5 entry evaluator
// depends on is present.
func (c EntryCandidate) Complete() bool {
	return c.SMA200 != nil && c.RSI14 != nil && c.VWAP != nil &&
		c.ATR14 != nil && c.VolumeSMA20 != nil && c.EnsemblePctChange != nil
}

// EntryCandidates returns every (symbol != SPY) row from the last
// `lookback` joined across MarketBar, Indicators and Forecast on the 5m
// timeframe — the Strategy Engine's entry candidate set (spec §4.5).
func (s *Store) EntryCandidates(ctx context.Context, lookback time.Duration) ([]EntryCandidate, error) {
	since := time.Now().Add(-lookback).UTC()
	var rows []EntryCandidate
	err := s.Read(ctx, &rows, `
		SELECT
			m.symbol AS symbol,
			m.timestamp AS timestamp,
			m.close AS close,
			m.volume AS volume,
			i.sma_200 AS sma_200,
			i.rsi_14 AS rsi_14,
			i.vwap AS vwap,
			i.atr_14 AS atr_14,
			i.volume_sma_20 AS volume_sma_20,
			f.ensemble_pct_change AS ensemble_pct_change
		FROM market_bars m
		JOIN indicators i
			ON m.symbol = i.symbol AND m.timestamp = i.timestamp AND m.timeframe = i.timeframe
		JOIN forecasts f
			ON m.symbol = f.symbol AND m.timestamp = f.timestamp
		WHERE m.timeframe = ?
			AND m.timestamp >= ?
			AND m.symbol != 'SPY'
		ORDER BY m.timestamp DESC`,
		models.Timeframe5m, since,
	)
	return rows, err
}

// LatestSPYRegimeInputs returns the most recent SPY 5m close and SMA-50,
// used to derive the macro regime (spec §4.5: BEAR if close < sma_50, else
// BULL).
func (s *Store) LatestSPYRegimeInputs(ctx context.Context) (close float64, sma50 *float64, err error) {
	var row struct {
		Close float64  `db:"close"`
		SMA50 *float64 `db:"sma_50"`
	}
	err = s.ReadOne(ctx, &row, `
		SELECT m.close AS close, i.sma_50 AS sma_50
		FROM market_bars m
		JOIN indicators i
			ON m.symbol = i.symbol AND m.timestamp = i.timestamp AND m.timeframe = i.timeframe
		WHERE m.symbol = 'SPY' AND m.timeframe = ?
		ORDER BY m.timestamp DESC
		LIMIT 1`, models.Timeframe5m)
	if err != nil {
		return 0, nil, err
	}
	return row.Close, row.SMA50, nil
}

// HasSignal reports whether a signal row already exists for (symbol,
// timestamp) — the entry-signal dedup rule.
func (s *Store) HasSignal(ctx context.Context, symbol string, timestamp time.Time) (bool, error) {
	var count int
	err := s.ReadOne(ctx, &count, `SELECT COUNT(*) FROM signals WHERE symbol = ? AND timestamp = ?`, symbol, timestamp)
	return count > 0, err
}

// HasPendingExitSignal reports whether symbol already has a PENDING exit
// signal — the exit-signal dedup rule.
func (s *Store) HasPendingExitSignal(ctx context.Context, symbol string) (bool, error) {
	var count int
	err := s.ReadOne(ctx, &count, `
		SELECT COUNT(*) FROM signals
		WHERE symbol = ? AND status = ? AND signal_type IN (?, ?)`,
		symbol, models.StatusPending, models.SignalTakeProfitExit, models.SignalPanicExit)
	return count > 0, err
}

// InsertSignal inserts a new Signal row, returning the assigned surrogate
// id.
func (s *Store) InsertSignal(ctx context.Context, sig models.Signal) (int64, error) {
	res, err := s.Exec(ctx, `
		INSERT INTO signals (symbol, timestamp, signal_type, status, size, atr, order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sig.Symbol, sig.Timestamp, sig.Type, sig.Status, sig.Size, sig.ATR, sig.OrderID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SignalsWithStatus returns every signal row with the given status, used by
// the Risk Manager (PENDING) and Executor (SIZED/SUBMITTED).
func (s *Store) SignalsWithStatus(ctx context.Context, status models.SignalStatus) ([]models.Signal, error) {
	var rows []models.Signal
	err := s.Read(ctx, &rows, `
		SELECT id, symbol, timestamp, signal_type, status, size, atr, order_id
		FROM signals WHERE status = ?`, status)
	return rows, err
}

// UpdateSignal persists a signal's mutable fields (status, size, order_id)
// after a lifecycle transition.
func (s *Store) UpdateSignal(ctx context.Context, sig models.Signal) error {
	_, err := s.Exec(ctx, `
		UPDATE signals SET status = ?, size = ?, order_id = ? WHERE id = ?`,
		sig.Status, sig.Size, sig.OrderID, sig.ID,
	)
	return err
}

// LatestCloseSubquery resolves the most recent 5m close for symbol as of
// now, independent of any particular signal timestamp — the Risk Manager
// looks this up per PENDING signal via subquery rather than an equal-
// timestamp join so a signal survives a missing candle at its own moment
// (spec §4.6).
func (s *Store) LatestCloseSubquery(ctx context.Context, symbol string) (float64, error) {
	var close float64
	err := s.ReadOne(ctx, &close, `
		SELECT close FROM market_bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC
		LIMIT 1`, symbol, models.Timeframe5m)
	return close, err
}

// UpdateSignalTx persists a signal's mutable fields inside an
// already-open transaction — the Risk Manager batches every PENDING→SIZED
// and PENDING→EXPIRED update of a cycle into one transaction (spec §4.6).
func UpdateSignalTx(ctx context.Context, tx *sqlx.Tx, sig models.Signal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE signals SET status = ?, size = ?, order_id = ? WHERE id = ?`,
		sig.Status, sig.Size, sig.OrderID, sig.ID,
	)
	return err
}

// InsertExecutedTrade appends an ExecutedTrade row.
func (s *Store) InsertExecutedTrade(ctx context.Context, t models.ExecutedTrade) error {
	_, err := s.Exec(ctx, `
		INSERT INTO executed_trades (symbol, timestamp, price, qty, side, signal_type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Symbol, t.Timestamp, t.Price, t.Qty, t.Side, t.SignalType,
	)
	return err
}
