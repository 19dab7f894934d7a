// Package integration_test exercises the full signal lifecycle across the
// Strategy Engine, Risk Manager, and Executor against one shared store and
// one shared broker, the way the three worker processes cooperate through
// the database and (in this test, necessarily) a broker held in-process.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Headhunte-121/trading-bot/internal/broker"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/internal/workers/executor"
	"github.com/Headhunte-121/trading-bot/internal/workers/risk"
	"github.com/Headhunte-121/trading-bot/internal/workers/strategy"
	"github.com/Headhunte-121/trading-bot/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/integration_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func seedSPY(t *testing.T, s *store.Store, ts time.Time, close, sma50 float64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Exec(ctx, `INSERT INTO market_bars (symbol, timestamp, timeframe, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`,
		"SPY", ts, models.Timeframe5m, close, close, close, close, 1000.0)
	require.NoError(t, err)
	require.NoError(t, s.UpsertIndicators(ctx, models.Indicators{
		Symbol: "SPY", Timestamp: ts, Timeframe: models.Timeframe5m, SMA50: &sma50,
	}))
}

func seedCandidate(t *testing.T, s *store.Store, symbol string, ts time.Time, close, volume float64, ind models.Indicators, pctChange float64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Exec(ctx, `INSERT INTO market_bars (symbol, timestamp, timeframe, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`,
		symbol, ts, models.Timeframe5m, close, close+0.5, close-0.5, close, volume)
	require.NoError(t, err)

	ind.Symbol = symbol
	ind.Timestamp = ts
	ind.Timeframe = models.Timeframe5m
	require.NoError(t, s.UpsertIndicators(ctx, ind))

	f := models.NewForecast(symbol, ts, close, close*(1+pctChange/100), close*(1+pctChange/100))
	require.NoError(t, s.UpsertForecast(ctx, f))
}

// TestFullLifecycle_EntrySignalReachesExecutedWithProtectiveStop drives one
// VWAP_SCALP entry candidate through Strategy Engine classification, Risk
// Manager sizing, and the Executor's submit-fill-monitor-attach-stop
// pipeline, asserting the signal lands EXECUTED with a trailing stop order
// resting against the position.
//
// The Strategy Engine and Executor each take a broker.Broker; a real
// deployment runs them as separate processes, each owning its own
// PaperBroker instance with no shared state (see DESIGN.md). Sharing one
// broker here is what makes the cross-component assertions meaningful in a
// single process; it does not claim the multi-process topology shares it.
func TestFullLifecycle_EntrySignalReachesExecutedWithProtectiveStop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedSPY(t, s, now, 500, 480)
	seedCandidate(t, s, "AAPL", now, 150.00, 1_200_000, models.Indicators{
		SMA200:      ptr(140),
		RSI14:       ptr(50),
		VWAP:        ptr(149.50),
		ATR14:       ptr(2.0),
		VolumeSMA20: ptr(1_000_000),
	}, 0.40)

	b := broker.NewPaperBroker(100_000)
	require.NoError(t, b.Connect())
	b.SetPrice("AAPL", 150.00)

	strategyEngine := strategy.New(s, b, []string{"AAPL"})
	riskEngine := risk.New(s, 100_000, 0.01, 60*time.Minute, 1000)
	brk := broker.NewSafeCaller(3)
	executorEngine := executor.New(s, b, brk, 2.0)

	strategyEngine.Cycle(ctx, zerolog.Nop())
	pending, err := s.SignalsWithStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.SignalVWAPScalp, pending[0].Type)

	riskEngine.Cycle(ctx, zerolog.Nop())
	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	require.NotNil(t, sized[0].Size)
	assert.Greater(t, *sized[0].Size, 0.0)

	// Entry pipeline: submits the market buy, fills instantly against the
	// PaperBroker, lands SUBMITTED with an order id.
	executorEngine.Cycle(ctx, zerolog.Nop())
	submitted, err := s.SignalsWithStatus(ctx, models.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	require.NotNil(t, submitted[0].OrderID)

	// Submission monitor: polls the filled order, records the trade, and
	// attaches the protective stop.
	executorEngine.Cycle(ctx, zerolog.Nop())
	executed, err := s.SignalsWithStatus(ctx, models.StatusExecuted)
	require.NoError(t, err)
	require.Len(t, executed, 1)

	pos, err := b.GetPosition("AAPL")
	require.NoError(t, err)
	assert.Equal(t, *sized[0].Size, pos.Quantity)

	orders, err := b.ListOrders()
	require.NoError(t, err)
	var sawStop bool
	for _, o := range orders {
		if o.Type == models.OrderTypeTrailingStop {
			sawStop = true
		}
	}
	assert.True(t, sawStop, "expected a trailing stop order resting on the position")
}

// TestFullLifecycle_ExitSignalLiquidatesPosition drives a TAKE_PROFIT_EXIT
// signal (sized to zero, no price lookup) through the Executor's exit
// pipeline and confirms the position is fully liquidated.
func TestFullLifecycle_ExitSignalLiquidatesPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := broker.NewPaperBroker(100_000)
	require.NoError(t, b.Connect())
	b.SetPrice("AAPL", 150.00)
	_, err := b.SubmitOrder(broker.OrderRequest{
		Symbol: "AAPL", Quantity: 10, Side: models.OrderSideBuy, Type: models.OrderTypeMarket,
	})
	require.NoError(t, err)

	riskEngine := risk.New(s, 100_000, 0.01, 60*time.Minute, 1000)
	brk := broker.NewSafeCaller(3)
	executorEngine := executor.New(s, b, brk, 2.0)

	_, err = s.InsertSignal(ctx, models.Signal{
		Symbol: "AAPL", Timestamp: now, Type: models.SignalTakeProfitExit, Status: models.StatusPending,
	})
	require.NoError(t, err)

	riskEngine.Cycle(ctx, zerolog.Nop())
	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	require.NotNil(t, sized[0].Size)
	assert.Equal(t, 0.0, *sized[0].Size)

	executorEngine.Cycle(ctx, zerolog.Nop())
	executed, err := s.SignalsWithStatus(ctx, models.StatusExecuted)
	require.NoError(t, err)
	require.Len(t, executed, 1)

	_, err = b.GetPosition("AAPL")
	assert.Error(t, err, "position should be fully liquidated")
}
