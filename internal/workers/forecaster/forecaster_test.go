package forecaster

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/forecaster_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedBars(t *testing.T, s *store.Store, symbol string, closes []float64, start time.Time) {
	t.Helper()
	ctx := context.Background()
	for i, c := range closes {
		ts := start.Add(time.Duration(i) * 5 * time.Minute)
		_, err := s.Exec(ctx, `INSERT INTO market_bars (symbol, timestamp, timeframe, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`,
			symbol, ts, models.Timeframe5m, c, c+0.1, c-0.1, c, 1000.0)
		require.NoError(t, err)
	}
}

func TestForecaster_Cycle_ProducesForecastWithSufficientContext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	closes := make([]float64, 64)
	for i := range closes {
		closes[i] = 100.0 + float64(i)*0.1
	}
	seedBars(t, s, "AAPL", closes, time.Date(2026, 7, 20, 9, 30, 0, 0, time.UTC))

	f := New(s, []string{"AAPL"})
	f.Cycle(ctx, zerolog.Nop())

	fc, err := s.LatestForecast(ctx, "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 0.7*fc.LargePredictedPrice+0.3*fc.SmallPredictedPrice, fc.EnsemblePredictedPrice, 1e-6)
	assert.Greater(t, fc.CurrentPrice, 0.0)
}

func TestForecaster_Cycle_SkipsSymbolBelowMinContext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedBars(t, s, "MSFT", []float64{100, 101, 102}, time.Date(2026, 7, 20, 9, 30, 0, 0, time.UTC))

	f := New(s, []string{"MSFT"})
	f.Cycle(ctx, zerolog.Nop())

	_, err := s.LatestForecast(ctx, "MSFT")
	assert.ErrorIs(t, err, store.ErrNoRows)
}

func TestFillGaps_ForwardThenBackFills(t *testing.T) {
	closes := []float64{0, 100, 0, 102, 0}
	ok := fillGaps(closes)
	require.True(t, ok)
	assert.Equal(t, []float64{100, 100, 100, 102, 102}, closes)
}

func TestFillGaps_AllZeroIsUnresolvable(t *testing.T) {
	closes := []float64{0, 0, 0}
	ok := fillGaps(closes)
	assert.False(t, ok)
}
