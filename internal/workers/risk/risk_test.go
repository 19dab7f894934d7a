package risk

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
	s, err := store.Open(t.TempDir() + "/risk_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertSignal(t *testing.T, s *store.Store, sig models.Signal) int64 {
	t.Helper()
	id, err := s.InsertSignal(context.Background(), sig)
	require.NoError(t, err)
	return id
}

func seedClose(t *testing.T, s *store.Store, symbol string, close float64, ts time.Time) {
	t.Helper()
	_, err := s.Exec(context.Background(), `INSERT INTO market_bars (symbol, timestamp, timeframe, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`,
		symbol, ts, models.Timeframe5m, close, close, close, close, 1000.0)
	require.NoError(t, err)
}

func TestCycle_SizesEntrySignalFromLatestClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedClose(t, s, "AAPL", 150.00, now)
	insertSignal(t, s, models.Signal{Symbol: "AAPL", Timestamp: now, Type: models.SignalVWAPScalp, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	require.NotNil(t, sized[0].Size)
	assert.Equal(t, float64(6), *sized[0].Size) // floor(1000/150) = 6
}

func TestCycle_ExitSignalSizedToZeroWithoutPriceLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertSignal(t, s, models.Signal{Symbol: "AAPL", Timestamp: now, Type: models.SignalTakeProfitExit, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	require.NotNil(t, sized[0].Size)
	assert.Equal(t, 0.0, *sized[0].Size)
}

func TestCycle_ExpiresStaleSignal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-61 * time.Minute)

	seedClose(t, s, "AAPL", 150.00, old)
	insertSignal(t, s, models.Signal{Symbol: "AAPL", Timestamp: old, Type: models.SignalVWAPScalp, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	expired, err := s.SignalsWithStatus(ctx, models.StatusExpired)
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	assert.Empty(t, sized)
}

func TestCycle_LeavesPendingWhenSizeRoundsToZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedClose(t, s, "BRK.A", 500000.00, now)
	insertSignal(t, s, models.Signal{Symbol: "BRK.A", Timestamp: now, Type: models.SignalTrendBuy, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	pending, err := s.SignalsWithStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCycle_CryptoEntrySizedByNotionalCapNotFloorShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedClose(t, s, "BTC/USD", 40000.00, now)
	insertSignal(t, s, models.Signal{Symbol: "BTC/USD", Timestamp: now, Type: models.SignalTrendBuy, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	sized, err := s.SignalsWithStatus(ctx, models.StatusSized)
	require.NoError(t, err)
	require.Len(t, sized, 1)
	require.NotNil(t, sized[0].Size)
	assert.InDelta(t, 0.025, *sized[0].Size, 1e-9) // 1000 / 40000, not floored to whole shares
}

func TestCycle_NoCloseAvailableLeavesPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertSignal(t, s, models.Signal{Symbol: "GOOGL", Timestamp: now, Type: models.SignalTrendBuy, Status: models.StatusPending})

	e := New(s, 100000, 0.01, 60*time.Minute, 1000)
	e.Cycle(ctx, zerolog.Nop())

	pending, err := s.SignalsWithStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
