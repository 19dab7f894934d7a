package executor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Headhunte-121/trading-bot/internal/broker"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/executor_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func TestCycle_EntrySubmissionFillAndStopAttachment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := broker.NewPaperBroker(100_000)
	require.NoError(t, b.Connect())
	b.SetPrice("AAPL", 150.00)

	id, err := s.InsertSignal(ctx, models.Signal{
		Symbol: "AAPL", Timestamp: now, Type: models.SignalVWAPScalp,
		Status: models.StatusSized, Size: ptr(6), ATR: ptr(2.0),
	})
	require.NoError(t, err)

	brk := broker.NewSafeCaller(3)
	eng := New(s, b, brk, 2.0)

	eng.Cycle(ctx, zerolog.Nop())
	submitted, err := s.SignalsWithStatus(ctx, models.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	require.NotNil(t, submitted[0].OrderID)
	assert.Equal(t, id, submitted[0].ID)

	eng.Cycle(ctx, zerolog.Nop())
	executed, err := s.SignalsWithStatus(ctx, models.StatusExecuted)
	require.NoError(t, err)
	require.Len(t, executed, 1)

	orders, err := b.ListOrders()
	require.NoError(t, err)
	var sawTrailingStop bool
	for _, o := range orders {
		if o.Type == models.OrderTypeTrailingStop {
			sawTrailingStop = true
			assert.InDelta(t, 3.00, o.TrailPrice, 1e-9) // round(1.5 * 2.0, 2)
		}
	}
	assert.True(t, sawTrailingStop)
}

func TestCycle_EntrySubmissionFailureMarksFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := broker.NewPaperBroker(100_000)
	require.NoError(t, b.Connect())
	// No SetPrice call: SubmitOrder errors with "no price available".

	_, err := s.InsertSignal(ctx, models.Signal{
		Symbol: "MSFT", Timestamp: now, Type: models.SignalTrendBuy,
		Status: models.StatusSized, Size: ptr(3),
	})
	require.NoError(t, err)

	brk := broker.NewSafeCaller(3)
	eng := New(s, b, brk, 2.0)
	eng.Cycle(ctx, zerolog.Nop())

	failed, err := s.SignalsWithStatus(ctx, models.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
}

func TestCycle_ExitPipelineSubmitsAndExecutes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	b := broker.NewPaperBroker(100_000)
	require.NoError(t, b.Connect())
	b.SetPrice("AAPL", 150.00)
	_, err := b.SubmitOrder(broker.OrderRequest{Symbol: "AAPL", Quantity: 6, Side: models.OrderSideBuy, Type: models.OrderTypeMarket})
	require.NoError(t, err)

	zero := 0.0
	_, err = s.InsertSignal(ctx, models.Signal{
		Symbol: "AAPL", Timestamp: now, Type: models.SignalTakeProfitExit,
		Status: models.StatusSized, Size: &zero,
	})
	require.NoError(t, err)

	brk := broker.NewSafeCaller(3)
	eng := New(s, b, brk, 2.0)
	eng.Cycle(ctx, zerolog.Nop())

	executed, err := s.SignalsWithStatus(ctx, models.StatusExecuted)
	require.NoError(t, err)
	require.Len(t, executed, 1)

	_, err = b.GetPosition("AAPL")
	assert.Error(t, err) // fully liquidated
}

func TestCycle_BreakerTripReturnsImmediately(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := broker.NewPaperBroker(100_000)
	brk := broker.NewSafeCaller(1)
	// Force a trip: one critical failure at cap 1.
	_ = brk.Call(func() error { return httpErr{500} })
	require.True(t, brk.Tripped())

	eng := New(s, b, brk, 2.0)
	anySubmitted := eng.Cycle(ctx, zerolog.Nop())
	assert.False(t, anySubmitted)
}

type httpErr struct{ code int }

func (e httpErr) Error() string   { return "http error" }
func (e httpErr) StatusCode() int { return e.code }
