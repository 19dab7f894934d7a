package cadence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Headhunte-121/trading-bot/internal/store"
)

const (
	testActiveCadence  = 300 * time.Second
	testPassiveCadence = 3600 * time.Second
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/cadence_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestInSession_DuringMarketHours(t *testing.T) {
	s := newTestStore(t)
	// 2026-07-20 is a Monday.
	clock := fixedClock{nyTime(t, 2026, time.July, 20, 10, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	assert.True(t, c.InSession(clock.t))
}

func TestInSession_ExcludesCloseMinuteExactly(t *testing.T) {
	s := newTestStore(t)
	clock := fixedClock{nyTime(t, 2026, time.July, 20, 16, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	assert.False(t, c.InSession(clock.t))
}

func TestInSession_Weekend(t *testing.T) {
	s := newTestStore(t)
	// 2026-07-18 is a Saturday.
	clock := fixedClock{nyTime(t, 2026, time.July, 18, 10, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	assert.False(t, c.InSession(clock.t))
}

func TestNextSleep_ForceAwakeAlwaysActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetSystemConfig(ctx, "sleep_mode", "FORCE_AWAKE"))

	clock := fixedClock{nyTime(t, 2026, time.July, 18, 2, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d, err := c.NextSleep(ctx)
	require.NoError(t, err)
	assert.Equal(t, testActiveCadence, d)
}

func TestNextSleep_ForceSleepAlwaysPassive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetSystemConfig(ctx, "sleep_mode", "FORCE_SLEEP"))

	clock := fixedClock{nyTime(t, 2026, time.July, 20, 10, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d, err := c.NextSleep(ctx)
	require.NoError(t, err)
	assert.Equal(t, testPassiveCadence, d)
}

func TestNextSleep_AutoInSessionIsActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := fixedClock{nyTime(t, 2026, time.July, 20, 11, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d, err := c.NextSleep(ctx)
	require.NoError(t, err)
	assert.Equal(t, testActiveCadence, d)
}

func TestNextSleep_AutoBeforeOpenUsesMinOfPassiveAndUntilOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 09:00 on a Monday: 30 minutes until open, well under passive cadence.
	clock := fixedClock{nyTime(t, 2026, time.July, 20, 9, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d, err := c.NextSleep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)
}

func TestNextSleep_AutoAfterCloseIsPassive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := fixedClock{nyTime(t, 2026, time.July, 20, 18, 0)}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d, err := c.NextSleep(ctx)
	require.NoError(t, err)
	assert.Equal(t, testPassiveCadence, d)
}

func TestSleepToNextCandle_AlignsToBoundary(t *testing.T) {
	s := newTestStore(t)
	// Unix epoch seconds divisible by 300 at an exact 5-minute boundary.
	clock := fixedClock{time.Unix(1700000700, 0).UTC()} // divisible by 300
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	d := c.SleepToNextCandle(5*time.Minute, 20*time.Second)
	assert.Equal(t, 20*time.Second, d)
}

func TestSmartSleep_ShortSleepNotInterruptible(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetSystemConfig(ctx, "sleep_mode", "FORCE_AWAKE"))

	clock := fixedClock{time.Now()}
	c, err := New(s, clock, testActiveCadence, testPassiveCadence)
	require.NoError(t, err)

	start := time.Now()
	c.SmartSleep(ctx, 50*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
