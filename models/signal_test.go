package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalType_IsExit(t *testing.T) {
	assert.True(t, SignalTakeProfitExit.IsExit())
	assert.True(t, SignalPanicExit.IsExit())
	assert.False(t, SignalVWAPScalp.IsExit())
	assert.False(t, SignalDeepValueBuy.IsExit())
	assert.False(t, SignalTrendBuy.IsExit())
}

func TestSignalType_TrailMultiplier(t *testing.T) {
	cases := []struct {
		typ  SignalType
		want float64
	}{
		{SignalVWAPScalp, 1.5},
		{SignalDeepValueBuy, 2.0},
		{SignalTrendBuy, 3.0},
	}
	for _, c := range cases {
		got, ok := c.typ.TrailMultiplier()
		assert.True(t, ok)
		assert.Equal(t, c.want, got)
	}

	_, ok := SignalTakeProfitExit.TrailMultiplier()
	assert.False(t, ok)
}

func TestSignal_TransitionTo_EntryPath(t *testing.T) {
	s := &Signal{Status: StatusPending}
	require.NoError(t, s.TransitionTo(StatusSized))
	require.NoError(t, s.TransitionTo(StatusSubmitted))
	require.NoError(t, s.TransitionTo(StatusExecuted))
	assert.Equal(t, StatusExecuted, s.Status)
}

func TestSignal_TransitionTo_ExitPathSkipsSubmitted(t *testing.T) {
	s := &Signal{Status: StatusSized}
	require.NoError(t, s.TransitionTo(StatusExecuted))
	assert.Equal(t, StatusExecuted, s.Status)
}

func TestSignal_TransitionTo_ExpiresFromPending(t *testing.T) {
	s := &Signal{Status: StatusPending}
	require.NoError(t, s.TransitionTo(StatusExpired))
	assert.Equal(t, StatusExpired, s.Status)
}

func TestSignal_TransitionTo_RejectsReverse(t *testing.T) {
	s := &Signal{Status: StatusSubmitted}
	err := s.TransitionTo(StatusPending)
	assert.Error(t, err)
	assert.Equal(t, StatusSubmitted, s.Status)
}

func TestSignal_TransitionTo_RejectsSkippingSizing(t *testing.T) {
	s := &Signal{Status: StatusPending}
	err := s.TransitionTo(StatusSubmitted)
	assert.Error(t, err)
	assert.Equal(t, StatusPending, s.Status)
}

func TestSignal_TransitionTo_NoOpSameStatus(t *testing.T) {
	s := &Signal{Status: StatusSized}
	require.NoError(t, s.TransitionTo(StatusSized))
	assert.Equal(t, StatusSized, s.Status)
}

func TestSignal_TransitionTo_SubmittedTerminalStates(t *testing.T) {
	for _, target := range []SignalStatus{StatusExecuted, StatusExecutedNoStop, StatusFailed} {
		s := &Signal{Status: StatusSubmitted}
		assert.NoError(t, s.TransitionTo(target))
	}
}
