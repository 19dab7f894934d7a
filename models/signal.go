package models

import (
	"fmt"
	"time"
)

// SignalType identifies which tier or exit rule produced a Signal.
type SignalType string

const (
	SignalVWAPScalp     SignalType = "VWAP_SCALP"
	SignalDeepValueBuy  SignalType = "DEEP_VALUE_BUY"
	SignalTrendBuy      SignalType = "TREND_BUY"
	SignalTakeProfitExit SignalType = "TAKE_PROFIT_EXIT"
	SignalPanicExit     SignalType = "PANIC_EXIT"
)

// IsExit reports whether the signal type is one of the exit rules. Exit
// signals are sized to 0 ("liquidate full position") and skip the
// close-price lookup in the Risk Manager.
func (t SignalType) IsExit() bool {
	return t == SignalTakeProfitExit || t == SignalPanicExit
}

// TrailMultiplier returns the ATR multiplier the Executor uses when
// attaching a protective trailing stop for this signal type, and whether
// the type is one the multiplier table recognizes at all (TREND_BUY,
// DEEP_VALUE_BUY, VWAP_SCALP only — exits never reach stop attachment).
func (t SignalType) TrailMultiplier() (float64, bool) {
	switch t {
	case SignalVWAPScalp:
		return 1.5, true
	case SignalDeepValueBuy:
		return 2.0, true
	case SignalTrendBuy:
		return 3.0, true
	default:
		return 0, false
	}
}

// SignalStatus is the lifecycle state of a Signal row. Transitions are
// strictly forward; see the state diagram in spec §5.
type SignalStatus string

const (
	StatusPending        SignalStatus = "PENDING"
	StatusSized          SignalStatus = "SIZED"
	StatusSubmitted      SignalStatus = "SUBMITTED"
	StatusExecuted       SignalStatus = "EXECUTED"
	StatusExecutedNoStop SignalStatus = "EXECUTED_NO_STOP"
	StatusFailed         SignalStatus = "FAILED"
	StatusExpired        SignalStatus = "EXPIRED"
)

// legalTransitions enumerates every forward edge in the lifecycle diagram.
// A transition not present here is rejected by Signal.TransitionTo, making
// the "strictly increasing" ordering guarantee (spec §5) a property of the
// type rather than of caller discipline.
var legalTransitions = map[SignalStatus]map[SignalStatus]bool{
	StatusPending: {
		StatusSized:   true,
		StatusExpired: true,
	},
	StatusSized: {
		StatusSubmitted: true, // entry path
		StatusExecuted:  true, // exit path: sized direct to executed
		StatusFailed:    true, // entry path: broker rejected the submit
	},
	StatusSubmitted: {
		StatusExecuted:       true,
		StatusExecutedNoStop: true,
		StatusFailed:         true,
	},
}

// Signal is a row in the central state machine shared by the Strategy
// Engine, Risk Manager and Executor. For entry signals, Size and OrderID are
// nil until the Risk Manager and Executor respectively populate them; exit
// signals are inserted by the Strategy Engine with Size set to 0.
type Signal struct {
	ID        int64        `json:"id" db:"id"`
	Symbol    string       `json:"symbol" db:"symbol"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
	Type      SignalType   `json:"signal_type" db:"signal_type"`
	Status    SignalStatus `json:"status" db:"status"`
	Size      *float64     `json:"size" db:"size"`
	ATR       *float64     `json:"atr" db:"atr"`
	OrderID   *string      `json:"order_id" db:"order_id"`
}

// TransitionTo validates and applies a status change, returning an error
// if the target status is not a legal forward transition from the current
// one. Callers should treat a non-nil error as a programming bug, not a
// retryable condition.
func (s *Signal) TransitionTo(target SignalStatus) error {
	if s.Status == target {
		return nil
	}
	allowed, ok := legalTransitions[s.Status]
	if !ok || !allowed[target] {
		return fmt.Errorf("illegal signal transition %s -> %s for signal %d", s.Status, target, s.ID)
	}
	s.Status = target
	return nil
}
