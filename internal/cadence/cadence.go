// Package cadence is the Cadence (C2) component: it turns a reference clock
// and the sleep_mode override into a sleep duration for the calling worker,
// and provides the blocking smart-sleep primitive every worker uses between
// cycles. No worker hardcodes a sleep interval; all of them ask Cadence.
package cadence

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

// Exchange session boundaries, America/New_York, Monday-Friday, expressed
// as standard 5-field cron schedules (minute hour dom month dow) rather
// than hardcoded hour/minute constants, so the boundary rule reads the
// same way an ops runbook would describe it.
const (
	sessionOpenCron  = "30 9 * * 1-5"
	sessionCloseCron = "0 16 * * 1-5"
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Cadence computes sleep intervals from the exchange-session rules plus the
// sleep_mode override, read fresh from Store every call — spec §9 is explicit
// that sleep_mode must never be cached across cycles.
type Cadence struct {
	store         *store.Store
	clock         Clock
	location      *time.Location
	openSchedule  cron.Schedule
	closeSchedule cron.Schedule
	active        time.Duration
	passive       time.Duration
}

// New constructs a Cadence against America/New_York, parsing the
// sessionOpenCron/sessionCloseCron schedules once. active and passive are
// the ACTIVE_SLEEP_SECONDS/PASSIVE_SLEEP_SECONDS durations from config
// (spec §6); every worker must pass its own config.Config values rather
// than relying on a package default, so an operator's override actually
// takes effect. Returns an error if the tzdata for that zone cannot be
// loaded or either schedule fails to parse.
func New(s *store.Store, clock Clock, active, passive time.Duration) (*Cadence, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}

	open, err := cron.ParseStandard(sessionOpenCron)
	if err != nil {
		return nil, fmt.Errorf("parse session open schedule %q: %w", sessionOpenCron, err)
	}
	closeSched, err := cron.ParseStandard(sessionCloseCron)
	if err != nil {
		return nil, fmt.Errorf("parse session close schedule %q: %w", sessionCloseCron, err)
	}

	return &Cadence{
		store: s, clock: clock, location: loc,
		openSchedule: open, closeSchedule: closeSched,
		active: active, passive: passive,
	}, nil
}

// ActiveSleep returns the configured active-cadence duration.
func (c *Cadence) ActiveSleep() time.Duration { return c.active }

// PassiveSleep returns the configured passive-cadence duration.
func (c *Cadence) PassiveSleep() time.Duration { return c.passive }

// Mode reads the current sleep_mode, defaulting to AUTO when unset.
func (c *Cadence) Mode(ctx context.Context) (models.SleepMode, error) {
	value, ok, err := c.store.GetSystemConfig(ctx, models.SystemConfigSleepModeKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.SleepModeAuto, nil
	}
	mode := models.SleepMode(value)
	switch mode {
	case models.SleepModeAuto, models.SleepModeForceAwake, models.SleepModeForceSleep:
		return mode, nil
	default:
		log.Warn().Str("sleep_mode", value).Msg("unrecognized sleep_mode value, defaulting to AUTO")
		return models.SleepModeAuto, nil
	}
}

// InSession reports whether t falls within the exchange session: a weekday,
// 09:30 <= t < 16:00 America/New_York. Derived from the parsed cron
// schedules rather than a direct hour/minute comparison: if the next close
// event precedes the next open event, t must currently be inside a session
// that hasn't closed yet.
func (c *Cadence) InSession(t time.Time) bool {
	ny := t.In(c.location)
	nextOpen := c.openSchedule.Next(ny)
	nextClose := c.closeSchedule.Next(ny)
	return nextClose.Before(nextOpen)
}

// secondsUntilOpen returns the duration from t until the next session open,
// which may fall on a later weekday than t (e.g. Friday after close rolls to
// the following Monday).
func (c *Cadence) secondsUntilOpen(t time.Time) time.Duration {
	ny := t.In(c.location)
	return c.openSchedule.Next(ny).Sub(ny)
}

// NextSleep implements the §4.2 rule table: FORCE_AWAKE always yields the
// active cadence, FORCE_SLEEP always yields passive, and AUTO is
// session-aware (active inside the session, min(passive, seconds_until_open)
// before today's open on a session day, passive otherwise — weekends and
// post-close included).
func (c *Cadence) NextSleep(ctx context.Context) (time.Duration, error) {
	mode, err := c.Mode(ctx)
	if err != nil {
		return 0, err
	}

	switch mode {
	case models.SleepModeForceAwake:
		return c.active, nil
	case models.SleepModeForceSleep:
		return c.passive, nil
	}

	now := c.clock.Now()
	if c.InSession(now) {
		return c.active, nil
	}

	if until := c.secondsUntilOpen(now); until > 0 && until < c.passive {
		return until, nil
	}

	return c.passive, nil
}

// SleepToNextCandle returns the duration until the next interval-aligned
// boundary plus offset, staggering worker wakeups so C3/C4/C5 don't thunder
// at the same instant (spec §4.2).
func (c *Cadence) SleepToNextCandle(interval, offset time.Duration) time.Duration {
	now := c.clock.Now()
	epoch := now.Unix()
	intervalSecs := int64(interval.Seconds())
	if intervalSecs <= 0 {
		return offset
	}
	remainder := epoch % intervalSecs
	untilBoundary := intervalSecs - remainder
	if remainder == 0 {
		untilBoundary = 0
	}
	return time.Duration(untilBoundary)*time.Second + offset
}

// SmartSleep blocks for d. When d exceeds the active cadence it polls
// sleep_mode once per second for the whole sleep and returns early the instant
// the override flips to FORCE_AWAKE — mirroring the original smart_sleep.py
// contract. Short sleeps (<= active cadence) are not interruptible. Returns
// early if ctx is cancelled.
func (c *Cadence) SmartSleep(ctx context.Context, d time.Duration) {
	if d <= c.active {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
		return
	}

	deadline := c.clock.Now().Add(d)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.clock.Now().Before(deadline) {
				return
			}
			mode, err := c.Mode(ctx)
			if err != nil {
				continue
			}
			if mode == models.SleepModeForceAwake && d > c.active {
				return
			}
		}
	}
}
