// Package risk implements the Risk Manager (C6): it converts PENDING
// signals into SIZED signals against the latest close, and retires stale
// PENDING signals as EXPIRED. All of a cycle's updates commit in a single
// transaction.
package risk

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

// Engine sizes PENDING signals and expires stale ones each cycle.
type Engine struct {
	store             *store.Store
	accountSize       float64
	riskPct           float64
	maxSignalAge      time.Duration
	cryptoNotionalCap float64
}

// New constructs an Engine with the account-size/risk-percent/staleness
// configuration spec §4.6 recognizes, plus the crypto notional cap used for
// "/USD"-suffixed symbols.
func New(s *store.Store, accountSize, riskPct float64, maxSignalAge time.Duration, cryptoNotionalCap float64) *Engine {
	return &Engine{store: s, accountSize: accountSize, riskPct: riskPct, maxSignalAge: maxSignalAge, cryptoNotionalCap: cryptoNotionalCap}
}

// isCrypto reports whether symbol is a crypto pair sized by notional cap
// rather than the equity floor-shares rule, following the "/USD" suffix
// convention.
func isCrypto(symbol string) bool {
	return strings.Contains(symbol, "/USD")
}

// Cycle sizes or expires every PENDING signal, committing all updates in
// one transaction.
func (e *Engine) Cycle(ctx context.Context, logger zerolog.Logger) {
	pending, err := e.store.SignalsWithStatus(ctx, models.StatusPending)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load pending signals")
		return
	}
	if len(pending) == 0 {
		return
	}

	now := time.Now().UTC()
	err = e.store.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, sig := range pending {
			if now.Sub(sig.Timestamp) > e.maxSignalAge {
				if terr := sig.TransitionTo(models.StatusExpired); terr != nil {
					logger.Error().Err(terr).Int64("signal_id", sig.ID).Msg("illegal expiry transition")
					continue
				}
				if uerr := store.UpdateSignalTx(ctx, tx, sig); uerr != nil {
					return fmt.Errorf("expire signal %d: %w", sig.ID, uerr)
				}
				logger.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Msg("signal expired")
				continue
			}

			if sig.Type.IsExit() {
				zero := 0.0
				sig.Size = &zero
				if terr := sig.TransitionTo(models.StatusSized); terr != nil {
					logger.Error().Err(terr).Int64("signal_id", sig.ID).Msg("illegal sizing transition")
					continue
				}
				if uerr := store.UpdateSignalTx(ctx, tx, sig); uerr != nil {
					return fmt.Errorf("size exit signal %d: %w", sig.ID, uerr)
				}
				continue
			}

			close, cerr := e.store.LatestCloseSubquery(ctx, sig.Symbol)
			if cerr != nil {
				logger.Warn().Err(cerr).Str("symbol", sig.Symbol).Msg("no close price available, leaving pending")
				continue
			}

			var size float64
			if isCrypto(sig.Symbol) {
				size = e.notionalQty(close)
			} else {
				size = float64(e.shares(close))
			}
			if size <= 0 {
				logger.Info().Str("symbol", sig.Symbol).Float64("close", close).Msg("position size rounds to zero, leaving pending")
				continue
			}

			sig.Size = &size
			if terr := sig.TransitionTo(models.StatusSized); terr != nil {
				logger.Error().Err(terr).Int64("signal_id", sig.ID).Msg("illegal sizing transition")
				continue
			}
			if uerr := store.UpdateSignalTx(ctx, tx, sig); uerr != nil {
				return fmt.Errorf("size signal %d: %w", sig.ID, uerr)
			}
			logger.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Float64("size", size).Msg("signal sized")
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("risk manager batch failed, no updates committed")
	}
}

// shares computes floor(position_value / close) using decimal arithmetic
// to avoid floating-point drift on the division before truncation.
func (e *Engine) shares(close float64) int64 {
	if close <= 0 {
		return 0
	}
	positionValue := decimal.NewFromFloat(e.accountSize).Mul(decimal.NewFromFloat(e.riskPct))
	shares := positionValue.Div(decimal.NewFromFloat(close))
	return int64(math.Floor(shares.InexactFloat64()))
}

// notionalQty sizes a crypto entry to cryptoNotionalCap dollars of exposure
// rather than a whole-share count, since fractional crypto quantities are
// tradable.
func (e *Engine) notionalQty(close float64) float64 {
	if close <= 0 {
		return 0
	}
	qty := decimal.NewFromFloat(e.cryptoNotionalCap).Div(decimal.NewFromFloat(close))
	return qty.InexactFloat64()
}
