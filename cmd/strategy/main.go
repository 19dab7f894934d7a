// Command strategy runs the Strategy Engine (C5) as a long-lived worker
// process. It takes no arguments: every tunable is read from the
// environment via config.Load.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Headhunte-121/trading-bot/api"
	"github.com/Headhunte-121/trading-bot/config"
	"github.com/Headhunte-121/trading-bot/internal/broker"
	"github.com/Headhunte-121/trading-bot/internal/cadence"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/internal/workers/strategy"
	"github.com/Headhunte-121/trading-bot/models"
	"github.com/Headhunte-121/trading-bot/tracing"
)

const (
	serviceName         = "strategy_engine"
	strategyCandleWidth = 5 * time.Minute
	strategyWakeOffset  = 40 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("starting strategy engine worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	cad, err := cadence.New(db, cadence.RealClock{}, cfg.ActiveSleep(), cfg.PassiveSleep())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cadence")
	}

	// The Strategy Engine only reads broker positions for exit evaluation;
	// it never submits orders. Live-broker wiring lives with the Executor
	// (C7), which owns order submission — this worker runs against the
	// paper broker until that integration exists.
	brkr := broker.NewPaperBroker(cfg.AccountSize)
	if err := brkr.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect broker")
	}

	eng := strategy.New(db, brkr, cfg.KingsList)
	db.LogEvent(context.Background(), serviceName, models.LogLevelInfo, "strategy engine worker started")

	reporter := api.NewReporter(serviceName, nil)
	api.Serve(cfg.ServerPort, reporter)

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("strategy engine stopped")
			return
		default:
		}

		traceID := tracing.NewTraceID()
		cycleCtx := tracing.WithTraceID(ctx, traceID)
		logger := tracing.Logger(cycleCtx)

		logger.Debug().Msg("strategy cycle started")
		eng.Cycle(cycleCtx, logger)
		logger.Debug().Msg("strategy cycle completed")
		reporter.RecordCycle()

		sleep := cad.SleepToNextCandle(strategyCandleWidth, strategyWakeOffset)
		cad.SmartSleep(ctx, sleep)
	}
}
