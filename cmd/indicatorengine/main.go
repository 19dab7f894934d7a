// Command indicatorengine runs the Indicator Engine (C3) as a long-lived
// worker process. It takes no arguments: every tunable is read from the
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
	"github.com/Headhunte-121/trading-bot/internal/cadence"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/internal/workers/indicatorengine"
	"github.com/Headhunte-121/trading-bot/models"
	"github.com/Headhunte-121/trading-bot/tracing"
)

const (
	serviceName             = "indicator_engine"
	indicatorCandleInterval = 5 * time.Minute
	indicatorWakeOffset     = 20 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("starting indicator engine worker")

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

	eng := indicatorengine.New(db, cfg.KingsList)
	db.LogEvent(context.Background(), serviceName, models.LogLevelInfo, "indicator engine worker started")

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
			log.Info().Msg("indicator engine stopped")
			return
		default:
		}

		traceID := tracing.NewTraceID()
		cycleCtx := tracing.WithTraceID(ctx, traceID)
		logger := tracing.Logger(cycleCtx)

		logger.Debug().Msg("indicator engine cycle started")
		eng.Cycle(cycleCtx, logger)
		logger.Debug().Msg("indicator engine cycle completed")
		reporter.RecordCycle()

		sleep := cad.SleepToNextCandle(indicatorCandleInterval, indicatorWakeOffset)
		cad.SmartSleep(ctx, sleep)
	}
}
