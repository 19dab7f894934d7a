// Command executor runs the Executor (C7) as a long-lived worker process.
// It takes no arguments: every tunable is read from the environment via
// config.Load.
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
	"github.com/Headhunte-121/trading-bot/internal/workers/executor"
	"github.com/Headhunte-121/trading-bot/models"
	"github.com/Headhunte-121/trading-bot/tracing"
)

const (
	serviceName         = "executor"
	breakerFailureCap   = 3
	breakerTrippedSleep = 300 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("starting executor worker")

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

	brk := broker.NewSafeCaller(breakerFailureCap)

	// No live brokerage REST client exists in this module; with live
	// credentials configured the process refuses to start rather than
	// silently trading paper under a live-looking configuration.
	var brkr broker.Broker
	if cfg.HasLiveBroker() {
		log.Fatal().Msg("live broker credentials configured but no live broker client is wired; refusing to start")
	}
	paper := broker.NewPaperBroker(cfg.AccountSize)
	if err := paper.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect broker")
	}
	brkr = paper

	eng := executor.New(db, brkr, brk, cfg.TrailPercentDefault)
	db.LogEvent(context.Background(), serviceName, models.LogLevelInfo, "executor worker started")

	reporter := api.NewReporter(serviceName, eng.Tripped)
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
			log.Info().Msg("executor stopped")
			return
		default:
		}

		if eng.Tripped() {
			log.Error().Msg("circuit breaker tripped, sleeping and skipping this cycle; a process restart is required to resume trading")
			cad.SmartSleep(ctx, breakerTrippedSleep)
			continue
		}

		traceID := tracing.NewTraceID()
		cycleCtx := tracing.WithTraceID(ctx, traceID)
		logger := tracing.Logger(cycleCtx)

		logger.Debug().Msg("executor cycle started")
		anySubmitted := eng.Cycle(cycleCtx, logger)
		logger.Debug().Msg("executor cycle completed")
		reporter.RecordCycle()

		if anySubmitted {
			cad.SmartSleep(ctx, cad.ActiveSleep())
			continue
		}
		sleep, err := cad.NextSleep(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to resolve next sleep, falling back to active cadence")
			sleep = cad.ActiveSleep()
		}
		cad.SmartSleep(ctx, sleep)
	}
}
