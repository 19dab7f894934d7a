// Command seedquotes is a local development fixture: it fetches one live
// quote per symbol argument from Binance or Yahoo Finance via
// internal/fixtures and inserts it as a 5-minute market_bars row, so a
// developer can populate a fresh database with real-looking prices before
// running the worker binaries against it by hand. It is not part of the
// production pipeline and is never invoked by any worker.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Headhunte-121/trading-bot/config"
	"github.com/Headhunte-121/trading-bot/internal/fixtures"
	"github.com/Headhunte-121/trading-bot/internal/store"
	"github.com/Headhunte-121/trading-bot/models"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flag.Parse()
	symbols := flag.Args()
	if len(symbols) == 0 {
		log.Fatal().Msg("usage: seedquotes SYMBOL [SYMBOL...]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	qs := fixtures.NewQuoteSource("", "")
	ctx := context.Background()
	now := time.Now().UTC()

	for _, symbol := range symbols {
		price, err := qs.LatestPrice(ctx, symbol)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to fetch quote")
			continue
		}

		if assetType, cerr := fixtures.Classify(symbol); cerr == nil {
			log.Info().Str("symbol", symbol).Str("asset_type", assetType).Float64("price", price).Msg("quote classified")
		}

		_, err = db.Exec(ctx,
			`INSERT INTO market_bars (symbol, timestamp, timeframe, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`,
			symbol, now, models.Timeframe5m, price, price, price, price, 0.0)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to insert fixture bar")
			continue
		}
		log.Info().Str("symbol", symbol).Float64("price", price).Msg("fixture bar seeded")
	}
}
