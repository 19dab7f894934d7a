// Package fixtures builds a quote source for local testing and backtest
// fixtures: it fetches a single live quote per symbol from Binance (crypto,
// "/USD"-suffixed) or Yahoo Finance (equities) and returns the price to the
// caller (cmd/seedquotes writes it as a market_bars row). It exists purely as a developer
// convenience for populating fixtures by hand — the ingestion pipeline that
// would continuously feed market_bars is out of scope; nothing in the
// worker cycle path imports this package.
package fixtures

import (
	"context"
	"fmt"
	"strings"

	binance "github.com/adshao/go-binance/v2"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// QuoteSource fetches a single current price for a symbol, choosing the
// upstream provider by the same "/USD" suffix convention the Risk Manager
// uses to tell crypto pairs from equities.
type QuoteSource struct {
	binanceClient *binance.Client
}

// NewQuoteSource constructs a QuoteSource. apiKey/apiSecret are optional:
// both Binance's public price ticker and Yahoo's quote endpoint work
// unauthenticated, matching the teacher's BinanceProvider default.
func NewQuoteSource(apiKey, apiSecret string) *QuoteSource {
	return &QuoteSource{binanceClient: binance.NewClient(apiKey, apiSecret)}
}

// LatestPrice returns the current price for symbol.
func (q *QuoteSource) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	if strings.Contains(symbol, "/USD") {
		return q.binancePrice(ctx, symbol)
	}
	return yahooPrice(symbol)
}

// binancePair strips the "/USD" separator to the bare BTCUSDT-style pair
// Binance's ticker expects.
func binancePair(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "") + "T"
}

func (q *QuoteSource) binancePrice(ctx context.Context, symbol string) (float64, error) {
	pair := binancePair(symbol)
	prices, err := q.binanceClient.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price lookup for %s: %w", pair, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance returned no price for %s", pair)
	}
	var price float64
	if _, err := fmt.Sscanf(prices[0].Price, "%f", &price); err != nil {
		return 0, fmt.Errorf("parse binance price %q: %w", prices[0].Price, err)
	}
	return price, nil
}

// yahooPrice fetches a single quote via piquette/finance-go, whose REST
// conventions the Executor's own broker interface borrows for the paper
// fallback path.
func yahooPrice(symbol string) (float64, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("yahoo quote lookup for %s: %w", symbol, err)
	}
	if q == nil {
		return 0, fmt.Errorf("yahoo returned no quote for %s", symbol)
	}
	return q.RegularMarketPrice, nil
}

// Classify fetches a full quote via piquette/finance-go and reports its
// asset type ("EQUITY", "CRYPTOCURRENCY", ...), so fixture tooling can warn
// before seeding a symbol under the wrong sizing branch.
func Classify(symbol string) (string, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return "", fmt.Errorf("yahoo quote lookup for %s: %w", symbol, err)
	}
	return quoteType(q), nil
}

func quoteType(q *finance.Quote) string {
	if q == nil {
		return ""
	}
	return string(q.QuoteType)
}
