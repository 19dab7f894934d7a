package models

import "time"

// Forecast is the ensemble price prediction for a symbol at a given
// timestamp, written by the Forecaster (C4). EnsemblePredictedPrice always
// satisfies 0.7*Large + 0.3*Small — enforced by NewForecast rather than
// trusted at every call site.
type Forecast struct {
	Symbol                 string    `json:"symbol" db:"symbol"`
	Timestamp              time.Time `json:"timestamp" db:"timestamp"`
	CurrentPrice           float64   `json:"current_price" db:"current_price"`
	SmallPredictedPrice    float64   `json:"small_predicted_price" db:"small_predicted_price"`
	LargePredictedPrice    float64   `json:"large_predicted_price" db:"large_predicted_price"`
	EnsemblePredictedPrice float64   `json:"ensemble_predicted_price" db:"ensemble_predicted_price"`
	EnsemblePctChange      float64   `json:"ensemble_pct_change" db:"ensemble_pct_change"`
}

// ensembleWeightLarge and ensembleWeightSmall are the fixed ensemble
// weights from spec §4.4; they are not configurable.
const (
	ensembleWeightLarge = 0.7
	ensembleWeightSmall = 0.3
)

// NewForecast builds a Forecast with the ensemble fields derived from the
// small/large predictions, guaranteeing P4 (|ensemble - weighted sum| < 1e-6)
// by construction instead of leaving it to caller discipline.
func NewForecast(symbol string, ts time.Time, currentPrice, small, large float64) Forecast {
	ensemble := ensembleWeightLarge*large + ensembleWeightSmall*small
	var pctChange float64
	if currentPrice != 0 {
		pctChange = (ensemble - currentPrice) / currentPrice * 100
	}
	return Forecast{
		Symbol:                 symbol,
		Timestamp:              ts,
		CurrentPrice:           currentPrice,
		SmallPredictedPrice:    small,
		LargePredictedPrice:    large,
		EnsemblePredictedPrice: ensemble,
		EnsemblePctChange:      pctChange,
	}
}
