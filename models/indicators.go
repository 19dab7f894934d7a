package models

import "time"

// Indicators is the per-(symbol, timestamp, timeframe) technical snapshot
// written by the Indicator Engine. Fields are pointers so a missing value
// round-trips as SQL NULL rather than a sentinel zero, per the "missing
// values represented as null" invariant.
type Indicators struct {
	Symbol      string    `json:"symbol" db:"symbol"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Timeframe   Timeframe `json:"timeframe" db:"timeframe"`
	RSI14       *float64  `json:"rsi_14" db:"rsi_14"`
	SMA50       *float64  `json:"sma_50" db:"sma_50"`
	SMA200      *float64  `json:"sma_200" db:"sma_200"`
	LowerBB     *float64  `json:"lower_bb" db:"lower_bb"`
	VWAP        *float64  `json:"vwap" db:"vwap"`
	ATR14       *float64  `json:"atr_14" db:"atr_14"`
	VolumeSMA20 *float64  `json:"volume_sma_20" db:"volume_sma_20"`
}

// Complete reports whether every field the Strategy Engine's entry
// evaluator depends on is present, per spec §4.5's skip rule.
func (i Indicators) Complete() bool {
	return i.SMA200 != nil && i.RSI14 != nil && i.VWAP != nil &&
		i.ATR14 != nil && i.VolumeSMA20 != nil
}
