package models

import "time"

// ExecutedTrade is an append-only fill record written by the Executor when
// a SUBMITTED signal's order reports filled. Never updated once inserted.
type ExecutedTrade struct {
	ID         int64      `json:"id" db:"id"`
	Symbol     string     `json:"symbol" db:"symbol"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	Price      float64    `json:"price" db:"price"`
	Qty        float64    `json:"qty" db:"qty"`
	Side       OrderSide  `json:"side" db:"side"`
	SignalType SignalType `json:"signal_type" db:"signal_type"`
}
