// Package indicators provides the pure technical-analysis functions the
// Indicator Engine (C3) computes over a symbol's bar history. Every function
// here is a pure slice transform with no I/O, so the Indicator Engine worker
// owns all store access and calls these as plain math.
package indicators

import "math"

// SMA calculates the Simple Moving Average over a trailing window of period.
// Indices before the window fills hold math.NaN().
func SMA(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	sma := make([]float64, len(data))
	for i := 0; i < len(data); i++ {
		if i < period-1 {
			sma[i] = math.NaN()
			continue
		}
		var sum float64
		for j := 0; j < period; j++ {
			sum += data[i-j]
		}
		sma[i] = sum / float64(period)
	}
	return sma
}

// EMA calculates the Exponential Moving Average, seeding the first value
// with the SMA of the initial window.
func EMA(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	ema := make([]float64, len(data))
	k := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := 0; i < period-1; i++ {
		ema[i] = math.NaN()
	}

	for i := period; i < len(data); i++ {
		ema[i] = (data[i]-ema[i-1])*k + ema[i-1]
	}
	return ema
}

// StdDev calculates the rolling standard deviation over period.
func StdDev(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	stdDev := make([]float64, len(data))
	sma := SMA(data, period)

	for i := 0; i < len(data); i++ {
		if i < period-1 {
			stdDev[i] = math.NaN()
			continue
		}
		var varianceSum float64
		for j := 0; j < period; j++ {
			diff := data[i-j] - sma[i]
			varianceSum += diff * diff
		}
		stdDev[i] = math.Sqrt(varianceSum / float64(period))
	}
	return stdDev
}

// RSI calculates the Relative Strength Index using Wilder's smoothing.
func RSI(data []float64, period int) []float64 {
	if len(data) < period+1 || period <= 0 {
		return nil
	}
	rsi := make([]float64, len(data))

	gains := make([]float64, len(data))
	losses := make([]float64, len(data))

	for i := 1; i < len(data); i++ {
		change := data[i] - data[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}

	if avgLoss == 0 {
		rsi[period] = 100
	} else {
		rs := avgGain / avgLoss
		rsi[period] = 100 - (100 / (1 + rs))
	}

	for i := period + 1; i < len(data); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)

		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	return rsi
}

// BollingerBands calculates the Upper, Middle (SMA) and Lower bands.
func BollingerBands(data []float64, period int, stdDevMultiplier float64) ([]float64, []float64, []float64) {
	middle := SMA(data, period)
	if middle == nil {
		return nil, nil, nil
	}
	std := StdDev(data, period)
	upper := make([]float64, len(data))
	lower := make([]float64, len(data))

	for i := 0; i < len(data); i++ {
		if math.IsNaN(middle[i]) {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		upper[i] = middle[i] + (std[i] * stdDevMultiplier)
		lower[i] = middle[i] - (std[i] * stdDevMultiplier)
	}
	return upper, middle, lower
}

// ATR calculates the Average True Range over period using Wilder's
// smoothing, from parallel high/low/close slices of equal length.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	if n < period+1 || period <= 0 || len(high) != n || len(low) != n {
		return nil
	}

	tr := make([]float64, n)
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	atr := make([]float64, n)
	for i := 0; i < period; i++ {
		atr[i] = math.NaN()
	}
	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr[period] = sum / float64(period)

	for i := period + 1; i < n; i++ {
		atr[i] = (atr[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return atr
}

// SessionVWAP calculates the volume-weighted average price accumulated from
// the start of a single trading session's bars (typical price weighted by
// volume, cumulative since index 0 of the slice). Callers must pass only
// bars from the current session; VWAP resets at the session boundary.
func SessionVWAP(high, low, close, volume []float64) []float64 {
	n := len(close)
	if n == 0 || len(high) != n || len(low) != n || len(volume) != n {
		return nil
	}
	vwap := make([]float64, n)
	var cumPV, cumV float64
	for i := 0; i < n; i++ {
		typical := (high[i] + low[i] + close[i]) / 3
		cumPV += typical * volume[i]
		cumV += volume[i]
		if cumV == 0 {
			vwap[i] = math.NaN()
			continue
		}
		vwap[i] = cumPV / cumV
	}
	return vwap
}

// VolumeSMA is the Simple Moving Average applied to a volume series; a thin
// name alias over SMA so call sites read as "volume_sma_20" rather than a
// generic moving average.
func VolumeSMA(volume []float64, period int) []float64 {
	return SMA(volume, period)
}
