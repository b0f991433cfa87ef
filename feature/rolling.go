package feature

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// rollingMean computes the trailing-window moving average with a minimum of
// one observation, so values are emitted from the first row onward.
func rollingMean(y []float64, window int) []float64 {
	res := make([]float64, len(y))
	var sum float64
	for i := 0; i < len(y); i++ {
		sum += y[i]
		if i >= window {
			sum -= y[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		res[i] = sum / float64(n)
	}
	return res
}

// rollingStd computes the trailing-window sample standard deviation. A
// window holding a single observation has no spread and yields 0.
func rollingStd(y []float64, window int) []float64 {
	res := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		n := i - start + 1
		if n < 2 {
			res[i] = 0
			continue
		}
		res[i] = stat.StdDev(y[start:i+1], nil)
	}
	return res
}

func rollingMax(y []float64, window int) []float64 {
	return rollingExtreme(y, window, func(a, b float64) bool { return a > b })
}

func rollingMin(y []float64, window int) []float64 {
	return rollingExtreme(y, window, func(a, b float64) bool { return a < b })
}

func rollingExtreme(y []float64, window int, better func(a, b float64) bool) []float64 {
	res := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		best := y[start]
		for j := start + 1; j <= i; j++ {
			if better(y[j], best) {
				best = y[j]
			}
		}
		res[i] = best
	}
	return res
}

// lag shifts the series by offset rows. The first offset rows are missing.
func lag(y []float64, offset int) []float64 {
	res := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		if i < offset {
			res[i] = math.NaN()
			continue
		}
		res[i] = y[i-offset]
	}
	return res
}

func diff(y []float64, period int) []float64 {
	res := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		if i < period {
			res[i] = math.NaN()
			continue
		}
		res[i] = y[i] - y[i-period]
	}
	return res
}

// pctChange computes the fractional change over period rows. A zero base
// value produces an infinity which the table scrub replaces with 0.
func pctChange(y []float64, period int) []float64 {
	res := make([]float64, len(y))
	for i := 0; i < len(y); i++ {
		if i < period {
			res[i] = math.NaN()
			continue
		}
		res[i] = (y[i] - y[i-period]) / y[i-period]
	}
	return res
}

// rollingTrend fits an ordinary least squares slope of the trailing window
// values against a 0-based time index. Windows with fewer than two points
// yield slope 0, and any non-finite fit result is absorbed to 0 so one bad
// window never aborts the whole feature table.
func rollingTrend(y []float64, window int) []float64 {
	res := make([]float64, len(y))
	xs := make([]float64, 0, window)
	ys := make([]float64, 0, window)
	for i := 0; i < len(y); i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		xs = xs[:0]
		ys = ys[:0]
		for j := start; j <= i; j++ {
			if math.IsNaN(y[j]) {
				continue
			}
			xs = append(xs, float64(j-start))
			ys = append(ys, y[j])
		}
		if len(xs) < 2 {
			res[i] = 0
			continue
		}
		_, slope := stat.LinearRegression(xs, ys, nil, false)
		if math.IsNaN(slope) || math.IsInf(slope, 0) {
			slope = 0
		}
		res[i] = slope
	}
	return res
}
