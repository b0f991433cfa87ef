package dailyseries

import (
	"math"
	"time"
)

// GenerateDates returns n consecutive daily dates ending on the day before
// nowFunc's date, matching the shape of an uploaded history.
func GenerateDates(n int, nowFunc func() time.Time) []time.Time {
	end := Midnight(nowFunc())
	dates := make([]time.Time, 0, n)
	for i := n; i > 0; i-- {
		dates = append(dates, end.AddDate(0, 0, -i))
	}
	return dates
}

// GenerateWeeklyWave returns n daily values oscillating around base with a
// weekly period, for simulating visitor traffic in tests.
func GenerateWeeklyWave(n int, base, amp float64) []float64 {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, base+amp*math.Sin(2.0*math.Pi*float64(i)/7.0))
	}
	return y
}

// Scale returns a copy of src with every value multiplied by f. Used to
// derive a proportional sales series from a visitor series.
func Scale(src []float64, f float64) []float64 {
	y := make([]float64, len(src))
	for i, v := range src {
		y[i] = v * f
	}
	return y
}
