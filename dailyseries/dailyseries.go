// Package dailyseries stores ordered per-day business observations, one row
// per calendar date, used as training input for the forecasting pipeline.
package dailyseries

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNoObservations    = errors.New("no observations")
	ErrSeriesLenMismatch = errors.New("observation column has a different length than dates")
	ErrDuplicateDate     = errors.New("duplicate calendar date")
)

// Series is an ordered daily time series with visitor counts and sales
// amounts per date. Dates are normalized to midnight and strictly increasing.
// Either observation column may be nil when that target is not tracked.
type Series struct {
	Dates    []time.Time
	Visitors []float64
	Sales    []float64
}

// New builds a Series from parallel slices. Rows are sorted by date and
// duplicate dates are rejected.
func New(dates []time.Time, visitors, sales []float64) (*Series, error) {
	if len(dates) == 0 {
		return nil, ErrNoObservations
	}
	if visitors != nil && len(visitors) != len(dates) {
		return nil, fmt.Errorf(
			"dates has length %d, but visitors has length %d, %w",
			len(dates), len(visitors), ErrSeriesLenMismatch,
		)
	}
	if sales != nil && len(sales) != len(dates) {
		return nil, fmt.Errorf(
			"dates has length %d, but sales has length %d, %w",
			len(dates), len(sales), ErrSeriesLenMismatch,
		)
	}

	idx := make([]int, len(dates))
	for i := range idx {
		idx[i] = i
	}
	day := make([]time.Time, len(dates))
	for i, d := range dates {
		day[i] = Midnight(d)
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return day[idx[i]].Before(day[idx[j]])
	})

	s := &Series{Dates: make([]time.Time, 0, len(dates))}
	if visitors != nil {
		s.Visitors = make([]float64, 0, len(dates))
	}
	if sales != nil {
		s.Sales = make([]float64, 0, len(dates))
	}
	var lastDate time.Time
	for _, i := range idx {
		if !lastDate.IsZero() && day[i].Equal(lastDate) {
			return nil, fmt.Errorf("%s, %w", day[i].Format("2006-01-02"), ErrDuplicateDate)
		}
		lastDate = day[i]
		s.Dates = append(s.Dates, day[i])
		if visitors != nil {
			s.Visitors = append(s.Visitors, visitors[i])
		}
		if sales != nil {
			s.Sales = append(s.Sales, sales[i])
		}
	}
	return s, nil
}

// Len returns the number of daily observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Dates)
}

func (s *Series) Copy() *Series {
	if s == nil {
		return nil
	}
	cp := &Series{Dates: make([]time.Time, len(s.Dates))}
	copy(cp.Dates, s.Dates)
	if s.Visitors != nil {
		cp.Visitors = make([]float64, len(s.Visitors))
		copy(cp.Visitors, s.Visitors)
	}
	if s.Sales != nil {
		cp.Sales = make([]float64, len(s.Sales))
		copy(cp.Sales, s.Sales)
	}
	return cp
}

// Midnight truncates a time to its calendar date in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
