// Package holiday wraps the national holiday calendar for the deployment
// locale behind a small lookup interface.
package holiday

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

// Calendar reports whether a calendar date is a public holiday.
type Calendar interface {
	IsHoliday(t time.Time) bool
}

// Japan is the Japanese national holiday calendar.
type Japan struct {
	cal *cal.Calendar
}

func NewJapan() *Japan {
	c := &cal.Calendar{}
	c.AddHoliday(jp.Holidays...)
	return &Japan{cal: c}
}

func (j *Japan) IsHoliday(t time.Time) bool {
	actual, observed, _ := j.cal.IsHoliday(t)
	return actual || observed
}

// Func adapts a plain function to the Calendar interface, primarily for
// tests with synthetic holiday schedules.
type Func func(t time.Time) bool

func (f Func) IsHoliday(t time.Time) bool {
	return f(t)
}
