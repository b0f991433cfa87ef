// Package feature defines the engineered feature columns derived from a
// daily series along with containers for assembling them into tables, rows,
// and matrices for model fitting.
package feature

type Type int

const (
	// TypeCalendar features are derived purely from the calendar date and
	// are recomputed from scratch for a prediction date.
	TypeCalendar Type = iota
	// TypeCyclical features are sine/cosine encodings of periodic calendar
	// fields, also recomputed for a prediction date.
	TypeCyclical
	// TypeDerived features are rolling/lag/trend/seasonal statistics of a
	// target column and are carried forward from the last historical row.
	TypeDerived
	// TypeWeather features come from the weather forecast for a date.
	TypeWeather
)

type Feature interface {
	String() string
	Type() Type
}
