package storecast

import "errors"

var (
	// ErrInvalidDate occurs when the target date falls outside the
	// supported 1 to 14 day horizon.
	ErrInvalidDate = errors.New("prediction date outside supported horizon")

	// ErrNotConfigured occurs when the forecaster is built without a
	// required collaborator.
	ErrNotConfigured = errors.New("forecaster missing required dependency")
)
