package storecast

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storecast/cache"
	"github.com/storefront-labs/storecast/feature"
	"github.com/storefront-labs/storecast/forecast"
)

const (
	// ModelVersion tags every issued prediction.
	ModelVersion = "v1.0.0-gbt"

	// MinHistoryDays is the shortest history a prediction trains on.
	MinHistoryDays = 30

	// MaxHorizonDays bounds how far ahead a prediction date may lie.
	MaxHorizonDays = 14

	// DefaultConfidence is the interval coverage used when the caller does
	// not pick one.
	DefaultConfidence = 0.9

	// DefaultTopFeatures is how many feature importances a result reports.
	DefaultTopFeatures = 5
)

// Hooks are optional observation points for the service layer. Nil hooks
// are skipped.
type Hooks struct {
	// CacheLookup fires on every cache consultation with the outcome.
	CacheLookup func(hit bool)

	// TrainingDone fires after each training run with its wall time and
	// outcome.
	TrainingDone func(elapsed time.Duration, err error)

	// PredictionIssued fires once per freshly trained result, after it is
	// cached. Cache hits do not refire it. Persistence hangs off this hook;
	// hook failures must not fail the request.
	PredictionIssued func(ctx context.Context, res *Result)
}

// Options configures a Forecaster.
type Options struct {
	// Confidence is the interval coverage of issued predictions.
	Confidence float64

	// TopFeatures is how many importances each result carries.
	TopFeatures int

	Builder *feature.BuilderOptions
	Model   *forecast.Options
	Cache   *cache.Options

	Logger  zerolog.Logger
	NowFunc func() time.Time

	Hooks Hooks
}

func NewDefaultOptions() *Options {
	return &Options{
		Confidence:  DefaultConfidence,
		TopFeatures: DefaultTopFeatures,
		Logger:      zerolog.Nop(),
	}
}
