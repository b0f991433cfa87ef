// Package storecast orchestrates next-day visitor and sales forecasting
// for retail stores: it sequences history loading, feature engineering,
// model training, weather joining, and result caching into one prediction
// call per user and date.
package storecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/storefront-labs/storecast/cache"
	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/feature"
	"github.com/storefront-labs/storecast/forecast"
	"github.com/storefront-labs/storecast/weather"
)

// HistoryProvider supplies a user's daily visitor/sales history, oldest
// first.
type HistoryProvider interface {
	History(ctx context.Context, userID string) (*dailyseries.Series, error)
}

// Forecaster sequences a full train-and-predict pass per request, gated by
// a TTL result cache. Concurrent requests for the same user and date share
// one training run.
type Forecaster struct {
	opt     *Options
	history HistoryProvider
	weather weather.Provider
	builder *feature.Builder
	cache   *cache.Cache[*Result]
	group   singleflight.Group
	nowFunc func() time.Time
}

func New(history HistoryProvider, wx weather.Provider, opt *Options) (*Forecaster, error) {
	if history == nil {
		return nil, fmt.Errorf("%w, history provider", ErrNotConfigured)
	}
	if wx == nil {
		return nil, fmt.Errorf("%w, weather provider", ErrNotConfigured)
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Confidence == 0 {
		opt.Confidence = DefaultConfidence
	}
	if opt.TopFeatures == 0 {
		opt.TopFeatures = DefaultTopFeatures
	}
	nowFunc := opt.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	cacheOpt := opt.Cache
	if cacheOpt == nil {
		cacheOpt = cache.NewDefaultOptions()
	}
	if cacheOpt.NowFunc == nil {
		cacheOpt.NowFunc = nowFunc
	}
	return &Forecaster{
		opt:     opt,
		history: history,
		weather: wx,
		builder: feature.NewBuilder(opt.Builder),
		cache:   cache.New[*Result](cacheOpt),
		nowFunc: nowFunc,
	}, nil
}

// PredictNextDay forecasts tomorrow for the user's location.
func (f *Forecaster) PredictNextDay(ctx context.Context, userID string, loc weather.Location) (*Result, error) {
	return f.Predict(ctx, userID, loc, f.nowFunc().AddDate(0, 0, 1))
}

// Predict issues the forecast for the target date. The date must land
// between tomorrow and MaxHorizonDays ahead, midnight-resolved. A cached
// result is returned without retraining; otherwise history is featurized,
// both models are trained, and the assembled result is cached for the
// default TTL.
func (f *Forecaster) Predict(ctx context.Context, userID string, loc weather.Location, target time.Time) (*Result, error) {
	date, err := f.resolveDate(target)
	if err != nil {
		return nil, err
	}

	series, err := f.history.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching history for user %s, %w", userID, err)
	}
	if series.Len() < MinHistoryDays {
		return nil, fmt.Errorf("%w, got %d days need %d", forecast.ErrInsufficientData, series.Len(), MinHistoryDays)
	}

	wx := f.weather.Forecast(ctx, loc, date)

	key := cacheKey(userID, date)
	if res, ok := f.cache.Get(key); ok {
		f.hookCacheLookup(true)
		return res, nil
	}
	f.hookCacheLookup(false)

	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.trainAndPredict(ctx, userID, date, key, series, wx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (f *Forecaster) trainAndPredict(ctx context.Context, userID string, date time.Time, key string, series *dailyseries.Series, wx *weather.Forecast) (*Result, error) {
	// a concurrent caller may have landed the result while this one was
	// waiting its turn in the flight group
	if res, ok := f.cache.Get(key); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tbl, err := f.builder.Build(series)
	if err != nil {
		return nil, fmt.Errorf("building features for user %s, %w", userID, err)
	}

	model := forecast.New(f.opt.Model)
	start := f.nowFunc()
	err = model.Fit(tbl)
	f.hookTrainingDone(f.nowFunc().Sub(start), err)
	if err != nil {
		return nil, fmt.Errorf("training models for user %s, %w", userID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := weather.ImpactFeatures(wx)
	row, err := f.builder.PredictionRow(tbl, date, &values)
	if err != nil {
		return nil, fmt.Errorf("building prediction row, %w", err)
	}
	pred, err := model.Predict(row, f.opt.Confidence)
	if err != nil {
		return nil, fmt.Errorf("predicting, %w", err)
	}

	scores := model.Scores()
	res := &Result{
		UserID:         userID,
		PredictionDate: date.Format("2006-01-02"),
		Visitors:       pred.Visitors,
		Sales:          pred.Sales,
		Weather:        wx,
		ModelVersion:   ModelVersion,
		Metrics: Metrics{
			VisitorMAE:        round2(scores.VisitorMAE),
			VisitorMAPE:       roundPct(scores.VisitorMAPE),
			SalesMAE:          round2(scores.SalesMAE),
			SalesMAPE:         roundPct(scores.SalesMAPE),
			TrainingSamples:   model.TrainingRows(),
			ValidationSamples: model.ValidationRows(),
			TopFeatures:       model.TopFeatures(f.opt.TopFeatures),
		},
	}
	f.cache.Set(key, res)
	f.hookPredictionIssued(ctx, res)

	f.opt.Logger.Info().
		Str("user_id", userID).
		Str("date", res.PredictionDate).
		Float64("visitors", res.Visitors.Point).
		Float64("sales", res.Sales.Point).
		Msg("prediction issued")
	return res, nil
}

// InvalidateUser drops every cached prediction for the user, forcing the
// next request to retrain. Returns how many entries were removed.
func (f *Forecaster) InvalidateUser(userID string) int {
	return f.cache.Invalidate(userID + "_")
}

// CacheStats snapshots the result cache occupancy.
func (f *Forecaster) CacheStats() cache.Stats {
	return f.cache.Stats()
}

// resolveDate normalizes the target to midnight and enforces the horizon:
// strictly after today, at most MaxHorizonDays ahead.
func (f *Forecaster) resolveDate(target time.Time) (time.Time, error) {
	date := dailyseries.Midnight(target)
	today := dailyseries.Midnight(f.nowFunc())
	ahead := int(date.Sub(today).Hours() / 24)
	if ahead < 1 || ahead > MaxHorizonDays {
		return time.Time{}, fmt.Errorf("%w, %s is %d days from today", ErrInvalidDate, date.Format("2006-01-02"), ahead)
	}
	return date, nil
}

func cacheKey(userID string, date time.Time) string {
	return fmt.Sprintf("%s_%s", userID, date.Format("2006-01-02"))
}

func (f *Forecaster) hookCacheLookup(hit bool) {
	if f.opt.Hooks.CacheLookup != nil {
		f.opt.Hooks.CacheLookup(hit)
	}
}

func (f *Forecaster) hookTrainingDone(elapsed time.Duration, err error) {
	if f.opt.Hooks.TrainingDone != nil {
		f.opt.Hooks.TrainingDone(elapsed, err)
	}
}

func (f *Forecaster) hookPredictionIssued(ctx context.Context, res *Result) {
	if f.opt.Hooks.PredictionIssued != nil {
		f.opt.Hooks.PredictionIssued(ctx, res)
	}
}

// roundPct converts a fractional error to a percentage rounded to two
// decimals.
func roundPct(v float64) float64 {
	return math.Round(v*10000) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
