package storecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/forecast"
	"github.com/storefront-labs/storecast/weather"
)

type fakeHistory struct {
	series *dailyseries.Series
	err    error
	calls  int
}

func (f *fakeHistory) History(_ context.Context, _ string) (*dailyseries.Series, error) {
	f.calls++
	return f.series, f.err
}

type fakeWeather struct{}

func (fakeWeather) Forecast(_ context.Context, _ weather.Location, date time.Time) *weather.Forecast {
	return weather.Seasonal(date)
}

var testNow = time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)

// oscillatingHistory is 35 days of visitors swinging 80..120 with sales
// proportional at 1000x, ending yesterday relative to testNow.
func oscillatingHistory(t *testing.T, n int) *fakeHistory {
	t.Helper()
	dates := dailyseries.GenerateDates(n, func() time.Time { return testNow })
	visitors := dailyseries.GenerateWeeklyWave(n, 100, 20)
	sales := dailyseries.Scale(visitors, 1000)
	s, err := dailyseries.New(dates, visitors, sales)
	require.NoError(t, err)
	return &fakeHistory{series: s}
}

func newTestForecaster(t *testing.T, h HistoryProvider, opt *Options) *Forecaster {
	t.Helper()
	if opt == nil {
		opt = NewDefaultOptions()
	}
	opt.NowFunc = func() time.Time { return testNow }
	f, err := New(h, fakeWeather{}, opt)
	require.NoError(t, err)
	return f
}

func TestPredictEndToEnd(t *testing.T) {
	f := newTestForecaster(t, oscillatingHistory(t, 35), nil)

	res, err := f.PredictNextDay(context.Background(), "user123", weather.Location{Lat: 35.68, Lon: 139.76})
	require.NoError(t, err)

	assert.Equal(t, "user123", res.UserID)
	assert.Equal(t, "2025-05-13", res.PredictionDate)
	assert.Equal(t, ModelVersion, res.ModelVersion)
	require.NotNil(t, res.Weather)
	assert.Equal(t, weather.SourceSeasonal, res.Weather.Source)

	// the series oscillates 80..120, the point estimate should stay near it
	assert.InDelta(t, 100, res.Visitors.Point, 40)
	assert.InDelta(t, 100000, res.Sales.Point, 40000)
	for _, v := range []forecast.Value{res.Visitors, res.Sales} {
		assert.LessOrEqual(t, v.Lower, v.Point)
		assert.LessOrEqual(t, v.Point, v.Upper)
		assert.GreaterOrEqual(t, v.Lower, 0.0)
	}

	// 35 clean rows split chronologically 28 train / 7 validation
	assert.Equal(t, 28, res.Metrics.TrainingSamples)
	assert.Equal(t, 7, res.Metrics.ValidationSamples)
	assert.Equal(t, 35, res.Metrics.TrainingSamples+res.Metrics.ValidationSamples)
	assert.Len(t, res.Metrics.TopFeatures, DefaultTopFeatures)
	assert.Greater(t, res.Metrics.VisitorMAE, 0.0)
	assert.Greater(t, res.Metrics.VisitorMAPE, 0.0)
	assert.Greater(t, res.Metrics.SalesMAE, 0.0)
}

func TestPredictCacheHit(t *testing.T) {
	h := oscillatingHistory(t, 35)
	var trainings int
	opt := NewDefaultOptions()
	opt.Hooks = Hooks{
		TrainingDone: func(time.Duration, error) { trainings++ },
	}
	f := newTestForecaster(t, h, opt)

	loc := weather.Location{}
	first, err := f.PredictNextDay(context.Background(), "user123", loc)
	require.NoError(t, err)
	second, err := f.PredictNextDay(context.Background(), "user123", loc)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, trainings, "a cache hit must not retrain")
	// history is refetched per request, the cache only gates training
	assert.Equal(t, 2, h.calls)
}

func TestPredictionIssuedHook(t *testing.T) {
	var issued []*Result
	opt := NewDefaultOptions()
	opt.Hooks = Hooks{
		PredictionIssued: func(_ context.Context, res *Result) { issued = append(issued, res) },
	}
	f := newTestForecaster(t, oscillatingHistory(t, 35), opt)
	loc := weather.Location{}

	first, err := f.PredictNextDay(context.Background(), "user123", loc)
	require.NoError(t, err)
	_, err = f.PredictNextDay(context.Background(), "user123", loc)
	require.NoError(t, err)

	// fires once for the fresh training, not for the cache hit
	require.Len(t, issued, 1)
	assert.Same(t, first, issued[0])
}

func TestPredictInvalidDate(t *testing.T) {
	f := newTestForecaster(t, oscillatingHistory(t, 35), nil)
	ctx := context.Background()
	loc := weather.Location{}

	for name, target := range map[string]time.Time{
		"today":        testNow,
		"yesterday":    testNow.AddDate(0, 0, -1),
		"past horizon": testNow.AddDate(0, 0, 15),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.Predict(ctx, "user123", loc, target)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}

	// horizon edge is inclusive
	_, err := f.Predict(ctx, "user123", loc, testNow.AddDate(0, 0, 14))
	assert.NoError(t, err)
}

func TestPredictInsufficientData(t *testing.T) {
	f := newTestForecaster(t, oscillatingHistory(t, 29), nil)

	_, err := f.PredictNextDay(context.Background(), "user123", weather.Location{})
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
}

func TestPredictHistoryError(t *testing.T) {
	f := newTestForecaster(t, &fakeHistory{err: assert.AnError}, nil)

	_, err := f.PredictNextDay(context.Background(), "user123", weather.Location{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestInvalidateUser(t *testing.T) {
	var trainings int
	opt := NewDefaultOptions()
	opt.Hooks = Hooks{
		TrainingDone: func(time.Duration, error) { trainings++ },
	}
	f := newTestForecaster(t, oscillatingHistory(t, 35), opt)
	ctx := context.Background()
	loc := weather.Location{}

	_, err := f.PredictNextDay(ctx, "user123", loc)
	require.NoError(t, err)
	assert.Equal(t, 1, f.CacheStats().Total)

	assert.Equal(t, 1, f.InvalidateUser("user123"))
	assert.Equal(t, 0, f.CacheStats().Total)
	assert.Equal(t, 0, f.InvalidateUser("user123"))

	_, err = f.PredictNextDay(ctx, "user123", loc)
	require.NoError(t, err)
	assert.Equal(t, 2, trainings, "invalidation must force a retrain")
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(nil, fakeWeather{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(&fakeHistory{}, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
