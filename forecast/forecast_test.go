package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T, n int) *feature.Table {
	t.Helper()
	start := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	visitors := dailyseries.GenerateWeeklyWave(n, 100, 30)
	sales := dailyseries.Scale(visitors, 1500)
	s, err := dailyseries.New(dates, visitors, sales)
	require.NoError(t, err)

	tbl, err := feature.NewBuilder(nil).Build(s)
	require.NoError(t, err)
	return tbl
}

func TestFitMinimumRows(t *testing.T) {
	m := New(nil)
	err := m.Fit(testTable(t, 29))
	assert.ErrorIs(t, err, ErrInsufficientData)

	m = New(nil)
	assert.NoError(t, m.Fit(testTable(t, 30)))
	assert.Equal(t, 30, m.TrainingRows()+m.ValidationRows())
}

func TestFitMissingTarget(t *testing.T) {
	tbl := testTable(t, 35)
	tbl.Sales = nil
	assert.ErrorIs(t, New(nil).Fit(tbl), ErrMissingTarget)
}

func TestFitValidationSplit(t *testing.T) {
	// 30 rows split 24 train / 6 validation, so the validation scores are
	// computed over a real holdout and come back positive
	m := New(nil)
	require.NoError(t, m.Fit(testTable(t, 30)))

	assert.Equal(t, 24, m.TrainingRows())
	assert.Equal(t, 6, m.ValidationRows())

	s := m.Scores()
	assert.Greater(t, s.VisitorMAE, 0.0)
	assert.Greater(t, s.VisitorRMSE, 0.0)
	assert.Greater(t, s.VisitorMAPE, 0.0)
	assert.Greater(t, s.SalesMAE, 0.0)
	assert.Greater(t, s.SalesRMSE, 0.0)
	assert.Greater(t, s.SalesMAPE, 0.0)
}

func TestPredictBounds(t *testing.T) {
	tbl := testTable(t, 60)
	m := New(nil)
	require.NoError(t, m.Fit(tbl))

	b := feature.NewBuilder(nil)
	row, err := b.PredictionRow(tbl, tbl.Dates[len(tbl.Dates)-1].AddDate(0, 0, 1), nil)
	require.NoError(t, err)

	pred, err := m.Predict(row, 0.9)
	require.NoError(t, err)

	for _, v := range []Value{pred.Visitors, pred.Sales} {
		assert.LessOrEqual(t, v.Lower, v.Point)
		assert.LessOrEqual(t, v.Point, v.Upper)
		assert.GreaterOrEqual(t, v.Lower, 0.0)
	}
	// visitor values come back as whole counts
	assert.Equal(t, math.Trunc(pred.Visitors.Point), pred.Visitors.Point)
	assert.Equal(t, math.Trunc(pred.Visitors.Lower), pred.Visitors.Lower)
	assert.Equal(t, math.Trunc(pred.Visitors.Upper), pred.Visitors.Upper)

	// the series oscillates around 100 visitors, prediction should too
	assert.InDelta(t, 100, pred.Visitors.Point, 50)
}

func TestPredictConfidenceWidth(t *testing.T) {
	tbl := testTable(t, 60)
	m := New(nil)
	require.NoError(t, m.Fit(tbl))

	b := feature.NewBuilder(nil)
	row, err := b.PredictionRow(tbl, tbl.Dates[len(tbl.Dates)-1].AddDate(0, 0, 1), nil)
	require.NoError(t, err)

	narrow, err := m.Predict(row, 0.9)
	require.NoError(t, err)
	wide, err := m.Predict(row, 0.95)
	require.NoError(t, err)

	// any confidence other than exactly 0.9 uses the wider critical value
	assert.Less(t, narrow.Sales.Upper-narrow.Sales.Lower, wide.Sales.Upper-wide.Sales.Lower)
}

func TestPredictUntrained(t *testing.T) {
	_, err := New(nil).Predict(feature.Row{}, 0.9)
	assert.ErrorIs(t, err, ErrUntrainedModel)
}

func TestFeatureImportance(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Fit(testTable(t, 60)))

	imp := m.FeatureImportance()
	require.NotEmpty(t, imp)
	for i := 1; i < len(imp); i++ {
		assert.GreaterOrEqual(t, imp[i-1].Gain, imp[i].Gain)
	}

	top := m.TopFeatures(5)
	assert.Len(t, top, 5)
	assert.Equal(t, imp[0].Feature, top[0])

	assert.Len(t, m.TopFeatures(10000), len(imp))
}

func TestScoreFuncs(t *testing.T) {
	pred := []float64{110, 90}
	actual := []float64{100, 100}

	mae, err := MAE(pred, actual)
	require.NoError(t, err)
	assert.InDelta(t, 10, mae, 1e-9)

	rmse, err := RMSE(pred, actual)
	require.NoError(t, err)
	assert.InDelta(t, 10, rmse, 1e-9)

	mape, err := MAPE([]float64{110, 90, 7}, []float64{100, 100, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, mape, 1e-9)

	_, err = MAE([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrPredActualLenMismatch)
	_, err = RMSE([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrPredActualLenMismatch)
	_, err = MAPE([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrPredActualLenMismatch)

	mape, err = MAPE([]float64{5}, []float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, mape)
}
