package models

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weeklyData simulates a daily pattern keyed on the first feature, with a
// second pure-noise feature.
func weeklyData(n int, seed uint64) ([][]float64, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		dow := float64(i % 7)
		x[i] = []float64{dow, rng.Float64()}
		y[i] = 100 + 5*math.Sin(2*math.Pi*dow/7)
	}
	return x, y
}

func TestGBTFitQuality(t *testing.T) {
	x, y := weeklyData(140, 7)
	opt := NewDefaultGBTOptions()
	opt.NumRounds = 300
	m := NewGBT(opt)
	require.NoError(t, m.Fit(x, y, nil, nil))

	pred, err := m.PredictBatch(x)
	require.NoError(t, err)
	assert.Less(t, EvalMAE.Score(pred, y), 2.0)
}

func TestGBTDeterminism(t *testing.T) {
	x, y := weeklyData(140, 7)

	a := NewGBT(nil)
	require.NoError(t, a.Fit(x, y, nil, nil))
	b := NewGBT(nil)
	require.NoError(t, b.Fit(x, y, nil, nil))

	predA, err := a.PredictBatch(x)
	require.NoError(t, err)
	predB, err := b.PredictBatch(x)
	require.NoError(t, err)
	assert.Equal(t, predA, predB)
}

func TestGBTEarlyStop(t *testing.T) {
	x, y := weeklyData(140, 7)
	xVal, yVal := weeklyData(35, 11)

	opt := NewDefaultGBTOptions()
	opt.NumRounds = 500
	m := NewGBT(opt)
	require.NoError(t, m.Fit(x, y, xVal, yVal))

	assert.GreaterOrEqual(t, m.BestIteration(), 1)
	assert.LessOrEqual(t, m.BestIteration(), opt.NumRounds)

	// a noise-free pattern should score well on held-out rows too
	pred, err := m.PredictBatch(xVal)
	require.NoError(t, err)
	assert.Less(t, EvalMAE.Score(pred, yVal), 2.0)
}

func TestGBTImportance(t *testing.T) {
	x, y := weeklyData(140, 7)
	m := NewGBT(nil)
	require.NoError(t, m.Fit(x, y, nil, nil))

	imp := m.FeatureImportance()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1])
}

func TestGBTMAPEObjective(t *testing.T) {
	x, y := weeklyData(140, 7)
	opt := NewDefaultGBTOptions()
	opt.Metric = EvalMAPE
	m := NewGBT(opt)
	require.NoError(t, m.Fit(x, y, nil, nil))

	pred, err := m.PredictBatch(x)
	require.NoError(t, err)
	assert.Less(t, EvalMAPE.Score(pred, y), 0.05)
}

func TestGBTErrors(t *testing.T) {
	m := NewGBT(nil)
	_, err := m.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrUntrainedModel)

	assert.ErrorIs(t, m.Fit(nil, nil, nil, nil), ErrNoTrainingData)
	assert.ErrorIs(t, m.Fit([][]float64{{1}}, []float64{1, 2}, nil, nil), ErrObsYSizeMismatch)
	assert.ErrorIs(t, m.Fit([][]float64{{1}}, []float64{1}, [][]float64{{1}}, nil), ErrObsYSizeMismatch)

	x, y := weeklyData(40, 7)
	require.NoError(t, m.Fit(x, y, nil, nil))
	_, err = m.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrObsVectorSizeMismatch)
}

func TestGBTOptionsValidate(t *testing.T) {
	testData := map[string]func(*GBTOptions){
		"zero rounds":       func(o *GBTOptions) { o.NumRounds = 0 },
		"bad learning rate": func(o *GBTOptions) { o.LearningRate = 1.5 },
		"single leaf":       func(o *GBTOptions) { o.NumLeaves = 1 },
		"empty leaf":        func(o *GBTOptions) { o.MinDataInLeaf = 0 },
		"bad feature frac":  func(o *GBTOptions) { o.FeatureFraction = 0 },
		"bad bagging frac":  func(o *GBTOptions) { o.BaggingFraction = 1.2 },
		"negative lambda":   func(o *GBTOptions) { o.Lambda = -1 },
	}
	for name, mutate := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultGBTOptions()
			mutate(opt)
			assert.Error(t, opt.Validate())
		})
	}
	assert.NoError(t, NewDefaultGBTOptions().Validate())
}

func TestEvalMetricScore(t *testing.T) {
	pred := []float64{110, 90, 5}
	actual := []float64{100, 100, 0}

	assert.InDelta(t, 25.0/3.0, EvalMAE.Score(pred, actual), 1e-9)
	// the zero actual is skipped and the mean runs over the kept rows
	assert.InDelta(t, 0.1, EvalMAPE.Score(pred, actual), 1e-9)
	assert.Equal(t, 0.0, EvalMAE.Score(nil, nil))
	assert.Equal(t, 0.0, EvalMAPE.Score([]float64{1}, []float64{0}))
}
