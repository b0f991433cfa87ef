// Package models implements the regressors behind the forecasting pipeline.
// The only model currently shipped is a small gradient boosted tree
// ensemble with L1-family objectives, leaf-wise growth, row/feature
// subsampling, and validation-based early stopping.
package models

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GBT is a gradient boosted tree regressor. A zero-value GBT uses default
// options. Fit must complete before Predict is called.
type GBT struct {
	opt *GBTOptions

	base          float64
	trees         []*tree
	bestIteration int
	numFeatures   int
	importance    []float64
	trained       bool
}

func NewGBT(opt *GBTOptions) *GBT {
	if opt == nil {
		opt = NewDefaultGBTOptions()
	}
	return &GBT{opt: opt}
}

// Fit trains the ensemble on the given observations. When a validation set
// is provided, the metric is scored on it after every round and training
// stops once EarlyStopRounds rounds pass without improvement; prediction
// then uses only the trees up to the best round.
func (g *GBT) Fit(x [][]float64, y []float64, xVal [][]float64, yVal []float64) error {
	if err := g.opt.Validate(); err != nil {
		return fmt.Errorf("invalid options, %w", err)
	}
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return ErrObsYSizeMismatch
	}
	if len(xVal) != len(yVal) {
		return ErrObsYSizeMismatch
	}

	n := len(x)
	g.numFeatures = len(x[0])
	g.importance = make([]float64, g.numFeatures)
	g.trees = nil
	g.base = medianOf(y)

	rng := rand.New(rand.NewPCG(g.opt.Seed, g.opt.Seed+1))

	pred := constants(n, g.base)
	valPred := constants(len(xVal), g.base)
	grad := make([]float64, n)
	hess := make([]float64, n)

	bestScore := 0.0
	bestRound := -1
	allRows := sampleIndices(rng, n, 1)
	rows := allRows

	for round := 0; round < g.opt.NumRounds; round++ {
		g.gradients(pred, y, grad, hess)

		if g.opt.BaggingFraction < 1 && g.opt.BaggingFreq > 0 && round%g.opt.BaggingFreq == 0 {
			rows = sampleIndices(rng, n, g.opt.BaggingFraction)
		}
		features := sampleIndices(rng, g.numFeatures, g.opt.FeatureFraction)

		t := growTree(x, grad, hess, rows, features, g.opt, g.importance)
		g.trees = append(g.trees, t)

		for i := range x {
			pred[i] += t.predict(x[i])
		}
		if len(xVal) == 0 {
			continue
		}
		for i := range xVal {
			valPred[i] += t.predict(xVal[i])
		}
		score := g.opt.Metric.Score(valPred, yVal)
		if bestRound < 0 || score < bestScore {
			bestScore = score
			bestRound = round
		} else if g.opt.EarlyStopRounds > 0 && round-bestRound >= g.opt.EarlyStopRounds {
			break
		}
	}

	g.bestIteration = len(g.trees)
	if len(xVal) > 0 && bestRound >= 0 {
		g.bestIteration = bestRound + 1
	}
	g.trained = true
	return nil
}

// gradients fills the first and second order loss derivatives at the
// current predictions. MAPE weights each row by the inverse of its actual
// value, floored at 1 so near-zero actuals do not dominate.
func (g *GBT) gradients(pred, y, grad, hess []float64) {
	for i := range y {
		w := 1.0
		if g.opt.Metric == EvalMAPE {
			if a := abs(y[i]); a > 1 {
				w = 1 / a
			}
		}
		if pred[i] >= y[i] {
			grad[i] = w
		} else {
			grad[i] = -w
		}
		hess[i] = w
	}
}

// Predict scores a single observation vector using the trees up to the
// best early-stopped iteration.
func (g *GBT) Predict(vec []float64) (float64, error) {
	if !g.trained {
		return 0, ErrUntrainedModel
	}
	if len(vec) != g.numFeatures {
		return 0, fmt.Errorf("%w, expected %d got %d", ErrObsVectorSizeMismatch, g.numFeatures, len(vec))
	}
	res := g.base
	for _, t := range g.trees[:g.bestIteration] {
		res += t.predict(vec)
	}
	return res, nil
}

// PredictBatch scores every row of the observation matrix.
func (g *GBT) PredictBatch(x [][]float64) ([]float64, error) {
	res := make([]float64, len(x))
	for i := range x {
		p, err := g.Predict(x[i])
		if err != nil {
			return nil, err
		}
		res[i] = p
	}
	return res, nil
}

// BestIteration reports how many trees prediction uses after early
// stopping.
func (g *GBT) BestIteration() int {
	return g.bestIteration
}

// FeatureImportance returns the total split gain attributed to each
// feature, indexed the same way as the training columns.
func (g *GBT) FeatureImportance() []float64 {
	res := make([]float64, len(g.importance))
	copy(res, g.importance)
	return res
}

func constants(n int, v float64) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = v
	}
	return res
}

// medianOf is the L1-optimal starting point for the ensemble.
func medianOf(y []float64) float64 {
	sorted := make([]float64, len(y))
	copy(sorted, y)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
