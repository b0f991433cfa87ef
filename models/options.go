package models

import "fmt"

// EvalMetric selects the loss the booster optimizes and the score used for
// early stopping on the validation set.
type EvalMetric int

const (
	// EvalMAE optimizes mean absolute error.
	EvalMAE EvalMetric = iota
	// EvalMAPE optimizes mean absolute percentage error. Rows whose actual
	// value is 0 are skipped when scoring.
	EvalMAPE
)

func (m EvalMetric) String() string {
	switch m {
	case EvalMAE:
		return "mae"
	case EvalMAPE:
		return "mape"
	}
	return "unknown"
}

// Score computes the metric over aligned prediction and actual slices.
func (m EvalMetric) Score(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	var cnt int
	for i := range pred {
		switch m {
		case EvalMAPE:
			if actual[i] == 0 {
				continue
			}
			sum += abs((actual[i] - pred[i]) / actual[i])
		default:
			sum += abs(actual[i] - pred[i])
		}
		cnt++
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}

// GBTOptions configures a gradient boosted tree regressor.
type GBTOptions struct {
	// Metric is the training objective and early-stopping score.
	Metric EvalMetric

	NumRounds    int
	LearningRate float64

	// Tree shape and regularization.
	NumLeaves      int
	MinDataInLeaf  int
	MinGainToSplit float64
	Alpha          float64 // L1 leaf regularization
	Lambda         float64 // L2 leaf regularization

	// Stochastic sampling. FeatureFraction is drawn once per tree,
	// BaggingFraction of the rows is redrawn every BaggingFreq rounds.
	FeatureFraction float64
	BaggingFraction float64
	BaggingFreq     int

	// EarlyStopRounds stops training after this many rounds without
	// validation improvement. Ignored when no validation set is given.
	EarlyStopRounds int

	// Seed fixes the sampling stream so a fit is reproducible.
	Seed uint64
}

func NewDefaultGBTOptions() *GBTOptions {
	return &GBTOptions{
		Metric:          EvalMAE,
		NumRounds:       200,
		LearningRate:    0.05,
		NumLeaves:       15,
		MinDataInLeaf:   5,
		MinGainToSplit:  0.01,
		Alpha:           0.1,
		Lambda:          0.1,
		FeatureFraction: 0.8,
		BaggingFraction: 0.8,
		BaggingFreq:     5,
		EarlyStopRounds: 20,
		Seed:            42,
	}
}

func (o *GBTOptions) Validate() error {
	if o.NumRounds <= 0 {
		return fmt.Errorf("num rounds must be positive, got %d", o.NumRounds)
	}
	if o.LearningRate <= 0 || o.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", o.LearningRate)
	}
	if o.NumLeaves < 2 {
		return fmt.Errorf("num leaves must be at least 2, got %d", o.NumLeaves)
	}
	if o.MinDataInLeaf < 1 {
		return fmt.Errorf("min data in leaf must be at least 1, got %d", o.MinDataInLeaf)
	}
	if o.FeatureFraction <= 0 || o.FeatureFraction > 1 {
		return fmt.Errorf("feature fraction must be in (0, 1], got %f", o.FeatureFraction)
	}
	if o.BaggingFraction <= 0 || o.BaggingFraction > 1 {
		return fmt.Errorf("bagging fraction must be in (0, 1], got %f", o.BaggingFraction)
	}
	if o.Alpha < 0 || o.Lambda < 0 {
		return fmt.Errorf("regularization terms must be non-negative, got alpha %f lambda %f", o.Alpha, o.Lambda)
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
