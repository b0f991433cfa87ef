// Package forecast fits the paired visitor and sales regressors over an
// engineered feature table and produces point predictions with confidence
// intervals for a single future date.
package forecast

import (
	"fmt"
	"math"
	"sort"

	"github.com/storefront-labs/storecast/feature"
	"github.com/storefront-labs/storecast/models"
)

const (
	// zNarrow is the critical value applied at exactly 90% confidence,
	// zWide otherwise.
	zNarrow = 1.645
	zWide   = 1.96

	// fallbackStdRatio scales the point prediction into a stand-in
	// deviation when no validation error estimate exists.
	fallbackStdRatio = 0.15
)

// Options configures the paired forecast model.
type Options struct {
	// MinTrainingRows is the smallest feature table Fit accepts.
	MinTrainingRows int

	// ValidationRatio is the trailing fraction of rows held out for early
	// stopping and error estimation. The split is chronological, never
	// shuffled.
	ValidationRatio float64

	// Visitor and Sales configure the per-target regressors.
	Visitor *models.GBTOptions
	Sales   *models.GBTOptions
}

func NewDefaultOptions() *Options {
	salesOpt := models.NewDefaultGBTOptions()
	salesOpt.Metric = models.EvalMAPE
	return &Options{
		MinTrainingRows: 30,
		ValidationRatio: 0.2,
		Visitor:         models.NewDefaultGBTOptions(),
		Sales:           salesOpt,
	}
}

// Scores are the validation-set error estimates of a fitted model. RMSE
// values drive interval widths, MAE and MAPE are reported to callers.
type Scores struct {
	VisitorMAE  float64
	VisitorRMSE float64
	VisitorMAPE float64
	SalesMAE    float64
	SalesRMSE   float64
	SalesMAPE   float64
}

// Model holds the fitted visitor and sales regressors along with the
// feature schema pinned at fit time.
type Model struct {
	opt *Options

	labels  *feature.Labels
	visitor *models.GBT
	sales   *models.GBT

	scores         Scores
	trainingRows   int
	validationRows int
	trained        bool
}

func New(opt *Options) *Model {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Model{opt: opt}
}

// Fit trains both regressors on the feature table. The table must carry
// both target columns and at least MinTrainingRows rows. The trailing
// ceil(ValidationRatio*n) rows are held out for early stopping and error
// estimation.
func (m *Model) Fit(tbl *feature.Table) error {
	if tbl.Visitors == nil || tbl.Sales == nil {
		return ErrMissingTarget
	}
	n := tbl.Len()
	if n < m.opt.MinTrainingRows {
		return fmt.Errorf("%w, got %d rows need %d", ErrInsufficientData, n, m.opt.MinTrainingRows)
	}

	m.labels = tbl.Columns.Labels()
	x := tbl.Columns.MatrixSlice()

	nVal := int(math.Ceil(m.opt.ValidationRatio * float64(n)))
	cut := n - nVal
	xTrain, xVal := x[:cut], x[cut:]

	m.visitor = models.NewGBT(m.opt.Visitor)
	if err := m.visitor.Fit(xTrain, tbl.Visitors[:cut], xVal, tbl.Visitors[cut:]); err != nil {
		return fmt.Errorf("fitting visitor model, %w", err)
	}
	m.sales = models.NewGBT(m.opt.Sales)
	if err := m.sales.Fit(xTrain, tbl.Sales[:cut], xVal, tbl.Sales[cut:]); err != nil {
		return fmt.Errorf("fitting sales model, %w", err)
	}

	scores, err := m.validationScores(xVal, tbl.Visitors[cut:], tbl.Sales[cut:])
	if err != nil {
		return fmt.Errorf("scoring validation rows, %w", err)
	}
	m.scores = scores
	m.trainingRows = cut
	m.validationRows = nVal
	m.trained = true
	return nil
}

func (m *Model) validationScores(xVal [][]float64, visitors, sales []float64) (Scores, error) {
	var s Scores
	if len(xVal) == 0 {
		return s, nil
	}
	vPred, err := m.visitor.PredictBatch(xVal)
	if err != nil {
		return s, err
	}
	sPred, err := m.sales.PredictBatch(xVal)
	if err != nil {
		return s, err
	}
	if s.VisitorMAE, err = MAE(vPred, visitors); err != nil {
		return s, err
	}
	if s.VisitorRMSE, err = RMSE(vPred, visitors); err != nil {
		return s, err
	}
	if s.VisitorMAPE, err = MAPE(vPred, visitors); err != nil {
		return s, err
	}
	if s.SalesMAE, err = MAE(sPred, sales); err != nil {
		return s, err
	}
	if s.SalesRMSE, err = RMSE(sPred, sales); err != nil {
		return s, err
	}
	s.SalesMAPE, err = MAPE(sPred, sales)
	return s, err
}

// Value is a point prediction with its confidence interval. Lower and
// Upper are clamped at 0 and Lower <= Point <= Upper always holds.
type Value struct {
	Point float64 `json:"predicted"`
	Lower float64 `json:"lower_bound"`
	Upper float64 `json:"upper_bound"`
}

// Prediction is the paired one-day forecast.
type Prediction struct {
	Visitors Value `json:"visitor_count"`
	Sales    Value `json:"sales_amount"`
}

// Predict scores the single feature row at the given confidence level.
// Columns the model was fit with but absent from the row enter as 0. The
// interval half-width is z times the target's validation RMSE, or
// fallbackStdRatio times the point prediction when no RMSE is available.
// Visitor values are truncated to whole counts.
func (m *Model) Predict(row feature.Row, confidence float64) (*Prediction, error) {
	if !m.trained {
		return nil, ErrUntrainedModel
	}
	vec := row.Vector(m.labels)

	visitor, err := m.visitor.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("predicting visitors, %w", err)
	}
	sales, err := m.sales.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("predicting sales, %w", err)
	}

	z := zWide
	if confidence == 0.9 {
		z = zNarrow
	}

	res := &Prediction{
		Visitors: interval(visitor, m.scores.VisitorRMSE, z),
		Sales:    interval(sales, m.scores.SalesRMSE, z),
	}
	res.Visitors.Point = math.Trunc(res.Visitors.Point)
	res.Visitors.Lower = math.Trunc(res.Visitors.Lower)
	res.Visitors.Upper = math.Trunc(res.Visitors.Upper)
	return res, nil
}

func interval(point, rmse, z float64) Value {
	std := rmse
	if std <= 0 {
		std = fallbackStdRatio * point
	}
	v := Value{
		Point: math.Max(0, point),
		Lower: math.Max(0, point-z*std),
		Upper: math.Max(0, point+z*std),
	}
	if v.Upper < v.Point {
		v.Upper = v.Point
	}
	return v
}

// Scores returns the validation error estimates of the fitted model.
func (m *Model) Scores() Scores {
	return m.scores
}

// TrainingRows reports the size of the training split the regressors were
// fit on, excluding the validation holdout.
func (m *Model) TrainingRows() int {
	return m.trainingRows
}

// ValidationRows reports the size of the validation holdout.
func (m *Model) ValidationRows() int {
	return m.validationRows
}

// Importance pairs a feature column with its averaged split gain across
// the two regressors.
type Importance struct {
	Feature string  `json:"feature"`
	Gain    float64 `json:"gain"`
}

// FeatureImportance returns every feature's averaged split gain, sorted
// descending. Ties break on column name for a stable order.
func (m *Model) FeatureImportance() []Importance {
	if !m.trained {
		return nil
	}
	vImp := m.visitor.FeatureImportance()
	sImp := m.sales.FeatureImportance()
	res := make([]Importance, 0, m.labels.Len())
	for i, l := range m.labels.Labels() {
		res = append(res, Importance{
			Feature: l.String(),
			Gain:    (vImp[i] + sImp[i]) / 2,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Gain != res[j].Gain {
			return res[i].Gain > res[j].Gain
		}
		return res[i].Feature < res[j].Feature
	})
	return res
}

// TopFeatures returns the names of the n highest-gain features.
func (m *Model) TopFeatures(n int) []string {
	imp := m.FeatureImportance()
	if n > len(imp) {
		n = len(imp)
	}
	names := make([]string, 0, n)
	for _, i := range imp[:n] {
		names = append(names, i.Feature)
	}
	return names
}
