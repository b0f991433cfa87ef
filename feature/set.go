package feature

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Data pairs a feature label with its column of observations.
type Data struct {
	F    Feature
	Data []float64
}

// Set maps each feature column's data keyed by the string representation of
// the feature.
type Set map[string]Data

func (s Set) add(f Feature, data []float64) {
	s[f.String()] = Data{F: f, Data: data}
}

// Labels returns the sorted slice of all tracked features in the Set.
func (s Set) Labels() *Labels {
	if s == nil {
		return nil
	}
	labels := make([]Feature, 0, len(s))
	for _, feat := range s {
		labels = append(labels, feat.F)
	}
	sort.Slice(
		labels,
		func(i, j int) bool {
			return labels[i].String() < labels[j].String()
		},
	)
	return NewLabels(labels)
}

// Matrix returns the Set as a design matrix with m rows representing the
// number of observations and n columns representing the number of features,
// in sorted label order.
func (s Set) Matrix() *mat.Dense {
	if s == nil {
		return nil
	}
	labels := s.Labels()
	if labels.Len() == 0 {
		return nil
	}

	var m int
	for _, l := range labels.Labels() {
		m = len(s[l.String()].Data)
		break
	}
	n := labels.Len()

	obs := make([]float64, m*n)
	for featNum, label := range labels.Labels() {
		col := s[label.String()]
		for i := 0; i < len(col.Data); i++ {
			obs[n*i+featNum] = col.Data[i]
		}
	}
	return mat.NewDense(m, n, obs)
}

// MatrixSlice returns the Set as a slice of observation rows in sorted
// label order.
func (s Set) MatrixSlice() [][]float64 {
	if s == nil {
		return nil
	}
	labels := s.Labels()
	if labels.Len() == 0 {
		return nil
	}

	var m int
	for _, l := range labels.Labels() {
		m = len(s[l.String()].Data)
		break
	}
	rows := make([][]float64, m)
	for i := 0; i < m; i++ {
		rows[i] = make([]float64, labels.Len())
	}
	for featNum, label := range labels.Labels() {
		col := s[label.String()]
		for i := 0; i < len(col.Data); i++ {
			rows[i][featNum] = col.Data[i]
		}
	}
	return rows
}

// Row is a single observation keyed by feature column name, e.g. the input
// to a one-step-ahead prediction.
type Row map[string]float64

// Vector reindexes the row to the given label schema. Columns expected by
// the schema but absent from the row are injected with value 0.
func (r Row) Vector(labels *Labels) []float64 {
	vec := make([]float64, 0, labels.Len())
	for _, label := range labels.Labels() {
		vec = append(vec, r[label.String()])
	}
	return vec
}
