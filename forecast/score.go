package forecast

import "math"

// MAE computes the mean absolute error between predictions and actuals.
func MAE(pred, actual []float64) (float64, error) {
	if len(pred) != len(actual) {
		return 0, ErrPredActualLenMismatch
	}
	if len(pred) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range pred {
		sum += math.Abs(actual[i] - pred[i])
	}
	return sum / float64(len(pred)), nil
}

// RMSE computes the root mean squared error between predictions and
// actuals.
func RMSE(pred, actual []float64) (float64, error) {
	if len(pred) != len(actual) {
		return 0, ErrPredActualLenMismatch
	}
	if len(pred) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range pred {
		d := actual[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred))), nil
}

// MAPE computes the mean absolute percentage error, as a fraction. Rows
// whose actual value is 0 are skipped and the mean runs over the rows that
// remain; when every actual is 0 the result is 0.
func MAPE(pred, actual []float64) (float64, error) {
	if len(pred) != len(actual) {
		return 0, ErrPredActualLenMismatch
	}
	var sum float64
	var cnt int
	for i := range pred {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - pred[i]) / actual[i])
		cnt++
	}
	if cnt == 0 {
		return 0, nil
	}
	return sum / float64(cnt), nil
}
