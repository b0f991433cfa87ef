package forecast

import "errors"

var (
	// ErrInsufficientData occurs when the feature table holds fewer rows
	// than the configured training minimum.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrMissingTarget occurs when the feature table lacks one of the two
	// target columns.
	ErrMissingTarget = errors.New("feature table missing target column")

	// ErrUntrainedModel occurs when predicting before a successful fit.
	ErrUntrainedModel = errors.New("model has not been trained")

	// ErrPredActualLenMismatch occurs when scoring slices of unequal length.
	ErrPredActualLenMismatch = errors.New("prediction and actual length mismatch")
)
