package models

import "errors"

var (
	// ErrNoTrainingData occurs when the model is fit with an empty matrix.
	ErrNoTrainingData = errors.New("no training data")

	// ErrObsYSizeMismatch occurs when the observation matrix and the target
	// vector disagree on the number of rows.
	ErrObsYSizeMismatch = errors.New("observation and target row count mismatch")

	// ErrUntrainedModel occurs when predicting before a successful fit.
	ErrUntrainedModel = errors.New("model has not been trained")

	// ErrObsVectorSizeMismatch occurs when a prediction vector does not
	// match the feature count the model was fit with.
	ErrObsVectorSizeMismatch = errors.New("prediction vector feature count mismatch")
)
