package storecast

import (
	"github.com/storefront-labs/storecast/forecast"
	"github.com/storefront-labs/storecast/weather"
)

// Metrics summarizes the training run behind a prediction. MAE values are
// in target units, MAPE values are percentages, both rounded to two
// decimals. Sample counts partition the clean feature rows into the
// training split and the validation holdout.
type Metrics struct {
	VisitorMAE        float64  `json:"visitor_mae"`
	VisitorMAPE       float64  `json:"visitor_mape"`
	SalesMAE          float64  `json:"sales_mae"`
	SalesMAPE         float64  `json:"sales_mape"`
	TrainingSamples   int      `json:"training_samples"`
	ValidationSamples int      `json:"validation_samples"`
	TopFeatures       []string `json:"top_features"`
}

// Result is one fully materialized prediction response. Immutable once
// produced; cached copies are shared between callers.
type Result struct {
	UserID         string            `json:"user_id"`
	PredictionDate string            `json:"prediction_date"`
	Visitors       forecast.Value    `json:"visitor_count"`
	Sales          forecast.Value    `json:"sales_amount"`
	Weather        *weather.Forecast `json:"weather"`
	ModelVersion   string            `json:"model_version"`
	Metrics        Metrics           `json:"metrics"`
}
