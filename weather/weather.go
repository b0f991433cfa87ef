// Package weather fetches daily forecasts from WeatherAPI and derives the
// weather feature values the prediction pipeline consumes. Every failure
// path degrades to a deterministic seasonal fallback so a forecast request
// never dies on the weather leg.
package weather

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-labs/storecast/feature"
)

// Condition codes produced by EncodeCondition.
const (
	CodeClear        = 0
	CodePartlyCloudy = 1
	CodeCloudy       = 2
	CodeRain         = 3
	CodeSnow         = 4
	CodeOther        = 5
)

// Source labels where a Forecast came from.
const (
	SourceAPI      = "api"
	SourceSeasonal = "seasonal"
	SourceDemo     = "demo"
)

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Forecast is one day's weather outlook. Precipitation is the chance of
// rain as a 0..100 percentage, not a rainfall amount.
type Forecast struct {
	Date          time.Time `json:"date"`
	Condition     string    `json:"condition"`
	TempMax       float64   `json:"temp_max"`
	TempMin       float64   `json:"temp_min"`
	Precipitation float64   `json:"precipitation"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	Source        string    `json:"source"`
}

// Provider supplies a day's forecast for a location. Implementations never
// fail; when real data cannot be fetched they fall back to Seasonal.
type Provider interface {
	Forecast(ctx context.Context, loc Location, date time.Time) *Forecast
}

// EncodeCondition maps a condition text, Japanese or English, to a coarse
// numeric code.
func EncodeCondition(text string) float64 {
	s := strings.ToLower(text)
	has := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
	switch {
	case has("雪", "snow", "sleet", "blizzard"):
		return CodeSnow
	case has("雨", "rain", "drizzle", "shower", "thunder"):
		return CodeRain
	case has("partly", "薄曇"):
		return CodePartlyCloudy
	case has("晴") && has("曇"):
		return CodePartlyCloudy
	case has("曇", "cloud", "overcast", "mist", "fog", "霧"):
		return CodeCloudy
	case has("晴", "sunny", "clear"):
		return CodeClear
	}
	return CodeOther
}

// ImpactFeatures derives the model-facing weather values from a forecast.
// The comfort index, on a 0..100 scale, averages a temperature score
// peaking at 22C, a rain score falling with the chance of rain, and a
// humidity score peaking at 50%, each clamped at 0.
func ImpactFeatures(f *Forecast) feature.WeatherValues {
	tempAvg := (f.TempMax + f.TempMin) / 2
	tempScore := clampScore(100 - abs(tempAvg-22)*5)
	rainScore := clampScore(100 - f.Precipitation)
	humidityScore := clampScore(100 - abs(f.Humidity-50)*2)

	return feature.WeatherValues{
		Code:          EncodeCondition(f.Condition),
		TempAvg:       tempAvg,
		TempRange:     f.TempMax - f.TempMin,
		Precipitation: f.Precipitation,
		Rainy:         f.Precipitation > 50,
		Hot:           f.TempMax > 30,
		Cold:          f.TempMin < 5,
		ComfortIndex:  (tempScore + rainScore + humidityScore) / 3,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
