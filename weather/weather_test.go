package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCondition(t *testing.T) {
	testData := map[string]struct {
		text     string
		expected float64
	}{
		"english sunny":    {"Sunny", CodeClear},
		"english clear":    {"Clear", CodeClear},
		"japanese clear":   {"晴れ", CodeClear},
		"partly cloudy":    {"Partly cloudy", CodePartlyCloudy},
		"japanese mixed":   {"晴れ時々曇り", CodePartlyCloudy},
		"overcast":         {"Overcast", CodeCloudy},
		"japanese cloudy":  {"曇り", CodeCloudy},
		"rain":             {"Moderate rain", CodeRain},
		"japanese rain":    {"雨", CodeRain},
		"thunder":          {"Thundery outbreaks possible", CodeRain},
		"snow":             {"Patchy snow possible", CodeSnow},
		"japanese snow":    {"雪", CodeSnow},
		"snow before rain": {"Light sleet showers", CodeSnow},
		"unknown":          {"Sandstorm", CodeOther},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, EncodeCondition(td.text))
		})
	}
}

func TestSeasonal(t *testing.T) {
	jan := Seasonal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "曇り", jan.Condition)
	assert.Equal(t, 10.0, jan.TempMax)
	assert.Equal(t, 2.0, jan.TempMin)
	assert.Equal(t, 30.0, jan.Precipitation)
	assert.Equal(t, 60.0, jan.Humidity)
	assert.Equal(t, SourceSeasonal, jan.Source)

	apr := Seasonal(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 20.0, apr.TempMax)
	assert.Equal(t, 40.0, apr.Precipitation)

	jun := Seasonal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "曇り時々雨", jun.Condition)
	assert.Equal(t, 25.0, jun.TempMax)
	assert.Equal(t, 60.0, jun.Precipitation)

	aug := Seasonal(time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 30.0, aug.TempMax)
	assert.Equal(t, 22.0, aug.TempMin)
	assert.Equal(t, 35.0, aug.Precipitation)

	oct := Seasonal(time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 22.0, oct.TempMax)
	assert.Equal(t, 35.0, oct.Precipitation)
}

func TestDemoDeterministic(t *testing.T) {
	d := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	a, b := Demo(d), Demo(d)
	assert.Equal(t, a, b)
	assert.Equal(t, SourceDemo, a.Source)
	assert.Greater(t, a.TempMax, a.TempMin)
	assert.GreaterOrEqual(t, a.Precipitation, 0.0)
	assert.Less(t, a.Precipitation, 60.0)

	// summer runs warmer than winter
	summer := Demo(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	winter := Demo(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Greater(t, summer.TempMax, winter.TempMax)
}

func TestImpactFeatures(t *testing.T) {
	mild := ImpactFeatures(&Forecast{
		Condition: "Sunny",
		TempMax:   26, TempMin: 18,
		Precipitation: 0,
		Humidity:      50,
	})
	assert.Equal(t, float64(CodeClear), mild.Code)
	assert.Equal(t, 22.0, mild.TempAvg)
	assert.Equal(t, 8.0, mild.TempRange)
	assert.False(t, mild.Rainy)
	assert.False(t, mild.Hot)
	assert.False(t, mild.Cold)
	// ideal temperature, no rain chance, ideal humidity
	assert.InDelta(t, 100.0, mild.ComfortIndex, 1e-9)

	harsh := ImpactFeatures(&Forecast{
		Condition: "Heavy rain",
		TempMax:   34, TempMin: 28,
		Precipitation: 80,
		Humidity:      95,
	})
	assert.True(t, harsh.Rainy)
	assert.True(t, harsh.Hot)
	// temp 55, rain 20, humidity 10
	assert.InDelta(t, 85.0/3, harsh.ComfortIndex, 1e-9)

	cold := ImpactFeatures(&Forecast{Condition: "晴れ", TempMax: 8, TempMin: 0})
	assert.True(t, cold.Cold)
}

func TestImpactFeatureThresholds(t *testing.T) {
	// rainy means a rain chance above 50 percent
	assert.False(t, ImpactFeatures(&Forecast{Precipitation: 50}).Rainy)
	assert.True(t, ImpactFeatures(&Forecast{Precipitation: 51}).Rainy)

	// hot is strictly above 30C on the high
	assert.False(t, ImpactFeatures(&Forecast{TempMax: 30, TempMin: 20}).Hot)
	assert.True(t, ImpactFeatures(&Forecast{TempMax: 31, TempMin: 20}).Hot)

	// cold keys on the overnight low
	assert.False(t, ImpactFeatures(&Forecast{TempMax: 12, TempMin: 5}).Cold)
	assert.True(t, ImpactFeatures(&Forecast{TempMax: 12, TempMin: 4}).Cold)
}

func newTestClient(apiKey, baseURL string, now time.Time) *Client {
	opt := NewDefaultClientOptions()
	opt.APIKey = apiKey
	opt.BaseURL = baseURL
	opt.MaxRetries = 1
	opt.RequestsPerSec = 1000
	opt.NowFunc = func() time.Time { return now }
	return NewClient(opt)
}

func TestClientFetch(t *testing.T) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "2", r.URL.Query().Get("days"))
		assert.Equal(t, "ja", r.URL.Query().Get("lang"))
		fmt.Fprint(w, `{"forecast":{"forecastday":[
			{"date":"2025-04-07","day":{"maxtemp_c":15,"mintemp_c":8,"daily_chance_of_rain":0,"avghumidity":40,"maxwind_kph":9,"condition":{"text":"晴れ"}}},
			{"date":"2025-04-08","day":{"maxtemp_c":18,"mintemp_c":11,"daily_chance_of_rain":70,"avghumidity":62,"maxwind_kph":14,"condition":{"text":"小雨"}}}
		]}}`)
	}))
	defer srv.Close()

	c := newTestClient("secret", srv.URL, now)
	f := c.Forecast(context.Background(), Location{Lat: 35.68, Lon: 139.76}, now.AddDate(0, 0, 1))

	assert.Equal(t, SourceAPI, f.Source)
	assert.Equal(t, "小雨", f.Condition)
	assert.Equal(t, 18.0, f.TempMax)
	assert.Equal(t, 11.0, f.TempMin)
	assert.Equal(t, 70.0, f.Precipitation)
	assert.Equal(t, 62.0, f.Humidity)
}

func TestClientOutOfRange(t *testing.T) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	c := newTestClient("secret", "http://unused.invalid", now)

	// today and the past are out of the forecast window
	assert.Equal(t, SourceSeasonal, c.Forecast(context.Background(), Location{}, now).Source)
	assert.Equal(t, SourceSeasonal, c.Forecast(context.Background(), Location{}, now.AddDate(0, 0, -3)).Source)
	assert.Equal(t, SourceSeasonal, c.Forecast(context.Background(), Location{}, now.AddDate(0, 0, 15)).Source)
}

func TestClientNoAPIKey(t *testing.T) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	c := newTestClient("", "http://unused.invalid", now)

	f := c.Forecast(context.Background(), Location{}, now.AddDate(0, 0, 1))
	assert.Equal(t, SourceDemo, f.Source)
}

func TestClientFallbackOnServerError(t *testing.T) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient("secret", srv.URL, now)
	f := c.Forecast(context.Background(), Location{}, now.AddDate(0, 0, 1))

	assert.Equal(t, SourceSeasonal, f.Source)
	assert.Equal(t, 2, calls, "one retry after the first failure")
}

func TestClientNoRetryOnAuthError(t *testing.T) {
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient("bad", srv.URL, now)
	f := c.Forecast(context.Background(), Location{}, now.AddDate(0, 0, 1))

	assert.Equal(t, SourceSeasonal, f.Source)
	assert.Equal(t, 1, calls)
}
