package feature

// Weather is a feature derived from the weather forecast for a date.
type Weather struct {
	Name string
}

func NewWeather(name string) Weather {
	return Weather{name}
}

func (w Weather) String() string {
	return w.Name
}

func (w Weather) Type() Type {
	return TypeWeather
}

// WeatherColumns lists every weather feature the pipeline knows about, in
// the order they are added as placeholders to a feature table.
func WeatherColumns() []Weather {
	return []Weather{
		NewWeather("weather_code"),
		NewWeather("temp_avg"),
		NewWeather("temp_range"),
		NewWeather("precipitation"),
		NewWeather("is_rainy"),
		NewWeather("is_hot"),
		NewWeather("is_cold"),
		NewWeather("comfort_index"),
	}
}

// WeatherValues holds the derived impact features of a single day's
// forecast. The same values feed both historical feature tables and
// prediction rows so training-time and prediction-time semantics cannot
// drift.
type WeatherValues struct {
	Code          float64
	TempAvg       float64
	TempRange     float64
	Precipitation float64
	Rainy         bool
	Hot           bool
	Cold          bool
	ComfortIndex  float64
}

// Apply writes the weather values into a feature row under the canonical
// weather column names.
func (w WeatherValues) Apply(row Row) {
	row["weather_code"] = w.Code
	row["temp_avg"] = w.TempAvg
	row["temp_range"] = w.TempRange
	row["precipitation"] = w.Precipitation
	row["is_rainy"] = boolFeature(w.Rainy)
	row["is_hot"] = boolFeature(w.Hot)
	row["is_cold"] = boolFeature(w.Cold)
	row["comfort_index"] = w.ComfortIndex
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
