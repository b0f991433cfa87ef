package weather

import "time"

// Seasonal returns the climatological fallback for a date: typical Japanese
// conditions by season, with the June rainy-season bias. Precipitation is a
// chance-of-rain percentage. Deterministic for a given date.
func Seasonal(date time.Time) *Forecast {
	f := &Forecast{Date: date, Source: SourceSeasonal}
	switch date.Month() {
	case time.December, time.January, time.February:
		f.Condition = "曇り"
		f.TempMax, f.TempMin = 10, 2
		f.Precipitation, f.Humidity, f.WindSpeed = 30, 60, 15
	case time.March, time.April, time.May:
		f.Condition = "晴れ時々曇り"
		f.TempMax, f.TempMin = 20, 12
		f.Precipitation, f.Humidity, f.WindSpeed = 40, 65, 12
	case time.June:
		f.Condition = "曇り時々雨"
		f.TempMax, f.TempMin = 25, 18
		f.Precipitation, f.Humidity, f.WindSpeed = 60, 75, 10
	case time.July, time.August:
		f.Condition = "晴れ"
		f.TempMax, f.TempMin = 30, 22
		f.Precipitation, f.Humidity, f.WindSpeed = 35, 75, 10
	default:
		f.Condition = "晴れ"
		f.TempMax, f.TempMin = 22, 14
		f.Precipitation, f.Humidity, f.WindSpeed = 35, 65, 12
	}
	return f
}

var demoConditions = []string{"晴れ", "曇り", "晴れ時々曇り", "曇り時々晴れ"}

// Demo synthesizes a plausible forecast when no API key is configured.
// Temperatures peak in summer, with a deterministic day-of-month wobble
// and a cycling condition string.
func Demo(date time.Time) *Forecast {
	month := int(date.Month())
	day := date.Day()

	baseTemp := float64(15 + (month-6)*2)
	variation := float64(day%7 - 3)

	return &Forecast{
		Date:          date,
		Condition:     demoConditions[(day+month)%len(demoConditions)],
		TempMax:       baseTemp + 8 + variation,
		TempMin:       baseTemp - 2 + variation,
		Precipitation: float64((day*3 + month*5) % 60),
		Humidity:      float64(60 + day%20),
		WindSpeed:     float64(5 + day%10),
		Source:        SourceDemo,
	}
}
