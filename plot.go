package storecast

import (
	"io"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/forecast"
)

// PlotWindowDays is how much trailing history a diagnostic plot shows.
const PlotWindowDays = 60

// PlotForecast uses the Apache Echarts library to generate an html file
// showing the recent history of both targets with the forecast point and
// confidence band appended at the prediction date.
func PlotForecast(series *dailyseries.Series, res *Result, path string) error {
	window := series.Len()
	if window > PlotWindowDays {
		window = PlotWindowDays
	}
	start := series.Len() - window
	t := make([]time.Time, 0, window+1)
	t = append(t, series.Dates[start:]...)
	predDate, err := time.Parse("2006-01-02", res.PredictionDate)
	if err != nil {
		return err
	}
	t = append(t, predDate)

	page := components.NewPage()
	page.AddCharts(
		lineTarget("Visitors", t, series.Visitors[start:], res.Visitors),
		lineTarget("Sales", t, series.Sales[start:], res.Sales),
	)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(io.MultiWriter(file))
}

// lineTarget draws one target's trailing history plus the forecast point
// and its interval bounds on the final x position.
func lineTarget(title string, t []time.Time, history []float64, v forecast.Value) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	n := len(history)
	actual := make([]opts.LineData, 0, n+1)
	point := make([]opts.LineData, 0, n+1)
	upper := make([]opts.LineData, 0, n+1)
	lower := make([]opts.LineData, 0, n+1)
	for i := 0; i < n; i++ {
		actual = append(actual, opts.LineData{Value: history[i]})
		point = append(point, opts.LineData{Value: nil})
		upper = append(upper, opts.LineData{Value: nil})
		lower = append(lower, opts.LineData{Value: nil})
	}
	actual = append(actual, opts.LineData{Value: nil})
	point = append(point, opts.LineData{Value: v.Point})
	upper = append(upper, opts.LineData{Value: v.Upper})
	lower = append(lower, opts.LineData{Value: v.Lower})

	line.SetXAxis(t).
		AddSeries("Actual", actual).
		AddSeries("Forecast", point).
		AddSeries("Upper", upper).
		AddSeries("Lower", lower)
	return line
}
