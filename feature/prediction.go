package feature

import (
	"math"
	"time"

	"github.com/storefront-labs/storecast/dailyseries"
)

// PredictionRow assembles the single feature row for a future date from a
// historical feature table. Calendar, holiday, and cyclical features are
// recomputed from the prediction date itself; every derived statistic is
// carried forward from the table's most recent row; weather values, when
// provided, overwrite the carried placeholders.
func (b *Builder) PredictionRow(tbl *Table, date time.Time, wx *WeatherValues) (Row, error) {
	if tbl.Len() == 0 {
		return nil, ErrEmptySeries
	}
	date = dailyseries.Midnight(date)
	row := tbl.LastRow()

	for name, v := range calendarValues(date) {
		row[name] = v
	}
	row["is_holiday"] = boolFeature(b.opt.Holidays.IsHoliday(date))
	row["is_day_before_holiday"] = boolFeature(b.opt.Holidays.IsHoliday(date.AddDate(0, 0, 1)))
	row["is_day_after_holiday"] = boolFeature(b.opt.Holidays.IsHoliday(date.AddDate(0, 0, -1)))

	dow := float64(mondayIndexedWeekday(date))
	month := float64(date.Month())
	row["dow_sin"] = math.Sin(2 * math.Pi * dow / 7)
	row["dow_cos"] = math.Cos(2 * math.Pi * dow / 7)
	row["month_sin"] = math.Sin(2 * math.Pi * month / 12)
	row["month_cos"] = math.Cos(2 * math.Pi * month / 12)

	if wx != nil {
		wx.Apply(row)
	}
	return row, nil
}
