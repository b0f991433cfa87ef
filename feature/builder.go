package feature

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/holiday"
)

// Epsilon guards divisions against zero-valued denominators in growth and
// interaction features.
const Epsilon = 1e-5

// Canonical target column names.
const (
	VisitorColumn = "visitor_count"
	SalesColumn   = "sales_amount"
)

var (
	// RollingMeanWindows are the trailing moving-average windows per target.
	RollingMeanWindows = []int{7, 14, 28}
	// LagOffsets are the lag feature offsets per target.
	LagOffsets = []int{1, 7, 14, 28}
	// TrendWindows are the rolling linear-trend slope windows per target.
	TrendWindows = []int{7, 14}
)

var ErrEmptySeries = errors.New("series has no rows")

// BuilderOptions configures feature engineering over a daily series.
type BuilderOptions struct {
	// Holidays is the national holiday calendar of the deployment locale.
	// Defaults to the Japanese calendar.
	Holidays holiday.Calendar

	// IncludeWeather adds zero-valued weather placeholder columns to the
	// table. Actual weather values are joined later, per prediction date.
	IncludeWeather bool
}

func NewDefaultBuilderOptions() *BuilderOptions {
	return &BuilderOptions{
		Holidays:       holiday.NewJapan(),
		IncludeWeather: true,
	}
}

// Builder turns a daily series into a wide feature table. Output is
// deterministic given identical input.
type Builder struct {
	opt *BuilderOptions
}

func NewBuilder(opt *BuilderOptions) *Builder {
	if opt == nil {
		opt = NewDefaultBuilderOptions()
	}
	if opt.Holidays == nil {
		opt.Holidays = holiday.NewJapan()
	}
	return &Builder{opt: opt}
}

// Table is the engineered feature table: one row per input date, in date
// order, with the target observations kept alongside the feature columns.
type Table struct {
	Dates    []time.Time
	Columns  Set
	Visitors []float64
	Sales    []float64
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// LastRow returns the most recent row's feature values keyed by column
// name. Missing values are treated as 0.
func (t *Table) LastRow() Row {
	row := make(Row, len(t.Columns))
	last := t.Len() - 1
	if last < 0 {
		return row
	}
	for name, col := range t.Columns {
		v := col.Data[last]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		row[name] = v
	}
	return row
}

// Build engineers the full feature table from a daily series. The series is
// sorted ascending by date before any derived feature is computed, every
// output row lines up with an input date, and no column contains NaN or
// infinity on return.
func (b *Builder) Build(s *dailyseries.Series) (*Table, error) {
	if s.Len() == 0 {
		return nil, ErrEmptySeries
	}

	n := s.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.Dates[order[i]].Before(s.Dates[order[j]])
	})

	tbl := &Table{
		Dates:   make([]time.Time, n),
		Columns: make(Set),
	}
	for i, idx := range order {
		tbl.Dates[i] = dailyseries.Midnight(s.Dates[idx])
	}
	if s.Visitors != nil {
		tbl.Visitors = reorder(s.Visitors, order)
	}
	if s.Sales != nil {
		tbl.Sales = reorder(s.Sales, order)
	}

	b.addCalendarFeatures(tbl)
	b.addHolidayFeatures(tbl)
	if tbl.Visitors != nil {
		addTargetFeatures(tbl.Columns, VisitorColumn, tbl.Visitors)
	}
	if tbl.Sales != nil {
		addTargetFeatures(tbl.Columns, SalesColumn, tbl.Sales)
	}
	if tbl.Visitors != nil && tbl.Sales != nil {
		addInteractionFeatures(tbl.Columns, tbl.Visitors, tbl.Sales)
	}
	addSeasonalAverages(tbl)
	addCyclicalFeatures(tbl)
	if b.opt.IncludeWeather {
		for _, w := range WeatherColumns() {
			tbl.Columns.add(w, make([]float64, n))
		}
	}

	for _, col := range tbl.Columns {
		scrub(col.Data)
	}
	return tbl, nil
}

func (b *Builder) addCalendarFeatures(tbl *Table) {
	n := tbl.Len()
	cols := map[string][]float64{
		"year": make([]float64, n), "month": make([]float64, n),
		"day": make([]float64, n), "day_of_week": make([]float64, n),
		"day_of_year": make([]float64, n), "week_of_year": make([]float64, n),
		"quarter": make([]float64, n),
		"is_weekend": make([]float64, n), "is_monday": make([]float64, n),
		"is_friday": make([]float64, n), "is_sunday": make([]float64, n),
		"is_month_start": make([]float64, n), "is_month_end": make([]float64, n),
		"is_month_middle": make([]float64, n),
	}
	for i, d := range tbl.Dates {
		c := calendarValues(d)
		for name, v := range c {
			cols[name][i] = v
		}
	}
	for name, data := range cols {
		tbl.Columns.add(NewCalendar(name), data)
	}
}

func (b *Builder) addHolidayFeatures(tbl *Table) {
	n := tbl.Len()
	isHol := make([]float64, n)
	for i, d := range tbl.Dates {
		isHol[i] = boolFeature(b.opt.Holidays.IsHoliday(d))
	}
	// before/after flags are shifts of the holiday column, so the last and
	// first rows default to 0
	before := make([]float64, n)
	after := make([]float64, n)
	for i := 0; i < n; i++ {
		if i+1 < n {
			before[i] = isHol[i+1]
		}
		if i > 0 {
			after[i] = isHol[i-1]
		}
	}
	tbl.Columns.add(NewCalendar("is_holiday"), isHol)
	tbl.Columns.add(NewCalendar("is_day_before_holiday"), before)
	tbl.Columns.add(NewCalendar("is_day_after_holiday"), after)
}

func addTargetFeatures(cols Set, target string, y []float64) {
	for _, w := range RollingMeanWindows {
		cols.add(NewRollingMean(target, w), rollingMean(y, w))
	}
	cols.add(NewRollingStat(target, "std", 7), rollingStd(y, 7))
	cols.add(NewRollingStat(target, "max", 7), rollingMax(y, 7))
	cols.add(NewRollingStat(target, "min", 7), rollingMin(y, 7))
	for _, offset := range LagOffsets {
		cols.add(NewLag(target, offset), lag(y, offset))
	}
	cols.add(NewDiff(target, 1), diff(y, 1))
	cols.add(NewDiff(target, 7), diff(y, 7))
	cols.add(NewPctChange(target, 7), pctChange(y, 7))
	cols.add(NewPctChange(target, 14), pctChange(y, 14))
	cols.add(NewGrowth(target), weekOverWeekGrowth(y))
	for _, w := range TrendWindows {
		cols.add(NewTrend(target, w), rollingTrend(y, w))
	}
}

func weekOverWeekGrowth(y []float64) []float64 {
	res := make([]float64, len(y))
	for i := range y {
		if i < 7 {
			res[i] = math.NaN()
			continue
		}
		res[i] = (y[i] - y[i-7]) / (y[i-7] + Epsilon)
	}
	return res
}

func addInteractionFeatures(cols Set, visitors, sales []float64) {
	avgSpend := make([]float64, len(visitors))
	for i := range visitors {
		avgSpend[i] = sales[i] / (visitors[i] + Epsilon)
	}
	cols.add(NewInteraction("avg_spend_per_customer"), avgSpend)
	cols.add(NewInteraction("avg_spend_ma7"), rollingMean(avgSpend, 7))
}

// addSeasonalAverages computes, per weekday group, the expanding mean of all
// prior same-weekday observations. The current row's own value is excluded
// so the feature never leaks the value it will be asked to predict.
func addSeasonalAverages(tbl *Table) {
	targets := []struct {
		name string
		data []float64
	}{
		{VisitorColumn, tbl.Visitors},
		{SalesColumn, tbl.Sales},
	}
	for _, target := range targets {
		if target.data == nil {
			continue
		}
		res := make([]float64, tbl.Len())
		var sums, counts [7]float64
		for i, d := range tbl.Dates {
			dow := mondayIndexedWeekday(d)
			if counts[dow] == 0 {
				res[i] = math.NaN()
			} else {
				res[i] = sums[dow] / counts[dow]
			}
			sums[dow] += target.data[i]
			counts[dow]++
		}
		tbl.Columns.add(NewSeasonalAvg(target.name), res)
	}
}

func addCyclicalFeatures(tbl *Table) {
	n := tbl.Len()
	dowSin := make([]float64, n)
	dowCos := make([]float64, n)
	monthSin := make([]float64, n)
	monthCos := make([]float64, n)
	for i, d := range tbl.Dates {
		dow := float64(mondayIndexedWeekday(d))
		month := float64(d.Month())
		dowSin[i] = math.Sin(2 * math.Pi * dow / 7)
		dowCos[i] = math.Cos(2 * math.Pi * dow / 7)
		monthSin[i] = math.Sin(2 * math.Pi * month / 12)
		monthCos[i] = math.Cos(2 * math.Pi * month / 12)
	}
	tbl.Columns.add(NewCyclical("dow", CyclicalCompSin), dowSin)
	tbl.Columns.add(NewCyclical("dow", CyclicalCompCos), dowCos)
	tbl.Columns.add(NewCyclical("month", CyclicalCompSin), monthSin)
	tbl.Columns.add(NewCyclical("month", CyclicalCompCos), monthCos)
}

// calendarValues derives the calendar features of a single date.
func calendarValues(d time.Time) map[string]float64 {
	dow := mondayIndexedWeekday(d)
	day := d.Day()
	_, week := d.ISOWeek()
	return map[string]float64{
		"year":            float64(d.Year()),
		"month":           float64(d.Month()),
		"day":             float64(day),
		"day_of_week":     float64(dow),
		"day_of_year":     float64(d.YearDay()),
		"week_of_year":    float64(week),
		"quarter":         float64((int(d.Month())-1)/3 + 1),
		"is_weekend":      boolFeature(dow >= 5),
		"is_monday":       boolFeature(dow == 0),
		"is_friday":       boolFeature(dow == 4),
		"is_sunday":       boolFeature(dow == 6),
		"is_month_start":  boolFeature(day <= 5),
		"is_month_end":    boolFeature(day >= 25),
		"is_month_middle": boolFeature(day >= 10 && day <= 20),
	}
}

// mondayIndexedWeekday maps time.Weekday to Monday=0..Sunday=6.
func mondayIndexedWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// scrub applies the missing-value policy in place: forward-fill, then
// backward-fill remaining gaps, then fill any still-missing value with 0,
// and replace positive/negative infinity with 0. This silently biases the
// earliest rows of lag and rolling columns, which is accepted behavior.
func scrub(col []float64) {
	last := math.NaN()
	for i := range col {
		if math.IsNaN(col[i]) {
			col[i] = last
		} else {
			last = col[i]
		}
	}
	next := math.NaN()
	for i := len(col) - 1; i >= 0; i-- {
		if math.IsNaN(col[i]) {
			col[i] = next
		} else {
			next = col[i]
		}
	}
	for i := range col {
		if math.IsNaN(col[i]) || math.IsInf(col[i], 0) {
			col[i] = 0
		}
	}
}

func reorder(y []float64, order []int) []float64 {
	res := make([]float64, len(y))
	for i, idx := range order {
		res[i] = y[idx]
	}
	return res
}
