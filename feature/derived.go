package feature

import "fmt"

// Derived is a statistic engineered from a target column's own history:
// rolling windows, lags, differences, growth rates, trend slopes, and
// per-weekday seasonal averages. Derived columns are carried forward
// verbatim from the last historical row when building a prediction row.
type Derived struct {
	Name string
}

func (d Derived) String() string {
	return d.Name
}

func (d Derived) Type() Type {
	return TypeDerived
}

// NewRollingMean names the trailing-window moving average of a target.
func NewRollingMean(target string, window int) Derived {
	return Derived{fmt.Sprintf("%s_ma%d", target, window)}
}

// NewRollingStat names a trailing-window statistic (std, max, min).
func NewRollingStat(target, stat string, window int) Derived {
	return Derived{fmt.Sprintf("%s_%s%d", target, stat, window)}
}

// NewLag names the value of a target from offset rows earlier.
func NewLag(target string, offset int) Derived {
	return Derived{fmt.Sprintf("%s_lag%d", target, offset)}
}

// NewDiff names the difference of a target against its value period rows
// earlier.
func NewDiff(target string, period int) Derived {
	return Derived{fmt.Sprintf("%s_diff%d", target, period)}
}

// NewPctChange names the fractional change of a target over period rows.
func NewPctChange(target string, period int) Derived {
	return Derived{fmt.Sprintf("%s_pct_change%d", target, period)}
}

// NewGrowth names the week-over-week growth rate of a target.
func NewGrowth(target string) Derived {
	return Derived{fmt.Sprintf("%s_wow_growth", target)}
}

// NewTrend names the rolling linear-trend slope of a target over a
// trailing window of days.
func NewTrend(target string, window int) Derived {
	return Derived{fmt.Sprintf("%s_trend_%dd", target, window)}
}

// NewSeasonalAvg names the expanding same-weekday average of a target,
// excluding the current row.
func NewSeasonalAvg(target string) Derived {
	return Derived{fmt.Sprintf("%s_dow_avg", target)}
}

// NewInteraction names a cross-target interaction column.
func NewInteraction(name string) Derived {
	return Derived{name}
}
