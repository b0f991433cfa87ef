package holiday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJapanHolidays(t *testing.T) {
	c := NewJapan()

	testData := map[string]struct {
		date    time.Time
		holiday bool
	}{
		"new years day":   {time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		"showa day":       {time.Date(2025, 4, 29, 0, 0, 0, 0, time.UTC), true},
		"culture day":     {time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), true},
		"ordinary monday": {time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), false},
		"ordinary sunday": {time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC), false},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.holiday, c.IsHoliday(td.date))
		})
	}
}

func TestFunc(t *testing.T) {
	target := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	c := Func(func(d time.Time) bool { return d.Equal(target) })

	assert.True(t, c.IsHoliday(target))
	assert.False(t, c.IsHoliday(target.AddDate(0, 0, 1)))
}
