package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clock(s string) *string { return &s }

// at builds a UTC instant on a fixed date; 2026-03-02 is a Monday.
func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowNoBoundsNoMask(t *testing.T) {
	assert.True(t, WindowActive(at("12:00"), "UTC", 0, nil, nil))
}

func TestWindowPlainRange(t *testing.T) {
	from, until := clock("09:00"), clock("17:00")
	assert.False(t, WindowActive(at("08:59"), "UTC", 0, from, until))
	assert.True(t, WindowActive(at("09:00"), "UTC", 0, from, until))
	assert.True(t, WindowActive(at("12:30"), "UTC", 0, from, until))
	assert.True(t, WindowActive(at("17:00"), "UTC", 0, from, until))
	assert.False(t, WindowActive(at("17:01"), "UTC", 0, from, until))
}

func TestWindowWrapsMidnight(t *testing.T) {
	from, until := clock("09:01"), clock("03:58")
	assert.True(t, WindowActive(at("02:00"), "UTC", 0, from, until))
	assert.True(t, WindowActive(at("10:00"), "UTC", 0, from, until))
	assert.False(t, WindowActive(at("05:00"), "UTC", 0, from, until))
	assert.False(t, WindowActive(at("08:00"), "UTC", 0, from, until))
}

func TestWindowWeekdayMask(t *testing.T) {
	// 2026-03-02 is a Monday; Monday bit is 1<<1.
	monday := 1 << 1
	sunday := 1 << 0
	assert.True(t, WindowActive(at("12:00"), "UTC", monday, nil, nil))
	assert.False(t, WindowActive(at("12:00"), "UTC", sunday, nil, nil))
}

func TestWindowWeekdayEvaluatedInTargetZone(t *testing.T) {
	// 23:30 UTC Monday is already Tuesday in UTC+1.
	tuesday := 1 << 2
	assert.True(t, WindowActive(at("23:30"), "Etc/GMT-1", tuesday, nil, nil))
	assert.False(t, WindowActive(at("23:30"), "UTC", tuesday, nil, nil))
}

func TestWindowTimezoneCorrectness(t *testing.T) {
	// 00:15-01:00 local in UTC+1 means 23:15-00:00 UTC.
	from, until := clock("00:15"), clock("01:00")
	tz := "Etc/GMT-1"

	assert.True(t, WindowActive(at("23:15"), tz, 0, from, until))  // 00:15 local
	assert.True(t, WindowActive(at("23:30"), tz, 0, from, until))  // 00:30 local
	assert.False(t, WindowActive(at("00:15"), tz, 0, from, until)) // 01:15 local
	assert.False(t, WindowActive(at("23:10"), tz, 0, from, until)) // 00:10 local
}

func TestWindowBadBoundsTreatedAlwaysActive(t *testing.T) {
	assert.True(t, WindowActive(at("12:00"), "UTC", 0, clock("nonsense"), clock("17:00")))
}

func TestWindowUnknownTimezoneFallsBackToUTC(t *testing.T) {
	from, until := clock("11:00"), clock("13:00")
	assert.True(t, WindowActive(at("12:00"), "Mars/Olympus", 0, from, until))
}
