package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPatternMacro(t *testing.T) {
	cases := map[string]PatternMacro{
		"x/DATE=?":                    MacroDate,
		"x/DATE=?/HOUR=?":             MacroHour,
		"x/DATE=?/HOUR=?/MINUTE=?":    MacroMinute,
		"x/DATE=?/HOUR=?/MINUTE=?/SECOND=?": MacroSecond,
		"x/ts=TIMESTAMP":              MacroTimestamp,
		"x/HOUR=?":                    MacroInvalid,
		"x/DATE=?/SECOND=?":           MacroInvalid,
		"x/static/path":               MacroInvalid,
		"x/ts=TIMESTAMP/DATE=?":       MacroDate,
	}
	for pattern, want := range cases {
		assert.Equal(t, want, ExtractPatternMacro(pattern), "pattern %q", pattern)
	}
}

func TestMacroHierarchy(t *testing.T) {
	assert.Equal(t, MacroHour, MacroDate.Child())
	assert.Equal(t, MacroMinute, MacroHour.Child())
	assert.Equal(t, MacroSecond, MacroMinute.Child())
	assert.Equal(t, MacroInvalid, MacroSecond.Child())

	assert.Equal(t, int64(DaySeconds), MacroDate.UnitSeconds())
	assert.Equal(t, int64(HourSeconds), MacroHour.UnitSeconds())
	assert.Equal(t, int64(MinuteSeconds), MacroMinute.UnitSeconds())

	assert.Equal(t, DayHours, MacroDate.ChildSize())
	assert.Equal(t, HourMinutes, MacroHour.ChildSize())
	assert.Equal(t, MinuteSeconds, MacroMinute.ChildSize())
}

func TestExpandHourAcrossDayBoundary(t *testing.T) {
	// 2019-08-15 23:00:00 UTC
	start := time.Date(2019, 8, 15, 23, 0, 0, 0, time.UTC).Unix()
	end := start + 2*HourSeconds

	cuts := ExpandPattern("s3b/dt=DATE/hr=HOUR/", MacroHour, start, end)
	require.Len(t, cuts, 2)
	assert.Equal(t, "s3b/dt=2019-08-15/hr=23/", cuts[0].Path)
	assert.Equal(t, start, cuts[0].MDate)
	assert.Equal(t, "s3b/dt=2019-08-16/hr=00/", cuts[1].Path)
	assert.Equal(t, start+HourSeconds, cuts[1].MDate)
}

func TestExpandAlignment(t *testing.T) {
	// an unaligned window is floored and ceiled to the unit
	start := time.Date(2019, 8, 15, 10, 30, 0, 0, time.UTC).Unix()
	end := time.Date(2019, 8, 15, 12, 10, 0, 0, time.UTC).Unix()

	cuts := ExpandPattern("b/dt=DATE/hr=HOUR/", MacroHour, start, end)
	require.Len(t, cuts, 3)
	assert.Equal(t, "b/dt=2019-08-15/hr=10/", cuts[0].Path)
	assert.Equal(t, "b/dt=2019-08-15/hr=11/", cuts[1].Path)
	assert.Equal(t, "b/dt=2019-08-15/hr=12/", cuts[2].Path)
}

func TestExpandDate(t *testing.T) {
	start := time.Date(2019, 8, 15, 0, 0, 0, 0, time.UTC).Unix()
	cuts := ExpandPattern("b/dt=DATE/", MacroDate, start, start+2*DaySeconds)
	require.Len(t, cuts, 2)
	assert.Equal(t, "b/dt=2019-08-15/", cuts[0].Path)
	assert.Equal(t, "b/dt=2019-08-16/", cuts[1].Path)
	assert.Equal(t, start, cuts[0].MDate)
}

func TestExpandTimestamp(t *testing.T) {
	cuts := ExpandPattern("b/ts=TIMESTAMP", MacroTimestamp, 1565913600, 1565999999)
	require.Len(t, cuts, 1)
	assert.Equal(t, "b/ts=1565913600", cuts[0].Path)
	assert.Equal(t, int64(1565913600), cuts[0].MDate)
}

func TestExpandEmptyWindow(t *testing.T) {
	assert.Nil(t, ExpandPattern("b/dt=DATE/", MacroDate, 100, 100))
	assert.Nil(t, ExpandPattern("b/dt=DATE/", MacroInvalid, 0, 100))
}
