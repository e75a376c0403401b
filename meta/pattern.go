package meta

import (
	"strconv"
	"strings"
	"time"
)

// PatternMacro is a path-template token expanded to concrete time
// buckets. Macros form a strict hierarchy DATE > HOUR > MINUTE > SECOND;
// TIMESTAMP stands alone.
type PatternMacro uint8

const (
	MacroInvalid PatternMacro = iota
	MacroDate
	MacroHour
	MacroMinute
	MacroSecond
	MacroTimestamp
)

const (
	HourMinutes   = 60
	MinuteSeconds = 60
	DayHours      = 24
	HourSeconds   = HourMinutes * MinuteSeconds
	DaySeconds    = HourSeconds * DayHours
)

var macroToken = map[PatternMacro]string{
	MacroDate:      "DATE",
	MacroHour:      "HOUR",
	MacroMinute:    "MINUTE",
	MacroSecond:    "SECOND",
	MacroTimestamp: "TIMESTAMP",
}

func (m PatternMacro) String() string {
	if s, ok := macroToken[m]; ok {
		return s
	}
	return "INVALID"
}

// Child returns the next finer macro in the hierarchy, MacroInvalid at
// the bottom.
func (m PatternMacro) Child() PatternMacro {
	switch m {
	case MacroDate:
		return MacroHour
	case MacroHour:
		return MacroMinute
	case MacroMinute:
		return MacroSecond
	}
	return MacroInvalid
}

// UnitSeconds is the bucket width of the macro in seconds.
func (m PatternMacro) UnitSeconds() int64 {
	switch m {
	case MacroDate:
		return DaySeconds
	case MacroHour:
		return HourSeconds
	case MacroMinute:
		return MinuteSeconds
	case MacroSecond:
		return 1
	}
	return 0
}

// ChildSize is how many child units one unit of the macro holds.
func (m PatternMacro) ChildSize() int {
	switch m {
	case MacroDate:
		return DayHours
	case MacroHour:
		return HourMinutes
	case MacroMinute:
		return MinuteSeconds
	}
	return 0
}

// ExtractPatternMacro classifies a path template by the macro tokens it
// contains. The finest token present wins as long as the coarser levels
// above it are present too; a broken hierarchy is invalid.
func ExtractPatternMacro(pattern string) PatternMacro {
	ts := strings.Contains(pattern, macroToken[MacroTimestamp])
	date := strings.Contains(pattern, macroToken[MacroDate])
	hour := strings.Contains(pattern, macroToken[MacroHour])
	minute := strings.Contains(pattern, macroToken[MacroMinute])
	second := strings.Contains(pattern, macroToken[MacroSecond])

	switch {
	case second && minute && hour && date:
		return MacroSecond
	case minute && hour && date:
		return MacroMinute
	case hour && date && !second:
		return MacroHour
	case date && !minute && !second:
		return MacroDate
	}

	if ts && !date && !hour && !minute && !second {
		return MacroTimestamp
	}

	return MacroInvalid
}

// MacroCut is one expanded prefix plus the unix start of its bucket,
// carried forward as the macro date of the work unit.
type MacroCut struct {
	Path  string
	MDate int64
}

// ExpandPattern substitutes the macro tokens in template for every
// bucket inside [start, end). Start is floored and end is ceiled to the
// macro's unit, so a partial bucket at either edge is still covered.
func ExpandPattern(template string, macro PatternMacro, start, end int64) []MacroCut {
	if macro == MacroInvalid || end <= start {
		return nil
	}

	if macro == MacroTimestamp {
		return []MacroCut{{
			Path:  strings.ReplaceAll(template, macroToken[MacroTimestamp], strconv.FormatInt(start, 10)),
			MDate: start,
		}}
	}

	unit := macro.UnitSeconds()
	first := start - start%unit
	last := end
	if r := end % unit; r != 0 {
		last = end - r + unit
	}

	cuts := make([]MacroCut, 0, (last-first)/unit)
	for t := first; t < last; t += unit {
		cuts = append(cuts, MacroCut{Path: cutPath(template, t), MDate: t})
	}
	return cuts
}

// cutPath renders one bucket start into the template. Every macro level
// present in the template is substituted from the same instant.
func cutPath(template string, t int64) string {
	u := time.Unix(t, 0).UTC()
	p := strings.ReplaceAll(template, macroToken[MacroDate], u.Format("2006-01-02"))
	p = strings.ReplaceAll(p, macroToken[MacroSecond], u.Format("05"))
	p = strings.ReplaceAll(p, macroToken[MacroMinute], u.Format("04"))
	p = strings.ReplaceAll(p, macroToken[MacroHour], u.Format("15"))
	return p
}
