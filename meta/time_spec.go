package meta

import "fmt"

// TimeType selects how the reserved time column is produced for each
// ingested row.
type TimeType uint8

const (
	// TimeStatic uses a fixed unix value from the spec.
	TimeStatic TimeType = iota
	// TimeCurrent stamps rows with the wall clock at resolution time.
	TimeCurrent
	// TimeColumn parses a source column into unix seconds.
	TimeColumn
	// TimeMacro derives the value from the work unit's macro date.
	TimeMacro
	// TimeProvided is injected by the source adapter, e.g. a stream
	// message timestamp.
	TimeProvided
)

var timeTypeNames = map[string]TimeType{
	"static":   TimeStatic,
	"current":  TimeCurrent,
	"column":   TimeColumn,
	"macro":    TimeMacro,
	"provided": TimeProvided,
}

func (t TimeType) String() string {
	switch t {
	case TimeStatic:
		return "static"
	case TimeCurrent:
		return "current"
	case TimeColumn:
		return "column"
	case TimeMacro:
		return "macro"
	case TimeProvided:
		return "provided"
	}
	return "unknown"
}

func (t *TimeType) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	tt, ok := timeTypeNames[name]
	if !ok {
		return fmt.Errorf("unknown time type %q", name)
	}
	*t = tt
	return nil
}

// TimeSpec describes the time source of a table. Slots are typed by
// Type: Value backs static specs and the macro anchor, Column names the
// source column, Pattern drives column parsing ("" means the column
// already holds integer unix seconds, "auto" means lenient parsing).
type TimeSpec struct {
	Type    TimeType `yaml:"type"`
	Value   int64    `yaml:"value"`
	Column  string   `yaml:"column"`
	Pattern string   `yaml:"pattern"`
}
