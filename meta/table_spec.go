package meta

import (
	"fmt"
)

// KafkaSerde carries the stream framing of a kafka-backed table.
type KafkaSerde struct {
	// topic retention in seconds
	Retention int64 `yaml:"retention"`
	// rows per ingestion batch
	Size int64 `yaml:"size"`
	// wire protocol, e.g. binary or json
	Protocol string `yaml:"protocol"`
	// column name to field id, as defined by the producer schema
	ColumnMap map[string]uint32 `yaml:"cmap"`
}

// Column holds per-column storage properties.
type Column struct {
	BloomFilter bool   `yaml:"bloom_filter"`
	Dict        bool   `yaml:"dict"`
	Default     string `yaml:"default"`
}

type ColumnProps map[string]Column

// AccessRule grants an action to a set of groups.
type AccessRule struct {
	Action string   `yaml:"action"`
	Groups []string `yaml:"groups"`
}

type AccessSpec []AccessRule

// BucketInfo describes how source files are bucketed by a column.
type BucketInfo struct {
	Count  uint64 `yaml:"count"`
	Column string `yaml:"column"`
}

// Settings is a free-form key-value bag. Recognized keys are documented
// on the components that read them ("filter", "csv.delimiter").
type Settings map[string]string

// TableSpec is the declarative description of a logical table,
// immutable once loaded. Specs are identified by name; two specs are
// equal iff their names match.
type TableSpec struct {
	Name     string      `yaml:"-"`
	MaxMB    uint64      `yaml:"max-mb"`
	MaxHr    uint64      `yaml:"max-hr"`
	Schema   string      `yaml:"schema"`
	Source   DataSource  `yaml:"data"`
	Loader   string      `yaml:"loader"`
	Location string      `yaml:"source"`
	Backup   string      `yaml:"backup"`
	Format   string      `yaml:"format"`
	Serde    KafkaSerde  `yaml:"serde"`
	Columns  ColumnProps `yaml:"columns"`
	Time     TimeSpec    `yaml:"time"`
	Access   AccessSpec  `yaml:"access"`
	Bucket   BucketInfo  `yaml:"bucket"`
	Settings Settings    `yaml:"settings"`
}

func (t *TableSpec) String() string {
	// table name @ location - format: time
	return fmt.Sprintf("%s@%s-%s: %d", t.Name, t.Location, t.Format, t.Time.Value)
}

// Equal compares specs by name only; the configuration guarantees
// names are unique.
func (t *TableSpec) Equal(o *TableSpec) bool {
	return o != nil && t.Name == o.Name
}

// MaxBytes is the per-table resident cap in bytes.
func (t *TableSpec) MaxBytes() int64 {
	return int64(t.MaxMB) * 1024 * 1024
}

// MaxSeconds is the retention window in seconds.
func (t *TableSpec) MaxSeconds() int64 {
	return int64(t.MaxHr) * HourSeconds
}

// Validate checks the invariants that must hold before any work unit is
// derived from the spec.
func (t *TableSpec) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table spec without a name")
	}
	schema, err := t.ParsedSchema()
	if err != nil {
		return fmt.Errorf("table %s: %w", t.Name, err)
	}
	switch t.Time.Type {
	case TimeColumn:
		if _, ok := schema.Child(t.Time.Column); !ok {
			return fmt.Errorf("table %s: time column %q not in schema", t.Name, t.Time.Column)
		}
	case TimeMacro:
		if t.Time.Pattern == "" {
			return fmt.Errorf("table %s: macro time requires a pattern", t.Name)
		}
	}
	if t.Source.IsFileSystem() && t.Location == "" {
		return fmt.Errorf("table %s: file-system source requires a location", t.Name)
	}
	return nil
}
