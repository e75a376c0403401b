package meta

import "fmt"

// DataSource identifies where a table's inputs come from.
type DataSource uint8

const (
	Custom DataSource = iota
	S3
	Local
	Kafka
	GSheet
)

var sourceNames = map[string]DataSource{
	"custom": Custom,
	"s3":     S3,
	"local":  Local,
	"kafka":  Kafka,
	"gsheet": GSheet,
}

func (s DataSource) String() string {
	switch s {
	case Custom:
		return "custom"
	case S3:
		return "s3"
	case Local:
		return "local"
	case Kafka:
		return "kafka"
	case GSheet:
		return "gsheet"
	}
	return "unknown"
}

// IsFileSystem reports whether the source is listed and fetched through
// a file-system style adapter.
func (s DataSource) IsFileSystem() bool {
	return s == S3 || s == Local
}

// Protocol returns the adapter protocol for the source, empty when the
// source has no file-system protocol.
func (s DataSource) Protocol() string {
	switch s {
	case S3:
		return "s3"
	case Local:
		return "local"
	}
	return ""
}

func (s *DataSource) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	src, ok := sourceNames[name]
	if !ok {
		return fmt.Errorf("unknown data source %q", name)
	}
	*s = src
	return nil
}
