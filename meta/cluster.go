package meta

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// ServerOptions are the server-level switches of the cluster config.
type ServerOptions struct {
	ANode        bool `yaml:"anode"`
	AuthRequired bool `yaml:"auth"`
}

// ClusterInfo is the in-memory image of the cluster configuration: the
// set of table specs plus a clock. Refresh cycles read it; it is
// replaced wholesale on config reload, never mutated in place.
type ClusterInfo struct {
	Version string                `yaml:"version"`
	Server  ServerOptions         `yaml:"server"`
	Tables  map[string]*TableSpec `yaml:"tables"`

	// Now returns unix seconds; tests pin it for determinism.
	Now func() int64 `yaml:"-"`
}

// LoadClusterInfo reads and validates a cluster config file. Any
// failure here is fatal at startup, not deferred to refresh time.
func LoadClusterInfo(path string) (*ClusterInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster config: %w", err)
	}
	return ParseClusterInfo(data)
}

func ParseClusterInfo(data []byte) (*ClusterInfo, error) {
	ci := &ClusterInfo{}
	if err := yaml.Unmarshal(data, ci); err != nil {
		return nil, fmt.Errorf("parse cluster config: %w", err)
	}
	for name, t := range ci.Tables {
		t.Name = name
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	ci.Now = func() int64 { return time.Now().Unix() }
	return ci, nil
}

// TableNames returns the table names in sorted order so every consumer
// iterates the same way.
func (ci *ClusterInfo) TableNames() []string {
	names := maps.Keys(ci.Tables)
	slices.Sort(names)
	return names
}
