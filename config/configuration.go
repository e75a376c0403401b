package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// Configuration is the runtime tuning of the ingestion node. Every knob
// can be overridden from the environment.
type Configuration struct {
	// max rows per sealed block
	BlockMaxRows int `json:"nblock_max_rows" mapstructure:"nblock_max_rows"`
	// loader name that triggers synthetic test data
	TestLoader string `json:"ntest_loader" mapstructure:"ntest_loader"`
	// parallel executor workers
	Workers int `json:"workers" mapstructure:"workers"`
	// seconds between refresh cycles
	RefreshS int `json:"refresh_s" mapstructure:"refresh_s"`
	// directory for fetch temp files
	TmpPath string `json:"tmp_path" mapstructure:"tmp_path"`
	// cluster config file with the table specs
	ClusterFile string `json:"cluster_file" mapstructure:"cluster_file"`
	// admin listener (metrics + snapshots)
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`

	S3Endpoint string   `json:"s3_endpoint" mapstructure:"s3_endpoint"`
	S3Key      string   `json:"s3_key" mapstructure:"s3_key"`
	S3Secret   string   `json:"s3_secret" mapstructure:"s3_secret"`
	S3Region   string   `json:"s3_region" mapstructure:"s3_region"`
	S3Secure   bool     `json:"s3_secure" mapstructure:"s3_secure"`
	Brokers    []string `json:"brokers" mapstructure:"brokers"`
}

var Config *Configuration

// InitConfig loads the runtime configuration from an optional file plus
// the environment.
func InitConfig(file string) error {
	v := viper.New()
	v.SetDefault("nblock_max_rows", 50000)
	v.SetDefault("ntest_loader", "NebulaTest")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("refresh_s", 10)
	v.SetDefault("tmp_path", "/tmp")
	v.SetDefault("cluster_file", "configs/cluster.yml")
	v.SetDefault("listen_addr", ":9091")
	v.SetDefault("s3_secure", true)
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	Config = &Configuration{}
	return v.Unmarshal(Config)
}
