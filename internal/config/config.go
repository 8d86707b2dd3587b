package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SchedulerConfig holds the fixed-step loop settings.
type SchedulerConfig struct {
	FixedDelta     float64 `json:"fixedDelta" mapstructure:"fixedDelta"`
	MaxAccumulator float64 `json:"maxAccumulator" mapstructure:"maxAccumulator"`
}

// RecorderConfig holds replay archive settings.
type RecorderConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	Backend       string `json:"backend" mapstructure:"backend"`
	OutputDir     string `json:"outputDir" mapstructure:"outputDir"`
	FlushInterval string `json:"flushInterval" mapstructure:"flushInterval"`
	BatchSize     int    `json:"batchSize" mapstructure:"batchSize"`
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./bridgelogs")

	viper.SetDefault("scheduler.fixedDelta", 1.0/60.0)
	viper.SetDefault("scheduler.maxAccumulator", 0.25)

	viper.SetDefault("pool.maxSize", 16)

	viper.SetDefault("recorder.enabled", false)
	viper.SetDefault("recorder.backend", "sqlite")
	viper.SetDefault("recorder.outputDir", "./bridgerecordings")
	viper.SetDefault("recorder.flushInterval", "500ms")
	viper.SetDefault("recorder.batchSize", 512)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "bridge")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "bridge-metrics")
	viper.SetDefault("influx.bucket", "bridge_performance")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("bridge.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		// defaults cover everything; only a malformed file is fatal
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Scheduler returns the fixed-step loop settings.
func Scheduler() (SchedulerConfig, error) {
	var cfg SchedulerConfig
	if err := viper.UnmarshalKey("scheduler", &cfg); err != nil {
		return SchedulerConfig{}, fmt.Errorf("error reading scheduler config: %w", err)
	}
	return cfg, nil
}

// Recorder returns the replay archive settings.
func Recorder() (RecorderConfig, error) {
	var cfg RecorderConfig
	if err := viper.UnmarshalKey("recorder", &cfg); err != nil {
		return RecorderConfig{}, fmt.Errorf("error reading recorder config: %w", err)
	}
	return cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
