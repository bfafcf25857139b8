// Package config loads application configuration from defaults, a YAML
// config file, and SETDECK_* environment variables.
package config

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	Legacy    LegacyConfig    `mapstructure:"legacy" yaml:"legacy"`
	Web       WebConfig       `mapstructure:"web" yaml:"web"`
	Migration MigrationConfig `mapstructure:"migration" yaml:"migration"`
	Events    EventsConfig    `mapstructure:"events" yaml:"events"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// StateConfig configures the workout database.
type StateConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LegacyConfig locates the pre-migration database.
type LegacyConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WebConfig configures the REST API server.
type WebConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// MigrationConfig configures the one-time legacy import.
type MigrationConfig struct {
	// AutoRun triggers the migration during serve startup.
	AutoRun bool `mapstructure:"auto_run" yaml:"auto_run"`
}

// EventsConfig configures the in-process event bus.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}
