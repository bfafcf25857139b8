package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		State: StateConfig{
			Path: filepath.Join(".setdeck", "setdeck.db"),
		},
		Legacy: LegacyConfig{
			Path: filepath.Join(".setdeck", "readyset.db"),
		},
		Web: WebConfig{
			Addr:        ":8787",
			CORSOrigins: []string{"*"},
		},
		Migration: MigrationConfig{
			AutoRun: true,
		},
		Events: EventsConfig{
			BufferSize: 100,
		},
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	v.SetDefault("state.path", def.State.Path)
	v.SetDefault("legacy.path", def.Legacy.Path)

	v.SetDefault("web.addr", def.Web.Addr)
	v.SetDefault("web.cors_origins", def.Web.CORSOrigins)

	v.SetDefault("migration.auto_run", def.Migration.AutoRun)

	v.SetDefault("events.buffer_size", def.Events.BufferSize)
}

// WriteDefault writes the default configuration as YAML to path, atomically.
// An existing file is left untouched.
func WriteDefault(path string) error {
	if fileExists(path) {
		return nil
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	return atomicWrite(path, data)
}
