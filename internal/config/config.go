// Package config loads tint configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	// Database is the path to the sqlite snapshot and change log.
	Database string `mapstructure:"database"`

	Log struct {
		// Level is the zerolog level name.
		Level string `mapstructure:"level"`

		// Pretty switches from JSON to console output.
		Pretty bool `mapstructure:"pretty"`
	} `mapstructure:"log"`

	Compliance struct {
		// DefaultMinimumRatio is used when a pair is registered without
		// an explicit minimum. 4.5 is the WCAG AA body-text ratio.
		DefaultMinimumRatio float64 `mapstructure:"default_minimum_ratio"`

		// AutoScan runs a compliance pass after every mutating command.
		AutoScan bool `mapstructure:"auto_scan"`
	} `mapstructure:"compliance"`

	Cascade struct {
		LightSaturation     float64 `mapstructure:"light_saturation"`
		LightValue          float64 `mapstructure:"light_value"`
		DarkSaturationBoost float64 `mapstructure:"dark_saturation_boost"`
		DarkValueScale      float64 `mapstructure:"dark_value_scale"`
		DarkValueFloor      float64 `mapstructure:"dark_value_floor"`
	} `mapstructure:"cascade"`
}

// Load reads configuration. When path is empty the default locations
// are searched: $TINT_CONFIG, ./config.yaml, ~/.config/tint/config.yaml.
// A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database", defaultDatabasePath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("compliance.default_minimum_ratio", 4.5)
	v.SetDefault("compliance.auto_scan", true)

	v.SetEnvPrefix("TINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if env := os.Getenv("TINT_CONFIG"); env != "" {
		v.SetConfigFile(env)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tint"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tint.db"
	}
	return filepath.Join(home, ".local", "share", "tint", "tint.db")
}
