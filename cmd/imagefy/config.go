package main

import (
	"fmt"
	"strings"

	"github.com/flaneur2020/imagefy/imagefy"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the complete CLI configuration
type Config struct {
	Width     uint32    `yaml:"width" mapstructure:"width"`
	Height    uint32    `yaml:"height" mapstructure:"height"`
	Progress  bool      `yaml:"progress" mapstructure:"progress"`
	AssumeYes bool      `yaml:"assume_yes" mapstructure:"assume_yes"`
	Log       LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Width:    1000,
		Height:   1000,
		Progress: true,
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// flagKeys maps config keys to the command line flags that override them.
var flagKeys = map[string]string{
	"width":      "width",
	"height":     "height",
	"assume_yes": "yes",
}

// LoadConfig merges defaults, an optional config file, IMAGEFY_* environment
// variables and explicitly set flags, in increasing priority.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("width", defaults.Width)
	v.SetDefault("height", defaults.Height)
	v.SetDefault("progress", defaults.Progress)
	v.SetDefault("assume_yes", defaults.AssumeYes)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size", defaults.Log.MaxSize)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age", defaults.Log.MaxAge)
	v.SetDefault("log.compress", defaults.Log.Compress)

	v.SetEnvPrefix("IMAGEFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if flags != nil {
		if noProgress, err := flags.GetBool("no-progress"); err == nil && flags.Changed("no-progress") {
			config.Progress = !noProgress
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := imagefy.ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}

	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return fmt.Errorf("log rotation settings must be non-negative")
	}

	return nil
}
