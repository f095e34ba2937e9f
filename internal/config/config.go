package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the daemon.
type Config struct {
	DatabaseURL        string        `mapstructure:"database_url"`
	GenerationInterval time.Duration `mapstructure:"generation_interval"`
	LookAheadDays      int           `mapstructure:"lookahead_days"`

	// DailyPassTime optionally schedules an extra catch-up pass at a
	// fixed HH:MM (UTC) each day. Empty disables it.
	DailyPassTime string `mapstructure:"daily_pass_time"`
}

// Load reads configuration from the environment (TASKCYCLE_ prefix)
// with sane defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "taskcycle.db")
	v.SetDefault("generation_interval", time.Hour)
	v.SetDefault("lookahead_days", 7)
	v.SetDefault("daily_pass_time", "")

	v.SetEnvPrefix("TASKCYCLE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.GenerationInterval <= 0 {
		return Config{}, fmt.Errorf("generation_interval must be positive")
	}
	if cfg.LookAheadDays <= 0 {
		return Config{}, fmt.Errorf("lookahead_days must be positive")
	}
	return cfg, nil
}
