package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from an optional
// YAML file with environment-variable overrides on top.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Game struct {
		RoundSeconds       int     `yaml:"round_seconds"`
		AutoAdvanceSeconds float64 `yaml:"auto_advance_seconds"`
		SessionMinutes     int     `yaml:"session_minutes"`
	} `yaml:"game"`

	Audio struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"audio"`

	NATSURL     string `yaml:"nats_url"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Default returns the baseline configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Game.RoundSeconds = 3
	cfg.Game.AutoAdvanceSeconds = 1.5
	cfg.Game.SessionMinutes = 2
	cfg.Audio.Enabled = false
	return cfg
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Server.Addr = getEnv("PITCHLAB_ADDR", cfg.Server.Addr)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.Game.RoundSeconds = getEnvAsInt("PITCHLAB_ROUND_SECONDS", cfg.Game.RoundSeconds)
	cfg.Game.SessionMinutes = getEnvAsInt("PITCHLAB_SESSION_MINUTES", cfg.Game.SessionMinutes)

	return cfg, nil
}

// RoundDuration returns the per-round countdown.
func (c Config) RoundDuration() time.Duration {
	return time.Duration(c.Game.RoundSeconds) * time.Second
}

// SessionDuration returns the default countdown-session length.
func (c Config) SessionDuration() time.Duration {
	return time.Duration(c.Game.SessionMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
