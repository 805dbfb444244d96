// Package config loads settings from a .env file and the environment.
package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration for both binaries.
type Config struct {
	NATSURL       string `mapstructure:"NATS_URL"`
	WSURL         string `mapstructure:"WS_URL"`
	TransportKind string `mapstructure:"TRANSPORT"` // "nats" or "ws"

	RequestTimeoutSec int `mapstructure:"REQUEST_TIMEOUT_SEC"`
	LivenessPollSec   int `mapstructure:"LIVENESS_POLL_SEC"`
	DirectoryPollSec  int `mapstructure:"DIRECTORY_POLL_SEC"`

	RoomMinPlayers int `mapstructure:"ROOM_MIN_PLAYERS"`
	RoomMaxPlayers int `mapstructure:"ROOM_MAX_PLAYERS"`

	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	JournalQueue string `mapstructure:"JOURNAL_QUEUE"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (when present) plus environment variables.
func Load(logger *logrus.Logger) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("TRANSPORT", "nats")
	v.SetDefault("REQUEST_TIMEOUT_SEC", 10)
	v.SetDefault("LIVENESS_POLL_SEC", 5)
	v.SetDefault("DIRECTORY_POLL_SEC", 10)
	v.SetDefault("ROOM_MIN_PLAYERS", 2)
	v.SetDefault("ROOM_MAX_PLAYERS", 8)
	v.SetDefault("JOURNAL_QUEUE", "unoroom_actions")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		logger.Debug(".env file not found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequestTimeout returns the direct-operation timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// LivenessInterval returns the liveness poll cadence.
func (c *Config) LivenessInterval() time.Duration {
	return time.Duration(c.LivenessPollSec) * time.Second
}

// DirectoryInterval returns the directory poll cadence.
func (c *Config) DirectoryInterval() time.Duration {
	return time.Duration(c.DirectoryPollSec) * time.Second
}

// Level parses LOG_LEVEL, defaulting to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
