package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type RecorderConfig struct {
	BufferDuration   time.Duration `env:"VOICE_BUFFER_DURATION, default=5m"`
	BufferExpiration time.Duration `env:"VOICE_BUFFER_EXPIRATION, default=30m"`
	WhitelistPath    string        `env:"RECORD_WHITELIST_PATH, default=whitelist"`
}

func NewRecorderConfigFromEnv() (*RecorderConfig, error) {
	var cfg RecorderConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
