package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type SoundboardConfig struct {
	MetadataPath     string        `env:"SOUNDBOARD_METADATA_PATH, default=soundboard"`
	SoundsDirPath    string        `env:"SOUNDS_DIR_PATH, default=sounds"`
	SoundMaxDuration time.Duration `env:"SOUND_MAX_DURATION, default=7s"`
	CacheDuration    time.Duration `env:"SOUND_CACHE_DURATION, default=10m"`
}

func NewSoundboardConfigFromEnv() (*SoundboardConfig, error) {
	var cfg SoundboardConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
