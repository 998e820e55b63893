package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token   string `env:"DISCORD_TOKEN, required"`
	GuildID string `env:"DISCORD_GUILD_ID"`
}

// NewDiscordConfigFromEnv loads the Discord configuration from the environment.
// An empty GuildID means commands are registered globally.
func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
