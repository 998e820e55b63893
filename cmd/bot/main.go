package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/aoi-yuito/disrecord/internal/config"
	"github.com/aoi-yuito/disrecord/internal/datalayer"
	"github.com/aoi-yuito/disrecord/internal/handler"
	"github.com/aoi-yuito/disrecord/internal/recorder"
	"github.com/aoi-yuito/disrecord/internal/soundboard"
	"github.com/bwmarrin/discordgo"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	config.SetupLogging()

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	recorderConfig, err := config.NewRecorderConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load recorder config: %w", err)
	}
	soundboardConfig, err := config.NewSoundboardConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load soundboard config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, err := recorder.New(
		recorderConfig.BufferDuration,
		recorderConfig.BufferExpiration,
		recorderConfig.WhitelistPath,
	)
	if err != nil {
		return fmt.Errorf("failed to create recorder: %w", err)
	}
	go rec.Run(ctx)

	soundStorage, err := datalayer.NewFileStorage(soundboardConfig.SoundsDirPath)
	if err != nil {
		return fmt.Errorf("failed to create sound storage: %w", err)
	}
	board, err := soundboard.New(
		soundboardConfig.MetadataPath,
		soundStorage,
		soundboardConfig.SoundMaxDuration,
		soundboardConfig.CacheDuration,
	)
	if err != nil {
		return fmt.Errorf("failed to create soundboard: %w", err)
	}
	go board.CacheLoop(ctx)

	bot := handler.NewBot(rec, board, version)

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready: func(s *discordgo.Session, r *discordgo.Ready) {
			handler.ReadyLog(s, r)
			if err := handler.EstablishCommands(s, discordConfig.GuildID); err != nil {
				slog.Error("failed to establish commands", "error", err)
			}
		},
		InteractionCreate: bot.InteractionCreate,
		VoiceStateUpdate:  bot.VoiceStateUpdate,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	// Supervision is external. A lost gateway kills the process instead of
	// reconnecting with stale voice state.
	session.ShouldReconnectOnError = false
	disconnected := make(chan struct{}, 1)
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		select {
		case disconnected <- struct{}{}:
		default:
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	select {
	case <-stop:
		return nil
	case <-disconnected:
		return fmt.Errorf("gateway connection lost")
	}
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
