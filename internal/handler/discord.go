package handler

import (
	"log/slog"
	"os"
	"sync"

	"github.com/aoi-yuito/disrecord/internal/recorder"
	"github.com/aoi-yuito/disrecord/internal/soundboard"
	"github.com/aoi-yuito/disrecord/internal/voice"
	"github.com/bwmarrin/discordgo"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)
type VoiceStateUpdateHandler = func(*discordgo.Session, *discordgo.VoiceStateUpdate)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

// Bot wires Discord interactions to the recorder and the soundboard.
type Bot struct {
	recorder *recorder.Recorder
	board    *soundboard.Soundboard
	version  string

	mu        sync.Mutex
	listening map[string]*guildListener // guilds with an active voice receive pump
}

func NewBot(rec *recorder.Recorder, board *soundboard.Soundboard, version string) *Bot {
	return &Bot{
		recorder:  rec,
		board:     board,
		version:   version,
		listening: make(map[string]*guildListener),
	}
}

// dispatch queues a recorder action. A stopped recorder means the
// adapter/recorder contract is broken, which is fatal.
func (b *Bot) dispatch(a recorder.Action) {
	if err := b.recorder.Dispatch(a); err != nil {
		slog.Error("recorder action queue is broken", "error", err)
		os.Exit(1)
	}
}

// InteractionCreate routes slash commands and button clicks.
func (b *Bot) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(s, i)
	}
}

func (b *Bot) dispatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	// Common.
	case "version":
		respondText(s, i, b.version)
	case "help":
		respondText(s, i, helpText)
	case "listen":
		b.listen(s, i)

	// Record.
	case "download":
		b.download(s, i)
	case "list":
		b.listWhitelist(s, i)
	case "join":
		b.joinWhitelist(s, i)
	case "leave":
		b.leaveWhitelist(s, i)

	// Soundboard.
	case "sounds":
		b.listSounds(s, i)
	case "upload":
		b.upload(s, i)
	case "delete":
		b.deleteSound(s, i)
	}
}

// VoiceStateUpdate implements the auto-leave policy: whenever someone
// moves, check both the channel they left and the one they joined; if the
// bot is alone in one of them, it disconnects. A disconnect also shuts
// down the guild's receive pump, since discordgo never closes OpusRecv.
func (b *Bot) VoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	botID := s.State.User.ID
	if vsu.BeforeUpdate != nil && vsu.BeforeUpdate.ChannelID != "" {
		if voice.LeaveIfAlone(s, vsu.BeforeUpdate.GuildID, vsu.BeforeUpdate.ChannelID, botID) {
			b.stopListening(vsu.BeforeUpdate.GuildID)
		}
	}
	if vsu.ChannelID != "" {
		if voice.LeaveIfAlone(s, vsu.GuildID, vsu.ChannelID, botID) {
			b.stopListening(vsu.GuildID)
		}
	}
}

const helpText = "Whitelist yourself with /join, make the bot /listen, " +
	"then /download your recordings. Use Audacity to load and cut parts of the recordings.\n" +
	"Soundboard: /upload adds a WAV (mono, 16-bit, 48 kHz), /sounds shows the buttons. " +
	"An upload with an already-taken index pushes the sounds after it one slot further."

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
	VoiceStateUpdate  VoiceStateUpdateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildVoiceStates
	s.State.TrackVoice = true

	s.AddHandler(handlers.Ready)
	s.AddHandler(handlers.InteractionCreate)
	if handlers.VoiceStateUpdate != nil {
		s.AddHandler(handlers.VoiceStateUpdate)
	}

	return s, nil
}
