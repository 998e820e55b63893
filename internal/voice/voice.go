// Package voice wraps discordgo voice connections: joining the right
// channel, playing PCM, and the auto-leave-when-alone policy.
package voice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aoi-yuito/disrecord/internal/opus"
	"github.com/bwmarrin/discordgo"
)

// UserVoiceChannel returns the ID of the voice channel the user currently
// occupies in the guild, if any.
func UserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// Join connects to a voice channel unmuted and undeafened so the bot can
// both record and play.
func Join(s *discordgo.Session, guildID, channelID string) (*discordgo.VoiceConnection, error) {
	vc, err := s.ChannelVoiceJoin(guildID, channelID, false, false)
	if err != nil {
		return nil, fmt.Errorf("unable to join the voice channel: %w", err)
	}
	return vc, nil
}

// Current returns the bot's active voice connection in the guild, if any.
func Current(s *discordgo.Session, guildID string) (*discordgo.VoiceConnection, bool) {
	s.RLock()
	vc, ok := s.VoiceConnections[guildID]
	s.RUnlock()
	return vc, ok
}

// Play encodes mono PCM and streams it into the voice connection,
// toggling the speaking state around the stream.
func Play(ctx context.Context, vc *discordgo.VoiceConnection, mono []int16) error {
	encoder, err := opus.NewEncoder()
	if err != nil {
		return err
	}
	frames, err := encoder.EncodeMono(mono)
	if err != nil {
		return err
	}

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("error setting speaking state to 'true': %w", err)
	}
	defer func() {
		if err := vc.Speaking(false); err != nil {
			slog.Error("failed to stop speaking", "error", err)
		}
	}()

	return opus.StreamToVoice(ctx, frames, vc.OpusSend)
}

// OnlyBotRemains reports whether the bot is the sole member left in the
// given voice channel.
func OnlyBotRemains(s *discordgo.Session, guildID, channelID, botID string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return false
	}

	var members int
	var botPresent bool
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		members++
		if vs.UserID == botID {
			botPresent = true
		}
	}
	return botPresent && members == 1
}

// LeaveIfAlone disconnects the bot from the guild's voice channel when it
// is the only member remaining. Called on every voice state update. It
// reports whether a disconnect was issued so the caller can tear down
// anything reading from the connection.
func LeaveIfAlone(s *discordgo.Session, guildID, channelID, botID string) bool {
	if !OnlyBotRemains(s, guildID, channelID, botID) {
		return false
	}
	vc, ok := Current(s, guildID)
	if !ok {
		return false
	}
	if err := vc.Disconnect(); err != nil {
		slog.Error("failed to disconnect from empty channel", "guildID", guildID, "error", err)
	}
	return true
}
