package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aoi-yuito/disrecord/internal/opus"
	"github.com/aoi-yuito/disrecord/internal/recorder"
	"github.com/aoi-yuito/disrecord/internal/voice"
	"github.com/aoi-yuito/disrecord/internal/wav"
	"github.com/bwmarrin/discordgo"
)

// MaxFileSize caps each emitted attachment. Discord's message limit is
// 25 MiB including the rest of the body; 24 MiB leaves reliable headroom.
const MaxFileSize = 24 * (1 << 20)

// guildListener is one guild's active voice receive pump. discordgo never
// closes OpusRecv, and Disconnect drops the connection from the session
// entirely, so the pump is tied to one connection and carries its own
// shutdown signal.
type guildListener struct {
	vc   *discordgo.VoiceConnection
	stop chan struct{}
}

// listen joins the caller's voice channel and starts feeding the recorder.
func (b *Bot) listen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	channelID, ok := voice.UserVoiceChannel(s, i.GuildID, interactionUser(i).ID)
	if !ok {
		respondText(s, i, "You aren't in a voice channel. Dahhh...")
		return
	}

	vc, err := voice.Join(s, i.GuildID, channelID)
	if err != nil {
		slog.Error("failed to join voice channel", "guildID", i.GuildID, "channelID", channelID, "error", err)
		respondText(s, i, "I could not join your voice channel.")
		return
	}

	if listener, fresh := b.track(i.GuildID, vc); fresh {
		vc.AddHandler(func(_ *discordgo.VoiceConnection, su *discordgo.VoiceSpeakingUpdate) {
			b.dispatch(recorder.MapUser{UserID: su.UserID, SSRC: uint32(su.SSRC)})
		})
		go b.pumpVoice(i.GuildID, listener)
	}

	respondText(s, i, "Listening...")
}

// track records vc as the guild's active connection. It reports whether
// the caller must attach handlers and start a pump: true for a new guild
// or a reconnect, false when the same connection is already pumped (a
// /listen that only moved the bot between channels). A superseded
// listener is stopped here.
func (b *Bot) track(guildID string, vc *discordgo.VoiceConnection) (*guildListener, bool) {
	b.mu.Lock()
	existing := b.listening[guildID]
	if existing != nil && existing.vc == vc {
		b.mu.Unlock()
		return existing, false
	}
	listener := &guildListener{vc: vc, stop: make(chan struct{})}
	b.listening[guildID] = listener
	b.mu.Unlock()

	if existing != nil {
		close(existing.stop)
	}
	return listener, true
}

// stopListening shuts down the guild's receive pump, if any. Safe to call
// when none is running.
func (b *Bot) stopListening(guildID string) {
	b.mu.Lock()
	listener := b.listening[guildID]
	delete(b.listening, guildID)
	b.mu.Unlock()

	if listener != nil {
		close(listener.stop)
	}
}

// pumpVoice decodes incoming voice packets and forwards them to the
// recorder until the listener is stopped or the receive channel closes.
func (b *Bot) pumpVoice(guildID string, listener *guildListener) {
	defer func() {
		b.mu.Lock()
		if b.listening[guildID] == listener {
			delete(b.listening, guildID)
		}
		b.mu.Unlock()
	}()

	// Opus decoders are stateful, one per SSRC.
	decoders := make(map[uint32]*opus.Decoder)

	for {
		var packet *discordgo.Packet
		var ok bool
		select {
		case <-listener.stop:
			return
		case packet, ok = <-listener.vc.OpusRecv:
			if !ok {
				return
			}
		}
		if packet == nil {
			continue
		}

		decoder, ok := decoders[packet.SSRC]
		if !ok {
			var err error
			decoder, err = opus.NewDecoder()
			if err != nil {
				slog.Error("failed to create opus decoder", "ssrc", packet.SSRC, "error", err)
				continue
			}
			decoders[packet.SSRC] = decoder
		}

		stereo, err := decoder.Decode(packet.Opus)
		if err != nil {
			slog.Warn("failed to decode voice packet", "ssrc", packet.SSRC, "error", err)
			continue
		}
		b.dispatch(recorder.RegisterVoiceData{SSRC: packet.SSRC, Stereo: stereo})
	}
}

// listWhitelist replies with mentions of whitelisted users that are
// members of this guild.
func (b *Bot) listWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	reply := make(chan map[string]struct{}, 1)
	b.dispatch(recorder.GetWhitelist{Reply: reply})
	whitelist := <-reply

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		slog.Warn("cannot find guild in state", "guildID", i.GuildID, "error", err)
		return
	}

	var mentions []string
	for _, member := range guild.Members {
		if _, ok := whitelist[member.User.ID]; ok {
			mentions = append(mentions, member.User.Mention())
		}
	}
	sort.Strings(mentions)

	content := "*Nobody.*"
	if len(mentions) > 0 {
		content = strings.Join(mentions, ", ")
	}
	respondText(s, i, content)
}

func (b *Bot) joinWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.dispatch(recorder.AddToWhitelist{UserID: interactionUser(i).ID})
	respondText(s, i, "You are now in the whitelist.")
}

func (b *Bot) leaveWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.dispatch(recorder.RemoveFromWhitelist{UserID: interactionUser(i).ID})
	respondText(s, i, "You have been removed from the whitelist.")
}

// download streams a user's buffered audio as one or more WAV attachments.
func (b *Bot) download(s *discordgo.Session, i *discordgo.InteractionCreate) {
	option := findOption(i.ApplicationCommandData().Options, "user")
	if option == nil {
		return
	}
	user := option.UserValue(s)

	reply := make(chan []int16, 1)
	b.dispatch(recorder.GetData{UserID: user.ID, Reply: reply})
	samples := <-reply

	if samples == nil {
		respondText(s, i, fmt.Sprintf("No voice data found for %s.", user.Mention()))
		return
	}

	if err := deferInteraction(s, i); err != nil {
		slog.Error("failed to defer download", "error", err)
		return
	}

	chunks := ChunkSamples(samples, MaxFileSize)
	for index, chunk := range chunks {
		filename := fmt.Sprintf("%s.wav", user.Username)
		if len(chunks) > 1 {
			filename = fmt.Sprintf("%s-%d.wav", user.Username, index+1)
		}

		_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Files: []*discordgo.File{
				{
					Name:        filename,
					ContentType: "audio/wav",
					Reader:      bytes.NewReader(wav.Package(chunk)),
				},
			},
		})
		if err != nil {
			slog.Error("failed to send voice data attachment", "filename", filename, "error", err)
			return
		}
	}
}

// ChunkSamples splits samples so each chunk packages into a WAV no larger
// than maxFileSize.
func ChunkSamples(samples []int16, maxFileSize int) [][]int16 {
	perFile := (maxFileSize - wav.HeaderSize) / 2

	var chunks [][]int16
	for start := 0; start < len(samples); start += perFile {
		chunks = append(chunks, samples[start:min(start+perFile, len(samples))])
	}
	return chunks
}
