package handler

import (
	"context"
	"log/slog"

	"github.com/aoi-yuito/disrecord/internal/presenters"
	"github.com/aoi-yuito/disrecord/internal/soundboard"
	"github.com/aoi-yuito/disrecord/internal/util"
	"github.com/aoi-yuito/disrecord/internal/voice"
	"github.com/aoi-yuito/disrecord/internal/wav"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// listSounds renders the guild's soundboard as button grids. The original
// interaction reply is deleted and the grids go out as plain channel
// messages, so they survive past the interaction token's lifetime.
func (b *Bot) listSounds(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	groups := b.board.List(i.GuildID)
	if len(groups) == 0 {
		respondText(s, i, "There is no sounds uploaded to this server...yet.")
		return
	}

	if err := deferInteraction(s, i); err != nil {
		slog.Error("failed to defer sound list", "error", err)
		return
	}
	if err := s.InteractionResponseDelete(i.Interaction); err != nil {
		slog.Warn("failed to delete original sound list response", "error", err)
	}

	for _, group := range groups {
		for _, components := range presenters.BuildGroupMessages(group) {
			_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
				Components: components,
			})
			if err != nil {
				slog.Error("failed to send sounds list", "group", group.Name, "error", err)
				return
			}
		}
	}
}

// UploadRequest is the parsed form of the upload command.
type UploadRequest struct {
	Attachment soundboard.Attachment
	Name       string
	Color      soundboard.Color
	Group      string
	Emoji      string
	Index      *int
}

// ParseColor maps the user-facing color words to button colors.
// Unknown words fall back to blue.
func ParseColor(word string) soundboard.Color {
	switch word {
	case "green":
		return soundboard.ColorSuccess
	case "red":
		return soundboard.ColorDanger
	case "grey":
		return soundboard.ColorSecondary
	default:
		return soundboard.ColorPrimary
	}
}

// ParseUploadRequest extracts and normalizes the upload command's options.
// The index option is 1-based for users and 0-based internally; the emoji
// option keeps only its first rune.
func ParseUploadRequest(data discordgo.ApplicationCommandInteractionData) (*UploadRequest, error) {
	attachment, err := util.GetOne(data.Resolved.Attachments)
	if err != nil {
		return nil, &UserError{Message: "Exactly one sound attachment is required."}
	}

	request := &UploadRequest{
		Attachment: soundboard.Attachment{
			URL:  attachment.URL,
			Size: int64(attachment.Size),
		},
	}

	for _, option := range data.Options {
		switch option.Name {
		case "name":
			request.Name = option.StringValue()
		case "color":
			request.Color = ParseColor(option.StringValue())
		case "group":
			request.Group = option.StringValue()
		case "emoji":
			for _, r := range option.StringValue() {
				request.Emoji = string(r)
				break
			}
		case "index":
			index := int(option.IntValue()) - 1
			if index < 0 {
				return nil, &UserError{Message: "The index must be 1 or greater."}
			}
			request.Index = &index
		}
	}

	if request.Name == "" || request.Group == "" {
		return nil, &UserError{Message: "Both a name and a group are required."}
	}
	return request, nil
}

func (b *Bot) upload(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	request, err := ParseUploadRequest(i.ApplicationCommandData())
	if err != nil {
		respondText(s, i, err.Error())
		return
	}

	id, err := b.board.Add(
		context.Background(),
		request.Attachment,
		i.GuildID,
		request.Name,
		request.Emoji,
		request.Color,
		request.Group,
		request.Index,
	)
	if err != nil {
		respondText(s, i, err.Error())
		return
	}

	// Echo the new sound back as a ready-to-click button.
	button := presenters.BuildSoundButton(soundboard.Sound{
		ID:    id,
		Name:  request.Name,
		Color: request.Color,
		Emoji: request.Emoji,
	})
	respondComponents(s, i, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
	})
}

func (b *Bot) deleteSound(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}
	option := findOption(i.ApplicationCommandData().Options, "sound")
	if option == nil {
		return
	}

	if err := b.board.Delete(context.Background(), i.GuildID, option.StringValue()); err != nil {
		respondText(s, i, err.Error())
		return
	}
	respondText(s, i, "Deleted. *(for ever)*")
}

// dispatchComponent plays the sound whose id is the clicked button's
// custom_id.
func (b *Bot) dispatchComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	customID := i.MessageComponentData().CustomID
	if _, err := uuid.Parse(customID); err != nil {
		// Not a sound button (e.g. the group select menu).
		return
	}

	if err := deferInteraction(s, i); err != nil {
		slog.Error("failed to defer sound play", "error", err)
	}

	data := b.board.GetWAV(context.Background(), customID)
	if data == nil {
		return
	}
	samples, err := wav.Strip(data)
	if err != nil {
		slog.Error("stored sound blob is corrupt", "id", customID, "error", err)
		return
	}

	vc, ok := voice.Current(s, i.GuildID)
	if !ok {
		return
	}
	if err := voice.Play(context.Background(), vc, samples); err != nil {
		slog.Error("failed to play sound", "id", customID, "error", err)
	}
}
