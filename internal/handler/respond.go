package handler

import (
	"log/slog"

	"github.com/aoi-yuito/disrecord/internal/util"
	"github.com/bwmarrin/discordgo"
)

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		slog.Error("failed to respond to interaction", "error", err)
	}
}

func respondComponents(s *discordgo.Session, i *discordgo.InteractionCreate, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Components: components,
		},
	})
	if err != nil {
		slog.Error("failed to respond with components", "error", err)
	}
}

// deferInteraction acknowledges an interaction so followup messages can be
// sent later. Button clicks use the update variant, which leaves the
// original message untouched.
func deferInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	responseType := discordgo.InteractionResponseDeferredChannelMessageWithSource
	if i.Type == discordgo.InteractionMessageComponent {
		responseType = discordgo.InteractionResponseDeferredMessageUpdate
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: responseType,
	})
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// findOption returns the named command option, or nil.
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	option, ok := util.FindFirst(options, func(o *discordgo.ApplicationCommandInteractionDataOption) bool {
		return o.Name == name
	})
	if !ok {
		return nil
	}
	return option
}
