package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var uploadOptions = []*discordgo.ApplicationCommandOption{
	{
		Name:        "sound",
		Type:        discordgo.ApplicationCommandOptionAttachment,
		Description: "WAV sound file",
		Required:    true,
	},
	{
		Name:        "name",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "The name of the sound that will appear on the button",
		Required:    true,
	},
	{
		Name:        "color",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "Color of the button",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "blue", Value: "blue"},
			{Name: "green", Value: "green"},
			{Name: "red", Value: "red"},
			{Name: "grey", Value: "grey"},
		},
	},
	{
		Name:        "group",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "The group to add this sound to",
		Required:    true,
	},
	{
		Name:        "emoji",
		Type:        discordgo.ApplicationCommandOptionString,
		Description: "The emoji to prepend to the button",
		Required:    false,
	},
	{
		Name:        "index",
		Type:        discordgo.ApplicationCommandOptionInteger,
		Description: "The position of the sound in its group",
		Required:    false,
	},
}

// Commands is the full slash-command surface of the bot.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "version",
		Description: "Display the bot version",
	},
	{
		Name:        "help",
		Description: "Display help",
	},
	{
		Name:        "listen",
		Description: "Join your voice channel",
	},
	{
		Name:        "list",
		Description: "List recordable users",
	},
	{
		Name:        "join",
		Description: "Join recordable users list",
	},
	{
		Name:        "leave",
		Description: "Leave recordable users list",
	},
	{
		Name:        "download",
		Description: "Download a user's voice data",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Type:        discordgo.ApplicationCommandOptionUser,
				Description: "User to download data for",
				Required:    true,
			},
		},
	},
	{
		Name:        "sounds",
		Description: "List all sounds available on this server",
	},
	{
		Name:        "upload",
		Description: "Upload sound",
		Options:     uploadOptions,
	},
	{
		Name:        "delete",
		Description: "Delete a sound from the soundboard",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "sound",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Sound name to delete",
				Required:    true,
			},
		},
	},
}

// EstablishCommands registers the command surface. An empty guildID
// registers the commands globally.
func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}
