package presenters

import (
	"github.com/aoi-yuito/disrecord/internal/soundboard"
	"github.com/bwmarrin/discordgo"
)

const (
	// Discord allows at most 5 action rows per message and 5 buttons per row.
	rowsPerMessage = 5
	soundsPerRow   = 5
)

// ColorToStyle maps a sound color to its Discord button style.
func ColorToStyle(color soundboard.Color) discordgo.ButtonStyle {
	switch color {
	case soundboard.ColorSuccess:
		return discordgo.SuccessButton
	case soundboard.ColorDanger:
		return discordgo.DangerButton
	case soundboard.ColorSecondary:
		return discordgo.SecondaryButton
	default:
		return discordgo.PrimaryButton
	}
}

// BuildSoundButton renders one sound as a button. The custom ID is exactly
// the sound's id, so a click round-trips to the right blob.
func BuildSoundButton(sound soundboard.Sound) discordgo.Button {
	button := discordgo.Button{
		CustomID: sound.ID,
		Label:    sound.Name,
		Style:    ColorToStyle(sound.Color),
	}
	if sound.Emoji != "" {
		button.Emoji = &discordgo.ComponentEmoji{Name: sound.Emoji}
	}
	return button
}

// BuildGroupMessages lays a group's sounds out as message component
// payloads: the first message carries a select-menu row naming the group,
// and every message holds at most 4 rows of 5 buttons.
func BuildGroupMessages(group soundboard.Group) [][]discordgo.MessageComponent {
	soundsPerMessage := (rowsPerMessage - 1) * soundsPerRow

	var messages [][]discordgo.MessageComponent
	for start := 0; start < len(group.Sounds); start += soundsPerMessage {
		chunk := group.Sounds[start:min(start+soundsPerMessage, len(group.Sounds))]

		var components []discordgo.MessageComponent
		if start == 0 {
			components = append(components, groupHeaderRow(group.Name))
		}

		for rowStart := 0; rowStart < len(chunk); rowStart += soundsPerRow {
			row := chunk[rowStart:min(rowStart+soundsPerRow, len(chunk))]
			buttons := make([]discordgo.MessageComponent, 0, len(row))
			for _, sound := range row {
				buttons = append(buttons, BuildSoundButton(sound))
			}
			components = append(components, discordgo.ActionsRow{Components: buttons})
		}

		messages = append(messages, components)
	}
	return messages
}

func groupHeaderRow(name string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID: "group",
				Options: []discordgo.SelectMenuOption{
					{Label: name, Value: name, Default: true},
				},
			},
		},
	}
}
