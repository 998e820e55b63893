package soundboard

// Color is the button style a sound is rendered with.
type Color string

const (
	ColorPrimary   Color = "primary"
	ColorSuccess   Color = "success"
	ColorDanger    Color = "danger"
	ColorSecondary Color = "secondary"
)

// Sound is one playable entry in a guild's catalog.
type Sound struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
	Color Color  `json:"color"`
	Emoji string `json:"emoji,omitempty"`
	Index int    `json:"index"`
}

// Group is a named, index-ordered run of sounds as returned by List.
type Group struct {
	Name   string
	Sounds []Sound
}
