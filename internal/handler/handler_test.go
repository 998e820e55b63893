package handler_test

import (
	"testing"

	"github.com/aoi-yuito/disrecord/internal/handler"
	"github.com/aoi-yuito/disrecord/internal/soundboard"
	"github.com/aoi-yuito/disrecord/internal/wav"
	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
)

func TestChunkSamplesSingleChunk(t *testing.T) {
	samples := make([]int16, 100)
	chunks := handler.ChunkSamples(samples, handler.MaxFileSize)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0]) != len(samples) {
		t.Errorf("expected chunk of %d samples, got %d", len(samples), len(chunks[0]))
	}
}

func TestChunkSamplesSplits(t *testing.T) {
	maxFileSize := wav.HeaderSize + 20 // 10 samples per file
	samples := make([]int16, 25)
	for i := range samples {
		samples[i] = int16(i)
	}

	chunks := handler.ChunkSamples(samples, maxFileSize)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if len(chunk) != 10 {
			t.Errorf("chunk %d has %d samples, expected 10", i, len(chunk))
		}
	}
	if len(chunks[2]) != 5 {
		t.Errorf("last chunk has %d samples, expected 5", len(chunks[2]))
	}

	var rejoined []int16
	for _, chunk := range chunks {
		rejoined = append(rejoined, chunk...)
	}
	if diff := cmp.Diff(samples, rejoined); diff != "" {
		t.Errorf("rejoined chunks differ from input (-want +got):\n%s", diff)
	}
}

func TestChunkSamplesEveryChunkFits(t *testing.T) {
	maxFileSize := wav.HeaderSize + 14 // 7 samples per file
	samples := make([]int16, 30)

	for _, chunk := range handler.ChunkSamples(samples, maxFileSize) {
		if size := len(wav.Package(chunk)); size > maxFileSize {
			t.Errorf("packaged chunk is %d bytes, limit is %d", size, maxFileSize)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		word string
		want soundboard.Color
	}{
		{"blue", soundboard.ColorPrimary},
		{"green", soundboard.ColorSuccess},
		{"red", soundboard.ColorDanger},
		{"grey", soundboard.ColorSecondary},
		{"chartreuse", soundboard.ColorPrimary},
		{"", soundboard.ColorPrimary},
	}
	for _, c := range cases {
		if got := handler.ParseColor(c.word); got != c.want {
			t.Errorf("ParseColor(%q) = %v, want %v", c.word, got, c.want)
		}
	}
}

func uploadData(attachments map[string]*discordgo.MessageAttachment, options []*discordgo.ApplicationCommandInteractionDataOption) discordgo.ApplicationCommandInteractionData {
	return discordgo.ApplicationCommandInteractionData{
		Name: "upload",
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Attachments: attachments,
		},
		Options: options,
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func TestParseUploadRequest(t *testing.T) {
	attachment := map[string]*discordgo.MessageAttachment{
		"1": {URL: "https://cdn.example.com/airhorn.wav", Size: 4096},
	}

	t.Run("full request", func(t *testing.T) {
		data := uploadData(attachment, []*discordgo.ApplicationCommandInteractionDataOption{
			stringOption("name", "airhorn"),
			stringOption("color", "red"),
			stringOption("group", "memes"),
			stringOption("emoji", "🎺horn"),
			intOption("index", 3),
		})

		got, err := handler.ParseUploadRequest(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		index := 2
		want := &handler.UploadRequest{
			Attachment: soundboard.Attachment{
				URL:  "https://cdn.example.com/airhorn.wav",
				Size: 4096,
			},
			Name:  "airhorn",
			Color: soundboard.ColorDanger,
			Group: "memes",
			Emoji: "🎺",
			Index: &index,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("parsed request differs (-want +got):\n%s", diff)
		}
	})

	t.Run("index is one based", func(t *testing.T) {
		data := uploadData(attachment, []*discordgo.ApplicationCommandInteractionDataOption{
			stringOption("name", "airhorn"),
			stringOption("group", "memes"),
			intOption("index", 1),
		})

		got, err := handler.ParseUploadRequest(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Index == nil || *got.Index != 0 {
			t.Errorf("expected internal index 0, got %v", got.Index)
		}
	})

	t.Run("rejects index zero", func(t *testing.T) {
		data := uploadData(attachment, []*discordgo.ApplicationCommandInteractionDataOption{
			stringOption("name", "airhorn"),
			stringOption("group", "memes"),
			intOption("index", 0),
		})

		if _, err := handler.ParseUploadRequest(data); err == nil {
			t.Error("expected an error for index 0")
		}
	})

	t.Run("rejects missing attachment", func(t *testing.T) {
		data := uploadData(nil, []*discordgo.ApplicationCommandInteractionDataOption{
			stringOption("name", "airhorn"),
			stringOption("group", "memes"),
		})

		if _, err := handler.ParseUploadRequest(data); err == nil {
			t.Error("expected an error for a missing attachment")
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		data := uploadData(attachment, []*discordgo.ApplicationCommandInteractionDataOption{
			stringOption("group", "memes"),
		})

		if _, err := handler.ParseUploadRequest(data); err == nil {
			t.Error("expected an error for a missing name")
		}
	})
}
