package opus

import (
	"fmt"

	"layeh.com/gopus"
)

const (
	// SampleRate is Discord's voice sample rate.
	SampleRate = 48000
	// Channels is the channel count of incoming voice packets.
	Channels = 2
	// FrameSize is the number of samples per channel in a 20 ms frame.
	FrameSize = SampleRate / 50
)

// Decoder decodes one speaker's Opus packets into interleaved stereo PCM.
// Opus decoders carry state between frames, so each SSRC needs its own.
type Decoder struct {
	dec *gopus.Decoder
}

func NewDecoder() (*Decoder, error) {
	dec, err := gopus.NewDecoder(SampleRate, Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// Decode returns the packet's interleaved stereo int16 samples.
func (d *Decoder) Decode(packet []byte) ([]int16, error) {
	pcm, err := d.dec.Decode(packet, FrameSize, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode opus packet: %w", err)
	}
	return pcm, nil
}
