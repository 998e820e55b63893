package opus

import (
	"fmt"

	"layeh.com/gopus"
)

// maxFrameBytes is a generous upper bound for one encoded frame.
const maxFrameBytes = 4000

// Encoder turns mono PCM into Discord-ready stereo Opus frames.
type Encoder struct {
	enc *gopus.Encoder
}

func NewEncoder() (*Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	return &Encoder{enc: enc}, nil
}

// EncodeMono chops mono samples into 20 ms frames, duplicates each sample
// across both channels, and encodes every frame. The final partial frame
// is zero-padded.
func (e *Encoder) EncodeMono(mono []int16) ([][]byte, error) {
	var frames [][]byte
	stereo := make([]int16, FrameSize*Channels)

	for offset := 0; offset < len(mono); offset += FrameSize {
		chunk := mono[offset:min(offset+FrameSize, len(mono))]
		for i := range FrameSize {
			var s int16
			if i < len(chunk) {
				s = chunk[i]
			}
			stereo[2*i] = s
			stereo[2*i+1] = s
		}

		frame, err := e.enc.Encode(stereo, FrameSize, maxFrameBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode opus frame: %w", err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
