// Package wav reads and writes the one audio format the bot speaks:
// canonical RIFF/WAVE, PCM, mono, 16 bits per sample, 48 kHz.
package wav

import (
	"encoding/binary"
	"errors"
	"time"
)

const (
	// SampleRate is the fixed rate for all recording and playback.
	SampleRate = 48000

	// HeaderSize is the byte length of the canonical header emitted by Package.
	HeaderSize = 44

	numChannels   = 1
	bitsPerSample = 16
	blockAlign    = numChannels * bitsPerSample / 8
	byteRate      = SampleRate * blockAlign

	pcmFormat = 1
)

var (
	ErrInvalidWav  = errors.New("not a valid WAV file")
	ErrWrongFormat = errors.New("WAV must be PCM, mono, 16-bit, 48000 Hz")
)

// Package builds a complete WAV file from mono 16-bit samples.
// The output is deterministic: identical samples yield identical bytes.
func Package(samples []int16) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, HeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(out[22:24], numChannels)
	binary.LittleEndian.PutUint32(out[24:28], SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[HeaderSize+i*2:], uint16(s))
	}
	return out
}

// Strip validates b as a WAV file in the required format and returns its
// samples. It walks the RIFF chunks, so files with extra metadata chunks
// before the data chunk are accepted as long as the format matches.
func Strip(b []byte) ([]int16, error) {
	if len(b) < HeaderSize || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, ErrInvalidWav
	}

	var sawFmt bool
	offset := 12
	for offset+8 <= len(b) {
		id := string(b[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		body := offset + 8
		if size < 0 || body+size > len(b) {
			return nil, ErrInvalidWav
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrInvalidWav
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			channels := binary.LittleEndian.Uint16(b[body+2 : body+4])
			rate := binary.LittleEndian.Uint32(b[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != pcmFormat || channels != numChannels || rate != SampleRate || bits != bitsPerSample {
				return nil, ErrWrongFormat
			}
			sawFmt = true
		case "data":
			// 16-bit samples; an odd data length means a torn file.
			if !sawFmt || size%2 != 0 {
				return nil, ErrInvalidWav
			}
			samples := make([]int16, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(b[body+i*2:]))
			}
			return samples, nil
		}

		// Chunks are word-aligned.
		offset = body + size + size%2
	}

	return nil, ErrInvalidWav
}

// Duration reports how long the given number of mono samples plays for.
func Duration(sampleCount int) time.Duration {
	return time.Duration(sampleCount) * time.Second / SampleRate
}
