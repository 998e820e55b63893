package opus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aoi-yuito/disrecord/internal/opus"
	"github.com/google/go-cmp/cmp"
)

func TestStreamToVoiceSendsAllFrames(t *testing.T) {
	frames := [][]byte{{1}, {2}, {3}}
	send := make(chan []byte, len(frames))

	if err := opus.StreamToVoice(context.Background(), frames, send); err != nil {
		t.Fatalf("StreamToVoice() error: %v", err)
	}
	close(send)

	var got [][]byte
	for frame := range send {
		got = append(got, frame)
	}
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("sent frames mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamToVoiceHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := opus.StreamToVoice(ctx, [][]byte{{1}}, make(chan []byte))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("StreamToVoice() error = %v, want context.Canceled", err)
	}
}
