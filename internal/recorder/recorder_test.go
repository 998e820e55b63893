package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aoi-yuito/disrecord/internal/wav"
	"github.com/google/go-cmp/cmp"
)

func newTestRecorder(t *testing.T, bufferDuration time.Duration) *Recorder {
	t.Helper()
	r, err := New(bufferDuration, time.Hour, filepath.Join(t.TempDir(), "whitelist"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

// stereoFrom duplicates mono samples into interleaved stereo, the shape
// voice packets arrive in.
func stereoFrom(mono []int16) []int16 {
	stereo := make([]int16, len(mono)*2)
	for i, s := range mono {
		stereo[2*i] = s
		stereo[2*i+1] = s
	}
	return stereo
}

func getData(r *Recorder, user string) []int16 {
	replyCh := make(chan []int16, 1)
	r.handle(GetData{UserID: user, Reply: replyCh}, time.Now())
	return <-replyCh
}

func TestRegisterVoiceDataRequiresMappingAndWhitelist(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	now := time.Now()
	samples := stereoFrom([]int16{1, 2, 3})

	// Unmapped SSRC: dropped.
	r.handle(RegisterVoiceData{SSRC: 7, Stereo: samples}, now)
	if got := getData(r, "100"); got != nil {
		t.Errorf("expected no data before mapping, got %d samples", len(got))
	}

	// Mapped but not whitelisted: still dropped.
	r.handle(MapUser{UserID: "100", SSRC: 7}, now)
	r.handle(RegisterVoiceData{SSRC: 7, Stereo: samples}, now)
	if got := getData(r, "100"); got != nil {
		t.Errorf("expected no data for non-whitelisted user, got %d samples", len(got))
	}

	// Whitelisted: retained.
	r.handle(AddToWhitelist{UserID: "100"}, now)
	r.handle(RegisterVoiceData{SSRC: 7, Stereo: samples}, now)
	if diff := cmp.Diff([]int16{1, 2, 3}, getData(r, "100")); diff != "" {
		t.Errorf("buffered samples mismatch (-want +got):\n%s", diff)
	}
}

func TestRingBufferBoundKeepsSuffix(t *testing.T) {
	// 1 ms of buffer = 48 samples.
	r := newTestRecorder(t, time.Millisecond)
	now := time.Now()
	r.handle(AddToWhitelist{UserID: "100"}, now)
	r.handle(MapUser{UserID: "100", SSRC: 1}, now)

	var pushed []int16
	for i := range 3 {
		chunk := make([]int16, 30)
		for j := range chunk {
			chunk[j] = int16(i*100 + j)
		}
		pushed = append(pushed, chunk...)
		r.handle(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom(chunk)}, now)
	}

	got := getData(r, "100")
	if len(got) != 48 {
		t.Fatalf("buffer length = %d, want capacity 48", len(got))
	}
	if diff := cmp.Diff(pushed[len(pushed)-48:], got); diff != "" {
		t.Errorf("expected most recent suffix (-want +got):\n%s", diff)
	}
}

func TestMapUserDropsOldSSRC(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	now := time.Now()
	r.handle(AddToWhitelist{UserID: "100"}, now)
	r.handle(MapUser{UserID: "100", SSRC: 1}, now)
	r.handle(MapUser{UserID: "100", SSRC: 2}, now)

	r.handle(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom([]int16{9, 9})}, now)
	if got := getData(r, "100"); got != nil {
		t.Errorf("old SSRC should be dropped after remap, got %d samples", len(got))
	}

	r.handle(RegisterVoiceData{SSRC: 2, Stereo: stereoFrom([]int16{5})}, now)
	if diff := cmp.Diff([]int16{5}, getData(r, "100")); diff != "" {
		t.Errorf("new SSRC samples mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveFromWhitelistDiscardsBuffer(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	now := time.Now()
	r.handle(AddToWhitelist{UserID: "100"}, now)
	r.handle(MapUser{UserID: "100", SSRC: 1}, now)
	r.handle(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom([]int16{1, 2})}, now)

	r.handle(RemoveFromWhitelist{UserID: "100"}, now)
	if got := getData(r, "100"); got != nil {
		t.Errorf("expected buffer discarded on whitelist removal, got %d samples", len(got))
	}
}

func TestGetDataDoesNotClearBuffer(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	now := time.Now()
	r.handle(AddToWhitelist{UserID: "100"}, now)
	r.handle(MapUser{UserID: "100", SSRC: 1}, now)
	r.handle(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom([]int16{4, 5, 6})}, now)

	first := getData(r, "100")
	second := getData(r, "100")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("consecutive snapshots differ (-first +second):\n%s", diff)
	}
}

func TestSweepDropsExpiredBuffers(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	start := time.Now()
	r.handle(AddToWhitelist{UserID: "100"}, start)
	r.handle(AddToWhitelist{UserID: "200"}, start)
	r.handle(MapUser{UserID: "100", SSRC: 1}, start)
	r.handle(MapUser{UserID: "200", SSRC: 2}, start)

	r.handle(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom([]int16{1})}, start)
	r.handle(RegisterVoiceData{SSRC: 2, Stereo: stereoFrom([]int16{2})}, start.Add(time.Hour))

	r.sweep(start.Add(time.Hour + time.Minute))
	if got := getData(r, "100"); got != nil {
		t.Error("expected expired buffer to be dropped")
	}
	if got := getData(r, "200"); got == nil {
		t.Error("expected active buffer to survive the sweep")
	}
}

func TestWhitelistPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist")
	now := time.Now()

	r1, err := New(time.Second, time.Hour, path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	r1.handle(AddToWhitelist{UserID: "100"}, now)
	r1.handle(AddToWhitelist{UserID: "200"}, now)
	r1.handle(RemoveFromWhitelist{UserID: "100"}, now)

	r2, err := New(time.Second, time.Hour, path)
	if err != nil {
		t.Fatalf("New() after restart error: %v", err)
	}
	replyCh := make(chan map[string]struct{}, 1)
	r2.handle(GetWhitelist{Reply: replyCh}, now)
	want := map[string]struct{}{"200": {}}
	if diff := cmp.Diff(want, <-replyCh); diff != "" {
		t.Errorf("whitelist after restart mismatch (-want +got):\n%s", diff)
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name   string
		stereo []int16
		want   []int16
	}{
		{name: "averages pairs", stereo: []int16{10, 20, -10, -20}, want: []int16{15, -15}},
		{name: "truncates toward zero", stereo: []int16{0, 1, 0, -1}, want: []int16{0, 0}},
		{name: "no overflow at extremes", stereo: []int16{32767, 32767, -32768, -32768}, want: []int16{32767, -32768}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, downmix(tt.stereo)); diff != "" {
				t.Errorf("downmix() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunProcessesActionsInOrder(t *testing.T) {
	r := newTestRecorder(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	mustDispatch := func(a Action) {
		t.Helper()
		if err := r.Dispatch(a); err != nil {
			t.Fatalf("Dispatch() error: %v", err)
		}
	}

	mustDispatch(AddToWhitelist{UserID: "100"})
	mustDispatch(MapUser{UserID: "100", SSRC: 1})
	mustDispatch(RegisterVoiceData{SSRC: 1, Stereo: stereoFrom([]int16{1, 2, 3})})

	replyCh := make(chan []int16, 1)
	mustDispatch(GetData{UserID: "100", Reply: replyCh})

	select {
	case got := <-replyCh:
		if diff := cmp.Diff([]int16{1, 2, 3}, got); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for GetData reply")
	}
}

func TestBufferCapacityFromDuration(t *testing.T) {
	r := newTestRecorder(t, 10*time.Second)
	if r.bufferCapacity != 10*wav.SampleRate {
		t.Errorf("bufferCapacity = %d, want %d", r.bufferCapacity, 10*wav.SampleRate)
	}
}
