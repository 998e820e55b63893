package handler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aoi-yuito/disrecord/internal/recorder"
	"github.com/bwmarrin/discordgo"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	rec, err := recorder.New(time.Second, time.Hour, filepath.Join(t.TempDir(), "whitelist"))
	if err != nil {
		t.Fatalf("recorder.New() error: %v", err)
	}
	return NewBot(rec, nil, "test")
}

func voiceConn() *discordgo.VoiceConnection {
	return &discordgo.VoiceConnection{OpusRecv: make(chan *discordgo.Packet)}
}

func waitFor(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func runPump(b *Bot, guildID string, listener *guildListener) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		b.pumpVoice(guildID, listener)
		close(done)
	}()
	return done
}

func TestTrackStartsPumpOncePerConnection(t *testing.T) {
	b := newTestBot(t)
	vc := voiceConn()

	listener, fresh := b.track("guild-1", vc)
	if !fresh {
		t.Fatal("first track() should report a fresh connection")
	}
	if listener.vc != vc {
		t.Fatal("listener is not bound to the tracked connection")
	}

	// Moving channels reuses the connection; no second pump.
	if _, fresh := b.track("guild-1", vc); fresh {
		t.Error("track() with the same connection should not report fresh")
	}
}

func TestTrackReplacesStaleConnection(t *testing.T) {
	b := newTestBot(t)
	stale := voiceConn()

	staleListener, _ := b.track("guild-1", stale)
	staleDone := runPump(b, "guild-1", staleListener)

	// A reconnect hands out a different connection; the old pump must be
	// stopped and a new one started for the fresh OpusRecv.
	replacement, fresh := b.track("guild-1", voiceConn())
	if !fresh {
		t.Fatal("track() with a new connection should report fresh")
	}
	waitFor(t, staleDone, "stale pump to stop")

	b.mu.Lock()
	current := b.listening["guild-1"]
	b.mu.Unlock()
	if current != replacement {
		t.Error("stale pump shutdown removed the replacement listener")
	}
}

func TestStopListeningEndsPump(t *testing.T) {
	b := newTestBot(t)

	listener, _ := b.track("guild-1", voiceConn())
	done := runPump(b, "guild-1", listener)

	b.stopListening("guild-1")
	waitFor(t, done, "pump to stop")

	b.mu.Lock()
	_, ok := b.listening["guild-1"]
	b.mu.Unlock()
	if ok {
		t.Error("listening entry still present after stop")
	}

	// Idempotent when nothing is running.
	b.stopListening("guild-1")
}

func TestPumpExitsWhenReceiveChannelCloses(t *testing.T) {
	b := newTestBot(t)
	vc := voiceConn()

	listener, _ := b.track("guild-1", vc)
	done := runPump(b, "guild-1", listener)

	close(vc.OpusRecv)
	waitFor(t, done, "pump to observe the closed channel")

	b.mu.Lock()
	_, ok := b.listening["guild-1"]
	b.mu.Unlock()
	if ok {
		t.Error("listening entry still present after the receive channel closed")
	}
}
