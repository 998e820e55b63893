// Package recorder keeps a rolling window of voice audio for whitelisted
// users. A single goroutine owns all state and consumes actions from a
// queue, so every mutation is serialized without shared locks.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aoi-yuito/disrecord/internal/schedule"
	"github.com/aoi-yuito/disrecord/internal/wav"
)

const (
	actionQueueSize = 1024
	sweepInterval   = 5 * time.Second
)

// ErrStopped is returned by Dispatch once the recorder loop has exited.
// The adapter treats it as fatal: the recorder contract is broken.
var ErrStopped = errors.New("recorder is stopped")

// Action is a request processed by the recorder loop. Actions are handled
// strictly in dispatch order.
type Action interface {
	isAction()
}

// MapUser records which user currently owns a voice SSRC. The last mapping
// wins; an SSRC previously owned by the same user is dropped.
type MapUser struct {
	UserID string
	SSRC   uint32
}

// RegisterVoiceData appends one packet of interleaved stereo samples to the
// mapped user's ring buffer. Packets for unmapped SSRCs or users outside
// the whitelist are silently discarded.
type RegisterVoiceData struct {
	SSRC   uint32
	Stereo []int16
}

// AddToWhitelist opts a user into being recorded. Idempotent.
type AddToWhitelist struct {
	UserID string
}

// RemoveFromWhitelist opts a user out and discards any buffered audio.
// Idempotent.
type RemoveFromWhitelist struct {
	UserID string
}

// GetWhitelist requests a copy of the current whitelist.
type GetWhitelist struct {
	Reply chan<- map[string]struct{}
}

// GetData requests a snapshot of a user's buffered samples. The reply is
// nil when the user has no buffer or it is empty. The buffer is not
// cleared.
type GetData struct {
	UserID string
	Reply  chan<- []int16
}

func (MapUser) isAction()             {}
func (RegisterVoiceData) isAction()   {}
func (AddToWhitelist) isAction()      {}
func (RemoveFromWhitelist) isAction() {}
func (GetWhitelist) isAction()        {}
func (GetData) isAction()             {}

// Recorder owns per-user ring buffers, the SSRC to user mapping, and the
// persisted whitelist. All fields below actions are loop-owned.
type Recorder struct {
	bufferCapacity int
	expiration     time.Duration
	whitelistPath  string

	actions chan Action
	done    chan struct{}

	whitelist map[string]struct{}
	ssrcUsers map[uint32]string
	buffers   map[string]*ringBuffer
}

// New creates a recorder whose per-user buffers hold bufferDuration of
// audio and expire after expiration of inactivity. The whitelist is loaded
// from whitelistPath if it exists.
func New(bufferDuration, expiration time.Duration, whitelistPath string) (*Recorder, error) {
	whitelist, err := loadWhitelist(whitelistPath)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		bufferCapacity: int(bufferDuration.Seconds() * wav.SampleRate),
		expiration:     expiration,
		whitelistPath:  whitelistPath,
		actions:        make(chan Action, actionQueueSize),
		done:           make(chan struct{}),
		whitelist:      whitelist,
		ssrcUsers:      make(map[uint32]string),
		buffers:        make(map[string]*ringBuffer),
	}, nil
}

// Dispatch queues an action for the recorder loop. It returns ErrStopped
// once Run has exited.
func (r *Recorder) Dispatch(a Action) error {
	select {
	case <-r.done:
		return ErrStopped
	case r.actions <- a:
		return nil
	}
}

// Run consumes the action queue until ctx is canceled. Expired buffers are
// swept every few seconds.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go schedule.Every(sweepCtx, sweepInterval, func(context.Context) {
		// The sweep rides the action queue like everything else, so it
		// can never race a mutation.
		select {
		case r.actions <- tick{}:
		case <-sweepCtx.Done():
		}
	})

	for {
		select {
		case <-ctx.Done():
			return
		case a := <-r.actions:
			r.handle(a, time.Now())
		}
	}
}

// tick triggers an expiry sweep. Internal to the recorder loop.
type tick struct{}

func (tick) isAction() {}

func (r *Recorder) handle(a Action, now time.Time) {
	switch a := a.(type) {
	case MapUser:
		for ssrc, user := range r.ssrcUsers {
			if user == a.UserID && ssrc != a.SSRC {
				delete(r.ssrcUsers, ssrc)
			}
		}
		r.ssrcUsers[a.SSRC] = a.UserID

	case RegisterVoiceData:
		user, ok := r.ssrcUsers[a.SSRC]
		if !ok {
			return
		}
		if _, ok := r.whitelist[user]; !ok {
			return
		}
		buffer, ok := r.buffers[user]
		if !ok {
			buffer = newRingBuffer(r.bufferCapacity)
			r.buffers[user] = buffer
		}
		buffer.write(downmix(a.Stereo))
		buffer.lastActive = now

	case AddToWhitelist:
		r.whitelist[a.UserID] = struct{}{}
		r.persistWhitelist()

	case RemoveFromWhitelist:
		delete(r.whitelist, a.UserID)
		delete(r.buffers, a.UserID)
		r.persistWhitelist()

	case GetWhitelist:
		whitelist := make(map[string]struct{}, len(r.whitelist))
		for user := range r.whitelist {
			whitelist[user] = struct{}{}
		}
		reply(a.Reply, whitelist)

	case GetData:
		var samples []int16
		if buffer, ok := r.buffers[a.UserID]; ok {
			samples = buffer.snapshot()
		}
		reply(a.Reply, samples)

	case tick:
		r.sweep(now)
	}
}

func (r *Recorder) sweep(now time.Time) {
	for user, buffer := range r.buffers {
		if now.Sub(buffer.lastActive) > r.expiration {
			delete(r.buffers, user)
		}
	}
}

// persistWhitelist writes the whitelist to disk. Failures are logged and
// swallowed: the in-memory set stays authoritative and the next mutation
// re-synchronizes.
func (r *Recorder) persistWhitelist() {
	if err := saveWhitelist(r.whitelistPath, r.whitelist); err != nil {
		slog.Error("failed to persist whitelist", "path", r.whitelistPath, "error", err)
	}
}

// reply delivers a value without blocking. Receivers that gave up are
// tolerated; callers are expected to pass buffered channels.
func reply[T any](ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
	}
}

// downmix folds interleaved stereo samples to mono by averaging each
// left/right pair. The sum is widened to 32 bits so it cannot overflow,
// and integer division truncates toward zero.
func downmix(stereo []int16) []int16 {
	mono := make([]int16, len(stereo)/2)
	for i := range mono {
		mono[i] = int16((int32(stereo[2*i]) + int32(stereo[2*i+1])) / 2)
	}
	return mono
}
