package opus

import (
	"context"
	"errors"
	"time"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// sendTimeout guards against a voice connection that stopped draining its
// send channel.
const sendTimeout = time.Minute

// StreamToVoice sends pre-encoded Opus frames to a Discord voice send
// channel. It blocks until all frames are sent, ctx is canceled, or the
// connection stops accepting frames.
func StreamToVoice(ctx context.Context, frames [][]byte, send chan<- []byte) error {
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	for _, frame := range frames {
		timer.Reset(sendTimeout)
		select {
		case send <- frame:
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrVoiceConnClosed
		}
	}
	return nil
}
