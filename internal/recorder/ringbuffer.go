package recorder

import "time"

// ringBuffer is a bounded FIFO of mono samples. When full, the oldest
// samples are discarded on insertion. It is only ever touched by the
// recorder loop goroutine, so it needs no locking.
type ringBuffer struct {
	samples    []int16
	start      int
	length     int
	lastActive time.Time
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{samples: make([]int16, capacity)}
}

func (b *ringBuffer) write(samples []int16) {
	capacity := len(b.samples)
	if capacity == 0 {
		return
	}

	// Only the tail of an oversized write can survive.
	if len(samples) > capacity {
		samples = samples[len(samples)-capacity:]
	}

	for _, s := range samples {
		end := (b.start + b.length) % capacity
		b.samples[end] = s
		if b.length < capacity {
			b.length++
		} else {
			b.start = (b.start + 1) % capacity
		}
	}
}

// snapshot returns a copy of the buffered samples in arrival order.
// The buffer itself is left untouched.
func (b *ringBuffer) snapshot() []int16 {
	if b.length == 0 {
		return nil
	}
	out := make([]int16, b.length)
	for i := range out {
		out[i] = b.samples[(b.start+i)%len(b.samples)]
	}
	return out
}
