// Package tape implements the fixed-capacity circular sample store that
// models the loop of tape between the record and playback heads.
//
// The buffer is owned and mutated by a single execution context (the audio
// callback) and therefore uses no locking. All storage is allocated at
// construction; Write and Read never allocate, block, or fail: overflow and
// starvation are resolved by policy and surfaced through counters.
package tape

import (
	"fmt"
)

// Float is the type constraint for supported sample types.
type Float interface {
	float32 | float64
}

const (
	minCapacity = 2
	maxCapacity = 1 << 28 // ~5600 seconds of mono audio at 48 kHz
	maxChannels = 64
)

// Buffer is a multi-channel ring buffer with one shared write cursor and one
// shared read cursor, so channels stay in sample lockstep.
//
// Policies:
//   - Overflow: writing past capacity drops the oldest unread samples; the
//     newest audio always wins. Dropped samples are counted.
//   - Starvation: reading more than is available pads the shortfall by
//     repeating the last sample delivered to the reader (silence before the
//     first read). Padded samples are counted.
type Buffer[F Float] struct {
	data     [][]F
	channels int
	capacity int

	r, w   int
	unread int

	// lastOut is the most recent sample handed to the reader per channel,
	// used as padding during starvation.
	lastOut []F

	dropped uint64
	padded  uint64
}

// NewBuffer allocates a buffer holding capacity samples per channel.
func NewBuffer[F Float](channels, capacity int) (*Buffer[F], error) {
	if channels < 1 || channels > maxChannels {
		return nil, fmt.Errorf("invalid channel count %d (must be 1-%d)", channels, maxChannels)
	}
	if capacity < minCapacity || capacity > maxCapacity {
		return nil, fmt.Errorf("invalid capacity %d (must be %d-%d)", capacity, minCapacity, maxCapacity)
	}

	data := make([][]F, channels)
	for ch := range data {
		data[ch] = make([]F, capacity)
	}

	return &Buffer[F]{
		data:     data,
		channels: channels,
		capacity: capacity,
		lastOut:  make([]F, channels),
	}, nil
}

// Write appends the first n samples of each channel in block, advancing the
// write cursor with wraparound. If the unread region would exceed capacity,
// the oldest unread samples are overwritten and the read cursor advanced
// past them. Returns the number of samples lost to overflow (0 in normal
// operation).
func (b *Buffer[F]) Write(block [][]F, n int) int {
	if n <= 0 {
		return 0
	}

	lost := 0
	src := 0

	// An oversized write can only ever retain its trailing capacity
	// samples; skip the leading portion outright.
	if n > b.capacity {
		skip := n - b.capacity
		lost += skip + b.unread
		src = skip
		n = b.capacity
		b.r = 0
		b.w = 0
		b.unread = 0
	}

	for ch := 0; ch < b.channels; ch++ {
		dst := b.data[ch]
		in := block[ch][src : src+n]

		head := b.capacity - b.w
		if n <= head {
			copy(dst[b.w:], in)
		} else {
			copy(dst[b.w:], in[:head])
			copy(dst, in[head:])
		}
	}

	b.w = (b.w + n) % b.capacity
	b.unread += n

	if b.unread > b.capacity {
		over := b.unread - b.capacity
		b.r = (b.r + over) % b.capacity
		b.unread = b.capacity
		lost += over
	}

	if lost > 0 {
		b.dropped += uint64(lost)
	}

	return lost
}

// Read copies n samples per channel into dst, advancing the read cursor with
// wraparound. If fewer than n unread samples are available, the available
// samples are delivered and the remainder is padded by repeating the last
// delivered sample. Returns the number of real (non-padded) samples.
func (b *Buffer[F]) Read(dst [][]F, n int) int {
	if n <= 0 {
		return 0
	}

	got := n
	if got > b.unread {
		got = b.unread
	}

	if got > 0 {
		for ch := 0; ch < b.channels; ch++ {
			src := b.data[ch]
			out := dst[ch]

			head := b.capacity - b.r
			if got <= head {
				copy(out[:got], src[b.r:b.r+got])
			} else {
				copy(out[:head], src[b.r:])
				copy(out[head:got], src)
			}

			b.lastOut[ch] = out[got-1]
		}

		b.r = (b.r + got) % b.capacity
		b.unread -= got
	}

	if got < n {
		for ch := 0; ch < b.channels; ch++ {
			out := dst[ch]
			pad := b.lastOut[ch]
			for i := got; i < n; i++ {
				out[i] = pad
			}
		}
		b.padded += uint64(n - got)
	}

	return got
}

// PrefillSilence writes n samples of silence, establishing the initial gap
// between the record and playback heads. Returns an error if n does not fit
// in the buffer's free space.
func (b *Buffer[F]) PrefillSilence(n int) error {
	if n < 0 || n > b.capacity-b.unread {
		return fmt.Errorf("prefill of %d samples exceeds free space %d", n, b.capacity-b.unread)
	}

	for ch := 0; ch < b.channels; ch++ {
		dst := b.data[ch]

		head := b.capacity - b.w
		if n <= head {
			clear(dst[b.w : b.w+n])
		} else {
			clear(dst[b.w:])
			clear(dst[:n-head])
		}
	}

	b.w = (b.w + n) % b.capacity
	b.unread += n
	return nil
}

// Available returns the number of unread samples.
func (b *Buffer[F]) Available() int {
	return b.unread
}

// Free returns the writable space before overwriting would begin.
func (b *Buffer[F]) Free() int {
	return b.capacity - b.unread
}

// Capacity returns the fixed per-channel capacity.
func (b *Buffer[F]) Capacity() int {
	return b.capacity
}

// Channels returns the channel count.
func (b *Buffer[F]) Channels() int {
	return b.channels
}

// DroppedSamples returns the cumulative count of samples lost to overflow.
func (b *Buffer[F]) DroppedSamples() uint64 {
	return b.dropped
}

// PaddedSamples returns the cumulative count of samples fabricated during
// starvation.
func (b *Buffer[F]) PaddedSamples() uint64 {
	return b.padded
}

// Clear resets the cursors and padding state without deallocating. Counters
// are preserved; they describe the life of the buffer, not one session.
func (b *Buffer[F]) Clear() {
	b.r = 0
	b.w = 0
	b.unread = 0
	clear(b.lastOut)
}
