// Package streams provides destinations for recorded audio.
package streams

import (
	"sync"

	"github.com/companyzero/soundcore/sound"
)

// MemoryStreamOption is a functional MemoryStream config option.
type MemoryStreamOption func(s *MemoryStream)

// WithMaxSamples limits the number of samples per channel the stream holds.
// Writes past the limit are truncated.
func WithMaxSamples(n int) MemoryStreamOption {
	return func(s *MemoryStream) {
		s.maxSamples = n
	}
}

// WithInitialCapacity preallocates room for n samples per channel so that
// writes within that capacity do not allocate.
func WithInitialCapacity(n int) MemoryStreamOption {
	return func(s *MemoryStream) {
		s.capacity = n
	}
}

// MemoryStream is a seekable stream that keeps samples in memory.
type MemoryStream struct {
	maxSamples int
	capacity   int

	mtx   sync.Mutex
	chans [][]float32
	pos   int
}

// NewMemoryStream creates an empty stream with the given number of channels.
func NewMemoryStream(numChannels int, opts ...MemoryStreamOption) *MemoryStream {
	s := &MemoryStream{maxSamples: -1}
	for _, opt := range opts {
		opt(s)
	}
	s.chans = make([][]float32, numChannels)
	for i := range s.chans {
		s.chans[i] = make([]float32, 0, s.capacity)
	}
	return s
}

// WriteSamples writes numSamples samples of every channel of src at the
// current position, overwriting existing samples and growing the stream as
// needed. Channels of src beyond the stream channels are ignored and missing
// channels are written as silence.
func (s *MemoryStream) WriteSamples(src *sound.Frame, numSamples int) int {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	n := min(numSamples, src.Size())
	if s.maxSamples >= 0 {
		n = min(n, s.maxSamples-s.pos)
	}
	if n <= 0 {
		return 0
	}

	end := s.pos + n
	for c := range s.chans {
		ch := s.chans[c]
		if end > len(ch) {
			ch = append(ch, make([]float32, end-len(ch))...)
		}
		if c < len(src.Channels) {
			copy(ch[s.pos:end], src.Channels[c][:n])
		} else {
			clear(ch[s.pos:end])
		}
		s.chans[c] = ch
	}
	s.pos = end
	return n
}

// CanSeek returns true.
func (s *MemoryStream) CanSeek() bool { return true }

// Seek moves the position by delta samples. It fails if the new position is
// before the start or after the end of the stream.
func (s *MemoryStream) Seek(delta int64) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	pos := int64(s.pos) + delta
	if pos < 0 || pos > int64(s.lenLocked()) {
		return false
	}
	s.pos = int(pos)
	return true
}

func (s *MemoryStream) lenLocked() int {
	if len(s.chans) == 0 {
		return 0
	}
	return len(s.chans[0])
}

// Len returns the number of samples per channel in the stream.
func (s *MemoryStream) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lenLocked()
}

// Position returns the current write position.
func (s *MemoryStream) Position() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.pos
}

// Samples returns a copy of the samples of one channel.
func (s *MemoryStream) Samples(channel int) []float32 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if channel < 0 || channel >= len(s.chans) {
		return nil
	}
	return append([]float32(nil), s.chans[channel]...)
}
