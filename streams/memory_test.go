package streams

import (
	"testing"

	"github.com/companyzero/soundcore/internal/assert"
	"github.com/companyzero/soundcore/sound"
)

func testFrame(channels, n int, start float32) *sound.Frame {
	f := sound.NewFrame(channels, n)
	for c := range f.Channels {
		for i := range f.Channels[c] {
			f.Channels[c][i] = (start + float32(i)) / 1000 * float32(c+1)
		}
	}
	return f
}

// TestMemoryStreamWriteSeek asserts writes overwrite existing samples at the
// current position.
func TestMemoryStreamWriteSeek(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream(2, WithInitialCapacity(64))
	assert.BoolIs(t, s.CanSeek(), true)
	assert.DeepEqual(t, s.WriteSamples(testFrame(2, 32, 0), 32), 32)
	assert.DeepEqual(t, s.WriteSamples(testFrame(2, 32, 32), 16), 16)
	assert.DeepEqual(t, s.Len(), 48)
	assert.DeepEqual(t, s.Position(), 48)

	assert.BoolIs(t, s.Seek(-49), false)
	assert.BoolIs(t, s.Seek(1), false)
	assert.BoolIs(t, s.Seek(-40), true)
	assert.DeepEqual(t, s.Position(), 8)

	over := testFrame(2, 8, 500)
	assert.DeepEqual(t, s.WriteSamples(over, 8), 8)
	assert.DeepEqual(t, s.Len(), 48)
	assert.SamplesEqual(t, s.Samples(1)[8:16], over.Channels[1], 0)
	assert.SamplesEqual(t, s.Samples(1)[:8], testFrame(2, 8, 0).Channels[1], 0)
	assert.SamplesEqual(t, s.Samples(0)[16:32], testFrame(2, 32, 0).Channels[0][16:], 0)
	assert.DeepEqual(t, len(s.Samples(2)), 0)
}

// TestMemoryStreamMaxSamples asserts writes past the limit are truncated.
func TestMemoryStreamMaxSamples(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream(1, WithMaxSamples(20))
	assert.DeepEqual(t, s.WriteSamples(testFrame(1, 16, 0), 16), 16)
	assert.DeepEqual(t, s.WriteSamples(testFrame(1, 16, 0), 16), 4)
	assert.DeepEqual(t, s.WriteSamples(testFrame(1, 16, 0), 16), 0)
	assert.DeepEqual(t, s.Len(), 20)

	assert.BoolIs(t, s.Seek(-20), true)
	assert.DeepEqual(t, s.WriteSamples(testFrame(1, 16, 0), 16), 16)
	assert.DeepEqual(t, s.Len(), 20)
}

// TestMemoryStreamChannelMismatch asserts missing source channels are
// written as silence.
func TestMemoryStreamChannelMismatch(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream(2)
	s.WriteSamples(testFrame(2, 4, 1), 4)
	assert.BoolIs(t, s.Seek(-4), true)
	assert.DeepEqual(t, s.WriteSamples(testFrame(1, 4, 1), 4), 4)
	assert.SamplesEqual(t, s.Samples(1), make([]float32, 4), 0)
	assert.SamplesEqual(t, s.Samples(0), testFrame(1, 4, 1).Channels[0], 0)
}
