// Package sound holds the sample containers shared by the device, filter and
// stream packages.
package sound

// Frame is a block of non-interleaved float32 samples, one slice per channel.
//
// Frames are allocated once by their owner and reused across processing
// calls. None of the Frame methods allocate.
type Frame struct {
	Channels [][]float32
}

// NewFrame allocates a frame with numChannels channels of numSamples samples
// each.
func NewFrame(numChannels, numSamples int) *Frame {
	chans := make([][]float32, numChannels)
	backing := make([]float32, numChannels*numSamples)
	for i := range chans {
		chans[i] = backing[i*numSamples : (i+1)*numSamples : (i+1)*numSamples]
	}
	return &Frame{Channels: chans}
}

// NumChannels returns the number of channels in the frame.
func (f *Frame) NumChannels() int {
	if f == nil {
		return 0
	}
	return len(f.Channels)
}

// Size returns the number of samples that every channel of the frame can
// hold.
func (f *Frame) Size() int {
	if f == nil || len(f.Channels) == 0 {
		return 0
	}
	size := len(f.Channels[0])
	for _, c := range f.Channels[1:] {
		if len(c) < size {
			size = len(c)
		}
	}
	return size
}

// CopyTo copies the first n samples of every channel into dst. Channels that
// do not exist in dst are skipped. It returns the number of samples copied
// per channel, which is smaller than n when either frame is too short.
func (f *Frame) CopyTo(dst *Frame, n int) int {
	if f == dst {
		return min(n, f.Size())
	}
	n = min(n, f.Size(), dst.Size())
	if n <= 0 {
		return 0
	}
	for i := 0; i < len(f.Channels) && i < len(dst.Channels); i++ {
		copy(dst.Channels[i][:n], f.Channels[i][:n])
	}
	return n
}

// Zero clears the first n samples of every channel.
func (f *Frame) Zero(n int) {
	n = min(n, f.Size())
	for _, c := range f.Channels {
		clear(c[:n])
	}
}
