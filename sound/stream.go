package sound

// OutputStream is a destination of sequential audio samples.
//
// WriteSamples is called from real-time processing code, therefore
// implementations must either complete in bounded time or drop the samples
// they cannot accept immediately. A return value smaller than numSamples
// means only that many samples were consumed.
type OutputStream interface {
	// WriteSamples writes the first numSamples samples of every channel of
	// src at the current stream position and returns how many samples were
	// written.
	WriteSamples(src *Frame, numSamples int) int

	// CanSeek returns true if the stream supports Seek.
	CanSeek() bool

	// Seek moves the write position by delta samples relative to the
	// current position. It returns false if the stream can't seek or the
	// resulting position would be invalid.
	Seek(delta int64) bool
}
