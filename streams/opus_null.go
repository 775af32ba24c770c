//go:build !cgo || noaudio

package streams

import "github.com/companyzero/soundcore/internal/audio"

// OpusStream is not available in this build.
type OpusStream struct {
	fileStream
}

// NewOpusStream returns audio.ErrAudioDisabled.
func NewOpusStream(path string, channels int, opts ...FileOption) (*OpusStream, error) {
	return nil, audio.ErrAudioDisabled
}
