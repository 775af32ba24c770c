//go:build cgo && !noaudio

package streams

import (
	"bufio"
	"fmt"
	"os"

	"github.com/companyzero/gopus"
	"github.com/companyzero/soundcore/internal/audio"
)

const (
	// opusFrameSamples is the number of samples per channel of a 20ms
	// opus frame.
	opusFrameSamples = audio.OpusSampleRate / 50

	// maxOpusPacketSize is the maximum size of an encoded packet.
	maxOpusPacketSize = 4000

	opusVendor = "soundcore"
)

// OpusStream encodes samples captured at 48kHz into an ogg/opus file. It can't
// seek.
type OpusStream struct {
	fileStream

	f   *os.File
	bw  *bufio.Writer
	enc *gopus.Encoder
	out *audio.OpusFileWriter

	// pending holds the samples not yet encoded because they do not fill
	// a complete frame.
	pending []int16
	packet  []byte
}

// NewOpusStream creates the file at path and returns a stream that writes to
// it. The file is only valid after Close.
func NewOpusStream(path string, channels int, opts ...FileOption) (*OpusStream, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported number of opus channels %d", channels)
	}
	enc, err := gopus.NewEncoder(audio.OpusSampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("unable to create opus encoder: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	out, err := audio.NewOpusFileWriter(bw, channels, opusVendor)
	if err != nil {
		f.Close()
		return nil, err
	}

	cfg := newFileConfig(opts)
	s := &OpusStream{
		f:       f,
		bw:      bw,
		enc:     enc,
		out:     out,
		pending: make([]int16, 0, opusFrameSamples*channels*2),
		packet:  make([]byte, maxOpusPacketSize),
	}
	s.start(cfg, channels, s)
	cfg.log.Debugf("Writing opus stream to %s (%d channels)", path, channels)
	return s, nil
}

// encodeFrames encodes every complete frame of pending samples.
func (s *OpusStream) encodeFrames() error {
	frameLen := opusFrameSamples * s.channels
	for len(s.pending) >= frameLen {
		packet, err := s.enc.Encode(s.pending[:frameLen], opusFrameSamples, s.packet)
		if err != nil {
			return fmt.Errorf("unable to encode opus frame: %w", err)
		}
		if err := s.out.WritePacket(packet, opusFrameSamples, false); err != nil {
			return err
		}
		s.pending = append(s.pending[:0], s.pending[frameLen:]...)
	}
	return nil
}

func (s *OpusStream) writeBlock(b *pcmBlock) error {
	s.pending = append(s.pending, b.data...)
	return s.encodeFrames()
}

func (s *OpusStream) finish() error {
	var err error
	if len(s.pending) > 0 {
		// Pad the last frame with silence.
		frameLen := opusFrameSamples * s.channels
		s.pending = append(s.pending, make([]int16, frameLen-len(s.pending))...)
		err = s.encodeFrames()
	}
	if err == nil {
		err = s.out.Finish()
	}
	if ferr := s.bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
