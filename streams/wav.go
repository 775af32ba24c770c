package streams

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVStream writes 16 bit PCM samples to a WAV file. It can't seek.
type WAVStream struct {
	fileStream

	f   *os.File
	enc *wav.Encoder
	buf *goaudio.IntBuffer
}

// NewWAVStream creates the file at path and returns a stream that writes to
// it. The file is only valid after Close.
func NewWAVStream(path string, sampleRate, channels int, opts ...FileOption) (*WAVStream, error) {
	if channels < 1 {
		return nil, fmt.Errorf("invalid number of channels %d", channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	cfg := newFileConfig(opts)
	s := &WAVStream{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, channels, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, 0, cfg.blockSize*channels),
			SourceBitDepth: 16,
		},
	}
	s.start(cfg, channels, s)
	cfg.log.Debugf("Writing WAV stream to %s (%d Hz, %d channels)", path,
		sampleRate, channels)
	return s, nil
}

func (s *WAVStream) writeBlock(b *pcmBlock) error {
	data := s.buf.Data[:0]
	for _, v := range b.data {
		data = append(data, int(v))
	}
	s.buf.Data = data
	return s.enc.Write(s.buf)
}

func (s *WAVStream) finish() error {
	encErr := s.enc.Close()
	if err := s.f.Close(); err != nil && encErr == nil {
		return err
	}
	return encErr
}
