package streams

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/companyzero/soundcore/sound"
	"github.com/decred/slog"
	"golang.org/x/sync/errgroup"
)

// ErrStreamClosed is returned when closing a stream that is already closed.
var ErrStreamClosed = errors.New("stream closed")

const (
	defaultQueueLen  = 32
	defaultBlockSize = 4096
)

type fileConfig struct {
	log       slog.Logger
	queueLen  int
	blockSize int
}

// FileOption is a functional config option for file streams.
type FileOption func(cfg *fileConfig)

// WithLogger sets the logger of the stream writer.
func WithLogger(log slog.Logger) FileOption {
	return func(cfg *fileConfig) {
		cfg.log = log
	}
}

// WithQueueLen sets how many blocks may be waiting to be encoded. Writes are
// dropped when the queue is full.
func WithQueueLen(n int) FileOption {
	return func(cfg *fileConfig) {
		cfg.queueLen = n
	}
}

// WithBlockSize sets the number of samples per channel preallocated for each
// queued block. Larger writes grow the block once.
func WithBlockSize(n int) FileOption {
	return func(cfg *fileConfig) {
		cfg.blockSize = n
	}
}

func newFileConfig(opts []FileOption) fileConfig {
	cfg := fileConfig{
		log:       slog.Disabled,
		queueLen:  defaultQueueLen,
		blockSize: defaultBlockSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueLen < 1 {
		cfg.queueLen = 1
	}
	return cfg
}

// pcmBlock is a block of interleaved samples waiting to be encoded.
type pcmBlock struct {
	data []int16
	n    int
}

// blockSink encodes blocks on the writer goroutine.
type blockSink interface {
	writeBlock(b *pcmBlock) error
	finish() error
}

// fileStream hands off the written samples to a writer goroutine. Blocks are
// preallocated so that WriteSamples neither blocks nor allocates.
type fileStream struct {
	log      slog.Logger
	channels int
	sink     blockSink

	free  chan *pcmBlock
	queue chan *pcmBlock
	stop  chan struct{}
	g     errgroup.Group

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	encoded atomic.Int64
	dropped atomic.Uint64
	failed  atomic.Bool
}

func (s *fileStream) start(cfg fileConfig, channels int, sink blockSink) {
	s.log = cfg.log
	s.channels = channels
	s.sink = sink
	s.free = make(chan *pcmBlock, cfg.queueLen)
	s.queue = make(chan *pcmBlock, cfg.queueLen)
	s.stop = make(chan struct{})
	for i := 0; i < cfg.queueLen; i++ {
		s.free <- &pcmBlock{data: make([]int16, 0, cfg.blockSize*channels)}
	}
	s.g.Go(s.run)
}

// WriteSamples queues numSamples samples of src for encoding. It returns 0
// when the queue is full or the stream is closed.
func (s *fileStream) WriteSamples(src *sound.Frame, numSamples int) int {
	if s.closed.Load() || s.failed.Load() {
		return 0
	}
	n := min(numSamples, src.Size())
	if n <= 0 {
		return 0
	}

	var b *pcmBlock
	select {
	case b = <-s.free:
	default:
		s.dropped.Add(uint64(n))
		return 0
	}

	if src.NumChannels() == s.channels {
		b.data = sound.Interleave(src, n, b.data)
	} else {
		b.data = interleaveChannels(src, n, s.channels, b.data)
	}
	b.n = n

	// The queue has room for every block.
	s.queue <- b
	return n
}

// interleaveChannels interleaves src into dst with the given number of
// channels, duplicating the last source channel or dropping extra ones.
func interleaveChannels(src *sound.Frame, n, channels int, dst []int16) []int16 {
	dst = dst[:0]
	last := src.NumChannels() - 1
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			var v float32
			if last >= 0 {
				v = src.Channels[min(c, last)][i]
			}
			dst = append(dst, sound.ToInt16(v))
		}
	}
	return dst
}

// CanSeek returns false.
func (s *fileStream) CanSeek() bool { return false }

// Seek fails.
func (s *fileStream) Seek(int64) bool { return false }

// Encoded returns the number of samples per channel encoded.
func (s *fileStream) Encoded() int64 { return s.encoded.Load() }

// Dropped returns the number of samples per channel dropped because the
// writer did not keep up.
func (s *fileStream) Dropped() uint64 { return s.dropped.Load() }

func (s *fileStream) encode(b *pcmBlock) error {
	defer func() { s.free <- b }()
	if s.failed.Load() {
		return nil
	}
	if err := s.sink.writeBlock(b); err != nil {
		s.failed.Store(true)
		return err
	}
	s.encoded.Add(int64(b.n))
	return nil
}

func (s *fileStream) run() error {
	var encErr error
	handle := func(b *pcmBlock) {
		if err := s.encode(b); err != nil && encErr == nil {
			s.log.Errorf("Unable to encode audio block: %v", err)
			encErr = err
		}
	}

	for {
		select {
		case b := <-s.queue:
			handle(b)
		case <-s.stop:
			for {
				select {
				case b := <-s.queue:
					handle(b)
				default:
					return errors.Join(encErr, s.sink.finish())
				}
			}
		}
	}
}

// Close encodes the queued blocks, finalizes and closes the file.
func (s *fileStream) Close() error {
	err := ErrStreamClosed
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		s.closeErr = s.g.Wait()
		err = s.closeErr
	})
	return err
}
