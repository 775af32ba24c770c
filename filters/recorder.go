package filters

import (
	"sync"
	"sync/atomic"

	"github.com/companyzero/soundcore/sound"
	"github.com/decred/slog"
)

// recorderSession is the state bound to one destination stream. A new
// session is created every time the destination is replaced.
type recorderSession struct {
	stream   sound.OutputStream
	seekable bool

	pos    atomic.Int64
	length atomic.Int64

	// rewind is set by the control side and cleared by the audio side
	// once the stream has been moved back to its initial position.
	rewind atomic.Bool
}

// RecorderStats are the counters of a StreamRecorder.
type RecorderStats struct {
	// SamplesWritten is the number of samples per channel accepted by
	// the destination streams.
	SamplesWritten uint64

	// Underruns is the number of blocks the destination did not fully
	// accept.
	Underruns uint64

	// DroppedSamples is the number of samples per channel that the
	// destination did not accept.
	DroppedSamples uint64

	// SeekFailures is the number of rewinds the destination failed to
	// perform.
	SeekFailures uint64
}

// RecorderOption is a functional StreamRecorder config option.
type RecorderOption func(r *StreamRecorder)

// WithRecorderLogger sets the logger used for transport calls. The audio path
// never logs.
func WithRecorderLogger(log slog.Logger) RecorderOption {
	return func(r *StreamRecorder) {
		r.log = log
	}
}

var _ Filter = (*StreamRecorder)(nil)

// StreamRecorder is a pass-through filter that records the frames it
// processes into a destination stream.
//
// Transport methods (Record, Stop, Rewind, SetStream) may be called
// concurrently with ProcessFrame. ProcessFrame never blocks on them.
type StreamRecorder struct {
	log slog.Logger

	// mtx serializes the transport methods. It is never acquired by
	// ProcessFrame.
	mtx sync.Mutex

	session   atomic.Pointer[recorderSession]
	recording atomic.Bool

	samplesWritten atomic.Uint64
	underruns      atomic.Uint64
	droppedSamples atomic.Uint64
	seekFailures   atomic.Uint64
}

// NewStreamRecorder creates a recorder that writes to stream. The stream may
// be nil, in which case SetStream must be called before recording.
func NewStreamRecorder(stream sound.OutputStream, opts ...RecorderOption) *StreamRecorder {
	r := &StreamRecorder{log: slog.Disabled}
	for _, opt := range opts {
		opt(r)
	}
	r.session.Store(newRecorderSession(stream))
	return r
}

func newRecorderSession(stream sound.OutputStream) *recorderSession {
	s := &recorderSession{stream: stream}
	if stream != nil {
		s.seekable = stream.CanSeek()
	}
	return s
}

// Name returns the name of the filter.
func (r *StreamRecorder) Name() string { return "Stream Recorder" }

// Manufacturer returns the manufacturer of the filter.
func (r *StreamRecorder) Manufacturer() string { return "Om Sound" }

// Version returns the version of the filter.
func (r *StreamRecorder) Version() Version { return Version{Major: 1} }

// Category returns CategoryRecording.
func (r *StreamRecorder) Category() Category { return CategoryRecording }

// AllowsInPlaceProcessing returns true.
func (r *StreamRecorder) AllowsInPlaceProcessing() bool { return true }

// Stream returns the destination stream or nil.
func (r *StreamRecorder) Stream() sound.OutputStream {
	return r.session.Load().stream
}

// SetStream replaces the destination stream. The position and length are
// reset. Setting a nil stream stops recording.
func (r *StreamRecorder) SetStream(stream sound.OutputStream) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if stream == nil {
		r.recording.Store(false)
	}
	r.session.Store(newRecorderSession(stream))
	r.log.Debugf("Recorder stream replaced (recording %v)", r.recording.Load())
}

// IsRecording returns true if the recorder writes the processed frames to
// its stream.
func (r *StreamRecorder) IsRecording() bool {
	return r.recording.Load() && r.session.Load().stream != nil
}

// SetIsRecording starts or stops recording and returns the resulting state,
// which is false when recording was requested without a stream.
func (r *StreamRecorder) SetIsRecording(recording bool) bool {
	if recording {
		return r.Record()
	}
	r.Stop()
	return false
}

// Record starts recording at the current position. It returns false if
// there is no destination stream.
func (r *StreamRecorder) Record() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.session.Load().stream == nil {
		return false
	}
	if !r.recording.Swap(true) {
		r.log.Debugf("Recording started at %d", r.position())
	}
	return true
}

// Stop stops recording starting with the next processed frame. The position
// is preserved.
func (r *StreamRecorder) Stop() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.recording.Swap(false) {
		r.log.Debugf("Recording stopped at %d", r.position())
	}
}

// Rewind moves the position back to the start of the stream. The recording
// state is not changed, so rewinding while recording overwrites the
// previously recorded samples. It returns false if the stream can't seek.
//
// The stream itself is moved by the next ProcessFrame call.
func (r *StreamRecorder) Rewind() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	s := r.session.Load()
	if s.stream == nil || !s.seekable {
		return false
	}
	s.rewind.Store(true)
	r.log.Debugf("Recorder rewind requested")
	return true
}

// SeekingAllowed returns true if the destination stream can be rewound.
func (r *StreamRecorder) SeekingAllowed() bool {
	return r.session.Load().seekable
}

func (r *StreamRecorder) position() int64 {
	s := r.session.Load()
	if s.rewind.Load() {
		return 0
	}
	return s.pos.Load()
}

// Position returns the number of samples between the start of the stream and
// the current write position.
func (r *StreamRecorder) Position() int64 {
	return r.position()
}

// Length returns the largest position reached in the current stream.
func (r *StreamRecorder) Length() int64 {
	return r.session.Load().length.Load()
}

// Stats returns the recorder counters.
func (r *StreamRecorder) Stats() RecorderStats {
	return RecorderStats{
		SamplesWritten: r.samplesWritten.Load(),
		Underruns:      r.underruns.Load(),
		DroppedSamples: r.droppedSamples.Load(),
		SeekFailures:   r.seekFailures.Load(),
	}
}

// ProcessFrame copies numSamples samples from input to output and, while
// recording, writes them to the destination stream.
//
// A stream that accepts fewer samples than requested is an underrun: the
// position advances by the number of samples written and recording
// continues.
func (r *StreamRecorder) ProcessFrame(input, output *sound.Frame, numSamples int) (int, error) {
	if numSamples <= 0 {
		return 0, nil
	}
	if input.Size() < numSamples || output.Size() < numSamples {
		return 0, ErrFrameTooSmall
	}

	s := r.session.Load()
	if s.rewind.Load() {
		if s.stream.Seek(-s.pos.Load()) {
			s.pos.Store(0)
		} else {
			r.seekFailures.Add(1)
		}
		s.rewind.Store(false)
	}

	if r.recording.Load() && s.stream != nil {
		n := s.stream.WriteSamples(input, numSamples)
		n = max(0, min(n, numSamples))
		if n < numSamples {
			r.underruns.Add(1)
			r.droppedSamples.Add(uint64(numSamples - n))
		}
		if n > 0 {
			r.samplesWritten.Add(uint64(n))
			pos := s.pos.Add(int64(n))
			if pos > s.length.Load() {
				s.length.Store(pos)
			}
		}
	}

	input.CopyTo(output, numSamples)
	return numSamples, nil
}
