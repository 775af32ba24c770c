// Package audio integrates the host audio devices through malgo.
//
// Builds without cgo, or with the noaudio tag, use a null implementation that
// reports ErrAudioDisabled.
package audio

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/sound"
)

// ErrAudioDisabled is returned when audio support was not compiled in.
var ErrAudioDisabled = errors.New("audio was disabled during compilation")

const (
	// SampleRate is the sample rate of capture devices.
	SampleRate = 48000

	// PeriodSizeMS is the default size of a capture period.
	PeriodSizeMS = 20

	// rawFormatSampleSize is the size in bytes of a captured sample.
	rawFormatSampleSize = 2
)

// encodeHandle returns the handle of a platform device ID. Trailing zero
// bytes are trimmed.
func encodeHandle(id []byte) string {
	return hex.EncodeToString(bytes.TrimRight(id, "\x00"))
}

// decodeHandle converts a device handle back to the platform ID bytes.
func decodeHandle(h string) ([]byte, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid device handle %q: %w", h, err)
	}
	return b, nil
}

// CaptureConfig is the configuration of a capture device.
type CaptureConfig struct {
	// Device is the device to capture from. InvalidDevice selects the
	// system default input.
	Device devices.DeviceID

	// Channels is the number of channels to capture. Defaults to 1.
	Channels int

	// PeriodSizeMS is the duration of each captured block. Defaults to
	// PeriodSizeMS.
	PeriodSizeMS int
}

func (cfg *CaptureConfig) fill() {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.PeriodSizeMS <= 0 {
		cfg.PeriodSizeMS = PeriodSizeMS
	}
}

// periodSamples returns the number of samples per channel of a period.
func (cfg *CaptureConfig) periodSamples() int {
	return SampleRate * cfg.PeriodSizeMS / 1000
}

// CaptureFunc receives captured blocks. The frame is reused between calls and
// only its first n samples are valid.
type CaptureFunc func(f *sound.Frame, n int)
