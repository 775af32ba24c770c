//go:build cgo && !noaudio

package audio

import (
	"fmt"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/sound"
	"github.com/gen2brain/malgo"
)

// rawFormat must match rawFormatSampleSize.
var rawFormat = malgo.FormatS16

// emptyDeviceID selects the default device.
var emptyDeviceID malgo.DeviceID

// CaptureDevice is an open capture device.
type CaptureDevice struct {
	dev   *malgo.Device
	frame *sound.Frame
	cb    CaptureFunc
	chans int
}

// onData is called by malgo on its audio thread.
func (cd *CaptureDevice) onData(_, input []byte, frameCount uint32) {
	n := int(frameCount)
	if n > cd.frame.Size() {
		// Backends may deliver more than the configured period.
		cd.frame = sound.NewFrame(cd.chans, n)
	}
	got := sound.FromS16LE(input, cd.frame)
	if addDebugTrace && got != n {
		fmt.Printf("capture: decoded %d of %d samples\n", got, n)
	}
	cd.cb(cd.frame, got)
}

// OpenCapture opens a capture device. cb is called on the audio thread for
// every captured block.
func (p *MalgoPlatform) OpenCapture(cfg CaptureConfig, cb CaptureFunc) (*CaptureDevice, error) {
	cfg.fill()
	if size := malgo.SampleSizeInBytes(rawFormat); size != rawFormatSampleSize {
		return nil, fmt.Errorf("malgo raw format has wrong sample size "+
			"(got %d, want %d)", size, rawFormatSampleSize)
	}

	var malgoID malgo.DeviceID
	if cfg.Device.IsValid() {
		if cfg.Device.Type() != devices.DeviceTypeCapture {
			return nil, fmt.Errorf("device %s is not a capture device", cfg.Device)
		}
		b, err := decodeHandle(cfg.Device.Handle())
		if err != nil {
			return nil, err
		}
		copy(malgoID[:], b)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = SampleRate
	deviceConfig.PeriodSizeInMilliseconds = uint32(cfg.PeriodSizeMS)
	if malgoID != emptyDeviceID {
		deviceConfig.Capture.DeviceID = malgoID.Pointer()
	}
	deviceConfig.Capture.Format = rawFormat
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.Alsa.NoMMap = 1

	cd := &CaptureDevice{
		frame: sound.NewFrame(cfg.Channels, cfg.periodSamples()),
		cb:    cb,
		chans: cfg.Channels,
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.malgoCtx == nil {
		return nil, errNotInitialized
	}
	dev, err := malgo.InitDevice(p.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: cd.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to init capture device: %w", err)
	}
	cd.dev = dev
	return cd, nil
}

// Start starts capturing.
func (cd *CaptureDevice) Start() error { return cd.dev.Start() }

// Stop stops capturing. No callbacks are made after Stop returns.
func (cd *CaptureDevice) Stop() error { return cd.dev.Stop() }

// Close releases the device.
func (cd *CaptureDevice) Close() { cd.dev.Uninit() }
