//go:build !cgo || noaudio

// This platform is only used in cgo-less and noaudio builds.

package audio

import (
	"github.com/companyzero/soundcore/devices"
	"github.com/decred/slog"
)

// NullPlatform is a devices.Platform without any device.
type NullPlatform struct{}

// NewPlatform returns a platform that fails to initialize.
func NewPlatform(log slog.Logger, hotplugOpts ...HotplugOption) *NullPlatform {
	log.Debugf("Audio support disabled during compilation")
	return &NullPlatform{}
}

func (_ *NullPlatform) Init() error { return ErrAudioDisabled }

func (_ *NullPlatform) Devices() ([]devices.Device, error) { return nil, ErrAudioDisabled }

func (_ *NullPlatform) DefaultDevice(devices.DeviceType) (devices.DeviceID, error) {
	return devices.InvalidDevice, ErrAudioDisabled
}

func (_ *NullPlatform) Watch(func(devices.Change)) error { return ErrAudioDisabled }
func (_ *NullPlatform) Unwatch() error                   { return nil }
func (_ *NullPlatform) Close() error                     { return nil }

// CaptureDevice is not available in this build.
type CaptureDevice struct{}

// OpenCapture returns ErrAudioDisabled.
func (_ *NullPlatform) OpenCapture(cfg CaptureConfig, cb CaptureFunc) (*CaptureDevice, error) {
	return nil, ErrAudioDisabled
}

func (_ *CaptureDevice) Start() error { return ErrAudioDisabled }
func (_ *CaptureDevice) Stop() error  { return nil }
func (_ *CaptureDevice) Close()       {}

var _ devices.Platform = (*NullPlatform)(nil)

// Platform is the platform implementation of this build.
type Platform = NullPlatform
