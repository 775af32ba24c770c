//go:build cgo && !noaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/internal/strescape"
	"github.com/decred/slog"
	"github.com/gen2brain/malgo"
)

var errNotInitialized = errors.New("audio platform not initialized")
var errAlreadyWatching = errors.New("already watching for device changes")

// MalgoPlatform is a devices.Platform backed by a malgo context.
type MalgoPlatform struct {
	log      slog.Logger
	hotplugs []HotplugOption

	// mtx guards the malgo context, which does not support concurrent
	// enumeration.
	mtx      sync.Mutex
	malgoCtx *malgo.AllocatedContext

	watchMtx    sync.Mutex
	watcher     *HotplugWatcher
	watcherDone chan struct{}
	cancelWatch context.CancelFunc
}

// NewPlatform returns the platform of the host audio devices. Hotplug
// options are passed to the watcher created by Watch.
func NewPlatform(log slog.Logger, hotplugOpts ...HotplugOption) *MalgoPlatform {
	return &MalgoPlatform{log: log, hotplugs: hotplugOpts}
}

// Init initializes the malgo context.
func (p *MalgoPlatform) Init() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.malgoCtx != nil {
		return nil
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		p.log.Tracef("malgo: %s", msg)
	})
	if err != nil {
		return fmt.Errorf("unable to init malgo context: %w", err)
	}
	p.malgoCtx = malgoCtx
	return nil
}

// Close releases the malgo context.
func (p *MalgoPlatform) Close() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.malgoCtx == nil {
		return nil
	}
	err := p.malgoCtx.Uninit()
	p.malgoCtx.Free()
	p.malgoCtx = nil
	return err
}

// malgoDevice is a device reported by malgo.
type malgoDevice struct {
	devices.Device
	isDefault bool
}

func malgoDeviceType(typ devices.DeviceType) malgo.DeviceType {
	if typ == devices.DeviceTypeCapture {
		return malgo.Capture
	}
	return malgo.Playback
}

// listDevices lists the devices of one direction. Must be called with mtx
// held.
func (p *MalgoPlatform) listDevices(typ devices.DeviceType) ([]malgoDevice, error) {
	if p.malgoCtx == nil {
		return nil, errNotInitialized
	}
	mtyp := malgoDeviceType(typ)
	infos, err := p.malgoCtx.Devices(mtyp)
	if err != nil {
		return nil, err
	}

	res := make([]malgoDevice, 0, len(infos))
	seen := make(map[devices.DeviceID]struct{}, len(infos))
	for _, info := range infos {
		full, err := p.malgoCtx.DeviceInfo(mtyp, info.ID, malgo.Shared)
		if err != nil {
			p.log.Warnf("Unable to get audio device info: %v", err)
			continue
		}

		// Some backends report the same device more than once.
		id := devices.NewDeviceID(typ, encodeHandle(full.ID[:]))
		if !id.IsValid() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		var chans int
		for i := 0; i < int(full.FormatCount) && i < len(full.Formats); i++ {
			chans = max(chans, int(full.Formats[i].Channels))
		}
		res = append(res, malgoDevice{
			Device: devices.Device{
				ID:       id,
				Name:     strescape.DeviceName(full.Name()),
				Channels: chans,
			},
			isDefault: full.IsDefault == 1,
		})
	}
	return res, nil
}

// Devices lists the capture devices followed by the playback devices.
func (p *MalgoPlatform) Devices() ([]devices.Device, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var res []devices.Device
	for _, typ := range []devices.DeviceType{devices.DeviceTypeCapture, devices.DeviceTypePlayback} {
		devs, err := p.listDevices(typ)
		if err != nil {
			return nil, fmt.Errorf("unable to list %s devices: %w", typ, err)
		}
		for _, d := range devs {
			res = append(res, d.Device)
		}
	}
	return res, nil
}

// DefaultDevice returns the default device of the given direction or
// InvalidDevice.
func (p *MalgoPlatform) DefaultDevice(typ devices.DeviceType) (devices.DeviceID, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	devs, err := p.listDevices(typ)
	if err != nil {
		return devices.InvalidDevice, err
	}
	for _, d := range devs {
		if d.isDefault {
			return d.ID, nil
		}
	}
	return devices.InvalidDevice, nil
}

// probe returns the hotplug state of the host.
func (p *MalgoPlatform) probe() (HotplugState, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var state HotplugState
	for _, typ := range []devices.DeviceType{devices.DeviceTypeCapture, devices.DeviceTypePlayback} {
		devs, err := p.listDevices(typ)
		if err != nil {
			return state, err
		}
		for _, d := range devs {
			state.Devices = append(state.Devices, d.ID)
			if !d.isDefault {
				continue
			}
			if typ == devices.DeviceTypeCapture {
				state.DefaultInput = d.ID
			} else {
				state.DefaultOutput = d.ID
			}
		}
	}
	return state, nil
}

// Watch starts a hotplug watcher that calls cb on every change.
func (p *MalgoPlatform) Watch(cb func(devices.Change)) error {
	p.watchMtx.Lock()
	defer p.watchMtx.Unlock()
	if p.watcher != nil {
		return errAlreadyWatching
	}

	opts := append([]HotplugOption{WithHotplugLogger(p.log)}, p.hotplugs...)
	w := NewHotplugWatcher(p.probe, cb, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.log.Warnf("Hotplug watcher failed: %v", err)
		}
	}()
	p.watcher, p.watcherDone, p.cancelWatch = w, done, cancel
	return nil
}

// Unwatch stops the hotplug watcher and waits for it to finish.
func (p *MalgoPlatform) Unwatch() error {
	p.watchMtx.Lock()
	defer p.watchMtx.Unlock()
	if p.watcher == nil {
		return nil
	}
	p.watcher.Stop()
	p.cancelWatch()
	<-p.watcherDone
	p.watcher, p.watcherDone, p.cancelWatch = nil, nil, nil
	return nil
}

var _ devices.Platform = (*MalgoPlatform)(nil)

// Platform is the platform implementation of this build.
type Platform = MalgoPlatform
