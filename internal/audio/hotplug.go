package audio

import (
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/companyzero/soundcore/devices"
	"github.com/decred/slog"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultDebounceDelay = 250 * time.Millisecond
)

// HotplugState is the state of the host devices as seen by a probe.
type HotplugState struct {
	Devices       []devices.DeviceID
	DefaultInput  devices.DeviceID
	DefaultOutput devices.DeviceID
}

// ProbeFunc returns the current state of the host devices.
type ProbeFunc func() (HotplugState, error)

type hotplugConfig struct {
	log           slog.Logger
	pollInterval  time.Duration
	debounceDelay time.Duration
	deviceDir     string
}

// HotplugOption is a functional HotplugWatcher config option.
type HotplugOption func(cfg *hotplugConfig)

// WithHotplugLogger sets the logger of the watcher.
func WithHotplugLogger(log slog.Logger) HotplugOption {
	return func(cfg *hotplugConfig) {
		cfg.log = log
	}
}

// WithPollInterval sets the interval between two probes. A zero interval
// disables polling.
func WithPollInterval(d time.Duration) HotplugOption {
	return func(cfg *hotplugConfig) {
		cfg.pollInterval = d
	}
}

// WithDeviceDir sets the directory watched for device nodes. An empty dir
// disables the directory watch.
func WithDeviceDir(dir string) HotplugOption {
	return func(cfg *hotplugConfig) {
		cfg.deviceDir = dir
	}
}

// WithDebounceDelay sets how long to wait after a device node event before
// probing the devices.
func WithDebounceDelay(d time.Duration) HotplugOption {
	return func(cfg *hotplugConfig) {
		cfg.debounceDelay = d
	}
}

// HotplugWatcher detects changes of the host devices by probing them
// periodically and whenever the device node directory changes.
type HotplugWatcher struct {
	cfg    hotplugConfig
	log    slog.Logger
	probe  ProbeFunc
	notify func(devices.Change)

	stopOnce sync.Once
	stop     chan struct{}

	// last is only accessed by Run.
	last      HotplugState
	lastValid bool
}

// NewHotplugWatcher creates a watcher that calls notify with every change
// detected by probe.
func NewHotplugWatcher(probe ProbeFunc, notify func(devices.Change), opts ...HotplugOption) *HotplugWatcher {
	cfg := hotplugConfig{
		log:           slog.Disabled,
		pollInterval:  defaultPollInterval,
		debounceDelay: defaultDebounceDelay,
		deviceDir:     defaultDeviceDir,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HotplugWatcher{
		cfg:    cfg,
		log:    cfg.log,
		probe:  probe,
		notify: notify,
		stop:   make(chan struct{}),
	}
}

// check probes the devices and notifies the changes from the last probe.
func (w *HotplugWatcher) check() {
	state, err := w.probe()
	if err != nil {
		w.log.Warnf("Unable to probe audio devices: %v", err)
		return
	}
	if !w.lastValid {
		w.last, w.lastValid = state, true
		return
	}

	last := w.last
	w.last = state
	if !slices.Equal(last.Devices, state.Devices) {
		w.log.Debugf("Detected device list change")
		w.notify(devices.ChangeDevices)
	}
	if last.DefaultInput != state.DefaultInput {
		w.log.Debugf("Detected default input change to %s", state.DefaultInput)
		w.notify(devices.ChangeDefaultInput)
	}
	if last.DefaultOutput != state.DefaultOutput {
		w.log.Debugf("Detected default output change to %s", state.DefaultOutput)
		w.notify(devices.ChangeDefaultOutput)
	}
}

// watchDir starts watching the device node directory. It returns nil if the
// directory does not exist or can't be watched.
func (w *HotplugWatcher) watchDir() *fsnotify.Watcher {
	if w.cfg.deviceDir == "" {
		return nil
	}
	if _, err := os.Stat(w.cfg.deviceDir); err != nil {
		w.log.Debugf("Not watching device dir: %v", err)
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warnf("Unable to create device dir watcher: %v", err)
		return nil
	}
	if err := fw.Add(w.cfg.deviceDir); err != nil {
		w.log.Warnf("Unable to watch device dir %s: %v", w.cfg.deviceDir, err)
		fw.Close()
		return nil
	}
	w.log.Debugf("Watching device dir %s", w.cfg.deviceDir)
	return fw
}

// Run probes the devices until ctx is done or Stop is called.
func (w *HotplugWatcher) Run(ctx context.Context) error {
	w.check()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if fw := w.watchDir(); fw != nil {
		defer fw.Close()
		events, errs = fw.Events, fw.Errors
	}

	var tick <-chan time.Time
	if w.cfg.pollInterval > 0 {
		ticker := time.NewTicker(w.cfg.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-tick:
			w.check()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			debounce.Reset(w.cfg.debounceDelay)

		case <-debounce.C:
			w.check()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warnf("Device dir watcher error: %v", err)

		case <-w.stop:
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop makes Run return. It is safe to call multiple times.
func (w *HotplugWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}
