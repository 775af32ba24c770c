// Package devices provides a thread-safe, platform independent view of the
// audio devices connected to the host.
package devices

import (
	"errors"
	"sync"

	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
)

// refreshScope determines which part of the cached state a refresh updates.
type refreshScope int

const (
	scopeAll refreshScope = iota
	scopeDevices
	scopeDefaultInput
	scopeDefaultOutput
)

func (s refreshScope) String() string {
	switch s {
	case scopeAll:
		return "all"
	case scopeDevices:
		return "devices"
	case scopeDefaultInput:
		return "default-input"
	case scopeDefaultOutput:
		return "default-output"
	default:
		return "unknown"
	}
}

// refreshCond determines whether a refresh runs given the cache state.
type refreshCond int

const (
	// always runs the refresh.
	always refreshCond = iota

	// ifNotCached runs only for the first caching pass.
	ifNotCached

	// ifCached runs only when a cache exists. Platform notifications
	// received before the first query are ignored.
	ifCached
)

type config struct {
	log slog.Logger
	reg prometheus.Registerer
}

// Option is a functional manager config option.
type Option func(c *config)

// WithLogger sets the logger of the manager.
func WithLogger(log slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithRegisterer registers the manager metrics in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.reg = reg
	}
}

// Manager caches the set of connected audio devices and the system default
// devices, refreshing them on demand or when the platform reports a change.
//
// Device enumeration is deferred until the first query. All methods are safe
// for concurrent use. A Manager must not be copied; use Snapshot to obtain a
// copy of its state.
type Manager struct {
	log      slog.Logger
	platform Platform
	stats    *stats

	// platformOK is set during construction if the platform was
	// initialized.
	platformOK bool
	closeOnce  sync.Once
	closeErr   error

	// refreshMtx serializes refreshes. It is acquired before delegateMtx.
	refreshMtx sync.Mutex
	closed     bool

	// mtx protects the cached device state.
	mtx    sync.RWMutex
	snap   *Snapshot
	cached bool

	// delegateMtx protects the delegate and is held while it is called.
	delegateMtx sync.Mutex
	delegate    Delegate
}

// NewManager creates a manager for the devices of the given platform. If the
// platform fails to initialize, the manager is still usable but never lists
// any device.
func NewManager(platform Platform, opts ...Option) *Manager {
	cfg := config{log: slog.Disabled}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{
		log:      cfg.log,
		platform: platform,
		stats:    newStats(),
		snap:     emptySnapshot,
	}
	if cfg.reg != nil {
		m.stats.register(cfg.reg, m.log)
	}
	m.platformOK = m.createManager()
	if m.platformOK {
		m.registerDeviceUpdateCallbacks()
	}
	return m
}

// createManager initializes the platform.
func (m *Manager) createManager() bool {
	if m.platform == nil {
		m.log.Warnf("No audio platform available")
		return false
	}
	if err := m.platform.Init(); err != nil {
		m.stats.platformErrors.WithLabelValues("init").Inc()
		m.log.Errorf("Unable to initialize audio platform: %v", err)
		return false
	}
	return true
}

// destroyManager releases the platform.
func (m *Manager) destroyManager() error {
	if err := m.platform.Close(); err != nil {
		m.stats.platformErrors.WithLabelValues("close").Inc()
		return err
	}
	return nil
}

// registerDeviceUpdateCallbacks subscribes to platform change notifications.
// Failing to subscribe only disables automatic refreshes.
func (m *Manager) registerDeviceUpdateCallbacks() bool {
	if err := m.platform.Watch(m.handlePlatformChange); err != nil {
		m.stats.platformErrors.WithLabelValues("watch").Inc()
		m.log.Warnf("Unable to watch for device changes: %v", err)
		return false
	}
	return true
}

// unregisterDeviceUpdateCallbacks stops platform change notifications.
func (m *Manager) unregisterDeviceUpdateCallbacks() error {
	if err := m.platform.Unwatch(); err != nil {
		m.stats.platformErrors.WithLabelValues("unwatch").Inc()
		return err
	}
	return nil
}

// Close unregisters the hot-plug callbacks and releases the platform. The
// cached state remains readable but is never refreshed again. Calling Close
// more than once returns the result of the first call.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		// Flag under refreshMtx so no refresh uses the platform after
		// this point. The platform goroutine may still be delivering a
		// change, so Unwatch must run without holding refreshMtx.
		m.refreshMtx.Lock()
		m.closed = true
		m.refreshMtx.Unlock()

		if !m.platformOK {
			return
		}
		m.closeErr = errors.Join(m.unregisterDeviceUpdateCallbacks(),
			m.destroyManager())
		if m.closeErr != nil {
			m.log.Warnf("Error closing audio platform: %v", m.closeErr)
		}
	})
	return m.closeErr
}

// handlePlatformChange is called by the platform when it detects a change.
func (m *Manager) handlePlatformChange(c Change) {
	m.log.Debugf("Platform reported %s change", c)
	switch c {
	case ChangeDevices:
		m.refreshDevices()
	case ChangeDefaultInput:
		m.refreshDefaultDevice(DeviceTypeCapture)
	case ChangeDefaultOutput:
		m.refreshDefaultDevice(DeviceTypePlayback)
	default:
		m.log.Warnf("Unknown platform change %d", c)
	}
}

// refreshDevices re-enumerates the connected devices, keeping the cached
// default devices that are still connected.
func (m *Manager) refreshDevices() {
	m.refresh(scopeDevices, ifCached)
}

// refreshDefaultDevice re-queries the default device of one direction.
func (m *Manager) refreshDefaultDevice(typ DeviceType) {
	if typ == DeviceTypeCapture {
		m.refresh(scopeDefaultInput, ifCached)
	} else {
		m.refresh(scopeDefaultOutput, ifCached)
	}
}

// cacheDevices makes sure the devices have been enumerated at least once.
func (m *Manager) cacheDevices() {
	m.mtx.RLock()
	cached := m.cached
	m.mtx.RUnlock()
	if cached {
		return
	}
	m.refresh(scopeAll, ifNotCached)
}

// Refresh re-enumerates all connected devices and the default devices,
// replacing the cached state. The delegate is notified of the differences
// from the previously cached state.
func (m *Manager) Refresh() {
	m.refresh(scopeAll, always)
}

// refresh performs a refresh of the given scope when cond holds for the
// current cache state, then notifies the delegate of the changes.
func (m *Manager) refresh(scope refreshScope, cond refreshCond) {
	m.refreshMtx.Lock()
	if m.closed {
		m.refreshMtx.Unlock()
		return
	}

	m.mtx.RLock()
	old, cached := m.snap, m.cached
	m.mtx.RUnlock()

	if (cond == ifNotCached && cached) || (cond == ifCached && !cached) {
		m.refreshMtx.Unlock()
		return
	}

	next := m.enumerate(scope, old)
	m.stats.refreshes.WithLabelValues(scope.String()).Inc()
	m.stats.connected.Set(float64(next.DeviceCount()))

	m.mtx.Lock()
	m.snap = next
	m.cached = true
	m.mtx.Unlock()

	// The first caching pass does not generate notifications.
	if !cached {
		m.log.Debugf("Cached %d audio devices", next.DeviceCount())
		m.refreshMtx.Unlock()
		return
	}

	diff := diffSnapshots(old, next)
	if diff.empty() {
		m.refreshMtx.Unlock()
		return
	}

	// Hand over from refreshMtx to delegateMtx so that the notifications
	// of consecutive refreshes are delivered in order.
	m.delegateMtx.Lock()
	m.refreshMtx.Unlock()
	m.notify(&diff)
	m.delegateMtx.Unlock()
}

// enumerate queries the platform for the state of the given scope. Parts of
// the state outside the scope are carried over from old. A device refresh
// also re-queries a default device that is no longer connected.
//
// Platform failures are logged and result in no devices.
func (m *Manager) enumerate(scope refreshScope, old *Snapshot) *Snapshot {
	if !m.platformOK {
		return emptySnapshot
	}

	devs := old.devices
	defIn, defOut := old.DefaultInputDeviceID(), old.DefaultOutputDeviceID()

	if scope == scopeAll || scope == scopeDevices {
		var err error
		devs, err = m.platform.Devices()
		if err != nil {
			m.stats.platformErrors.WithLabelValues("devices").Inc()
			m.log.Errorf("Unable to list audio devices: %v", err)
			devs = nil
		}
	}

	next := newSnapshot(devs, defIn, defOut)
	queryIn := scope == scopeAll || scope == scopeDefaultInput ||
		(scope == scopeDevices && !next.DefaultInputDeviceID().IsValid())
	queryOut := scope == scopeAll || scope == scopeDefaultOutput ||
		(scope == scopeDevices && !next.DefaultOutputDeviceID().IsValid())
	if queryIn {
		defIn = m.defaultDevice(DeviceTypeCapture)
	}
	if queryOut {
		defOut = m.defaultDevice(DeviceTypePlayback)
	}
	if queryIn || queryOut {
		next = newSnapshot(devs, defIn, defOut)
	}
	return next
}

func (m *Manager) defaultDevice(typ DeviceType) DeviceID {
	id, err := m.platform.DefaultDevice(typ)
	if err != nil {
		m.stats.platformErrors.WithLabelValues("default").Inc()
		m.log.Warnf("Unable to query default %s device: %v", typ, err)
		return InvalidDevice
	}
	return id
}

// notify calls the delegate for every change. Must be called with
// delegateMtx held.
func (m *Manager) notify(c *changes) {
	d := &m.delegate
	for _, id := range c.removed {
		m.log.Debugf("Audio device removed: %s", id)
		m.stats.notifications.WithLabelValues("removed").Inc()
		d.deviceRemoved(m, id)
	}
	for _, id := range c.added {
		m.log.Debugf("Audio device added: %s", id)
		m.stats.notifications.WithLabelValues("added").Inc()
		d.deviceAdded(m, id)
	}
	if c.defaultInput != nil {
		m.log.Debugf("Default input device changed to %s", *c.defaultInput)
		m.stats.notifications.WithLabelValues("default-input").Inc()
		d.defaultInputChanged(m, *c.defaultInput)
	}
	if c.defaultOutput != nil {
		m.log.Debugf("Default output device changed to %s", *c.defaultOutput)
		m.stats.notifications.WithLabelValues("default-output").Inc()
		d.defaultOutputChanged(m, *c.defaultOutput)
	}
}

// snapshot returns the cached state, caching it first if needed.
func (m *Manager) snapshot() *Snapshot {
	m.cacheDevices()
	m.mtx.RLock()
	s := m.snap
	m.mtx.RUnlock()
	return s
}

// Snapshot returns a copy of the cached state.
func (m *Manager) Snapshot() *Snapshot {
	return m.snapshot()
}

// DeviceCount returns the number of connected devices.
func (m *Manager) DeviceCount() int {
	return m.snapshot().DeviceCount()
}

// DeviceID returns the ID of the device at index i. If the index is
// out-of-bounds, InvalidDevice is returned.
func (m *Manager) DeviceID(i int) DeviceID {
	return m.snapshot().DeviceID(i)
}

// Device returns the information of a connected device.
func (m *Manager) Device(id DeviceID) (Device, bool) {
	return m.snapshot().Device(id)
}

// DefaultInputDeviceID returns the ID of the system default input device or
// InvalidDevice if there is none.
func (m *Manager) DefaultInputDeviceID() DeviceID {
	return m.snapshot().DefaultInputDeviceID()
}

// DefaultOutputDeviceID returns the ID of the system default output device
// or InvalidDevice if there is none.
func (m *Manager) DefaultOutputDeviceID() DeviceID {
	return m.snapshot().DefaultOutputDeviceID()
}

// Delegate returns the current delegate.
func (m *Manager) Delegate() Delegate {
	m.delegateMtx.Lock()
	d := m.delegate
	m.delegateMtx.Unlock()
	return d
}

// SetDelegate replaces the delegate. If a notification is in progress, this
// waits for it to complete; after SetDelegate returns, the previous delegate
// is not called anymore.
func (m *Manager) SetDelegate(d Delegate) {
	m.delegateMtx.Lock()
	m.delegate = d
	m.delegateMtx.Unlock()
}
