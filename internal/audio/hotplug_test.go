package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/internal/assert"
	"github.com/companyzero/soundcore/internal/testutils"
)

// testProbe is a ProbeFunc whose state is set by tests.
type testProbe struct {
	mtx   sync.Mutex
	state HotplugState
	err   error
	calls int
}

func (p *testProbe) probe() (HotplugState, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.calls++
	return p.state, p.err
}

func (p *testProbe) set(state HotplugState) {
	p.mtx.Lock()
	p.state = state
	p.mtx.Unlock()
}

func (p *testProbe) nbCalls() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.calls
}

func runWatcher(t *testing.T, w *HotplugWatcher) chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	t.Cleanup(cancel)
	return errc
}

// TestHotplugPolling asserts polling reports each kind of change.
func TestHotplugPolling(t *testing.T) {
	t.Parallel()

	a := devices.NewDeviceID(devices.DeviceTypeCapture, "0a")
	b := devices.NewDeviceID(devices.DeviceTypeCapture, "0b")
	c := devices.NewDeviceID(devices.DeviceTypePlayback, "0c")
	p := &testProbe{state: HotplugState{Devices: []devices.DeviceID{a, c}}}

	changes := make(chan devices.Change, 10)
	w := NewHotplugWatcher(p.probe, func(c devices.Change) { changes <- c },
		WithHotplugLogger(testutils.TestLoggerSys(t, "PLAT")),
		WithPollInterval(10*time.Millisecond),
		WithDeviceDir(""))
	errc := runWatcher(t, w)

	// The first probe only records the state.
	assert.Eventually(t, func() bool { return p.nbCalls() > 1 })
	assert.ChanNotWritten(t, changes, 50*time.Millisecond)

	p.set(HotplugState{Devices: []devices.DeviceID{a, b, c}})
	assert.ChanWrittenWithVal(t, changes, devices.ChangeDevices)

	p.set(HotplugState{Devices: []devices.DeviceID{a, b, c}, DefaultInput: b})
	assert.ChanWrittenWithVal(t, changes, devices.ChangeDefaultInput)

	p.set(HotplugState{Devices: []devices.DeviceID{a, b, c}, DefaultInput: b,
		DefaultOutput: c})
	assert.ChanWrittenWithVal(t, changes, devices.ChangeDefaultOutput)
	assert.ChanNotWritten(t, changes, 50*time.Millisecond)

	w.Stop()
	w.Stop()
	assert.NilErr(t, assert.ChanWritten(t, errc))
}

// TestHotplugProbeError asserts failed probes are not reported as changes.
func TestHotplugProbeError(t *testing.T) {
	t.Parallel()

	a := devices.NewDeviceID(devices.DeviceTypeCapture, "0a")
	p := &testProbe{state: HotplugState{Devices: []devices.DeviceID{a}}}
	changes := make(chan devices.Change, 10)
	w := NewHotplugWatcher(p.probe, func(c devices.Change) { changes <- c },
		WithHotplugLogger(testutils.TestLoggerSys(t, "PLAT")),
		WithPollInterval(10*time.Millisecond),
		WithDeviceDir(""))
	runWatcher(t, w)
	assert.Eventually(t, func() bool { return p.nbCalls() > 1 })

	p.mtx.Lock()
	p.err = os.ErrNotExist
	p.state = HotplugState{}
	p.mtx.Unlock()
	calls := p.nbCalls()
	assert.Eventually(t, func() bool { return p.nbCalls() > calls+2 })
	assert.ChanNotWritten(t, changes, 50*time.Millisecond)
	w.Stop()
}

// TestHotplugDeviceDir asserts device node events trigger a probe without
// waiting for the poll interval.
func TestHotplugDeviceDir(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "hotplug")
	a := devices.NewDeviceID(devices.DeviceTypeCapture, "0a")
	p := &testProbe{}
	changes := make(chan devices.Change, 10)
	w := NewHotplugWatcher(p.probe, func(c devices.Change) { changes <- c },
		WithHotplugLogger(testutils.TestLoggerSys(t, "PLAT")),
		WithPollInterval(0),
		WithDebounceDelay(10*time.Millisecond),
		WithDeviceDir(dir))
	errc := runWatcher(t, w)
	assert.Eventually(t, func() bool { return p.nbCalls() == 1 })

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	p.set(HotplugState{Devices: []devices.DeviceID{a}})
	err := os.WriteFile(filepath.Join(dir, "pcmC0D0c"), nil, 0o600)
	assert.NilErr(t, err)
	assert.ChanWrittenWithVal(t, changes, devices.ChangeDevices)

	p.set(HotplugState{})
	assert.NilErr(t, os.Remove(filepath.Join(dir, "pcmC0D0c")))
	assert.ChanWrittenWithVal(t, changes, devices.ChangeDevices)

	w.Stop()
	assert.NilErr(t, assert.ChanWritten(t, errc))
}

// TestHotplugContextDone asserts Run returns the context error.
func TestHotplugContextDone(t *testing.T) {
	t.Parallel()

	p := &testProbe{}
	w := NewHotplugWatcher(p.probe, func(devices.Change) {}, WithDeviceDir(""))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	cancel()
	assert.ErrorIs(t, assert.ChanWritten(t, errc), context.Canceled)
}
