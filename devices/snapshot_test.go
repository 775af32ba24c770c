package devices

import (
	"testing"

	"github.com/companyzero/soundcore/internal/assert"
)

// TestDeviceIDs asserts the invalid device sentinel and ID comparisons.
func TestDeviceIDs(t *testing.T) {
	t.Parallel()

	var zero DeviceID
	assert.BoolIs(t, zero == InvalidDevice, true)
	assert.BoolIs(t, InvalidDevice.IsValid(), false)
	assert.DeepEqual(t, InvalidDevice.String(), "<invalid device>")
	assert.BoolIs(t, NewDeviceID(DeviceTypeCapture, "") == InvalidDevice, true)

	in := NewDeviceID(DeviceTypeCapture, "0a")
	out := NewDeviceID(DeviceTypePlayback, "0a")
	assert.BoolIs(t, in.IsValid(), true)
	assert.BoolIs(t, in == NewDeviceID(DeviceTypeCapture, "0a"), true)
	assert.BoolIs(t, in == out, false)
	assert.DeepEqual(t, in.String(), "capture:0a")
	assert.DeepEqual(t, out.Type(), DeviceTypePlayback)
	assert.DeepEqual(t, out.Handle(), "0a")
}

// TestSnapshotDefaults asserts defaults missing from the device list are
// dropped.
func TestSnapshotDefaults(t *testing.T) {
	t.Parallel()

	a := NewDeviceID(DeviceTypeCapture, "a")
	b := NewDeviceID(DeviceTypePlayback, "b")
	gone := NewDeviceID(DeviceTypePlayback, "gone")
	s := newSnapshot([]Device{{ID: a, Name: "A"}, {ID: b, Name: "B"}}, a, gone)
	assert.DeepEqual(t, s.DeviceCount(), 2)
	assert.DeepEqual(t, s.DefaultInputDeviceID(), a)
	assert.DeepEqual(t, s.DefaultOutputDeviceID(), InvalidDevice)
	assert.DeepEqual(t, s.DeviceID(1), b)
	assert.DeepEqual(t, s.DeviceID(-1), InvalidDevice)

	d, ok := s.Device(b)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, d.Name, "B")
	_, ok = s.Device(InvalidDevice)
	assert.BoolIs(t, ok, false)

	devs := s.Devices()
	devs[0].Name = "changed"
	d, _ = s.Device(a)
	assert.DeepEqual(t, d.Name, "A")

	assert.DeepEqual(t, emptySnapshot.DeviceCount(), 0)
	assert.DeepEqual(t, emptySnapshot.DefaultInputDeviceID(), InvalidDevice)
}

// TestDiffSnapshots asserts the removed and added sets and default changes.
func TestDiffSnapshots(t *testing.T) {
	t.Parallel()

	a := NewDeviceID(DeviceTypeCapture, "a")
	b := NewDeviceID(DeviceTypeCapture, "b")
	c := NewDeviceID(DeviceTypeCapture, "c")
	o := NewDeviceID(DeviceTypePlayback, "o")

	old := newSnapshot([]Device{{ID: a}, {ID: b}, {ID: o}}, a, o)
	next := newSnapshot([]Device{{ID: b}, {ID: c}, {ID: o}}, c, o)
	ch := diffSnapshots(old, next)
	assert.DeepEqual(t, ch.removed, []DeviceID{a})
	assert.DeepEqual(t, ch.added, []DeviceID{c})
	assert.DeepEqual(t, *ch.defaultInput, c)
	assert.BoolIs(t, ch.defaultOutput == nil, true)
	assert.BoolIs(t, ch.empty(), false)

	same := diffSnapshots(next, newSnapshot(next.Devices(), c, o))
	assert.BoolIs(t, same.empty(), true)
}
