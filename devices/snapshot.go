package devices

import "slices"

// Snapshot is an immutable copy of the devices cached by a Manager at some
// point in time. Unlike the Manager, a Snapshot does not track hot-plug
// events.
//
// The zero value is an empty snapshot.
type Snapshot struct {
	devices []Device

	// Indices into devices of the default input and output devices, or -1.
	defaultInput  int
	defaultOutput int
}

// emptySnapshot is the state of a manager that has no devices.
var emptySnapshot = &Snapshot{defaultInput: -1, defaultOutput: -1}

// newSnapshot builds a snapshot from the given device list. Default IDs that
// are not part of the list are dropped, so that default indices always point
// at an existing entry.
func newSnapshot(devs []Device, defIn, defOut DeviceID) *Snapshot {
	s := &Snapshot{
		devices:       devs,
		defaultInput:  -1,
		defaultOutput: -1,
	}
	for i := range devs {
		if !devs[i].ID.IsValid() {
			continue
		}
		if devs[i].ID == defIn && s.defaultInput < 0 {
			s.defaultInput = i
		}
		if devs[i].ID == defOut && s.defaultOutput < 0 {
			s.defaultOutput = i
		}
	}
	return s
}

// DeviceCount returns the number of devices in the snapshot.
func (s *Snapshot) DeviceCount() int {
	return len(s.devices)
}

// DeviceID returns the ID of the device at index i or InvalidDevice if i is
// out of bounds.
func (s *Snapshot) DeviceID(i int) DeviceID {
	if i < 0 || i >= len(s.devices) {
		return InvalidDevice
	}
	return s.devices[i].ID
}

// Device returns the information of the device with the given ID.
func (s *Snapshot) Device(id DeviceID) (Device, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.devices[i], true
	}
	return Device{}, false
}

// Devices returns a copy of the device list.
func (s *Snapshot) Devices() []Device {
	return slices.Clone(s.devices)
}

// DefaultInputDeviceID returns the ID of the default input device or
// InvalidDevice.
func (s *Snapshot) DefaultInputDeviceID() DeviceID {
	if s.defaultInput < 0 || s.defaultInput >= len(s.devices) {
		return InvalidDevice
	}
	return s.devices[s.defaultInput].ID
}

// DefaultOutputDeviceID returns the ID of the default output device or
// InvalidDevice.
func (s *Snapshot) DefaultOutputDeviceID() DeviceID {
	if s.defaultOutput < 0 || s.defaultOutput >= len(s.devices) {
		return InvalidDevice
	}
	return s.devices[s.defaultOutput].ID
}

func (s *Snapshot) indexOf(id DeviceID) int {
	if !id.IsValid() {
		return -1
	}
	for i := range s.devices {
		if s.devices[i].ID == id {
			return i
		}
	}
	return -1
}

// changes lists the differences between two snapshots.
type changes struct {
	removed       []DeviceID
	added         []DeviceID
	defaultInput  *DeviceID
	defaultOutput *DeviceID
}

func (c *changes) empty() bool {
	return len(c.removed) == 0 && len(c.added) == 0 &&
		c.defaultInput == nil && c.defaultOutput == nil
}

// diffSnapshots computes the set difference between the old and new device
// lists and the default device changes.
func diffSnapshots(old, next *Snapshot) changes {
	var c changes
	oldSet := make(map[DeviceID]struct{}, len(old.devices))
	for _, d := range old.devices {
		oldSet[d.ID] = struct{}{}
	}
	newSet := make(map[DeviceID]struct{}, len(next.devices))
	for _, d := range next.devices {
		newSet[d.ID] = struct{}{}
	}
	for _, d := range old.devices {
		if _, ok := newSet[d.ID]; !ok {
			c.removed = append(c.removed, d.ID)
		}
	}
	for _, d := range next.devices {
		if _, ok := oldSet[d.ID]; !ok {
			c.added = append(c.added, d.ID)
		}
	}
	if in := next.DefaultInputDeviceID(); in != old.DefaultInputDeviceID() {
		c.defaultInput = &in
	}
	if out := next.DefaultOutputDeviceID(); out != old.DefaultOutputDeviceID() {
		c.defaultOutput = &out
	}
	return c
}
