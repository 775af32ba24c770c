package devices

// Delegate is the set of callbacks a Manager invokes when its cached devices
// change. Nil callbacks are skipped.
//
// Callbacks run on the goroutine that performed the refresh (either the
// caller of Manager.Refresh or the platform notification goroutine). They may
// call the read accessors of the Manager, but must not call Refresh or
// SetDelegate synchronously.
type Delegate struct {
	DeviceAdded          func(m *Manager, id DeviceID)
	DeviceRemoved        func(m *Manager, id DeviceID)
	DefaultInputChanged  func(m *Manager, id DeviceID)
	DefaultOutputChanged func(m *Manager, id DeviceID)
}

func (d *Delegate) deviceAdded(m *Manager, id DeviceID) {
	if d.DeviceAdded != nil {
		d.DeviceAdded(m, id)
	}
}

func (d *Delegate) deviceRemoved(m *Manager, id DeviceID) {
	if d.DeviceRemoved != nil {
		d.DeviceRemoved(m, id)
	}
}

func (d *Delegate) defaultInputChanged(m *Manager, id DeviceID) {
	if d.DefaultInputChanged != nil {
		d.DefaultInputChanged(m, id)
	}
}

func (d *Delegate) defaultOutputChanged(m *Manager, id DeviceID) {
	if d.DefaultOutputChanged != nil {
		d.DefaultOutputChanged(m, id)
	}
}
