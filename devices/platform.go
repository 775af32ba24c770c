package devices

// Change is the kind of device change a Platform reports.
type Change int

const (
	// ChangeDevices is reported when a device is connected or
	// disconnected.
	ChangeDevices Change = iota

	// ChangeDefaultInput is reported when the system default capture
	// device changes.
	ChangeDefaultInput

	// ChangeDefaultOutput is reported when the system default playback
	// device changes.
	ChangeDefaultOutput
)

func (c Change) String() string {
	switch c {
	case ChangeDevices:
		return "devices"
	case ChangeDefaultInput:
		return "default-input"
	case ChangeDefaultOutput:
		return "default-output"
	default:
		return "unknown"
	}
}

// Platform is the OS specific side of a Manager. It owns the OS handles needed
// to enumerate devices and to receive hot-plug notifications.
//
// A Manager calls Init and Watch once when it is created and Unwatch and
// Close once when it is closed. The remaining methods may be called
// concurrently with each other.
type Platform interface {
	// Init acquires the platform resources.
	Init() error

	// Devices lists the currently connected input and output devices.
	Devices() ([]Device, error)

	// DefaultDevice returns the system default device for the given
	// direction, or InvalidDevice when there is none.
	DefaultDevice(typ DeviceType) (DeviceID, error)

	// Watch registers the function to call when the platform detects a
	// device change. The function may be called from any goroutine.
	Watch(func(Change)) error

	// Unwatch stops change notifications. After it returns, the function
	// passed to Watch is not called anymore.
	Unwatch() error

	// Close releases all platform resources.
	Close() error
}
