package devices

import "fmt"

// DeviceType is the direction of an audio endpoint.
type DeviceType string

const (
	DeviceTypeCapture  DeviceType = "capture"
	DeviceTypePlayback DeviceType = "playback"
)

// DeviceID identifies a single audio input or output endpoint.
//
// The zero value is InvalidDevice. IDs are comparable and may be used as map
// keys. Clients obtain IDs from a Manager; platform implementations create
// them with NewDeviceID.
type DeviceID struct {
	typ    DeviceType
	handle string
}

// InvalidDevice is the sentinel returned by queries that find no device.
var InvalidDevice DeviceID

// NewDeviceID returns the ID for the endpoint named by the platform specific
// handle. An empty handle yields InvalidDevice.
func NewDeviceID(typ DeviceType, handle string) DeviceID {
	if handle == "" {
		return InvalidDevice
	}
	return DeviceID{typ: typ, handle: handle}
}

// IsValid returns true if the ID refers to a device.
func (id DeviceID) IsValid() bool {
	return id.handle != ""
}

// Type returns the direction of the device.
func (id DeviceID) Type() DeviceType {
	return id.typ
}

// Handle returns the opaque platform handle of the device.
func (id DeviceID) Handle() string {
	return id.handle
}

func (id DeviceID) String() string {
	if !id.IsValid() {
		return "<invalid device>"
	}
	return fmt.Sprintf("%s:%s", id.typ, id.handle)
}

// Device is the descriptive information the platform reports for a device.
type Device struct {
	ID       DeviceID `json:"id"`
	Name     string   `json:"name"`
	Channels int      `json:"channels"`
}
