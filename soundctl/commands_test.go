package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/internal/assert"
	"github.com/companyzero/soundcore/internal/testutils"
)

// staticPlatform is a devices.Platform with a fixed set of devices.
type staticPlatform struct {
	devs          []devices.Device
	defIn, defOut devices.DeviceID
}

func (p *staticPlatform) Init() error                        { return nil }
func (p *staticPlatform) Devices() ([]devices.Device, error) { return p.devs, nil }
func (p *staticPlatform) Watch(func(devices.Change)) error   { return nil }
func (p *staticPlatform) Unwatch() error                     { return nil }
func (p *staticPlatform) Close() error                       { return nil }

func (p *staticPlatform) DefaultDevice(typ devices.DeviceType) (devices.DeviceID, error) {
	if typ == devices.DeviceTypeCapture {
		return p.defIn, nil
	}
	return p.defOut, nil
}

// TestPrintDevices asserts the device table lists every device and marks the
// defaults.
func TestPrintDevices(t *testing.T) {
	t.Parallel()

	mic := devices.NewDeviceID(devices.DeviceTypeCapture, "6d6963")
	usb := devices.NewDeviceID(devices.DeviceTypeCapture, "757362")
	spk := devices.NewDeviceID(devices.DeviceTypePlayback, "73706b")
	p := &staticPlatform{
		devs: []devices.Device{
			{ID: mic, Name: "Built-in Mic", Channels: 2},
			{ID: usb, Name: "USB Mic", Channels: 1},
			{ID: spk, Name: "Speakers", Channels: 2},
		},
		defIn:  mic,
		defOut: spk,
	}
	mgr := devices.NewManager(p, devices.WithLogger(testutils.TestLoggerSys(t, "DEVS")))
	defer mgr.Close()

	entries := deviceEntries(mgr.Snapshot())
	assert.DeepEqual(t, len(entries), 3)
	assert.BoolIs(t, entries[0].IsDefault, true)
	assert.BoolIs(t, entries[1].IsDefault, false)
	assert.BoolIs(t, entries[2].IsDefault, true)
	assert.DeepEqual(t, entries[1].ID, "757362")
	assert.DeepEqual(t, entries[2].Type, devices.DeviceTypePlayback)

	var buf bytes.Buffer
	assert.NilErr(t, printDevices(&buf, entries))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.DeepEqual(t, len(lines), 4)
	assert.BoolIs(t, strings.Contains(lines[2], "USB Mic"), true)
	assert.BoolIs(t, strings.Contains(lines[1], "*"), true)
	assert.BoolIs(t, strings.Contains(lines[2], "*"), false)
}

// TestRecordOutputPath asserts recordings default to numbered files.
func TestRecordOutputPath(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "soundctl-rec")
	got, err := recordOutputPath("", dir, "", "opus")
	assert.NilErr(t, err)
	assert.DeepEqual(t, got, filepath.Join(dir, "rec-000001.opus"))

	got, err = recordOutputPath("", dir, "team call/2", "wav")
	assert.NilErr(t, err)
	assert.DeepEqual(t, got, filepath.Join(dir, "team_call2-000001.wav"))

	got, err = recordOutputPath("/tmp/x.wav", dir, "ignored", "wav")
	assert.NilErr(t, err)
	assert.DeepEqual(t, got, "/tmp/x.wav")

	assert.DeepEqual(t, sidecarPath("/tmp/x.wav"), "/tmp/x.toml")
	assert.DeepEqual(t, sidecarPath("rec"), "rec.toml")
}
