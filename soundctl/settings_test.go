package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/companyzero/soundcore/internal/assert"
	"github.com/companyzero/soundcore/internal/testutils"
)

// TestLoadSettingsDefaults asserts the defaults apply when the default
// config file does not exist.
func TestLoadSettingsDefaults(t *testing.T) {
	t.Parallel()

	home := testutils.TempTestDir(t, "soundctl-home")
	s, err := loadSettings(home, []string{"record", "-o", "out.wav"})
	assert.NilErr(t, err)
	assert.DeepEqual(t, s.Command, "record")
	assert.DeepEqual(t, s.Args, []string{"-o", "out.wav"})
	assert.DeepEqual(t, s.Format, "wav")
	assert.DeepEqual(t, s.Channels, 1)
	assert.DeepEqual(t, s.PollInterval, 2*time.Second)
	assert.DeepEqual(t, s.MaxDuration, time.Duration(0))
	assert.DeepEqual(t, s.RecordDir, filepath.Join(home, ".soundctl", "recordings"))
	assert.DeepEqual(t, s.LogFile, filepath.Join(home, ".soundctl", "logs", "soundctl.log"))
}

// TestLoadSettingsFile asserts config file sections override the defaults.
func TestLoadSettingsFile(t *testing.T) {
	t.Parallel()

	home := testutils.TempTestDir(t, "soundctl-home")
	cfgFile := filepath.Join(home, "custom.conf")
	cfg := `
[log]
debuglevel = info,DEVS=debug
logfile = ~/logs/sc.log

[devices]
pollinterval = 1m30s
devicedir = /tmp/snd

[record]
format = opus
channels = 2
maxduration = 1h

[metrics]
listen = 127.0.0.1:9100
`
	assert.NilErr(t, os.WriteFile(cfgFile, []byte(cfg), 0o600))

	s, err := loadSettings(home, []string{"-cfg", cfgFile, "devices"})
	assert.NilErr(t, err)
	assert.DeepEqual(t, s.Command, "devices")
	assert.DeepEqual(t, s.DebugLevel, "info,DEVS=debug")
	assert.DeepEqual(t, s.LogFile, filepath.Join(home, "logs", "sc.log"))
	assert.DeepEqual(t, s.PollInterval, 90*time.Second)
	assert.DeepEqual(t, s.DeviceDir, "/tmp/snd")
	assert.DeepEqual(t, s.Format, "opus")
	assert.DeepEqual(t, s.Channels, 2)
	assert.DeepEqual(t, s.MaxDuration, time.Hour)
	assert.DeepEqual(t, s.ListenPrometheus, "127.0.0.1:9100")

	s, err = loadSettings(home, []string{"-cfg", cfgFile, "-debuglevel", "trace", "watch"})
	assert.NilErr(t, err)
	assert.DeepEqual(t, s.DebugLevel, "trace")
}

// TestLoadSettingsErrors asserts invalid command lines and configs are
// rejected.
func TestLoadSettingsErrors(t *testing.T) {
	t.Parallel()

	home := testutils.TempTestDir(t, "soundctl-home")
	_, err := loadSettings(home, nil)
	assert.NonNilErr(t, err)

	_, err = loadSettings(home, []string{"-cfg", filepath.Join(home, "missing.conf"), "devices"})
	assert.NonNilErr(t, err)

	_, err = loadSettings(home, []string{"-version"})
	assert.ErrorIs(t, err, errCmdDone)

	bad := filepath.Join(home, "bad.conf")
	assert.NilErr(t, os.WriteFile(bad, []byte("[record]\nformat = mp3\n"), 0o600))
	_, err = loadSettings(home, []string{"-cfg", bad, "record"})
	assert.NonNilErr(t, err)

	assert.NilErr(t, os.WriteFile(bad, []byte("[devices]\npollinterval = soon\n"), 0o600))
	_, err = loadSettings(home, []string{"-cfg", bad, "record"})
	assert.NonNilErr(t, err)
}

// TestLogBackendLevels asserts per subsystem levels are applied.
func TestLogBackendLevels(t *testing.T) {
	t.Parallel()

	b, err := newLogBackend("", "warn,DEVS=debug,recd=trace", maxLogFiles, nil)
	assert.NilErr(t, err)
	assert.DeepEqual(t, b.logger(subsysDevices).Level().String(), "DBG")
	assert.DeepEqual(t, b.logger(subsysRecorder).Level().String(), "TRC")
	assert.DeepEqual(t, b.logger(subsysCtl).Level().String(), "WRN")
	assert.BoolIs(t, b.logger(subsysCtl) == b.logger(subsysCtl), true)

	_, err = newLogBackend("", "verbose", maxLogFiles, nil)
	assert.NonNilErr(t, err)
	_, err = newLogBackend("", "DEVS=debug=x", maxLogFiles, nil)
	assert.NonNilErr(t, err)
}
