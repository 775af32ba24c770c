package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/filters"
	"github.com/companyzero/soundcore/internal/audio"
	"github.com/companyzero/soundcore/internal/logutil"
	"github.com/companyzero/soundcore/internal/recfiles"
	"github.com/companyzero/soundcore/internal/strescape"
	"github.com/companyzero/soundcore/lockfile"
	"github.com/companyzero/soundcore/sound"
	"github.com/companyzero/soundcore/streams"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// fileOutput is a stream written to a file.
type fileOutput interface {
	sound.OutputStream
	Close() error
	Encoded() int64
	Dropped() uint64
}

// sessionSummary is written next to each recording.
type sessionSummary struct {
	ID             string    `toml:"id"`
	Output         string    `toml:"output"`
	Format         string    `toml:"format"`
	Device         string    `toml:"device"`
	DeviceName     string    `toml:"device_name"`
	Channels       int       `toml:"channels"`
	SampleRate     int       `toml:"sample_rate"`
	Started        time.Time `toml:"started"`
	Duration       string    `toml:"duration"`
	Samples        int64     `toml:"samples"`
	Encoded        int64     `toml:"encoded"`
	Underruns      int64     `toml:"underruns"`
	DroppedSamples int64     `toml:"dropped_samples"`
	ProcessErrors  int64     `toml:"process_errors"`
}

// sidecarPath returns the summary path of a recording.
func sidecarPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".toml"
}

func openOutput(format, path string, channels int, opts ...streams.FileOption) (fileOutput, error) {
	switch format {
	case "wav":
		return streams.NewWAVStream(path, audio.SampleRate, channels, opts...)
	case "opus":
		return streams.NewOpusStream(path, channels, opts...)
	default:
		return nil, fmt.Errorf("unknown recording format %q", format)
	}
}

// recordOutputPath returns the output file of a recording. When no output
// is set, the next numbered file of dir is used, prefixed by the label.
func recordOutputPath(output, dir, label, format string) (string, error) {
	if output != "" {
		return output, nil
	}
	prefix := "rec-"
	if stem := strescape.FileStem(label); stem != "" {
		prefix = stem + "-"
	}
	return recfiles.MakeNumberedPattern(prefix, "."+format).Next(dir)
}

// recordCmd records a capture device into a file until the context is done
// or the duration elapses.
func recordCmd(ctx context.Context, app *appContext, args []string) error {
	cfg := app.cfg
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	flagOutput := fs.String("o", "", "Output file (defaults to the next numbered file of the recording dir)")
	flagFormat := fs.String("format", cfg.Format, "Recording format (wav or opus)")
	flagDevice := fs.String("device", "", "Handle of the capture device (defaults to the default input)")
	flagDuration := fs.String("duration", "", "Duration of the recording (e.g. 30s, 1h)")
	flagChannels := fs.Int("channels", cfg.Channels, "Number of channels")
	flagLabel := fs.String("label", "", "Prefix of the numbered output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	duration, err := parseDuration("duration", *flagDuration)
	if err != nil {
		return err
	}
	if cfg.MaxDuration > 0 && (duration == 0 || duration > cfg.MaxDuration) {
		duration = cfg.MaxDuration
	}
	format := strings.ToLower(*flagFormat)
	sessionID := uuid.New()

	// Numbered outputs are allocated under the record dir lock until the
	// output file exists.
	unlock := func() {}
	if *flagOutput == "" {
		lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lf, err := lockfile.Acquire(lockCtx, filepath.Join(cfg.RecordDir, ".lock"),
			"soundctl record "+sessionID.String())
		cancel()
		if err != nil {
			return fmt.Errorf("unable to lock recording dir: %w", err)
		}
		unlock = func() { lf.Release() }
	}
	output, err := recordOutputPath(*flagOutput, cfg.RecordDir, *flagLabel, format)
	if err != nil {
		unlock()
		return err
	}

	log := logutil.PrefixLogger(app.logBknd.logger(subsysCtl),
		"["+sessionID.String()[:8]+"]")

	// Capture device.
	devID := app.mgr.DefaultInputDeviceID()
	if *flagDevice != "" {
		devID = devices.NewDeviceID(devices.DeviceTypeCapture, *flagDevice)
		if _, ok := app.mgr.Device(devID); !ok {
			unlock()
			return fmt.Errorf("capture device %q not found", *flagDevice)
		}
	}
	devName := "default"
	if d, ok := app.mgr.Device(devID); ok {
		devName = d.Name
	}

	// Destination and recorder.
	out, err := openOutput(format, output, *flagChannels,
		streams.WithLogger(app.logBknd.logger(subsysStreams)),
		streams.WithQueueLen(cfg.QueueLen),
		streams.WithBlockSize(audio.SampleRate*cfg.PeriodMS/1000))
	unlock()
	if err != nil {
		return err
	}
	rec := filters.NewStreamRecorder(out,
		filters.WithRecorderLogger(logutil.PrefixLogger(
			app.logBknd.logger(subsysRecorder), "["+sessionID.String()[:8]+"]")))
	if err := app.reg.Register(filters.NewRecorderCollector("soundctl", rec)); err != nil {
		log.Warnf("Unable to register recorder metrics: %v", err)
	}

	// Warn when the recorded device goes away.
	app.mgr.SetDelegate(devices.Delegate{
		DeviceRemoved: func(_ *devices.Manager, id devices.DeviceID) {
			if id == devID {
				log.Warnf("Capture device %s was removed", id)
			}
		},
		DefaultInputChanged: func(_ *devices.Manager, id devices.DeviceID) {
			log.Infof("Default input changed to %s", id)
		},
	})
	defer app.mgr.SetDelegate(devices.Delegate{})

	var processErrors atomic.Int64
	capture, err := app.platform.OpenCapture(audio.CaptureConfig{
		Device:       devID,
		Channels:     *flagChannels,
		PeriodSizeMS: cfg.PeriodMS,
	}, func(f *sound.Frame, n int) {
		if _, err := rec.ProcessFrame(f, f, n); err != nil {
			processErrors.Add(1)
		}
	})
	if err != nil {
		return errors.Join(err, out.Close())
	}
	defer capture.Close()

	started := time.Now()
	rec.Record()
	if err := capture.Start(); err != nil {
		return errors.Join(fmt.Errorf("unable to start capture: %w", err), out.Close())
	}
	log.Infof("Recording %s from %q into %s", format, devName, output)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
	case <-timeout:
	}

	rec.Stop()
	if err := capture.Stop(); err != nil {
		log.Warnf("Unable to stop capture: %v", err)
	}
	elapsed := time.Since(started)
	closeErr := out.Close()

	stats := rec.Stats()
	summary := sessionSummary{
		ID:             sessionID.String(),
		Output:         output,
		Format:         format,
		Device:         devID.Handle(),
		DeviceName:     devName,
		Channels:       *flagChannels,
		SampleRate:     audio.SampleRate,
		Started:        started.UTC(),
		Duration:       elapsed.Round(time.Millisecond).String(),
		Samples:        rec.Length(),
		Encoded:        out.Encoded(),
		Underruns:      int64(stats.Underruns),
		DroppedSamples: int64(stats.DroppedSamples),
		ProcessErrors:  processErrors.Load(),
	}
	logSummary(log, &summary)
	if err := recfiles.WriteTOML(sidecarPath(output), &summary, log); err != nil {
		log.Warnf("Unable to write session summary: %v", err)
	}
	return closeErr
}

func logSummary(log slog.Logger, s *sessionSummary) {
	log.Infof("Recorded %d samples in %s (%d underruns, %d dropped samples)",
		s.Samples, s.Duration, s.Underruns, s.DroppedSamples)
	if s.ProcessErrors > 0 {
		log.Warnf("%d captured blocks could not be processed", s.ProcessErrors)
	}
}
