package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/companyzero/soundcore/devices"
	"github.com/companyzero/soundcore/internal/audio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// appContext is the state shared by the commands.
type appContext struct {
	cfg      *settings
	logBknd  *logBackend
	reg      *prometheus.Registry
	platform *audio.Platform
	mgr      *devices.Manager
}

func realMain() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	// Settings.
	cfg, err := loadSettings(homeDir, os.Args[1:])
	if err != nil {
		return err
	}

	// Log.
	logBknd, err := newLogBackend(cfg.LogFile, cfg.DebugLevel, cfg.MaxLogFiles, os.Stderr)
	if err != nil {
		return err
	}
	defer logBknd.close()
	log := logBknd.logger(subsysCtl)
	log.Debugf("Running %s version %s", appName, appVersion)

	// Main context.
	errMainCtxCanceled := errors.New("main context canceled")
	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, mainCancel := context.WithCancelCause(context.Background())
	go func() {
		<-sigCtx.Done()
		log.Infof("Interrupt detected. Shutting down.")
		mainCancel(errMainCtxCanceled)
	}()

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	// Devices.
	var hotplugOpts []audio.HotplugOption
	hotplugOpts = append(hotplugOpts, audio.WithPollInterval(cfg.PollInterval))
	if cfg.DeviceDir != "" {
		hotplugOpts = append(hotplugOpts, audio.WithDeviceDir(cfg.DeviceDir))
	}
	platform := audio.NewPlatform(logBknd.logger(subsysPlatform), hotplugOpts...)
	mgr := devices.NewManager(platform,
		devices.WithLogger(logBknd.logger(subsysDevices)),
		devices.WithRegisterer(reg))
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warnf("Unable to close device manager: %v", err)
		}
	}()

	app := &appContext{
		cfg:      cfg,
		logBknd:  logBknd,
		reg:      reg,
		platform: platform,
		mgr:      mgr,
	}

	cmd, ok := commands[cfg.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}

	g, gctx := errgroup.WithContext(ctx)
	cmdCtx, cmdDone := context.WithCancel(gctx)
	if cfg.ListenPrometheus != "" {
		g.Go(func() error { return runPrometheusListener(cmdCtx, cfg.ListenPrometheus, reg, log) })
	}
	g.Go(func() error {
		// The listener stops once the command finishes.
		defer cmdDone()
		return cmd(cmdCtx, app, cfg.Args)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && context.Cause(ctx) == errMainCtxCanceled {
		// Ignore graceful shutdown error.
		return nil
	}
	return err
}

func main() {
	err := realMain()
	if errors.Is(err, errCmdDone) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
