package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/companyzero/soundcore/devices"
)

// command runs one soundctl subcommand.
type command func(ctx context.Context, app *appContext, args []string) error

var commands = map[string]command{
	"devices": devicesCmd,
	"watch":   watchCmd,
	"record":  recordCmd,
}

// deviceEntry is the printed information of a device.
type deviceEntry struct {
	Index     int                `json:"index"`
	ID        string             `json:"id"`
	Type      devices.DeviceType `json:"type"`
	Name      string             `json:"name"`
	Channels  int                `json:"channels"`
	IsDefault bool               `json:"is_default"`
}

func deviceEntries(snap *devices.Snapshot) []deviceEntry {
	defIn, defOut := snap.DefaultInputDeviceID(), snap.DefaultOutputDeviceID()
	res := make([]deviceEntry, 0, snap.DeviceCount())
	for i, d := range snap.Devices() {
		res = append(res, deviceEntry{
			Index:     i,
			ID:        d.ID.Handle(),
			Type:      d.ID.Type(),
			Name:      d.Name,
			Channels:  d.Channels,
			IsDefault: d.ID == defIn || d.ID == defOut,
		})
	}
	return res
}

func printDevices(w io.Writer, entries []deviceEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tDEFAULT\tCHANS\tNAME\tID")
	for _, e := range entries {
		def := ""
		if e.IsDefault {
			def = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", e.Index, e.Type, def,
			e.Channels, e.Name, e.ID)
	}
	return tw.Flush()
}

// devicesCmd lists the connected devices.
func devicesCmd(_ context.Context, app *appContext, args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	flagJSON := fs.Bool("json", false, "Output the device list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries := deviceEntries(app.mgr.Snapshot())
	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No audio devices found")
		return nil
	}
	return printDevices(os.Stdout, entries)
}

// watchCmd logs device changes until the context is done.
func watchCmd(ctx context.Context, app *appContext, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := app.logBknd.logger(subsysCtl)
	name := func(m *devices.Manager, id devices.DeviceID) string {
		if d, ok := m.Device(id); ok {
			return fmt.Sprintf("%q (%s)", d.Name, id)
		}
		return id.String()
	}
	app.mgr.SetDelegate(devices.Delegate{
		DeviceAdded: func(m *devices.Manager, id devices.DeviceID) {
			log.Infof("Device added: %s", name(m, id))
		},
		DeviceRemoved: func(m *devices.Manager, id devices.DeviceID) {
			log.Infof("Device removed: %s", id)
		},
		DefaultInputChanged: func(m *devices.Manager, id devices.DeviceID) {
			log.Infof("Default input device: %s", name(m, id))
		},
		DefaultOutputChanged: func(m *devices.Manager, id devices.DeviceID) {
			log.Infof("Default output device: %s", name(m, id))
		},
	})
	defer app.mgr.SetDelegate(devices.Delegate{})

	// Cache the devices so that changes are reported from now on.
	log.Infof("Watching %d audio devices. Press Ctrl+C to stop.",
		app.mgr.DeviceCount())
	<-ctx.Done()
	return ctx.Err()
}
