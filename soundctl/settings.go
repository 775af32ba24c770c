package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrick/flagfile"
	strduration "github.com/xhit/go-str2duration/v2"
)

const (
	appName     = "soundctl"
	appVersion  = "1.0.0"
	maxLogFiles = 10
)

// errCmdDone is returned when the command line only asked for information
// that was already printed.
var errCmdDone = errors.New("command done")

type settings struct {
	Command string
	Args    []string

	// log section
	LogFile     string
	DebugLevel  string
	MaxLogFiles int

	// devices section
	PollInterval time.Duration
	DeviceDir    string

	// record section
	Format      string
	Channels    int
	PeriodMS    int
	RecordDir   string
	QueueLen    int
	MaxDuration time.Duration

	// metrics section
	ListenPrometheus string
}

func defaultAppDir(homeDir string) string {
	return filepath.Join(homeDir, "."+appName)
}

// expandPath expands a leading ~ into the home dir.
func expandPath(homeDir, path string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := strduration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value for flag '%s': %v", name, err)
	}
	return d, nil
}

// loadSettings parses the command line and the config file it points to.
func loadSettings(homeDir string, args []string) (*settings, error) {
	appDir := defaultAppDir(homeDir)
	defaultCfgFile := filepath.Join(appDir, appName+".conf")

	// Parse CLI arguments.
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [flags] <devices|watch|record> [command flags]\n", appName)
		fs.PrintDefaults()
	}
	flagVersion := fs.Bool("version", false, "Display current version and exit")
	flagCfgFile := fs.String("cfg", defaultCfgFile, "Config file to load")
	flagDebugLevel := fs.String("debuglevel", "", "Override the config debug level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errCmdDone
		}
		return nil, err
	}
	if *flagVersion {
		fmt.Printf("%s version %s\n", appName, appVersion)
		return nil, errCmdDone
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.New("no command specified")
	}

	// Define config file flags.
	cfs := flag.NewFlagSet("Config Options", flag.ContinueOnError)
	flagLogFile := cfs.String("log.logfile", filepath.Join(appDir, "logs", appName+".log"), "Log file location")
	flagLogLevel := cfs.String("log.debuglevel", "info", "Debug level")
	flagMaxLogFiles := cfs.Int("log.maxlogfiles", maxLogFiles, "Max log files")
	flagPollInterval := cfs.String("devices.pollinterval", "2s", "Interval between device probes")
	flagDeviceDir := cfs.String("devices.devicedir", "", "Directory of device nodes to watch")
	flagFormat := cfs.String("record.format", "wav", "Recording format (wav or opus)")
	flagChannels := cfs.Int("record.channels", 1, "Number of channels to record")
	flagPeriodMS := cfs.Int("record.periodms", 20, "Capture period in milliseconds")
	flagRecordDir := cfs.String("record.dir", filepath.Join(appDir, "recordings"), "Directory of numbered recordings")
	flagQueueLen := cfs.Int("record.queuelen", 64, "Blocks queued for encoding")
	flagMaxDuration := cfs.String("record.maxduration", "", "Maximum duration of a recording")
	flagListenProm := cfs.String("metrics.listen", "", "Address of the prometheus listener")

	// Load config from file. A missing default config file is not an
	// error.
	cfgFile := expandPath(homeDir, *flagCfgFile)
	f, err := os.Open(cfgFile)
	switch {
	case os.IsNotExist(err) && *flagCfgFile == defaultCfgFile:
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		parser := flagfile.Parser{ParseSections: true}
		if err := parser.Parse(f, cfs); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", cfgFile, err)
		}
	}

	pollInterval, err := parseDuration("devices.pollinterval", *flagPollInterval)
	if err != nil {
		return nil, err
	}
	maxDuration, err := parseDuration("record.maxduration", *flagMaxDuration)
	if err != nil {
		return nil, err
	}

	s := &settings{
		Command:          fs.Arg(0),
		Args:             fs.Args()[1:],
		LogFile:          expandPath(homeDir, *flagLogFile),
		DebugLevel:       *flagLogLevel,
		MaxLogFiles:      *flagMaxLogFiles,
		PollInterval:     pollInterval,
		DeviceDir:        expandPath(homeDir, *flagDeviceDir),
		Format:           strings.ToLower(*flagFormat),
		Channels:         *flagChannels,
		PeriodMS:         *flagPeriodMS,
		RecordDir:        expandPath(homeDir, *flagRecordDir),
		QueueLen:         *flagQueueLen,
		MaxDuration:      maxDuration,
		ListenPrometheus: *flagListenProm,
	}
	if *flagDebugLevel != "" {
		s.DebugLevel = *flagDebugLevel
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settings) validate() error {
	switch s.Format {
	case "wav", "opus":
	default:
		return fmt.Errorf("unknown recording format %q", s.Format)
	}
	if s.Channels < 1 || s.Channels > 2 {
		return fmt.Errorf("invalid number of channels %d", s.Channels)
	}
	if s.PeriodMS < 1 {
		return fmt.Errorf("invalid capture period %dms", s.PeriodMS)
	}
	if s.QueueLen < 1 {
		return fmt.Errorf("invalid queue length %d", s.QueueLen)
	}
	return nil
}
