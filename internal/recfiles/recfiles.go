// Package recfiles manages the files produced by recording sessions.
package recfiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/decred/slog"
)

// ErrNotFound is returned when reading a file that does not exist.
var ErrNotFound = errors.New("recording file not found")

// WriteTOML atomically replaces fname with the toml encoding of data. The
// data is written to a temp file which is then renamed.
//
// log is used to log warnings that are not fatal to the write.
func WriteTOML(fname string, data interface{}, log slog.Logger) error {
	dir := filepath.Dir(fname)
	tempFname := filepath.Join(dir, "."+filepath.Base(fname)+".new")

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("unable to create dest dir: %w", err)
	}

	f, err := os.Create(tempFname)
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}

	// No early returns from here on, so that the temp file is removed on
	// errors.
	err = toml.NewEncoder(f).Encode(data)
	if err != nil {
		err = fmt.Errorf("unable to encode toml contents: %w", err)
	}
	if err == nil {
		if err = f.Sync(); err != nil {
			err = fmt.Errorf("unable to fsync temp file: %w", err)
		}
	}
	if err == nil {
		err = f.Close()
		f = nil
		if err != nil {
			err = fmt.Errorf("unable to close temp file: %w", err)
		}
	}
	if err == nil {
		if err = os.Rename(tempFname, fname); err != nil {
			err = fmt.Errorf("unable to rename temp file: %w", err)
		}
	}
	if err != nil {
		if f != nil {
			if closeErr := f.Close(); closeErr != nil {
				log.Warnf("Unable to close temp file: %v", closeErr)
			}
		}
		if remErr := os.Remove(tempFname); remErr != nil {
			log.Warnf("Unable to remove temp file %s: %v", tempFname, remErr)
		}
	}
	return err
}

// ReadTOML decodes the toml file fname into data.
func ReadTOML(fname string, data interface{}) error {
	_, err := toml.DecodeFile(fname, data)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
