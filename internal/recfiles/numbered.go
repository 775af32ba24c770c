package recfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// NumberedFile is a file matched by a NumberedPattern.
type NumberedFile struct {
	Filename string
	ID       uint64
}

// NumberedPattern matches files named prefix + number + suffix.
type NumberedPattern struct {
	re      *regexp.Regexp
	nameFmt string
}

// MakeNumberedPattern creates a pattern for decimal numbered files. It panics
// if prefix and suffix can't be made into a valid regexp.
func MakeNumberedPattern(prefix, suffix string) NumberedPattern {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `([0-9]+)` +
		regexp.QuoteMeta(suffix) + "$")
	nameFmt := strings.ReplaceAll(prefix, "%", "%%") + "%06d" +
		strings.ReplaceAll(suffix, "%", "%%")
	return NumberedPattern{re: re, nameFmt: nameFmt}
}

// Match returns the regular files of dir that match the pattern, sorted by
// number. A dir that does not exist has no files.
func (p NumberedPattern) Match(dir string) ([]NumberedFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res []NumberedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := p.re.FindStringSubmatch(e.Name())
		if len(match) < 2 {
			continue
		}
		id, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}
		res = append(res, NumberedFile{Filename: e.Name(), ID: id})
	}
	slices.SortFunc(res, func(a, b NumberedFile) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return res, nil
}

// FilenameFor returns the filename for a given number.
func (p NumberedPattern) FilenameFor(id uint64) string {
	return fmt.Sprintf(p.nameFmt, id)
}

// Next returns the path of the file after the highest numbered file in dir.
func (p NumberedPattern) Next(dir string) (string, error) {
	files, err := p.Match(dir)
	if err != nil {
		return "", err
	}
	var next uint64 = 1
	if len(files) > 0 {
		next = files[len(files)-1].ID + 1
	}
	return filepath.Join(dir, p.FilenameFor(next)), nil
}
