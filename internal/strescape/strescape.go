package strescape

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DeviceName returns the name reported by an audio backend escaped from chars
// that don't belong in a single line device name. Runs of whitespace are
// collapsed into one space.
func DeviceName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !strconv.IsPrint(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

var pathElementNonChars = map[rune]struct{}{
	':':  {},
	'\\': {},
	'/':  {},
	'*':  {},
	'?':  {},
	'<':  {},
	'>':  {},
	'|':  {},
	';':  {},
	'"':  {},
}

// FileStem returns s escaped from chars that modify a path element, for use
// as the base name of a recording.
func FileStem(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		if !strconv.IsPrint(r) || r == utf8.RuneError {
			return -1
		}
		if _, ok := pathElementNonChars[r]; ok {
			return -1
		}
		return r
	}, s)
	return strings.Trim(s, "._")
}
