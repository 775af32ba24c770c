//go:build !audiodebug

package audio

const addDebugTrace = false
