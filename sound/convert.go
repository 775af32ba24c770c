package sound

import "math"

const s16Scale = float32(math.MaxInt16)

// FromS16LE deinterleaves little-endian signed 16 bit samples from src into
// dst. It returns the number of samples per channel decoded, bounded by the
// size of dst.
func FromS16LE(src []byte, dst *Frame) int {
	chans := dst.NumChannels()
	if chans == 0 {
		return 0
	}
	n := min(len(src)/(2*chans), dst.Size())
	for i := 0; i < n; i++ {
		for c := 0; c < chans; c++ {
			off := (i*chans + c) * 2
			v := int16(src[off]) | int16(src[off+1])<<8
			dst.Channels[c][i] = float32(v) / s16Scale
		}
	}
	return n
}

// ToInt16 converts a float sample in [-1, 1] to the nearest signed 16 bit
// sample, clipping values out of range.
func ToInt16(v float32) int16 {
	switch {
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return -math.MaxInt16
	}
	s := v * s16Scale
	if s < 0 {
		return int16(s - 0.5)
	}
	return int16(s + 0.5)
}

// Interleave writes the first n samples of every channel of src into dst as
// interleaved signed 16 bit samples. dst is grown as needed and returned.
func Interleave(src *Frame, n int, dst []int16) []int16 {
	chans := src.NumChannels()
	n = min(n, src.Size())
	dst = dst[:0]
	for i := 0; i < n; i++ {
		for c := 0; c < chans; c++ {
			dst = append(dst, ToInt16(src.Channels[c][i]))
		}
	}
	return dst
}
