//go:build !linux

package audio

const defaultDeviceDir = ""
