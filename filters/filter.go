// Package filters contains the processing stages that can be inserted in an
// audio processing graph.
package filters

import (
	"errors"
	"fmt"

	"github.com/companyzero/soundcore/sound"
)

// ErrFrameTooSmall is returned by ProcessFrame when the input or output frame
// can't hold the requested number of samples.
var ErrFrameTooSmall = errors.New("frame too small for requested samples")

// Category classifies what a filter does.
type Category int

const (
	CategoryOther Category = iota
	CategoryAnalysis
	CategoryDynamics
	CategoryFiltering
	CategoryRouting
	CategoryRecording
)

func (c Category) String() string {
	switch c {
	case CategoryAnalysis:
		return "analysis"
	case CategoryDynamics:
		return "dynamics"
	case CategoryFiltering:
		return "filtering"
	case CategoryRouting:
		return "routing"
	case CategoryRecording:
		return "recording"
	default:
		return "other"
	}
}

// Version is the version of a filter implementation.
type Version struct {
	Major    int
	Minor    int
	Revision int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Filter is a stage of an audio processing graph.
//
// The graph never calls ProcessFrame concurrently for the same filter, but
// other methods of the filter may be called concurrently with it.
type Filter interface {
	Name() string
	Manufacturer() string
	Version() Version
	Category() Category

	// AllowsInPlaceProcessing returns true if the input and output frames
	// passed to ProcessFrame may be the same.
	AllowsInPlaceProcessing() bool

	// ProcessFrame processes numSamples samples of input, writing the
	// result to output. It returns the number of samples produced.
	ProcessFrame(input, output *sound.Frame, numSamples int) (int, error)
}
