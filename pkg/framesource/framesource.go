// Package framesource yields paired colour and depth frames from a recording.
package framesource

import (
	"errors"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/imgx"
)

var ErrExhausted = errors.New("Frame source has no more frames")
var ErrTimeout = errors.New("Timed out waiting for frame")
var ErrMalformedFrame = errors.New("Malformed frame")

// Frame is a colour image and a pixel-aligned depth image of the same resolution
type Frame struct {
	Index     int         // Position in the source, starting at zero on every Open
	Timestamp float64     // Milliseconds
	Color     *cimg.Image // RGB
	Depth     *depth.Image
}

func (f *Frame) Width() int {
	return f.Color.Width
}

func (f *Frame) Height() int {
	return f.Color.Height
}

// Rotate180 rotates both images of the frame
func (f *Frame) Rotate180() {
	f.Color = imgx.Rotate180(f.Color)
	f.Depth.Rotate180()
}

// Source is a restartable supply of frames.
// There is no seek, so every Open starts again at frame zero.
type Source interface {
	Open() (Stream, error)
}

// Stream is one open session on a Source.
type Stream interface {
	// NextFrame returns the next frame, or one of:
	// ErrExhausted when there are no more frames.
	// ErrTimeout if the frame was not available within the timeout.
	// ErrMalformedFrame (wrapped) if the frame could not be read. The frame is consumed, and the
	// next call moves on to the following frame.
	NextFrame(timeout time.Duration) (*Frame, error)

	// Skip consumes the next frame without reading it.
	// Returns ErrExhausted if there are no more frames.
	Skip() error

	Close() error
}

// Check that the colour and depth images are present and of equal size
func validate(f *Frame) error {
	if f.Color == nil || f.Depth == nil {
		return ErrMalformedFrame
	}
	if f.Color.Width != f.Depth.Width || f.Color.Height != f.Depth.Height {
		return ErrMalformedFrame
	}
	return nil
}
