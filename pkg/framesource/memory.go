package framesource

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/depthlabel/pkg/depth"
)

// MemorySource serves frames that are already in memory. It is used by tests and tools.
type MemorySource struct {
	Frames []*Frame

	// Frame indices that are reported as ErrMalformedFrame
	Malformed map[int]bool

	// If StallAt >= 0, the frame at this index never arrives, so NextFrame times out
	StallAt int

	Opens  atomic.Int32 // Number of times Open was called
	Closes atomic.Int32 // Number of times a stream was closed
	Reads  atomic.Int32 // Number of frames consumed by NextFrame
}

// NewMemorySource creates n frames of the given size. Frame i has timestamp i * 33.3 ms,
// and a uniform depth of 1000 + i.
func NewMemorySource(n, width, height int) *MemorySource {
	s := &MemorySource{
		Malformed: map[int]bool{},
		StallAt:   -1,
	}
	for i := 0; i < n; i++ {
		s.Frames = append(s.Frames, &Frame{
			Index:     i,
			Timestamp: float64(i) * 33.3,
			Color:     cimg.NewImage(width, height, cimg.PixelFormatRGB),
			Depth:     depth.NewUniformImage(width, height, uint16(1000+i)),
		})
	}
	return s
}

func (s *MemorySource) Open() (Stream, error) {
	s.Opens.Add(1)
	return &memoryStream{src: s}, nil
}

type memoryStream struct {
	src    *MemorySource
	next   int
	closed bool
}

func (m *memoryStream) NextFrame(timeout time.Duration) (*Frame, error) {
	if m.closed || m.next >= len(m.src.Frames) {
		return nil, ErrExhausted
	}
	idx := m.next
	if idx == m.src.StallAt {
		time.Sleep(timeout)
		return nil, ErrTimeout
	}
	m.next++
	m.src.Reads.Add(1)
	if m.src.Malformed[idx] {
		return nil, fmt.Errorf("%w: frame %v", ErrMalformedFrame, idx)
	}
	src := m.src.Frames[idx]
	f := &Frame{
		Index:     idx,
		Timestamp: src.Timestamp,
	}
	// Each frame handed out owns its images
	if src.Color != nil {
		f.Color = src.Color.Clone()
	}
	if src.Depth != nil {
		f.Depth = src.Depth.Clone()
	}
	if err := validate(f); err != nil {
		return nil, fmt.Errorf("%w: frame %v", err, idx)
	}
	return f, nil
}

func (m *memoryStream) Skip() error {
	if m.closed || m.next >= len(m.src.Frames) {
		return ErrExhausted
	}
	m.next++
	return nil
}

func (m *memoryStream) Close() error {
	if !m.closed {
		m.closed = true
		m.src.Closes.Add(1)
	}
	return nil
}
