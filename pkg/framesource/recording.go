package framesource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/imgx"
	"github.com/cyclopcam/logs"
)

// ManifestFilename is the index file at the root of a recording directory
const ManifestFilename = "recording.json"

// ManifestFrame points at the two files of a frame. Paths are relative to the recording directory.
type ManifestFrame struct {
	Timestamp float64 `json:"timestamp"` // Milliseconds
	Color     string  `json:"color"`     // JPEG
	Depth     string  `json:"depth"`     // 16-bit greyscale PNG
}

type Manifest struct {
	Frames []ManifestFrame `json:"frames"`
}

// Recording is a directory of frames captured from a depth camera
type Recording struct {
	Log       logs.Log
	Dir       string
	Manifest  Manifest
	Rotate180 bool

	Loads atomic.Int32 // Number of frames read from disk
}

// OpenRecording reads the manifest of a recording directory
func OpenRecording(log logs.Log, dir string, rotate180 bool) (*Recording, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("Failed to read recording manifest: %w", err)
	}
	r := &Recording{
		Log:       log,
		Dir:       dir,
		Rotate180: rotate180,
	}
	if err := json.Unmarshal(b, &r.Manifest); err != nil {
		return nil, fmt.Errorf("Failed to decode recording manifest %v: %w", filepath.Join(dir, ManifestFilename), err)
	}
	log.Infof("Recording %v has %v frames", dir, len(r.Manifest.Frames))
	return r, nil
}

func (r *Recording) Len() int {
	return len(r.Manifest.Frames)
}

func (r *Recording) Open() (Stream, error) {
	return &recordingStream{
		rec: r,
	}, nil
}

// WriteFrame appends a frame to the recording directory, and rewrites the manifest
func (r *Recording) WriteFrame(f *Frame) error {
	idx := len(r.Manifest.Frames)
	mf := ManifestFrame{
		Timestamp: f.Timestamp,
		Color:     fmt.Sprintf("color-%06d.jpg", idx),
		Depth:     fmt.Sprintf("depth-%06d.png", idx),
	}
	if err := imgx.WriteJPEG(f.Color, filepath.Join(r.Dir, mf.Color), 95); err != nil {
		return err
	}
	if err := f.Depth.SavePNG(filepath.Join(r.Dir, mf.Depth)); err != nil {
		return err
	}
	r.Manifest.Frames = append(r.Manifest.Frames, mf)
	b, err := json.MarshalIndent(&r.Manifest, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.Dir, ManifestFilename), b, 0644)
}

// CreateRecording creates an empty recording directory
func CreateRecording(log logs.Log, dir string) (*Recording, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	r := &Recording{
		Log:      log,
		Dir:      dir,
		Manifest: Manifest{Frames: []ManifestFrame{}},
	}
	b, _ := json.Marshal(&r.Manifest)
	return r, os.WriteFile(filepath.Join(dir, ManifestFilename), b, 0644)
}

type loadResult struct {
	frame *Frame
	err   error
}

type recordingStream struct {
	rec    *Recording
	next   int
	closed atomic.Bool
}

func (s *recordingStream) Skip() error {
	if s.closed.Load() || s.next >= len(s.rec.Manifest.Frames) {
		return ErrExhausted
	}
	s.next++
	return nil
}

func (s *recordingStream) NextFrame(timeout time.Duration) (*Frame, error) {
	if s.closed.Load() {
		return nil, ErrExhausted
	}
	if s.next >= len(s.rec.Manifest.Frames) {
		return nil, ErrExhausted
	}
	idx := s.next
	s.next++

	// Buffered, so that a load which outlives the timeout doesn't block forever
	result := make(chan loadResult, 1)
	go func() {
		f, err := s.rec.load(idx)
		result <- loadResult{f, err}
	}()

	select {
	case r := <-result:
		return r.frame, r.err
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

func (s *recordingStream) Close() error {
	s.closed.Store(true)
	return nil
}

func (r *Recording) load(idx int) (*Frame, error) {
	r.Loads.Add(1)
	mf := r.Manifest.Frames[idx]
	color, err := imgx.ReadRGB(filepath.Join(r.Dir, mf.Color))
	if err != nil {
		return nil, fmt.Errorf("%w: frame %v colour: %v", ErrMalformedFrame, idx, err)
	}
	dimg, err := depth.LoadPNG(filepath.Join(r.Dir, mf.Depth))
	if err != nil {
		return nil, fmt.Errorf("%w: frame %v depth: %v", ErrMalformedFrame, idx, err)
	}
	f := &Frame{
		Index:     idx,
		Timestamp: mf.Timestamp,
		Color:     color,
		Depth:     dimg,
	}
	if err := validate(f); err != nil {
		return nil, fmt.Errorf("%w: frame %v colour is %vx%v but depth is %vx%v", err, idx, color.Width, color.Height, dimg.Width, dimg.Height)
	}
	if r.Rotate180 {
		f.Rotate180()
	}
	return f, nil
}
