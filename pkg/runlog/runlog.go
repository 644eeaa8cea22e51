// Package runlog writes the per-run text log of every detection.
//
// The format is one block per frame:
//
//	Time: 1700000000123.5
//		Class: person, Box: [10, 10, 50, 50], Distance: 2500
package runlog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
)

// Writer is opened once at the start of a run, and closed at the end
type Writer struct {
	classes *nn.ClassTable
	file    *os.File
	buf     *bufio.Writer
	frames  int
}

// Create truncates or creates the log file
func Create(filename string, classes *nn.ClassTable) (*Writer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed to create run log: %w", err)
	}
	return &Writer{
		classes: classes,
		file:    f,
		buf:     bufio.NewWriter(f),
	}, nil
}

// WriteFrame writes the header line and one line per object.
// Distance is the raw depth sample at the object's center, or 0 if there is no depth image.
// If any object's class is outside the class table, nothing is written for the frame.
func (w *Writer) WriteFrame(timestamp float64, dets []nn.ObjectDetection, depthImg *depth.Image) error {
	lines := make([]string, 0, len(dets))
	for i := range dets {
		d := &dets[i]
		name, err := w.classes.Name(d.Class)
		if err != nil {
			return err
		}
		distance := 0
		if depthImg != nil && depthImg.InBounds(d.Center.X, d.Center.Y) {
			distance = int(depthImg.At(d.Center.X, d.Center.Y))
		}
		lines = append(lines, fmt.Sprintf("\tClass: %v, Box: [%v, %v, %v, %v], Distance: %v\n", name, d.Box.X, d.Box.Y, d.Box.X2(), d.Box.Y2(), distance))
	}
	if _, err := w.buf.WriteString("Time: " + FormatTimestamp(timestamp) + "\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := w.buf.WriteString(line); err != nil {
			return err
		}
	}
	w.frames++
	return nil
}

// Number of frames written
func (w *Writer) Frames() int {
	return w.frames
}

// Flush buffered lines to disk, so that an interrupted run keeps what it has done
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.buf.Flush()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// FormatTimestamp uses the shortest representation that round trips, eg "1000" or "1033.5"
func FormatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}
