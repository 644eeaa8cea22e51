// Package pipeline does all of the work on a single frame:
// inference, detection, depth fusion, overlays, the run log, and the display sink.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/framesource"
	"github.com/cyclopcam/depthlabel/pkg/imgx"
	"github.com/cyclopcam/depthlabel/pkg/maskrcnn"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/cyclopcam/depthlabel/pkg/overlay"
	"github.com/cyclopcam/depthlabel/pkg/perfstats"
	"github.com/cyclopcam/depthlabel/pkg/report"
	"github.com/cyclopcam/depthlabel/pkg/runlog"
	"github.com/cyclopcam/logs"
)

const DefaultJPEGQuality = 85

// FrameResult is everything produced for one frame
type FrameResult struct {
	Detections nn.FrameDetections
	Labels     []overlay.Label
}

// Processor implements session.FrameProcessor
type Processor struct {
	Log       logs.Log
	Engine    nn.InferenceEngine
	Detector  *maskrcnn.Detector
	Estimator depth.Estimator
	Renderer  *overlay.Renderer
	RunLog    *runlog.Writer

	// Optional
	OutputDir   string            // Annotated frames are written here as JPEG
	JPEGQuality int               // Default 85
	Chart       *report.Collector // Collects distances for the chart
	OnFrame     func(f *framesource.Frame, result *FrameResult)

	Stats perfstats.FrameStats
}

// Prepare creates the output directory, if there is one
func (p *Processor) Prepare() error {
	if p.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("Failed to create output directory: %w", err)
	}
	return nil
}

// FrameFilename is the name of the annotated JPEG for the frame at the given source index
func FrameFilename(index int) string {
	return fmt.Sprintf("frame-%06d.jpg", index)
}

// ProcessFrame runs the whole pipeline on f. The colour image of f is drawn on.
func (p *Processor) ProcessFrame(f *framesource.Frame) error {
	start := time.Now()
	boxes, masks, err := p.Engine.Infer(f.Color)
	if err != nil {
		return err
	}
	p.Stats.Inference.Since(start)

	start = time.Now()
	dets, err := p.Detector.Detect(f.Width(), f.Height(), boxes, masks)
	if err != nil {
		return fmt.Errorf("Frame %v: %w", f.Index, err)
	}
	dets = maskrcnn.Fuse(dets, f.Depth, p.Estimator)
	p.Stats.Detect.Since(start)

	start = time.Now()
	p.Renderer.DrawMasks(f.Color, dets)
	labels, err := p.Renderer.DrawInfo(f.Color, f.Depth, dets)
	if err != nil {
		return fmt.Errorf("Frame %v: %w", f.Index, err)
	}
	p.Stats.Draw.Since(start)

	start = time.Now()
	if err := p.RunLog.WriteFrame(f.Timestamp, dets, f.Depth); err != nil {
		return fmt.Errorf("Frame %v: %w", f.Index, err)
	}
	if p.OutputDir != "" {
		quality := p.JPEGQuality
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		if err := imgx.WriteJPEG(f.Color, filepath.Join(p.OutputDir, FrameFilename(f.Index)), quality); err != nil {
			return fmt.Errorf("Failed to write annotated frame %v: %w", f.Index, err)
		}
	}
	p.Stats.Write.Since(start)

	result := &FrameResult{
		Detections: nn.FrameDetections{
			FrameIndex:  f.Index,
			Timestamp:   f.Timestamp,
			ImageWidth:  f.Width(),
			ImageHeight: f.Height(),
			Objects:     dets,
		},
		Labels: labels,
	}
	if p.Chart != nil {
		if err := p.Chart.Add(&result.Detections); err != nil {
			return err
		}
	}
	if p.OnFrame != nil {
		p.OnFrame(f, result)
	}
	return nil
}
