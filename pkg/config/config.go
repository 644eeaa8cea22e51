package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/cyclopcam/depthlabel/pkg/pipeline"
	"github.com/cyclopcam/depthlabel/pkg/session"
)

// Config is the JSON configuration of a run. Every field is optional.
type Config struct {
	Recording          string  `json:"recording"`          // Recording directory, containing recording.json
	ClassFile          string  `json:"classFile"`          // One class name per line. Empty = built-in COCO table.
	Model              string  `json:"model"`              // Path to the .onnx file. The model config is the .json alongside it.
	ONNXLibrary        string  `json:"onnxLibrary"`        // Path to the ONNX Runtime shared library
	Threads            int     `json:"threads"`            // Inference threads. 0 = all CPUs.
	LogFile            string  `json:"logFile"`            // Run log
	OutputDir          string  `json:"outputDir"`          // Annotated frames are written here. Empty = disabled.
	ChartFile          string  `json:"chartFile"`          // Distance chart. Empty = disabled.
	BatchSize          int     `json:"batchSize"`          // Frames per batch
	StartOffset        int     `json:"startOffset"`        // Frames to skip at the start, to resume an earlier run
	DetectionThreshold float32 `json:"detectionThreshold"` // Minimum instance score
	MaskThreshold      float32 `json:"maskThreshold"`      // Soft mask binarization threshold
	FrameTimeoutMS     int     `json:"frameTimeoutMS"`     // Waiting longer than this for a frame ends the stream
	DistanceStrategy   string  `json:"distanceStrategy"`   // point, contour-mean, contour-median
	ColorSeed          int64   `json:"colorSeed"`          // Seed of the class colour table
	NumColors          int     `json:"numColors"`          // Size of the class colour table
	Rotate180          bool    `json:"rotate180"`          // Camera was mounted upside down
	JPEGQuality        int     `json:"jpegQuality"`        // Quality of annotated frames
}

// Default returns a config with every default filled in
func Default() *Config {
	return &Config{
		LogFile:            "object_distances.txt",
		BatchSize:          session.DefaultBatchSize,
		DetectionThreshold: nn.DefaultDetectionThreshold,
		MaskThreshold:      nn.DefaultMaskThreshold,
		FrameTimeoutMS:     int(session.DefaultFrameTimeout.Milliseconds()),
		DistanceStrategy:   depth.StrategyPoint,
		ColorSeed:          nn.DefaultColorSeed,
		NumColors:          nn.DefaultNumColors,
		JPEGQuality:        pipeline.DefaultJPEGQuality,
	}
}

// Load reads a config file. Fields that are missing from the file keep their defaults.
// If filename is empty, the defaults are returned.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Recording == "" {
		return fmt.Errorf("No recording specified")
	}
	if c.Model == "" {
		return fmt.Errorf("No model specified")
	}
	if c.LogFile == "" {
		return fmt.Errorf("No log file specified")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batchSize must be at least 1, but is %v", c.BatchSize)
	}
	if c.StartOffset < 0 {
		return fmt.Errorf("startOffset may not be negative (%v)", c.StartOffset)
	}
	if c.DetectionThreshold < 0 || c.DetectionThreshold > 1 {
		return fmt.Errorf("detectionThreshold must be between 0 and 1, but is %v", c.DetectionThreshold)
	}
	if c.MaskThreshold < 0 || c.MaskThreshold > 1 {
		return fmt.Errorf("maskThreshold must be between 0 and 1, but is %v", c.MaskThreshold)
	}
	if c.FrameTimeoutMS < 1 {
		return fmt.Errorf("frameTimeoutMS must be at least 1, but is %v", c.FrameTimeoutMS)
	}
	if c.NumColors < 1 {
		return fmt.Errorf("numColors must be at least 1, but is %v", c.NumColors)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpegQuality must be between 1 and 100, but is %v", c.JPEGQuality)
	}
	if _, err := depth.NewEstimator(c.DistanceStrategy); err != nil {
		return err
	}
	return nil
}

// DetectionParams returns the thresholds of the detector.
// The mask scale comes from the model, so it is left at 1 here.
func (c *Config) DetectionParams() *nn.DetectionParams {
	return &nn.DetectionParams{
		DetectionThreshold: c.DetectionThreshold,
		MaskThreshold:      c.MaskThreshold,
		MaskScale:          1,
	}
}

// LoadClasses loads the class file, or returns the built-in COCO table if there is no class file.
// A class file that is configured but missing is an error.
func (c *Config) LoadClasses() (*nn.ClassTable, error) {
	if c.ClassFile == "" {
		return nn.NewCOCO90ClassTable(), nil
	}
	classes, err := nn.LoadClassFile(c.ClassFile)
	if err != nil {
		return nil, fmt.Errorf("Failed to load class file: %w", err)
	}
	return classes, nil
}
