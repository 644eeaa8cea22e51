package nn

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmharper/cimg/v2"
)

// Package nn is the neural network interface layer for instance segmentation.
// Concrete inference engines live in their own packages (eg onnxengine).

const DefaultDetectionThreshold = 0.7
const DefaultMaskThreshold = 0.3

var ErrClassOutOfRange = errors.New("Class ID is out of range of the class table")

// Instance segmentation parameters
type DetectionParams struct {
	DetectionThreshold float32 // Value between 0 and 1. Instances with a lower score are discarded.
	MaskThreshold      float32 // Soft mask values at or above this become part of the object.
	MaskScale          float32 // Full scale of the soft mask values. 1 for [0,1] masks, 255 for [0,255] masks.
}

// Create a default DetectionParams object
func NewDetectionParams() *DetectionParams {
	return &DetectionParams{
		DetectionThreshold: DefaultDetectionThreshold,
		MaskThreshold:      DefaultMaskThreshold,
		MaskScale:          1,
	}
}

// ScaleOfMask returns MaskScale, treating zero (or a nonsense value) as 1
func (p *DetectionParams) ScaleOfMask() float32 {
	if !(p.MaskScale > 0) {
		return 1
	}
	return p.MaskScale
}

// InferenceEngine runs the network on a colour image, and returns the two raw output tensors.
//
// boxes has shape [1, 1, N, 7], and each row is [batch, class, score, x1, y1, x2, y2], with
// normalized coordinates.
// masks has shape [N, numClasses, maskHeight, maskWidth], holding a soft mask per class.
type InferenceEngine interface {
	// Close releases the engine (you MUST call this when finished, because it's a C object underneath)
	Close()

	// Infer runs the network on an RGB image
	Infer(img *cimg.Image) (boxes, masks *Tensor, err error)

	// Model Config.
	// Callers assume that ModelConfig will remain constant, so don't change it
	// once the engine has been created.
	Config() *ModelConfig
}

// ModelConfig is saved in a JSON file along with the weights of the NN model
type ModelConfig struct {
	Architecture  string   `json:"architecture"`  // eg "mask_rcnn_inception_v2"
	Width         int      `json:"width"`         // Network input width, eg 800
	Height        int      `json:"height"`        // Network input height, eg 800
	MaxDetections int      `json:"maxDetections"` // N in the boxes tensor, eg 100
	NumClasses    int      `json:"numClasses"`    // Class planes in the mask tensor, eg 90
	MaskWidth     int      `json:"maskWidth"`     // eg 15
	MaskHeight    int      `json:"maskHeight"`    // eg 15
	InputName     string   `json:"inputName"`     // eg "image_tensor"
	BoxesName     string   `json:"boxesName"`     // eg "detection_out_final"
	MasksName     string   `json:"masksName"`     // eg "detection_masks"
	MaskScale     float32  `json:"maskScale"`     // 1 if soft masks are [0,1], 255 if they are [0,255]
	Classes       []string `json:"classes"`       // Optional. Usually loaded from a class file instead.
}

// Load model config from a JSON file
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &ModelConfig{}
	err = json.Unmarshal(b, config)
	if err != nil {
		return nil, err
	}
	if config.InputName == "" {
		config.InputName = "image_tensor"
	}
	if config.BoxesName == "" {
		config.BoxesName = "detection_out_final"
	}
	if config.MasksName == "" {
		config.MasksName = "detection_masks"
	}
	if config.MaskScale == 0 {
		config.MaskScale = 1
	}
	if config.Width <= 0 || config.Height <= 0 || config.MaxDetections <= 0 || config.NumClasses <= 0 || config.MaskWidth <= 0 || config.MaskHeight <= 0 {
		return nil, fmt.Errorf("Model config %v is missing dimensions", filename)
	}
	if config.MaskScale < 0 {
		return nil, fmt.Errorf("Model config %v has negative maskScale %v", filename, config.MaskScale)
	}
	return config, nil
}

// ClassTable maps class IDs to names. The class ID is the index into the table.
type ClassTable struct {
	Names []string
}

// Name returns the class name, or ErrClassOutOfRange.
// A class ID that is not in the table means the model and class file don't match,
// so we never substitute a placeholder.
func (c *ClassTable) Name(classID int) (string, error) {
	if classID < 0 || classID >= len(c.Names) {
		return "", fmt.Errorf("%w: %v (table has %v classes)", ErrClassOutOfRange, classID, len(c.Names))
	}
	return c.Names[classID], nil
}

func (c *ClassTable) Len() int {
	return len(c.Names)
}

// Load a text file with class names on each line.
// The line number (starting at zero) is the class ID, so blank lines in the middle
// of the file still occupy a slot. Trailing blank lines are dropped.
func LoadClassFile(filename string) (*ClassTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	classes := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		classes = append(classes, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for len(classes) > 0 && classes[len(classes)-1] == "" {
		classes = classes[:len(classes)-1]
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("Class file %v is empty", filename)
	}
	return &ClassTable{Names: classes}, nil
}
