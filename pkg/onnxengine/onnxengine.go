// Package onnxengine runs Mask R-CNN models with ONNX Runtime
package onnxengine

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/depthlabel/pkg/imgx"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

var envLock sync.Mutex
var envRefs int

// InitializeRuntime loads the ONNX Runtime shared library.
// Calls must be balanced with ShutdownRuntime.
func InitializeRuntime(libraryPath string) error {
	envLock.Lock()
	defer envLock.Unlock()
	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("Failed to initialize ONNX Runtime: %w", err)
		}
	}
	envRefs++
	return nil
}

func ShutdownRuntime() {
	envLock.Lock()
	defer envLock.Unlock()
	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		ort.DestroyEnvironment()
	}
}

// Engine implements nn.InferenceEngine. It is not safe for concurrent use,
// because the input and output tensors are bound to the session.
type Engine struct {
	config  nn.ModelConfig
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	boxes   *ort.Tensor[float32]
	masks   *ort.Tensor[float32]
}

// NewEngine creates a session for the model. InitializeRuntime must have been called.
// If numThreads is 0, we use all CPUs.
func NewEngine(config *nn.ModelConfig, modelFile string, numThreads int) (*Engine, error) {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("Error creating session options: %w", err)
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(numThreads)

	e := &Engine{
		config: *config,
	}
	c := config
	e.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(c.Height), int64(c.Width)))
	if err != nil {
		return nil, fmt.Errorf("Error creating input tensor: %w", err)
	}
	e.boxes, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, int64(c.MaxDetections), 7))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("Error creating boxes tensor: %w", err)
	}
	e.masks, err = ort.NewEmptyTensor[float32](ort.NewShape(int64(c.MaxDetections), int64(c.NumClasses), int64(c.MaskHeight), int64(c.MaskWidth)))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("Error creating masks tensor: %w", err)
	}
	e.session, err = ort.NewAdvancedSession(
		modelFile,
		[]string{c.InputName},
		[]string{c.BoxesName, c.MasksName},
		[]ort.ArbitraryTensor{e.input},
		[]ort.ArbitraryTensor{e.boxes, e.masks},
		options,
	)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("Error creating session for %v: %w", modelFile, err)
	}
	return e, nil
}

func (e *Engine) Close() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	for _, t := range []*ort.Tensor[float32]{e.input, e.boxes, e.masks} {
		if t != nil {
			t.Destroy()
		}
	}
	e.input, e.boxes, e.masks = nil, nil, nil
}

func (e *Engine) Config() *nn.ModelConfig {
	return &e.config
}

// Infer resizes img to the network resolution, and runs the model.
// The returned tensors are copies, so they remain valid after the next call.
func (e *Engine) Infer(img *cimg.Image) (boxes, masks *nn.Tensor, err error) {
	FillInput(img, e.config.Width, e.config.Height, e.input.GetData())
	if err := e.session.Run(); err != nil {
		return nil, nil, fmt.Errorf("Inference failed: %w", err)
	}
	c := &e.config
	boxes = nn.NewTensor(1, 1, c.MaxDetections, 7)
	copy(boxes.Data, e.boxes.GetData())
	masks = nn.NewTensor(c.MaxDetections, c.NumClasses, c.MaskHeight, c.MaskWidth)
	copy(masks.Data, e.masks.GetData())
	return boxes, masks, nil
}

// FillInput resizes img to width x height, and writes it into dst as planar RGB (NCHW),
// with values from 0 to 255, which is what the TensorFlow Mask R-CNN graphs expect.
func FillInput(img *cimg.Image, width, height int, dst []float32) {
	src := imgx.ToNRGBA(img)
	if img.Width != width || img.Height != height {
		src = imaging.Resize(src, width, height, imaging.Linear)
	}
	plane := width * height
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width; x++ {
			i := y*width + x
			dst[i] = float32(row[x*4])
			dst[plane+i] = float32(row[x*4+1])
			dst[2*plane+i] = float32(row[x*4+2])
		}
	}
}
