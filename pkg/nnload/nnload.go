package nnload

// Package nnload wraps up our 'nn' interface layer, and has concrete references to our
// neural network implementation (ONNX Runtime), so that you can just call one function to
// load a model, and not need to know about the implementation details.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/depthlabel/pkg/buildinfo"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/cyclopcam/depthlabel/pkg/onnxengine"
	"github.com/cyclopcam/logs"
)

// ModelConfigFile returns the JSON file that describes the model, which lives alongside the weights.
// For example, /models/mask_rcnn_inception_v2.onnx -> /models/mask_rcnn_inception_v2.json
func ModelConfigFile(modelFile string) string {
	return strings.TrimSuffix(modelFile, filepath.Ext(modelFile)) + ".json"
}

// Model is a loaded inference engine. Close releases the engine and the runtime.
type Model struct {
	nn.InferenceEngine
}

func (m *Model) Close() {
	m.InferenceEngine.Close()
	onnxengine.ShutdownRuntime()
}

// LoadModel loads a neural network from disk.
// libraryPath is the ONNX Runtime shared library. If empty, we search the usual install locations,
// and failing that, leave it to onnxruntime_go's default.
func LoadModel(logs logs.Log, modelFile, libraryPath string, numThreads int) (*Model, error) {
	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("Model file not found: %w", err)
	}
	config, err := nn.LoadModelConfig(ModelConfigFile(modelFile))
	if err != nil {
		return nil, err
	}
	if filepath.Ext(modelFile) != ".onnx" {
		return nil, fmt.Errorf("Unrecognized NN model type %v", modelFile)
	}

	if libraryPath == "" {
		libraryPath = buildinfo.ONNXRuntimeLibrary()
	}
	if libraryPath != "" {
		logs.Infof("Using ONNX Runtime %v", libraryPath)
	}
	if err := onnxengine.InitializeRuntime(libraryPath); err != nil {
		return nil, err
	}
	engine, err := onnxengine.NewEngine(config, modelFile, numThreads)
	if err != nil {
		onnxengine.ShutdownRuntime()
		return nil, err
	}
	logs.Infof("Loaded %v model %v (%vx%v, %v classes)", config.Architecture, modelFile, config.Width, config.Height, config.NumClasses)
	return &Model{InferenceEngine: engine}, nil
}
