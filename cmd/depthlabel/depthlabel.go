package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/depthlabel/pkg/config"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/framesource"
	"github.com/cyclopcam/depthlabel/pkg/maskrcnn"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/cyclopcam/depthlabel/pkg/nnload"
	"github.com/cyclopcam/depthlabel/pkg/overlay"
	"github.com/cyclopcam/depthlabel/pkg/pipeline"
	"github.com/cyclopcam/depthlabel/pkg/report"
	"github.com/cyclopcam/depthlabel/pkg/runlog"
	"github.com/cyclopcam/depthlabel/pkg/session"
	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
)

// stopOnSignal waits for the first signal on sigChan, and then calls stop.
// sigChan is unregistered first, so a second signal gets the default behaviour
// and kills a run that is stuck inside a frame.
func stopOnSignal(logger logs.Log, sigChan chan os.Signal, stop func()) {
	sig, ok := <-sigChan
	if !ok {
		return
	}
	signal.Stop(sigChan)
	logger.Infof("Received signal %v, stopping after the current frame. Signal again to abort", sig)
	stop()
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("depthlabel", "Segment the objects in a depth camera recording, and measure their distance")
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON config file", Required: false, Default: ""})
	recording := parser.String("r", "recording", &argparse.Options{Help: "Recording directory", Required: false, Default: ""})
	model := parser.String("m", "model", &argparse.Options{Help: "Path to .onnx model file", Required: false, Default: ""})
	classFile := parser.String("", "classes", &argparse.Options{Help: "Class file, one name per line (default is the COCO labels)", Required: false, Default: ""})
	logFile := parser.String("o", "log", &argparse.Options{Help: "Output log file", Required: false, Default: ""})
	outputDir := parser.String("", "frames", &argparse.Options{Help: "Write annotated frames to this directory", Required: false, Default: ""})
	chartFile := parser.String("", "chart", &argparse.Options{Help: "Write a distance chart to this file (eg chart.png)", Required: false, Default: ""})
	batchSize := parser.Int("b", "batch", &argparse.Options{Help: "Frames per batch", Required: false, Default: 0})
	startOffset := parser.Int("s", "start", &argparse.Options{Help: "Skip this many frames, to resume an earlier run", Required: false, Default: -1})
	strategy := parser.Selector("", "distance", depth.Strategies, &argparse.Options{Help: "Distance estimation strategy", Required: false})
	rotate := parser.Flag("", "rotate180", &argparse.Options{Help: "Rotate frames by 180 degrees"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	overrideString(&cfg.Recording, *recording)
	overrideString(&cfg.Model, *model)
	overrideString(&cfg.ClassFile, *classFile)
	overrideString(&cfg.LogFile, *logFile)
	overrideString(&cfg.OutputDir, *outputDir)
	overrideString(&cfg.ChartFile, *chartFile)
	overrideString(&cfg.DistanceStrategy, *strategy)
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	if *startOffset >= 0 {
		cfg.StartOffset = *startOffset
	}
	if *rotate {
		cfg.Rotate180 = true
	}

	if err := run(logger, cfg); err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Everything that is opened here is closed before returning, on every path
func run(logger logs.Log, cfg *config.Config) error {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return err
	}
	runID := uuid.NewString()
	logger.Infof("Run %v", runID)

	// Startup. Any failure here happens before a single frame is pulled.
	classes, err := cfg.LoadClasses()
	if err != nil {
		return err
	}
	estimator, err := depth.NewEstimator(cfg.DistanceStrategy)
	if err != nil {
		return err
	}
	source, err := framesource.OpenRecording(logger, cfg.Recording, cfg.Rotate180)
	if err != nil {
		return err
	}
	engine, err := nnload.LoadModel(logger, cfg.Model, cfg.ONNXLibrary, cfg.Threads)
	if err != nil {
		return fmt.Errorf("Failed to load NN model '%v': %w", cfg.Model, err)
	}
	defer engine.Close()
	if classes.Len() < engine.Config().NumClasses {
		logger.Warnf("Class table has %v classes, but the model has %v", classes.Len(), engine.Config().NumClasses)
	}
	runLog, err := runlog.Create(cfg.LogFile, classes)
	if err != nil {
		return err
	}
	defer runLog.Close()

	detectionParams := cfg.DetectionParams()
	detectionParams.MaskScale = engine.Config().MaskScale

	colors := nn.NewColorTable(cfg.ColorSeed, cfg.NumColors)
	processor := &pipeline.Processor{
		Log:         logger,
		Engine:      engine,
		Detector:    maskrcnn.NewDetector(detectionParams),
		Estimator:   estimator,
		Renderer:    overlay.NewRenderer(classes, colors, estimator),
		RunLog:      runLog,
		OutputDir:   cfg.OutputDir,
		JPEGQuality: cfg.JPEGQuality,
	}
	if cfg.ChartFile != "" {
		processor.Chart = report.NewCollector(classes)
		processor.Chart.Title = "run " + runID
	}
	if err := processor.Prepare(); err != nil {
		return err
	}

	controller := session.NewController(logger, source, processor, cfg.BatchSize, time.Duration(cfg.FrameTimeoutMS)*time.Millisecond, cfg.StartOffset)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go stopOnSignal(logger, sigChan, controller.Stop)

	logger.Infof("Processing %v from frame %v, %v frames per batch", cfg.Recording, cfg.StartOffset, cfg.BatchSize)
	runErr := controller.Run()

	// Summary is reported on every exit path, including failure
	state := controller.Session()
	logger.Infof("Total execution time: %.2f seconds", time.Since(start).Seconds())
	logger.Infof("Total frames processed: %v", state.FramesProcessed)
	if state.Malformed != 0 {
		logger.Infof("Malformed frames skipped: %v", state.Malformed)
	}
	logger.Infof("Average per frame: %v", processor.Stats.String())

	if err := runLog.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("Failed to close run log: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if processor.Chart != nil && processor.Chart.Frames() != 0 {
		for _, s := range processor.Chart.Summary() {
			logger.Infof("%v", s)
		}
		if err := processor.Chart.WriteChart(cfg.ChartFile, colors); err != nil {
			return err
		}
		logger.Infof("Distance chart written to %v", cfg.ChartFile)
	}
	return nil
}
