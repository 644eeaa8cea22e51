// Package session drives a frame source through a frame processor, in batches.
//
// The frame source has no seek, so every batch reopens the source and skips the frames
// that were already consumed, before pulling the next batch.
package session

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/depthlabel/pkg/framesource"
	"github.com/cyclopcam/depthlabel/pkg/perfstats"
	"github.com/cyclopcam/logs"
)

const DefaultBatchSize = 40
const DefaultFrameTimeout = 5 * time.Second

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStreaming:
		return "STREAMING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SessionState is the progress of a run
type SessionState struct {
	FramesProcessed int // Frames that were fed to the processor. Starts at the configured offset.
	SourceOffset    int // Frames consumed from the source, including malformed ones. This is the skip count.
	Malformed       int // Malformed frames skipped during this run
	Batches         int // Non-empty batches processed during this run
}

// FrameProcessor does all the work on a single frame.
// An error from ProcessFrame is fatal to the run.
type FrameProcessor interface {
	ProcessFrame(f *framesource.Frame) error
}

// Controller is the batch state machine
type Controller struct {
	Log          logs.Log
	Source       framesource.Source
	Processor    FrameProcessor
	BatchSize    int
	FrameTimeout time.Duration

	// Called on every state change. Optional.
	OnStateChange func(s State)

	state   State
	session SessionState
	stop    atomic.Bool
	rate    *perfstats.RateWindow
}

// NewController creates a controller that resumes at startOffset
func NewController(log logs.Log, source framesource.Source, processor FrameProcessor, batchSize int, frameTimeout time.Duration, startOffset int) *Controller {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if frameTimeout <= 0 {
		frameTimeout = DefaultFrameTimeout
	}
	return &Controller{
		Log:          log,
		Source:       source,
		Processor:    processor,
		BatchSize:    batchSize,
		FrameTimeout: frameTimeout,
		state:        StateIdle,
		session: SessionState{
			FramesProcessed: startOffset,
			SourceOffset:    startOffset,
		},
		rate: perfstats.NewRateWindow(2 * batchSize),
	}
}

// Stop asks the controller to finish the current frame, and then stop.
// It is safe to call from any goroutine, eg a signal handler.
func (c *Controller) Stop() {
	c.stop.Store(true)
}

func (c *Controller) Stopping() bool {
	return c.stop.Load()
}

func (c *Controller) State() State {
	return c.state
}

// Session returns a copy of the current progress
func (c *Controller) Session() SessionState {
	return c.session
}

func (c *Controller) setState(s State) {
	c.state = s
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

// A frame pulled from the source, along with the position after it
type batchFrame struct {
	frame *framesource.Frame
	next  int
}

// Run processes batches until the source is exhausted, Stop is called, or the processor fails.
// The source stream is closed on every path.
func (c *Controller) Run() error {
	for {
		more, err := c.cycle()
		if err != nil || !more {
			c.setState(StateStopped)
			return err
		}
		c.setState(StateIdle)
	}
}

// One IDLE -> STREAMING -> DRAINING pass. Returns false when there is nothing more to do.
func (c *Controller) cycle() (bool, error) {
	if c.stop.Load() {
		return false, nil
	}
	stream, err := c.Source.Open()
	if err != nil {
		return false, fmt.Errorf("Failed to open frame source: %w", err)
	}
	closed := false
	closeStream := func() {
		if !closed {
			closed = true
			if err := stream.Close(); err != nil {
				c.Log.Warnf("Error closing frame source: %v", err)
			}
		}
	}
	defer closeStream()

	c.setState(StateStreaming)
	batch, end := c.collect(stream)

	c.setState(StateDraining)
	closeStream()
	if len(batch) == 0 {
		return false, nil
	}

	batchEnd := c.session.FramesProcessed + len(batch)
	for _, bf := range batch {
		if c.stop.Load() {
			c.Log.Infof("Stop requested, after %v frames", c.session.FramesProcessed)
			return false, nil
		}
		c.Log.Infof("Processing frame %v/%v at time: %v", c.session.FramesProcessed+1, batchEnd, bf.frame.Timestamp)
		if err := c.Processor.ProcessFrame(bf.frame); err != nil {
			return false, err
		}
		c.session.FramesProcessed++
		c.session.SourceOffset = bf.next
		c.rate.Add(time.Now())
	}
	c.session.SourceOffset = end
	c.session.Batches++
	c.Log.Infof("Batch %v done (%v frames). %v frames processed, source offset %v, %.1f frames/s",
		c.session.Batches, len(batch), c.session.FramesProcessed, c.session.SourceOffset, c.rate.Rate())
	return true, nil
}

// Skip the frames that have already been consumed (without reading them), and then pull up to BatchSize good frames.
// Any failure to produce a frame ends the stream.
// Returns the batch, and the source position after the last frame consumed.
func (c *Controller) collect(stream framesource.Stream) ([]batchFrame, int) {
	pos := 0
	for pos < c.session.SourceOffset {
		if err := stream.Skip(); err != nil {
			c.logEndOfStream(err, pos)
			return nil, pos
		}
		pos++
	}

	batch := make([]batchFrame, 0, c.BatchSize)
	for len(batch) < c.BatchSize && !c.stop.Load() {
		f, err := stream.NextFrame(c.FrameTimeout)
		if errors.Is(err, framesource.ErrMalformedFrame) {
			pos++
			c.session.Malformed++
			c.Log.Warnf("Skipping frame %v: %v", pos-1, err)
			continue
		} else if err != nil {
			c.logEndOfStream(err, pos)
			break
		}
		pos++
		batch = append(batch, batchFrame{frame: f, next: pos})
	}
	return batch, pos
}

func (c *Controller) logEndOfStream(err error, pos int) {
	switch {
	case errors.Is(err, framesource.ErrExhausted):
		c.Log.Debugf("Frame source exhausted at %v", pos)
	case errors.Is(err, framesource.ErrTimeout):
		c.Log.Warnf("Timed out waiting for frame %v. Treating as end of stream", pos)
	default:
		c.Log.Warnf("Frame source failed at %v: %v. Treating as end of stream", pos, err)
	}
}
