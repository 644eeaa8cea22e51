// Package perfstats measures how long each stage of frame processing takes,
// and the recent frame rate.
package perfstats

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmharper/ringbuffer"
)

// Accumulate samples of how long something took
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
}

func (a *TimeAccumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

// Time since start is added as a sample
func (a *TimeAccumulator) Since(start time.Time) {
	a.AddSample(time.Since(start))
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}

// FrameStats holds the cost of each stage of the per-frame pipeline
type FrameStats struct {
	Inference TimeAccumulator
	Detect    TimeAccumulator
	Draw      TimeAccumulator
	Write     TimeAccumulator
}

func (s *FrameStats) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "inference %.1f ms, detect %.1f ms, draw %.1f ms, write %.1f ms",
		ms(s.Inference.Average()), ms(s.Detect.Average()), ms(s.Draw.Average()), ms(s.Write.Average()))
	return b.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RateWindow measures events per second over the most recent N events
type RateWindow struct {
	times ringbuffer.RingP[time.Time]
}

func NewRateWindow(size int) *RateWindow {
	if size < 2 {
		size = 2
	}
	return &RateWindow{
		times: ringbuffer.NewRingP[time.Time](size),
	}
}

// Record an event at time t
func (w *RateWindow) Add(t time.Time) {
	w.times.Add(t)
}

// Rate returns events per second across the window, or 0 if there are fewer than two events
func (w *RateWindow) Rate() float64 {
	n := w.times.Len()
	if n < 2 {
		return 0
	}
	first := w.times.Peek(0)
	last := w.times.Peek(n - 1)
	elapsed := last.Sub(first).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n-1) / elapsed
}
