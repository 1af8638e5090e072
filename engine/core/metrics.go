package core

import (
	"github.com/spaghettifunk/lumen/engine/math"
)

const frameAvgCount uint8 = 30

// FrameBudgetMS is the per-frame time budget for a 60Hz target.
const FrameBudgetMS float64 = 16.0

// FrameMetrics keeps a rolling average of frame times and a frames-per-second
// counter. One instance belongs to one renderer; it is updated from the render
// thread only and needs no synchronization.
type FrameMetrics struct {
	frameAvgCounter    uint8
	msTimes            [frameAvgCount]float64
	msAvg              float64
	frames             int32
	totalFrames        uint64
	accumulatedFrameMS float64
	fps                float64
	overBudget         uint64
	peakMS             float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// Update records one frame's elapsed time, given in seconds.
func (m *FrameMetrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == frameAvgCount-1 {
		sum := 0.0
		for i := uint8(0); i < frameAvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(frameAvgCount)
	}
	m.frameAvgCounter++
	m.frameAvgCounter %= frameAvgCount

	if frameMS > FrameBudgetMS {
		m.overBudget++
	}
	m.peakMS = math.Max(m.peakMS, frameMS)

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.frames++
	m.totalFrames++
}

// Frames returns how many frames have been recorded in total.
func (m *FrameMetrics) Frames() uint64 {
	return m.totalFrames
}

// FPS returns the most recent frames-per-second measurement.
func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime returns the rolling average frame time in milliseconds.
func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}

// OverBudget returns how many frames have exceeded FrameBudgetMS so far.
func (m *FrameMetrics) OverBudget() uint64 {
	return m.overBudget
}

// PeakFrameTime returns the slowest recorded frame in milliseconds.
func (m *FrameMetrics) PeakFrameTime() float64 {
	return m.peakMS
}
