package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMetricsAccounting(t *testing.T) {
	m := NewFrameMetrics()

	m.Update(0.004)
	m.Update(0.020)
	m.Update(0.008)

	assert.Equal(t, uint64(3), m.Frames())
	assert.Equal(t, uint64(1), m.OverBudget())
	assert.InDelta(t, 20.0, m.PeakFrameTime(), 1e-9)

	// A faster frame never lowers the peak.
	m.Update(0.001)
	assert.InDelta(t, 20.0, m.PeakFrameTime(), 1e-9)
}
