package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngleConversionRoundTrip(t *testing.T) {
	for _, degrees := range []float32{0, 45, 90, 180, 270, 360} {
		assert.True(t, FloatEqual(RadToDeg(DegToRad(degrees)), degrees),
			"round trip of %v degrees", degrees)
	}
	assert.True(t, FloatEqual(DegToRad(180), K_PI))
}

func TestOrderedHelpers(t *testing.T) {
	assert.Equal(t, 2, Min(2, 5))
	assert.Equal(t, 5, Max(2, 5))
	assert.Equal(t, float32(1.5), Min(float32(1.5), 2.5))

	assert.Equal(t, 3, Clamp(7, 1, 3))
	assert.Equal(t, 1, Clamp(-4, 1, 3))
	assert.Equal(t, 2, Clamp(2, 1, 3))
}
