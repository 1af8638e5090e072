package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat4TranslationRoundTrip(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	assert.Equal(t, NewVec3(1, 2, 3), m.Translation())

	p := m.TransformPoint(NewVec3(1, 1, 1))
	assert.Equal(t, NewVec3(2, 3, 4), p)
}

func TestMat4MulComposesTranslations(t *testing.T) {
	a := NewMat4Translation(NewVec3(1, 0, 0))
	b := NewMat4Translation(NewVec3(0, 2, 0))
	assert.Equal(t, NewVec3(1, 2, 0), a.Mul(b).Translation())
}

func TestMat4EulerYRotatesAroundY(t *testing.T) {
	m := NewMat4EulerY(DegToRad(90))
	p := m.TransformPoint(NewVec3(1, 0, 0))
	assert.InDelta(t, 0.0, p.X, 1e-5)
	assert.InDelta(t, 0.0, p.Y, 1e-5)
	assert.InDelta(t, -1.0, p.Z, 1e-5)
}

func TestVec3Distance(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(3, 4, 0)
	assert.InDelta(t, 5.0, a.Distance(b), 1e-6)
	assert.InDelta(t, 25.0, a.DistanceSquared(b), 1e-6)
}

func TestVec3Normalized(t *testing.T) {
	v := NewVec3(0, 3, 0).Normalized()
	assert.InDelta(t, 1.0, v.Length(), 1e-6)

	// The zero vector stays zero instead of dividing by zero.
	z := Vec3{}.Normalized()
	assert.Equal(t, Vec3{}, z)
}
