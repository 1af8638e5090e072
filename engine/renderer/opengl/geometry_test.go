package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/math"
)

// Empty mesh data must be rejected before any GL buffer is touched, not
// panic on a nil slice element.
func TestUploadGeometryRejectsEmptyMesh(t *testing.T) {
	geo, err := uploadGeometry(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, geo)

	geo, err = uploadGeometry([]math.Vertex3D{{}}, nil)
	assert.Error(t, err)
	assert.Nil(t, geo)

	geo, err = uploadGeometry(nil, []uint32{0, 1, 2})
	assert.Error(t, err)
	assert.Nil(t, geo)
}
