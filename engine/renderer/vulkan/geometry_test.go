package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/math"
)

// Empty mesh data must be rejected before any buffer is created, not panic
// on a nil slice element.
func TestUploadGeometryRejectsEmptyMesh(t *testing.T) {
	ctx := &Context{}

	geo, err := uploadGeometry(ctx, nil, nil)
	assert.Error(t, err)
	assert.Nil(t, geo)

	geo, err = uploadGeometry(ctx, []math.Vertex3D{{}}, nil)
	assert.Error(t, err)
	assert.Nil(t, geo)

	geo, err = uploadGeometry(ctx, nil, []uint32{0, 1, 2})
	assert.Error(t, err)
	assert.Nil(t, geo)
}
