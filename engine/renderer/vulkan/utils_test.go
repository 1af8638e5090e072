package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
)

func TestResultErrClassification(t *testing.T) {
	assert.NoError(t, resultErr("vkQueueSubmit", vk.Success))

	for _, result := range []vk.Result{vk.ErrorDeviceLost, vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory} {
		err := resultErr("vkQueueSubmit", result)
		var lost *core.DeviceLostError
		require.ErrorAs(t, err, &lost, "result %d", result)
		assert.Equal(t, "vulkan", lost.Backend)
	}

	// Frame-local failures stay ordinary errors.
	err := resultErr("vkCreateBuffer", vk.ErrorFragmentedPool)
	require.Error(t, err)
	var lost *core.DeviceLostError
	assert.False(t, errors.As(err, &lost))
}
