package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
)

func resultIsSuccess(result vk.Result) bool {
	return result == vk.Success
}

// resultErr maps a Vulkan result code to the renderer error taxonomy.
// Device loss and out-of-memory conditions are fatal to the session; every
// other failure stays frame-local.
func resultErr(op string, result vk.Result) error {
	if resultIsSuccess(result) {
		return nil
	}
	switch result {
	case vk.ErrorDeviceLost, vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory:
		return &core.DeviceLostError{Backend: "vulkan", Err: fmt.Errorf("%s failed with %d", op, result)}
	default:
		return fmt.Errorf("vulkan: %s failed with %d", op, result)
	}
}
