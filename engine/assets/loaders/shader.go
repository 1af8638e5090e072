package loaders

import (
	"fmt"
	"os"
	"strings"
)

// spirvMagic is the first word of every valid SPIR-V module.
const spirvMagic = 0x07230203

// LoadShaderStage reads one shader stage from disk. Files ending in .spv are
// decoded as little-endian SPIR-V words; anything else is treated as GLSL
// source text.
func LoadShaderStage(path string) (source string, spirv []uint32, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	if !strings.HasSuffix(path, ".spv") {
		return string(data), nil, nil
	}

	if len(data) == 0 || len(data)%4 != 0 {
		return "", nil, fmt.Errorf("shader %s: SPIR-V size %d is not word aligned", path, len(data))
	}
	words := bytesToBytecode(data)
	if words[0] != spirvMagic {
		return "", nil, fmt.Errorf("shader %s: bad SPIR-V magic %#x", path, words[0])
	}
	return "", words, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	return byteCode
}
