package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// LoadMaterial parses a .lmt material description. The format is line
// oriented key=value pairs, with # starting a comment. The second return
// value is the diffuse map texture name, empty when the material is
// untextured; the registry binds it to a handle at import time.
func LoadMaterial(path string) (*metadata.MaterialData, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	material := &metadata.MaterialData{
		DiffuseColour: math.NewVec4(1, 1, 1, 1),
		CullMode:      metadata.FaceCullModeBack,
	}
	diffuseMapName := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		// Split key-value pairs by the first "=" sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			core.LogWarn("skipping invalid material line: %s", line)
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "name":
			material.Name = value
		case "shader":
			material.Shader = value
		case "blend":
			blend, err := parseBlendMode(value)
			if err != nil {
				return nil, "", err
			}
			material.Blend = blend
		case "cull_mode":
			cull, err := parseCullMode(value)
			if err != nil {
				return nil, "", err
			}
			material.CullMode = cull
		case "diffuse_colour":
			colour, err := parseVec4(value)
			if err != nil {
				return nil, "", fmt.Errorf("invalid diffuse_colour: %w", err)
			}
			material.DiffuseColour = colour
		case "diffuse_map_name":
			diffuseMapName = value
		default:
			core.LogError("Unknown key '%s' found in file. Skipping...", key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}

	if err := validateMaterial(material); err != nil {
		return nil, "", err
	}
	return material, diffuseMapName, nil
}

func parseBlendMode(value string) (metadata.BlendMode, error) {
	switch value {
	case "opaque", "":
		return metadata.BlendModeOpaque, nil
	case "alpha":
		return metadata.BlendModeAlpha, nil
	case "additive":
		return metadata.BlendModeAdditive, nil
	}
	return 0, fmt.Errorf("unknown blend mode %q", value)
}

func parseCullMode(value string) (metadata.FaceCullMode, error) {
	switch value {
	case "none":
		return metadata.FaceCullModeNone, nil
	case "front":
		return metadata.FaceCullModeFront, nil
	case "back", "":
		return metadata.FaceCullModeBack, nil
	case "both":
		return metadata.FaceCullModeFrontAndBack, nil
	}
	return 0, fmt.Errorf("unknown cull mode %q", value)
}

func parseVec4(value string) (math.Vec4, error) {
	fields := strings.Fields(value)
	if len(fields) != 4 {
		return math.Vec4{}, fmt.Errorf("expected 4 values, got %d", len(fields))
	}
	out := [4]float32{}
	for i, v := range fields {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return math.Vec4{}, fmt.Errorf("invalid value %q", v)
		}
		out[i] = float32(f)
	}
	return math.NewVec4(out[0], out[1], out[2], out[3]), nil
}

func validateMaterial(material *metadata.MaterialData) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}
	if material.Shader == "" {
		return fmt.Errorf("shader name is required")
	}
	if !isValidVec4(material.DiffuseColour) {
		return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
	}
	return nil
}

// Vec4 colour fields must be between 0.0 and 1.0.
func isValidVec4(v math.Vec4) bool {
	return inRange(v.X) && inRange(v.Y) && inRange(v.Z) && inRange(v.W)
}

func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
