package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/frontend"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Backend selects the dispatch capability: "opengl" or "headless".
	Backend string `toml:"backend"`
	// MissingAsset is the frontend policy: "skip" or "fallback".
	MissingAsset string `toml:"missing_asset"`
	// RenderPath names the render path description file to load.
	RenderPath string `toml:"render_path"`
	// ShaderDir, when set, is watched for shader hot reloads.
	ShaderDir string `toml:"shader_dir"`
	// FramesInFlight bounds pipelined frame preparation. Default 2.
	FramesInFlight int `toml:"frames_in_flight"`
}

// LoadApplicationConfig reads a TOML application description from disk.
func LoadApplicationConfig(name string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	cfg := &ApplicationConfig{
		StartWidth:  1280,
		StartHeight: 720,
		Backend:     "opengl",
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("application config %s: %w", name, err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("application config %s: missing name", name)
	}
	return cfg, nil
}

func (c *ApplicationConfig) logLevel() core.LogLevel {
	switch c.LogLevel {
	case "debug":
		return core.DebugLevel
	case "warn":
		return core.WarnLevel
	case "error":
		return core.ErrorLevel
	default:
		return core.InfoLevel
	}
}

func (c *ApplicationConfig) missingAssetPolicy() (frontend.MissingAssetPolicy, error) {
	if c.MissingAsset == "" {
		return frontend.PolicySkip, nil
	}
	return frontend.ParseMissingAssetPolicy(c.MissingAsset)
}
