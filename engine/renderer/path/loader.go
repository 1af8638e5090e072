package path

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// file-facing shapes; converted into the validated RenderPath after decode.
type pathFile struct {
	Layers []layerFile `toml:"layer"`
}

type layerFile struct {
	Name   string      `toml:"name"`
	Camera string      `toml:"camera"`
	Scene  string      `toml:"scene"`
	Stages []stageFile `toml:"stage"`
}

type stageFile struct {
	Kind        string    `toml:"kind"`
	ClearColour []float32 `toml:"clear_colour"`
	Shader      string    `toml:"shader"`
}

var stageKinds = map[string]metadata.StageKind{
	"Clear":           metadata.StageClear,
	"DrawOpaque":      metadata.StageDrawOpaque,
	"DrawTransparent": metadata.StageDrawTransparent,
	"PostProcess":     metadata.StagePostProcess,
}

// Load parses a TOML render path description and validates it. A pure parse:
// no side effects, nothing logged on the success path. All failures are
// reported as *core.ParseError.
func Load(r io.Reader) (*RenderPath, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &core.ParseError{Stage: -1, Reason: fmt.Sprintf("read: %v", err)}
	}

	var pf pathFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, &core.ParseError{Stage: -1, Reason: fmt.Sprintf("toml: %v", err)}
	}

	layers := make([]Layer, 0, len(pf.Layers))
	for _, lf := range pf.Layers {
		layer := Layer{
			Name:   lf.Name,
			Camera: lf.Camera,
			Scene:  lf.Scene,
		}
		for _, sf := range lf.Stages {
			kind, ok := stageKinds[sf.Kind]
			if !ok {
				return nil, &core.ParseError{
					Layer:  lf.Name,
					Stage:  len(layer.Stages),
					Reason: fmt.Sprintf("unknown stage kind %q", sf.Kind),
				}
			}
			stage := Stage{Kind: kind, Shader: sf.Shader}
			if len(sf.ClearColour) == 4 {
				stage.ClearColour = math.NewVec4(sf.ClearColour[0], sf.ClearColour[1], sf.ClearColour[2], sf.ClearColour[3])
			}
			layer.Stages = append(layer.Stages, stage)
		}
		layers = append(layers, layer)
	}

	return New(layers...)
}

// LoadFile is a convenience wrapper over Load for render paths stored on disk.
func LoadFile(name string) (*RenderPath, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, &core.ParseError{Stage: -1, Reason: fmt.Sprintf("open %s: %v", name, err)}
	}
	defer f.Close()
	return Load(f)
}

// New builds a RenderPath from in-memory layers, applying the same
// validation as Load.
func New(layers ...Layer) (*RenderPath, error) {
	if len(layers) == 0 {
		return nil, &core.ParseError{Stage: -1, Reason: "no layers defined"}
	}
	for _, layer := range layers {
		if err := validateLayer(layer); err != nil {
			return nil, err
		}
	}
	return &RenderPath{Layers: layers}, nil
}

func validateLayer(layer Layer) error {
	if layer.Camera == "" {
		return &core.ParseError{Layer: layer.Name, Stage: -1, Reason: "empty camera identifier"}
	}
	if layer.Scene == "" {
		return &core.ParseError{Layer: layer.Name, Stage: -1, Reason: "empty scene identifier"}
	}
	if len(layer.Stages) == 0 {
		return &core.ParseError{Layer: layer.Name, Stage: -1, Reason: "layer has no stages"}
	}

	// Policy: a PostProcess stage must follow at least one Draw stage in its
	// layer, since it consumes the layer's drawn output.
	seenDraw := false
	for i, stage := range layer.Stages {
		switch stage.Kind {
		case metadata.StageDrawOpaque, metadata.StageDrawTransparent:
			seenDraw = true
		case metadata.StagePostProcess:
			if !seenDraw {
				return &core.ParseError{
					Layer:  layer.Name,
					Stage:  i,
					Reason: "PostProcess stage before any Draw stage",
				}
			}
		}
	}
	return nil
}
