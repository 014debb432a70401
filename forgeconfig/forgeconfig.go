// Package forgeconfig parses the §6 CLI surface: a scene-mode selector
// followed by zero or more glTF paths, plus stdlib flag package
// renderer-tuning switches layered in front of the positional args. Grounded
// on oxy-go's functional-option builder pattern (engine.EngineBuilderOption,
// renderer.RendererBuilderOption, ...) for everything *below* the CLI
// boundary — forgeconfig only resolves what cmd/forgecull needs to construct
// those options, it does not replace them.
package forgeconfig

import (
	"flag"
	"fmt"
)

// SceneMode selects one of the three built-in demo scenes, or None when the
// caller supplied only glTF paths (spec §6: "absent of a mode keyword, every
// argument is a glTF path").
type SceneMode int

const (
	// SceneNone means every positional argument is a glTF path to load.
	SceneNone SceneMode = iota
	// SceneRenderingStressTest populates ~4M random transforms over
	// bunny/kitten/dragon/human (spec §6, §8 scenario 5).
	SceneRenderingStressTest
	// SceneInstancingStressTest populates fewer transforms, tuned for the
	// instanced-culling path (spec §6).
	SceneInstancingStressTest
	// SceneOnpcReflectionTest is the oblique near-plane clipping scene
	// (spec §6, §9 OQ1).
	SceneOnpcReflectionTest
)

// String returns the CLI keyword for a SceneMode, or "" for SceneNone.
func (m SceneMode) String() string {
	switch m {
	case SceneRenderingStressTest:
		return "RenderingStressTest"
	case SceneInstancingStressTest:
		return "InstancingStressTest"
	case SceneOnpcReflectionTest:
		return "OnpcReflectionTest"
	default:
		return ""
	}
}

func sceneModeFromKeyword(s string) (SceneMode, bool) {
	switch s {
	case "RenderingStressTest":
		return SceneRenderingStressTest, true
	case "InstancingStressTest":
		return SceneInstancingStressTest, true
	case "OnpcReflectionTest":
		return SceneOnpcReflectionTest, true
	default:
		return SceneNone, false
	}
}

// Config is the fully-resolved CLI configuration for one cmd/forgecull run.
type Config struct {
	Mode       SceneMode
	ScenePaths []string

	PresentMode    string
	MSAA           int
	FramesInFlight int
	Occlusion      bool
	Instanced      bool

	Width  int
	Height int
}

// Parse parses args (normally os.Args[1:]) into a Config. Flags must come
// before the positional arguments, since flag.Parse stops at the first
// non-flag token; forgecull's convention is flags first, then the
// scene-mode keyword (if any), then glTF paths, matching spec §6's
// "first argument is a scene mode selector... subsequent arguments are glTF
// file paths" once flags are stripped.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("forgecull", flag.ContinueOnError)

	presentMode := fs.String("present-mode", "vsync", "swapchain present mode (vsync|uncapped)")
	msaa := fs.Int("msaa", 1, "MSAA sample count (1 or 4)")
	framesInFlight := fs.Int("frames-in-flight", 2, "number of frames-in-flight slots (1 or 2)")
	occlusion := fs.Bool("occlusion", false, "enable late occlusion culling against the depth pyramid")
	instanced := fs.Bool("instanced", false, "enable LOD-instance expansion draw path")
	width := fs.Int("width", 1280, "initial window width in pixels")
	height := fs.Int("height", 720, "initial window height in pixels")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		PresentMode:    *presentMode,
		MSAA:           *msaa,
		FramesInFlight: *framesInFlight,
		Occlusion:      *occlusion,
		Instanced:      *instanced,
		Width:          *width,
		Height:         *height,
	}

	if cfg.FramesInFlight != 1 && cfg.FramesInFlight != 2 {
		return nil, fmt.Errorf("forgeconfig: -frames-in-flight must be 1 or 2, got %d", cfg.FramesInFlight)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		cfg.Mode = SceneNone
		return cfg, nil
	}

	if mode, ok := sceneModeFromKeyword(rest[0]); ok {
		cfg.Mode = mode
		cfg.ScenePaths = rest[1:]
		return cfg, nil
	}

	// No mode keyword: every argument is a glTF path (spec §6).
	cfg.Mode = SceneNone
	cfg.ScenePaths = rest
	return cfg, nil
}
