package forgeconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSceneModeKeyword(t *testing.T) {
	cfg, err := Parse([]string{"RenderingStressTest"})
	require.NoError(t, err)
	require.Equal(t, SceneRenderingStressTest, cfg.Mode)
	require.Empty(t, cfg.ScenePaths)
}

func TestParseGltfPathsNoKeyword(t *testing.T) {
	cfg, err := Parse([]string{"a.gltf", "b.gltf"})
	require.NoError(t, err)
	require.Equal(t, SceneNone, cfg.Mode)
	require.Equal(t, []string{"a.gltf", "b.gltf"}, cfg.ScenePaths)
}

func TestParseModeWithTrailingPaths(t *testing.T) {
	cfg, err := Parse([]string{"OnpcReflectionTest", "plane.gltf"})
	require.NoError(t, err)
	require.Equal(t, SceneOnpcReflectionTest, cfg.Mode)
	require.Equal(t, []string{"plane.gltf"}, cfg.ScenePaths)
}

func TestParseFlagsBeforePositional(t *testing.T) {
	cfg, err := Parse([]string{"-occlusion", "-frames-in-flight=1", "InstancingStressTest"})
	require.NoError(t, err)
	require.True(t, cfg.Occlusion)
	require.Equal(t, 1, cfg.FramesInFlight)
	require.Equal(t, SceneInstancingStressTest, cfg.Mode)
}

func TestParseRejectsBadFramesInFlight(t *testing.T) {
	_, err := Parse([]string{"-frames-in-flight=3"})
	require.Error(t, err)
}

func TestParseNoArgs(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, SceneNone, cfg.Mode)
	require.Empty(t, cfg.ScenePaths)
}
