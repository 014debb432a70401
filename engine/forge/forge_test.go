package forge

import (
	"math"
	"testing"

	"github.com/duskforge/forgecull/engine/cull"
	"github.com/duskforge/forgecull/engine/resources"
	"github.com/duskforge/forgecull/engine/state"
	"github.com/stretchr/testify/require"
)

func testView() cull.View {
	return cull.View{
		CameraPosition:   [3]float32{0, 0, 5},
		FovYRadians:      float32(70 * math.Pi / 180),
		ScreenHeight:     720,
		TargetPixelError: 1.0,
	}
}

func TestFinalSetupIsIdempotent(t *testing.T) {
	f := Init(Config{FramesInFlight: 2, StagingRegionBytes: 64}, nil)

	f.FinalSetup()
	before := f.Tracker.Current(state.ResourceDrawCountBuffer)

	f.FinalSetup() // second call must be a no-op, not re-declare or panic
	after := f.Tracker.Current(state.ResourceDrawCountBuffer)

	require.Equal(t, before, after)
}

func TestSetupForRenderingBuildsObjectsFromTables(t *testing.T) {
	f := Init(Config{FramesInFlight: 1, StagingRegionBytes: 64}, nil)

	surfHandle, err := f.Tables.Surfaces.Add("", resources.Surface{
		LodOffset:      0,
		LodCount:       1,
		BoundingCenter: [3]float32{0, 0, 0},
		BoundingRadius: 1,
	})
	require.NoError(t, err)
	_, err = f.Tables.Lods.Add("", resources.LodData{FirstIndex: 0, IndexCount: 36})
	require.NoError(t, err)

	transformHandle, err := f.Tables.Transforms.Add("", resources.Transform{Position: [3]float32{0, 0, 0}, Scale: 1})
	require.NoError(t, err)

	_, err = f.AddRenderObject(transformHandle, surfHandle)
	require.NoError(t, err)

	require.NoError(t, f.SetupForRendering())
	require.Len(t, f.objects, 1)
	require.Equal(t, float32(1), f.objects[0].Radius)
}

func TestDrawFrameWithZeroObjectsStillPresents(t *testing.T) {
	f := Init(Config{FramesInFlight: 2, StagingRegionBytes: 64}, nil)
	require.NoError(t, f.SetupForRendering())

	result, err := f.DrawFrame(testView(), nil)
	require.NoError(t, err)
	require.Equal(t, uint32(0), result.DrawCount)
	require.Empty(t, result.Commands)
}

func TestDrawWhileWaitingPresentsWithoutCull(t *testing.T) {
	f := Init(Config{FramesInFlight: 1, StagingRegionBytes: 64}, nil)
	require.NoError(t, f.DrawWhileWaiting())
}
