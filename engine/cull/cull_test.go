package cull

import (
	"math"
	"testing"

	"github.com/duskforge/forgecull/common"
	"github.com/duskforge/forgecull/engine/state"
	"github.com/stretchr/testify/require"
)

func identityViewProj() []float32 {
	// A simple perspective-like view-projection: a symmetric 90° frustum
	// looking down +Z with its near plane at z = 0.5 and no far plane, wide
	// enough to be an unambiguous "looking forward" camera for these tests;
	// anything at negative z sits behind the camera.
	return []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 1,
		0, 0, -1, 0,
	}
}

func TestSingleObjectTrivialViewDrawCountOne(t *testing.T) {
	frustum := common.ExtractFrustumFromMatrix(identityViewProj())
	view := View{
		Frustum:          frustum,
		CameraPosition:   [3]float32{0, 0, 5},
		FovYRadians:      float32(70 * math.Pi / 180),
		ScreenHeight:     720,
		TargetPixelError: 1.0,
	}
	objects := []ObjectInput{{
		ObjectID:      1,
		Center:        [3]float32{0, 0, 0},
		Radius:        1,
		LodErrors:     []float32{0},
		LodFirstIndex: []uint32{0},
		LodIndexCount: []uint32{36},
	}}

	results := make([]Result, len(objects))
	for i, o := range objects {
		results[i] = CullObject(o, view)
	}
	cmds, count := BuildDrawCommands(objects, results)
	require.Equal(t, uint32(1), count)
	require.Len(t, cmds, 1)
	require.Equal(t, 0, results[0].LodIndex)
}

func TestFrustumCullFrontAndBehind(t *testing.T) {
	frustum := common.ExtractFrustumFromMatrix(identityViewProj())
	view := View{
		Frustum:          frustum,
		CameraPosition:   [3]float32{0, 0, 5},
		FovYRadians:      float32(70 * math.Pi / 180),
		ScreenHeight:     720,
		TargetPixelError: 1.0,
	}
	objects := []ObjectInput{
		{ObjectID: 1, Center: [3]float32{0, 0, 0}, Radius: 1, LodErrors: []float32{0}, LodFirstIndex: []uint32{0}, LodIndexCount: []uint32{36}},
		{ObjectID: 2, Center: [3]float32{0, 0, -50}, Radius: 1, LodErrors: []float32{0}, LodFirstIndex: []uint32{0}, LodIndexCount: []uint32{36}},
	}

	results := make([]Result, len(objects))
	for i, o := range objects {
		results[i] = CullObject(o, view)
	}
	_, count := BuildDrawCommands(objects, results)
	require.Equal(t, uint32(1), count)
}

func TestLodSelectionPicksExpectedIndex(t *testing.T) {
	errors := []float32{0.01, 0.05, 0.2, 1.0}
	fovY := float32(70 * math.Pi / 180)
	idx := SelectLOD(errors, 100, 1.0, fovY, 720)
	require.Equal(t, 2, idx)
}

func TestSelectLodNeverOutOfRange(t *testing.T) {
	errors := []float32{0.01, 0.05, 0.2, 1.0}
	idx := SelectLOD(errors, 0, 1.0, float32(70*math.Pi/180), 720)
	require.Equal(t, 0, idx)

	idx = SelectLOD(errors, 1e9, 1.0, float32(70*math.Pi/180), 720)
	require.Equal(t, len(errors)-1, idx)
}

func TestStressTestDrawCountArithmetic(t *testing.T) {
	// Mirrors spec scenario 5's object-count bookkeeping: draw_count must
	// never exceed the render-object count, and equals exactly the number
	// of objects that pass the frustum test.
	const bunny, kitten, dragon, human = 2_500_000, 1_500_000, 10_000, 90_000
	total := bunny + kitten + dragon + human
	require.Equal(t, 4_100_000, total)

	frustum := common.ExtractFrustumFromMatrix(identityViewProj())
	view := View{Frustum: frustum, CameraPosition: [3]float32{0, 0, 5}, FovYRadians: float32(70 * math.Pi / 180), ScreenHeight: 720, TargetPixelError: 1.0}

	objects := make([]ObjectInput, 10)
	for i := range objects {
		z := float32(0)
		if i%2 == 1 {
			z = -1000 // half the sample objects sit behind the camera
		}
		objects[i] = ObjectInput{
			ObjectID:      uint32(i),
			Center:        [3]float32{0, 0, z},
			Radius:        1,
			LodErrors:     []float32{0},
			LodFirstIndex: []uint32{0},
			LodIndexCount: []uint32{36},
		}
	}
	results := make([]Result, len(objects))
	for i, o := range objects {
		results[i] = CullObject(o, view)
	}
	_, count := BuildDrawCommands(objects, results)
	require.LessOrEqual(t, count, uint32(len(objects)))
	require.Equal(t, uint32(5), count)
}

type fakeSampler struct{ occluded map[uint32]bool }

func (f fakeSampler) IsOccluded(center [3]float32, radius float32, view View) bool {
	// Tests key occlusion by object identity via center, since this fake
	// doesn't actually sample a pyramid.
	return f.occluded[uint32(center[0])]
}

func TestOcclusionTwoFrameCorrectness(t *testing.T) {
	frustum := common.ExtractFrustumFromMatrix(identityViewProj())
	view := View{Frustum: frustum, CameraPosition: [3]float32{0, 0, 5}, FovYRadians: float32(70 * math.Pi / 180), ScreenHeight: 720, TargetPixelError: 1.0}

	objects := []ObjectInput{
		{ObjectID: 1, Center: [3]float32{0, 0, 0}, Radius: 1, LodErrors: []float32{0}, LodFirstIndex: []uint32{0}, LodIndexCount: []uint32{36}},
		{ObjectID: 2, Center: [3]float32{1, 0, 0}, Radius: 1, LodErrors: []float32{0}, LodFirstIndex: []uint32{0}, LodIndexCount: []uint32{36}},
	}

	p := NewPipeline(2, 0, 0)
	p.SetOcclusionMode(true)

	tracker := state.NewTracker()
	tracker.DeclareFinalSetup(0)

	// Frame F: wall not yet built into the pyramid, both objects visible.
	resultsF, err := p.RunFrustumLod(tracker, objects, view)
	require.NoError(t, err)
	sampler := fakeSampler{occluded: map[uint32]bool{}}
	afterOcclusionF := p.RunOcclusion(objects, resultsF, sampler, view)
	_, countF := BuildDrawCommands(objects, afterOcclusionF)
	require.Equal(t, uint32(2), countF)

	// Frame F+1: the pyramid now shows object 2 occluded by the wall, so the
	// late retest rejects it even though it was visible in frame F.
	// Drive the rest of frame F's boundary (draw, pyramid rebuild, present)
	// before RunFrustumLod opens frame F+1's cull pass.
	require.NoError(t, tracker.BeginDraw())
	require.NoError(t, tracker.BeginPyramid())
	require.NoError(t, tracker.EndFramePresent())

	resultsF1, err := p.RunFrustumLod(tracker, objects, view)
	require.NoError(t, err)
	sampler2 := fakeSampler{occluded: map[uint32]bool{1: true}}
	afterOcclusionF1 := p.RunOcclusion(objects, resultsF1, sampler2, view)
	_, countF1 := BuildDrawCommands(objects, afterOcclusionF1)
	require.Equal(t, uint32(1), countF1)
}

func TestInstanceExpansionFallsBackWithoutClusters(t *testing.T) {
	objects := []ObjectInput{{ObjectID: 1, LodFirstIndex: []uint32{0}, LodIndexCount: []uint32{300}}}
	results := []Result{{ObjectID: 1, Visible: true, LodIndex: 0}}

	cmds := ExpandInstances(objects, results)
	require.Len(t, cmds, 1)
	require.Equal(t, uint32(300), cmds[0].IndexCount)
}

func TestInstanceExpansionOneCommandPerCluster(t *testing.T) {
	objects := []ObjectInput{{
		ObjectID:      1,
		LodFirstIndex: []uint32{0},
		LodIndexCount: []uint32{300},
		ClusterOffset: []uint32{10},
		ClusterCount:  []uint32{3},
	}}
	results := []Result{{ObjectID: 1, Visible: true, LodIndex: 0}}

	cmds := ExpandInstances(objects, results)
	require.Len(t, cmds, 3)
	require.Equal(t, uint32(10), cmds[0].ClusterIndex)
	require.Equal(t, uint32(12), cmds[2].ClusterIndex)
}
