package meshprep

import (
	"testing"

	"github.com/duskforge/forgecull/engine/resources"
	"github.com/stretchr/testify/require"
)

func cubeVertices() []resources.Vertex {
	// An 8-vertex cube, triangulated with 12 triangles (36 indices), used
	// across the tests below since it's small enough to simplify down to a
	// single triangle and has an unambiguous bounding sphere.
	positions := [8][3]float32{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	verts := make([]resources.Vertex, len(positions))
	for i, p := range positions {
		verts[i] = resources.Vertex{Position: p, UV: [2]float32{float32(i % 2), float32(i / 4)}}
	}
	return verts
}

func cubeIndices() []uint32 {
	return []uint32{
		0, 1, 2, 0, 2, 3, // back
		4, 6, 5, 4, 7, 6, // front
		0, 4, 5, 0, 5, 1, // bottom
		3, 2, 6, 3, 6, 7, // top
		1, 5, 6, 1, 6, 2, // right
		0, 3, 7, 0, 7, 4, // left
	}
}

func TestGenerateBoundingSphereCentersAndBounds(t *testing.T) {
	verts := cubeVertices()
	center, radius := GenerateBoundingSphere(verts)

	require.InDelta(t, 0, center[0], 1e-5)
	require.InDelta(t, 0, center[1], 1e-5)
	require.InDelta(t, 0, center[2], 1e-5)

	for _, v := range verts {
		dx := v.Position[0] - center[0]
		dy := v.Position[1] - center[1]
		dz := v.Position[2] - center[2]
		distSq := dx*dx + dy*dy + dz*dz
		require.LessOrEqual(t, distSq, radius*radius+1e-4)
	}
}

func TestGenerateBoundingSphereIdempotent(t *testing.T) {
	verts := cubeVertices()
	c1, r1 := GenerateBoundingSphere(verts)
	c2, r2 := GenerateBoundingSphere(verts)
	require.Equal(t, c1, c2)
	require.Equal(t, r1, r2)
}

func TestGenerateLodsMonotonicErrorAndCount(t *testing.T) {
	verts := cubeVertices()
	indices := cubeIndices()

	lods := GenerateLods(indices, verts, 10.0, DefaultOptimizer{})

	require.GreaterOrEqual(t, len(lods), 1)
	require.LessOrEqual(t, len(lods), MaxLods)

	for i := 1; i < len(lods); i++ {
		require.LessOrEqual(t, lods[i-1].Error, lods[i].Error)
	}
	for _, lod := range lods {
		require.Zero(t, len(lod.Indices)%3)
	}
}

func TestGenerateLodsStopsAtOneLodWhenNoProgress(t *testing.T) {
	// A single triangle (tetrahedron face count floor) can't be simplified
	// any further without reaching zero indices, so exactly one LOD survives
	// (spec §8 "LOD generation stop").
	verts := []resources.Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}
	indices := []uint32{0, 1, 2}

	lods := GenerateLods(indices, verts, 10.0, DefaultOptimizer{})
	require.Len(t, lods, 1)
	require.Equal(t, []uint32{0, 1, 2}, lods[0].Indices)
}

func TestBuildMeshletsRespectsCaps(t *testing.T) {
	verts := cubeVertices()
	indices := cubeIndices()

	clusters := BuildMeshlets(indices, verts)
	require.NotEmpty(t, clusters)
	for _, c := range clusters {
		require.LessOrEqual(t, len(c.Triangles)/3, MaxClusterTriangles)
		require.LessOrEqual(t, len(c.Vertices), MaxClusterVertices)
	}
}

func TestPackClusterRoundTripsConeWithinQuantizationError(t *testing.T) {
	verts := cubeVertices()
	indices := cubeIndices()
	clusters := BuildMeshlets(indices, verts)
	require.NotEmpty(t, clusters)

	packed := PackCluster(clusters[0], 0)
	require.LessOrEqual(t, packed.TriangleCount, uint8(MaxClusterTriangles))
	require.LessOrEqual(t, packed.VertexCount, uint8(MaxClusterVertices))

	decodedCutoff := float32(packed.ConeCutoff) / 127
	require.InDelta(t, clusters[0].ConeCutoff, decodedCutoff, 0.02)
}

func TestGenerateVertexRemapDedupes(t *testing.T) {
	verts := []resources.Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{0, 0, 0}}, // exact duplicate of index 0
		{Position: [3]float32{1, 0, 0}},
	}
	indices := []uint32{0, 1, 2}

	remap, unique := DefaultOptimizer{}.GenerateVertexRemap(verts, indices)
	require.Equal(t, 2, unique)
	require.Equal(t, remap[0], remap[1])
	require.NotEqual(t, remap[0], remap[2])
}

func TestGenerateSurfaceRegistersLodsAndClusters(t *testing.T) {
	tables := resources.NewTables()
	GenerateClusters = true
	defer func() { GenerateClusters = false }()

	h, err := GenerateSurface(tables, cubeVertices(), cubeIndices(), 0, DefaultOptimizer{})
	require.NoError(t, err)

	surf, ok := tables.Surfaces.Get(h)
	require.True(t, ok)
	require.GreaterOrEqual(t, surf.LodCount, uint8(1))
	require.LessOrEqual(t, surf.LodCount, uint8(MaxLods))

	for i := uint32(0); i < uint32(surf.LodCount); i++ {
		lod, ok := tables.Lods.Get(resources.Handle(surf.LodOffset + i))
		require.True(t, ok)
		require.LessOrEqual(t, lod.FirstIndex+lod.IndexCount, uint32(tables.Indices.Len()))
	}
}

func TestEncodeDecodeUnitVectorRoundTrip(t *testing.T) {
	for _, v := range []float32{-1, -0.5, 0, 0.5, 1} {
		b := EncodeUnitVector(v)
		got := DecodeUnitVector(b)
		require.InDelta(t, v, got, 0.01)
	}
}
