// This file extends the resource tables (spec C1) with the geometry-side
// records meshprep (C2) produces: packed vertices, primitive surfaces, LOD
// descriptors, clusters, and the host-side MeshTransform array. Vertex and
// index data are append-only growable buffers rather than handle tables,
// mirroring spec §3's "ordered sequence of ... Vertex, index u32" language;
// everything else keeps the table[T] shape from resources.go.
package resources

import "sync"

// Vertex is the packed, 28-byte host representation from spec §3: position
// (f32x3), uv (f32x2), octahedral/signed-8-bit normal (u8x4) and tangent
// (u8x4, handedness in w).
type Vertex struct {
	Position [3]float32
	UV       [2]float32
	Normal   [4]uint8
	Tangent  [4]uint8
}

// Surface is a PrimitiveSurface (spec §3): one drawable chunk of a Mesh,
// owning a contiguous LOD range and a bounding sphere.
type Surface struct {
	VertexOffset   uint32
	LodOffset      uint32
	LodCount       uint8
	MaterialID     Handle
	BoundingCenter [3]float32
	BoundingRadius float32
}

// LodData is one level of detail for a surface (spec §3): an index range
// plus the cluster range generated over that range and the accumulated
// world-space simplification error.
type LodData struct {
	FirstIndex    uint32
	IndexCount    uint32
	ClusterOffset uint32
	ClusterCount  uint32
	Error         float32
}

// Cluster is a meshlet (spec §3 / GLOSSARY): a bounded subset of triangles
// with its own bounding sphere and visibility cone, used by the occlusion
// cull pass (C8) to reject whole clusters cheaply.
type Cluster struct {
	DataOffset     uint32
	TriangleCount  uint8
	VertexCount    uint8
	Center         [3]float32
	Radius         float32
	ConeAxis       [3]int8
	ConeCutoff     int8
}

// Transform is a MeshTransform (spec §3): position, uniform scale, and
// quaternion orientation. DynamicCount counts the transforms reserved for
// update_object_transform; the table does not keep them in a low index
// range, so dynamic and static transforms interleave in registration order.
type Transform struct {
	Position    [3]float32
	Scale       float32
	Orientation [4]float32 // x, y, z, w
}

// VertexBuffer is the single global append-only vertex array every surface's
// vertices are appended into; VertexOffset on a Surface indexes into it.
type VertexBuffer struct {
	mu       sync.RWMutex
	vertices []Vertex
}

// Append adds vertices to the buffer and returns the offset they start at.
func (b *VertexBuffer) Append(vs []Vertex) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset := uint32(len(b.vertices))
	b.vertices = append(b.vertices, vs...)
	return offset
}

// Len returns the current vertex count.
func (b *VertexBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vertices)
}

// Slice returns a copy of the full backing vertex slice, for GPU upload.
func (b *VertexBuffer) Slice() []Vertex {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Vertex, len(b.vertices))
	copy(out, b.vertices)
	return out
}

// IndexBuffer is the single global append-only u32 index array. Indices are
// LOD-local during generation (meshprep.GenerateLods) and have the owning
// surface's VertexOffset added before being appended here (spec §4.2 step 3).
type IndexBuffer struct {
	mu      sync.RWMutex
	indices []uint32
}

// Append adds indices to the buffer and returns the offset (first_index)
// they start at.
func (b *IndexBuffer) Append(idx []uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset := uint32(len(b.indices))
	b.indices = append(b.indices, idx...)
	return offset
}

// Len returns the current index count.
func (b *IndexBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.indices)
}

// Slice returns a copy of the full backing index slice, for GPU upload.
func (b *IndexBuffer) Slice() []uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]uint32, len(b.indices))
	copy(out, b.indices)
	return out
}

// geometryTables groups the C2-produced tables that live alongside the
// name-keyed resource tables in resources.go. Tables embeds it, so its
// exported fields are reached directly on Tables; they are kept apart since Surface/LodData/Cluster
// handles are never looked up by name (spec §4.1 only requires name→handle
// for meshes/materials/textures).
type geometryTables struct {
	Surfaces   *table[Surface]
	Lods       *table[LodData]
	Clusters   *table[Cluster]
	Transforms *table[Transform]
	Vertices   *VertexBuffer
	Indices    *IndexBuffer
}

// No per-type capacity cap is specified for surfaces/LODs/clusters/transforms
// beyond the ones spec §4.1 names explicitly (textures/materials/meshes/
// render objects/dynamic objects); they grow with the meshes that own them,
// so a generous ceiling guards against unbounded growth from a malformed
// asset without being reachable under any realistic scene.
const (
	maxSurfaces   = 4_000_000
	maxLods       = 32_000_000
	maxClusters   = 64_000_000
	maxTransforms = 5_000_000
)

func newGeometryTables() geometryTables {
	return geometryTables{
		Surfaces:   newTable[Surface](maxSurfaces),
		Lods:       newTable[LodData](maxLods),
		Clusters:   newTable[Cluster](maxClusters),
		Transforms: newTable[Transform](maxTransforms),
		Vertices:   &VertexBuffer{},
		Indices:    &IndexBuffer{},
	}
}
