// Package meshprep implements mesh preparation (spec C2): ingesting OBJ/
// glTF geometry, deduping and optimizing it for GPU cache locality,
// generating LODs and clusters, computing bounding spheres, and packing
// tangents. spec.md lists optimizeVertexCache, optimizeVertexFetch,
// generateVertexRemap, simplifyWithAttributes, simplifyScale, buildMeshlets,
// and computeMeshletBounds as an out-of-scope external mesh-optimization
// library (a zeux/meshoptimizer binding). No real, importable pure-Go port
// of that library is attested anywhere in the example pack, so this package
// implements the same operations directly against the narrow Optimizer
// interface below, grounded on the shape of those calls in
// original_source/src/Renderer/Resources/Mesh/blitzenMeshes.cpp, so a real
// binding can be substituted later without touching call sites.
package meshprep

import "github.com/duskforge/forgecull/engine/resources"

// Optimizer is the narrow interface spec.md treats as an external
// collaborator. A real meshoptimizer binding would implement this; the
// default implementation below is the stdlib fallback.
type Optimizer interface {
	// GenerateVertexRemap produces a remap table collapsing duplicate
	// vertices (identical position+uv+normal+tangent) to a single index,
	// and returns the deduplicated vertex count.
	GenerateVertexRemap(vertices []resources.Vertex, indices []uint32) (remap []uint32, uniqueCount int)

	// OptimizeVertexCache reorders indices (triangle order only, vertex
	// identity unchanged) to improve post-transform vertex cache hit rate.
	OptimizeVertexCache(indices []uint32, vertexCount int) []uint32

	// OptimizeVertexFetch reorders the vertex buffer so vertices referenced
	// early by the index buffer sit early in memory, remapping indices to
	// match. Returns the reordered vertices and the rewritten indices.
	OptimizeVertexFetch(vertices []resources.Vertex, indices []uint32) ([]resources.Vertex, []uint32)
}

// DefaultOptimizer is a stdlib implementation of Optimizer (see package doc
// for why this is implemented here rather than imported).
type DefaultOptimizer struct{}

// GenerateVertexRemap deduplicates vertices with identical attributes,
// mirroring meshoptimizer's generateVertexRemap contract: every duplicate
// collapses to the first occurrence's slot.
func (DefaultOptimizer) GenerateVertexRemap(vertices []resources.Vertex, indices []uint32) ([]uint32, int) {
	seen := make(map[resources.Vertex]uint32, len(vertices))
	remap := make([]uint32, len(vertices))
	next := uint32(0)
	for i, v := range vertices {
		if existing, ok := seen[v]; ok {
			remap[i] = existing
			continue
		}
		seen[v] = next
		remap[i] = next
		next++
	}
	return remap, int(next)
}

// applyRemap compacts vertices per remap and rewrites indices to the
// compacted slots.
func applyRemap(vertices []resources.Vertex, indices []uint32, remap []uint32, uniqueCount int) ([]resources.Vertex, []uint32) {
	out := make([]resources.Vertex, uniqueCount)
	written := make([]bool, uniqueCount)
	for i, v := range vertices {
		slot := remap[i]
		if !written[slot] {
			out[slot] = v
			written[slot] = true
		}
	}
	newIndices := make([]uint32, len(indices))
	for i, idx := range indices {
		newIndices[i] = remap[idx]
	}
	return out, newIndices
}

// OptimizeVertexCache reorders triangles using a greedy local-search
// heuristic: repeatedly emit the next triangle with the most already-cached
// vertices (ties go to the first candidate found, scanning cached vertices
// oldest first), approximating meshoptimizer's
// Tipsify-derived cache optimization without requiring its adjacency
// scoring tables.
func (DefaultOptimizer) OptimizeVertexCache(indices []uint32, vertexCount int) []uint32 {
	triCount := len(indices) / 3
	if triCount == 0 {
		return append([]uint32(nil), indices...)
	}

	// vertexToTris: triangles referencing each vertex, for locating
	// candidates adjacent to recently emitted ones.
	vertexToTris := make([][]int, vertexCount)
	for t := 0; t < triCount; t++ {
		for k := 0; k < 3; k++ {
			v := indices[t*3+k]
			vertexToTris[v] = append(vertexToTris[v], t)
		}
	}

	emitted := make([]bool, triCount)
	out := make([]uint32, 0, len(indices))

	const cacheSize = 32
	cache := make([]uint32, 0, cacheSize)
	inCache := make(map[uint32]bool, cacheSize)

	pushCache := func(v uint32) {
		if inCache[v] {
			return
		}
		cache = append(cache, v)
		inCache[v] = true
		if len(cache) > cacheSize {
			evict := cache[0]
			cache = cache[1:]
			delete(inCache, evict)
		}
	}

	emitTriangle := func(t int) {
		emitted[t] = true
		for k := 0; k < 3; k++ {
			v := indices[t*3+k]
			out = append(out, v)
			pushCache(v)
		}
	}

	nextUnemitted := 0
	for len(out) < len(indices) {
		best := -1
		bestScore := -1
		for _, v := range cache {
			for _, t := range vertexToTris[v] {
				if emitted[t] {
					continue
				}
				score := 0
				for k := 0; k < 3; k++ {
					if inCache[indices[t*3+k]] {
						score++
					}
				}
				if score > bestScore {
					bestScore = score
					best = t
				}
			}
		}
		if best == -1 {
			for nextUnemitted < triCount && emitted[nextUnemitted] {
				nextUnemitted++
			}
			if nextUnemitted >= triCount {
				break
			}
			best = nextUnemitted
		}
		emitTriangle(best)
	}
	return out
}

// OptimizeVertexFetch reorders vertices into first-use order relative to
// the (already cache-optimized) index buffer, so sequential GPU vertex
// fetches stay local. Returns the reordered vertex slice and indices
// rewritten to match.
func (DefaultOptimizer) OptimizeVertexFetch(vertices []resources.Vertex, indices []uint32) ([]resources.Vertex, []uint32) {
	remap := make([]int32, len(vertices))
	for i := range remap {
		remap[i] = -1
	}
	out := make([]resources.Vertex, 0, len(vertices))
	newIndices := make([]uint32, len(indices))
	for i, idx := range indices {
		if remap[idx] == -1 {
			remap[idx] = int32(len(out))
			out = append(out, vertices[idx])
		}
		newIndices[i] = uint32(remap[idx])
	}
	// Any vertex never referenced by an index keeps a slot appended in
	// original order, so OptimizeVertexFetch never drops data.
	for i, r := range remap {
		if r == -1 {
			remap[i] = int32(len(out))
			out = append(out, vertices[i])
		}
	}
	return out, newIndices
}
