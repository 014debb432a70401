package meshprep

import (
	"github.com/duskforge/forgecull/engine/resources"
)

// DefaultLodError is the hard absolute simplification-error bound applied
// per LOD when a caller doesn't have a scene-specific budget in mind (spec
// §4.2 step 3: "hard absolute simplification-error bound").
const DefaultLodError = 0.05

// GenerateClusters toggles meshlet generation (spec §4.2 step 4: "when
// enabled"). Off by default keeps capacity costs down for scenes that never
// exercise the occlusion-cull cluster-reject path; cmd/forgecull does not
// set it, so its scenes load without clusters.
var GenerateClusters = false

// GenerateSurface runs the full per-primitive pipeline from spec §4.2:
// dedupe vertices, optimize vertex cache/fetch, generate tangents, compute
// the bounding sphere, append to the global vertex buffer, generate LODs,
// and optionally generate clusters — then registers the resulting Surface/LodData/Cluster
// records in tables and returns the new surface's handle.
func GenerateSurface(tables *resources.Tables, vertices []resources.Vertex, localIndices []uint32, materialID resources.Handle, opt Optimizer) (resources.Handle, error) {
	if opt == nil {
		opt = DefaultOptimizer{}
	}

	remap, uniqueCount := opt.GenerateVertexRemap(vertices, localIndices)
	vertices, localIndices = applyRemap(vertices, localIndices, remap, uniqueCount)

	localIndices = opt.OptimizeVertexCache(localIndices, len(vertices))
	vertices, localIndices = opt.OptimizeVertexFetch(vertices, localIndices)

	GenerateTangents(vertices, localIndices)

	center, radius := GenerateBoundingSphere(vertices)

	vertexOffset := tables.Vertices.Append(vertices)

	generated := GenerateLods(localIndices, vertices, DefaultLodError, opt)

	lodOffset := uint32(tables.Lods.Len())
	for _, gl := range generated {
		globalIndices := make([]uint32, len(gl.Indices))
		for i, idx := range gl.Indices {
			globalIndices[i] = idx + vertexOffset
		}
		firstIndex := tables.Indices.Append(globalIndices)

		lod := resources.LodData{
			FirstIndex: firstIndex,
			IndexCount: uint32(len(globalIndices)),
			Error:      gl.Error,
		}

		if GenerateClusters {
			clusters := BuildMeshlets(gl.Indices, vertices)
			clusterOffset := uint32(tables.Clusters.Len())
			for _, gc := range clusters {
				packed := PackCluster(gc, firstIndex)
				if _, err := tables.Clusters.Add("", packed); err != nil {
					return 0, err
				}
			}
			lod.ClusterOffset = clusterOffset
			lod.ClusterCount = uint32(len(clusters))
		}

		if _, err := tables.Lods.Add("", lod); err != nil {
			return 0, err
		}
	}

	surface := resources.Surface{
		VertexOffset:   vertexOffset,
		LodOffset:      lodOffset,
		LodCount:       uint8(len(generated)),
		MaterialID:     materialID,
		BoundingCenter: center,
		BoundingRadius: radius,
	}
	return tables.Surfaces.Add("", surface)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
