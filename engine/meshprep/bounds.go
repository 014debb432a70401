package meshprep

import (
	"math"

	"github.com/duskforge/forgecull/engine/resources"
)

// GenerateBoundingSphere computes a surface's bounding sphere (spec §4.2
// step 5): center is the mean of the surface's vertex positions, radius is
// the maximum distance from center to any vertex. Idempotent: calling it
// again on the same vertex set (e.g. after OptimizeVertexFetch reorders
// them) returns the same sphere, since mean/max-distance don't depend on
// order (spec §8 "compute_bounding_sphere is idempotent").
func GenerateBoundingSphere(vertices []resources.Vertex) (center [3]float32, radius float32) {
	if len(vertices) == 0 {
		return center, 0
	}

	var sum [3]float64
	for _, v := range vertices {
		sum[0] += float64(v.Position[0])
		sum[1] += float64(v.Position[1])
		sum[2] += float64(v.Position[2])
	}
	n := float64(len(vertices))
	center = [3]float32{
		float32(sum[0] / n),
		float32(sum[1] / n),
		float32(sum[2] / n),
	}

	var maxDistSq float64
	for _, v := range vertices {
		dx := float64(v.Position[0] - center[0])
		dy := float64(v.Position[1] - center[1])
		dz := float64(v.Position[2] - center[2])
		d := dx*dx + dy*dy + dz*dz
		if d > maxDistSq {
			maxDistSq = d
		}
	}
	radius = float32(math.Sqrt(maxDistSq))
	return center, radius
}
