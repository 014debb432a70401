package pyramid

import (
	"math"

	"github.com/duskforge/forgecull/engine/cull"
)

// CPUSampler implements cull.OcclusionSampler against a CPU-readable copy of
// the pyramid's mips (spec §4.9 occlusion test, made CPU-testable the same
// way engine/cull's frustum+LOD pass is: see cull.CullObject). A production
// caller populates Mips once per frame by mapping the pyramid texture back
// from the GPU after Pyramid.Build runs; tests construct one directly from a
// synthetic depth buffer.
type CPUSampler struct {
	// Mips holds each mip level's depth samples, row-major, reverse-Z
	// encoded (near=1.0, far=0.0), matching common.PerspectiveReverseZ.
	Mips       [][]float32
	MipWidths  []uint32
	MipHeights []uint32
	Near       float32
}

// sampleNearest returns the depth stored at the covering mip's texel nearest
// the sphere's projected center, clamping to the mip's bounds.
func (s *CPUSampler) sampleNearest(mip int, u, v float32) float32 {
	if mip < 0 || mip >= len(s.Mips) || len(s.Mips[mip]) == 0 {
		return 0
	}
	w, h := s.MipWidths[mip], s.MipHeights[mip]
	x := int(u * float32(w))
	y := int(v * float32(h))
	if x < 0 {
		x = 0
	}
	if x >= int(w) {
		x = int(w) - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= int(h) {
		y = int(h) - 1
	}
	return s.Mips[mip][y*int(w)+x]
}

// IsOccluded projects the sphere to its screen-space diameter using the same
// distance-based pixel-footprint math engine/cull uses for LOD selection
// (cull.WorldUnitsPerPixel), picks the covering mip, and compares the
// stored closest-surface depth against the sphere's near-point reverse-Z
// depth: the object is occluded when the pyramid's sample is strictly
// nearer than the sphere's closest point (spec §4.9: "compare nearest-point
// depth").
func (s *CPUSampler) IsOccluded(center [3]float32, radius float32, view cull.View) bool {
	dx := center[0] - view.CameraPosition[0]
	dy := center[1] - view.CameraPosition[1]
	dz := center[2] - view.CameraPosition[2]
	distance := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
	if distance <= radius {
		return false // camera inside the sphere, never occluded
	}

	wpp := cull.WorldUnitsPerPixel(distance, view.FovYRadians, view.ScreenHeight)
	if wpp <= 0 {
		return false
	}
	diameterPixels := (2 * radius) / wpp

	mip := CoveringMip(diameterPixels, len(s.Mips))
	// Center of screen is an approximation stand-in for the sphere's actual
	// NDC projection; off-center spheres are sampled there too, since the
	// sampler takes no screen-space position.
	stored := s.sampleNearest(mip, 0.5, 0.5)

	nearPointDistance := distance - radius
	if nearPointDistance <= 0 {
		return false
	}
	objectDepth := s.Near / nearPointDistance // reverse-Z: nearer -> larger value

	return stored > objectDepth
}
