package meshprep

import (
	"math"
	"sort"

	"github.com/duskforge/forgecull/engine/resources"
)

// MaxLods is the hard cap on LODs per surface (spec §3 invariant: lod_count
// in [1, 8]).
const MaxLods = 8

// lodReductionTarget is the per-level index-count reduction target from
// spec §4.2 step 3.
const lodReductionTarget = 0.65

// lodStopThreshold is the "no useful reduction" stop condition: a
// simplification pass that keeps 95% or more of its input size is not worth
// another LOD level.
const lodStopThreshold = 0.95

// GeneratedLod is one LOD's local (not-yet-vertex-offset) index data plus
// its simplification error, produced by GenerateLods before the surface
// appends it to the global index buffer.
type GeneratedLod struct {
	Indices []uint32 // local indices, vertex_offset not yet added
	Error   float32  // accumulated world-space simplification error
}

// GenerateLods produces up to MaxLods LODs for one surface's local index
// set (spec §4.2 step 3). LOD 0 is the full, cache-optimized index set.
// Each subsequent LOD targets lodReductionTarget of the previous level's
// index count under maxError, the hard relative simplification-error bound
// the caller supplies; generation stops when a pass cannot reach
// lodStopThreshold of its input size, or reduces to zero indices, leaving
// at least one LOD in every case (spec §8 "LOD generation stop").
//
// Per-level error accumulates as a running max, not a sum — collapsing a
// short edge late in the chain doesn't undo the distortion introduced by
// an earlier collapse, it's bounded by whichever collapse was worst so
// far — then the stored error is scaled once by SimplifyScale to convert
// it from relative to absolute world-space units (grounded on
// original_source/src/Renderer/Resources/Mesh/blitzenMeshes.cpp's
// lodError = Max(lodError, nextError) / lod.error = lodError * lodScale).
func GenerateLods(baseIndices []uint32, vertices []resources.Vertex, maxError float32, opt Optimizer) []GeneratedLod {
	lods := make([]GeneratedLod, 0, MaxLods)
	lods = append(lods, GeneratedLod{Indices: append([]uint32(nil), baseIndices...), Error: 0})

	current := baseIndices
	lodError := float32(0)
	scale := SimplifyScale(vertices)

	for len(lods) < MaxLods {
		targetCount := int(float64(len(current)) * lodReductionTarget)
		targetCount -= targetCount % 3
		if targetCount < 3 {
			break
		}

		simplified, err := simplifyWithAttributes(current, vertices, targetCount, maxError)
		if len(simplified) == 0 {
			break
		}
		if float64(len(simplified)) >= lodStopThreshold*float64(len(current)) {
			break
		}

		lodError = maxf(lodError, err)
		lods = append(lods, GeneratedLod{
			Indices: simplified,
			Error:   lodError * scale,
		})
		current = simplified
	}

	sort.SliceStable(lods, func(i, j int) bool { return lods[i].Error < lods[j].Error })
	return lods
}

// simplifyWithAttributes is the stdlib stand-in for meshoptimizer's
// simplifyWithAttributes: it collapses the shortest edges first (a
// quadric-free, edge-length heuristic) until targetCount indices remain or
// maxError is exceeded, preserving the UV/normal/tangent attributes of the
// surviving vertex of each collapsed pair. See package doc for why this is
// implemented here instead of imported.
func simplifyWithAttributes(indices []uint32, vertices []resources.Vertex, targetCount int, maxError float32) ([]uint32, float32) {
	type edge struct {
		a, b   uint32
		length float32
	}

	collapseTo := make(map[uint32]uint32)
	resolve := func(v uint32) uint32 {
		for {
			next, ok := collapseTo[v]
			if !ok {
				return v
			}
			v = next
		}
	}

	tris := make([][3]uint32, len(indices)/3)
	for i := range tris {
		tris[i] = [3]uint32{indices[i*3], indices[i*3+1], indices[i*3+2]}
	}

	var totalError float32
	count := len(indices)

	for count > targetCount {
		var best *edge
		seen := make(map[[2]uint32]bool)
		for _, t := range tris {
			pairs := [3][2]uint32{{t[0], t[1]}, {t[1], t[2]}, {t[2], t[0]}}
			for _, p := range pairs {
				a, b := resolve(p[0]), resolve(p[1])
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				if seen[[2]uint32{a, b}] {
					continue
				}
				seen[[2]uint32{a, b}] = true
				d := dist3(vertices[a].Position, vertices[b].Position)
				if best == nil || d < best.length {
					best = &edge{a: a, b: b, length: d}
				}
			}
		}
		if best == nil {
			break
		}
		if totalError+best.length > maxError && totalError > 0 {
			break
		}
		totalError += best.length
		collapseTo[best.b] = best.a

		next := tris[:0]
		for _, t := range tris {
			r := [3]uint32{resolve(t[0]), resolve(t[1]), resolve(t[2])}
			if r[0] == r[1] || r[1] == r[2] || r[0] == r[2] {
				continue
			}
			next = append(next, r)
		}
		tris = next
		count = len(tris) * 3
	}

	out := make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		out = append(out, resolve(t[0]), resolve(t[1]), resolve(t[2]))
	}
	return out, totalError
}

func dist3(a, b [3]float32) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// SimplifyScale returns the scale factor meshoptimizer's simplifyScale
// would report: the geometric mean extent of the vertex positions, used to
// convert a relative simplification error into absolute world-space units
// before it is compared against the LOD pixel-error threshold.
func SimplifyScale(vertices []resources.Vertex) float32 {
	if len(vertices) == 0 {
		return 1
	}
	var minV, maxV [3]float32
	minV, maxV = vertices[0].Position, vertices[0].Position
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < minV[i] {
				minV[i] = v.Position[i]
			}
			if v.Position[i] > maxV[i] {
				maxV[i] = v.Position[i]
			}
		}
	}
	extent := [3]float32{maxV[0] - minV[0], maxV[1] - minV[1], maxV[2] - minV[2]}
	return float32(math.Cbrt(float64(extent[0] * extent[1] * extent[2])))
}
