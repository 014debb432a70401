// Package cull implements the GPU-driven culling compute passes (spec C8):
// draw-count reset, frustum+LOD selection, late occlusion cull against the
// depth pyramid, and LOD-instance expansion, feeding the indirect indexed
// draw. The per-object frustum+LOD test is pure CPU-testable logic (spec §8
// concrete scenarios), grounded on common/frustum.go's sphere-vs-plane
// convention and dispatched in parallel across objects with oxy-go's
// worker pool (engine/scene/scene.go's computePool.SubmitTask pattern,
// generalized from per-animator prep to per-object cull prep); the actual
// GPU dispatch writes the same indirect-arg layout
// engine/renderer/animator/gpu_types.go's GPUIndirectArgs already defines.
package cull

import (
	"math"

	"github.com/duskforge/forgecull/common"
)

// DrawCommand mirrors the indirect-draw argument layout the graphics pass
// consumes (spec §4.8 step 2: "{index_count, first_index, instance_count=1,
// vertex_offset=0, first_instance=0}"), grounded on
// engine/renderer/animator/gpu_types.go's GPUIndirectArgs.
type DrawCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// ObjectInput is one render object's cull-relevant state for a single frame:
// its world-space bounding sphere, the object's LOD error ladder (ascending,
// spec invariant), and the index range each LOD resolves to.
type ObjectInput struct {
	ObjectID       uint32
	Center         [3]float32
	Radius         float32
	LodErrors      []float32
	LodFirstIndex  []uint32
	LodIndexCount  []uint32
	ClusterOffset  []uint32
	ClusterCount   []uint32
}

// Result is one object's outcome from the frustum+LOD pass.
type Result struct {
	ObjectID  uint32
	Visible   bool
	LodIndex  int
}

// SphereInFrustum tests a world-space bounding sphere against all six
// frustum planes (spec §4.8 step 2: "test 4 side planes + near(-znear) + draw
// distance, drop if outside by more than the radius"), keeping objects whose
// center lies inside a plane but whose radius straddles it (spec's
// "center-inside-but-radius-exceeds-extent objects are kept" edge policy is
// automatically satisfied by the standard signed-distance-vs-radius test:
// it rejects only when the whole sphere is outside a single plane).
func SphereInFrustum(center [3]float32, radius float32, frustum common.Frustum) bool {
	for _, p := range frustum.Planes {
		dist := p.Normal[0]*center[0] + p.Normal[1]*center[1] + p.Normal[2]*center[2] + p.Distance
		if dist < -radius {
			return false
		}
	}
	return true
}

// WorldUnitsPerPixel returns the world-space extent one screen pixel covers
// at distance from the camera, for a vertical field of view fovYRadians and
// screenHeight pixels (spec §4.8 step 2 "compute projected radius"). Grows
// linearly with distance: the same absolute world-space LOD error subtends
// fewer screen pixels the farther an object sits from the camera, so distant
// objects can tolerate coarser (higher-error) LODs under the same pixel
// budget.
func WorldUnitsPerPixel(distance, fovYRadians, screenHeight float32) float32 {
	if screenHeight <= 0 {
		return 0
	}
	return distance * float32(math.Tan(float64(fovYRadians))) / screenHeight
}

// SelectLOD picks the coarsest (highest-index) LOD whose world-space error
// still projects under targetPixelError pixels at distance (spec §4.8 step
// 2: "pick the smallest LOD whose error×distance stays under the target
// pixel threshold (default 1px), tie-break to the coarser LOD"). lodErrors
// must be sorted ascending (spec §8 "LOD error monotonicity" invariant);
// when no LOD satisfies the bound the function falls back to index 0.
func SelectLOD(lodErrors []float32, distance, targetPixelError, fovYRadians, screenHeight float32) int {
	threshold := targetPixelError * WorldUnitsPerPixel(distance, fovYRadians, screenHeight)
	selected := 0
	for i, e := range lodErrors {
		if e <= threshold {
			selected = i
		}
	}
	return selected
}

// DefaultTargetPixelError is the default LOD screen-space error budget (spec
// §4.8 step 2: "target pixel threshold (default 1px)").
const DefaultTargetPixelError = 1.0

// View carries the frozen per-frame camera state the cull pass reads (spec
// §4.8: "fixed render-object list + frozen view"). Freezing the frustum
// independently from the projection matrix used to render lets F1 debug
// toggling hold cull planes still without distorting the final image (spec
// §9 Design Notes: "Freeze-frustum debug must not freeze the final
// projection matrix, only the cull-pass planes").
type View struct {
	Frustum          common.Frustum
	CameraPosition   [3]float32
	FovYRadians      float32
	ScreenHeight     float32
	TargetPixelError float32
}

func dist3(a, b [3]float32) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// CullObject runs the frustum test and, if the object survives, the LOD
// selection for one object (spec §4.8 step 2, CPU-testable half of the
// compute pass). The occlusion retest (spec §4.8 step 3) is layered on top
// by Pipeline.RunOcclusion, not here.
func CullObject(obj ObjectInput, view View) Result {
	res := Result{ObjectID: obj.ObjectID}
	if !SphereInFrustum(obj.Center, obj.Radius, view.Frustum) {
		return res
	}
	target := view.TargetPixelError
	if target <= 0 {
		target = DefaultTargetPixelError
	}
	d := dist3(obj.Center, view.CameraPosition)
	res.Visible = true
	res.LodIndex = SelectLOD(obj.LodErrors, d, target, view.FovYRadians, view.ScreenHeight)
	return res
}

// BuildDrawCommand turns a visible cull Result into the indirect draw
// argument the graphics pass consumes (spec §4.8 step 2's write pattern).
func BuildDrawCommand(obj ObjectInput, res Result) DrawCommand {
	lod := res.LodIndex
	return DrawCommand{
		IndexCount:    obj.LodIndexCount[lod],
		InstanceCount: 1,
		FirstIndex:    obj.LodFirstIndex[lod],
		BaseVertex:    0,
		FirstInstance: 0,
	}
}
