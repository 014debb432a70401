// This file extends the scene package with spec C4 (Scene Assembly): turning
// a scene-graph node's world matrix and mesh reference into RenderObject
// entries in the resource tables, routed into the opaque, transparent, or
// oblique-near-plane-clipping set. Grounded on scene.go's Add method (the
// teacher's per-node registration entry point) and blitzenScene.cpp's
// AddNode/opaque-transparent partition (see DESIGN.md); generalized from the
// teacher's GameObject-centric model to the design's
// transform-table/render-object-table model (C1).
package scene

import (
	"github.com/duskforge/forgecull/common"
	"github.com/duskforge/forgecull/engine/resources"
	"github.com/duskforge/forgecull/forgelog"
)

// RenderObjectSet is the three disjoint per-frame render-object handle
// arrays spec §3/§4.4 describes: opaque, transparent, and
// oblique-near-plane-clipping (populated explicitly by the caller for
// reflective planes rather than derived from scene nodes).
type RenderObjectSet struct {
	Opaque      []resources.Handle
	Transparent []resources.Handle
	Oblique     []resources.Handle
}

// Assembler builds one frame's RenderObjectSet from scene-graph nodes (spec
// C4). One Assembler is built once at scene-load time; RenderObjects in the
// resource tables are immutable thereafter (spec §3: "render object/cull
// input is a fixed list, re-derived only by reloading the scene").
type Assembler struct {
	tables *resources.Tables
	set    RenderObjectSet
}

// NewAssembler constructs an Assembler over tables.
func NewAssembler(tables *resources.Tables) *Assembler {
	return &Assembler{tables: tables}
}

// Set returns the RenderObjectSet accumulated so far.
func (a *Assembler) Set() RenderObjectSet {
	return a.set
}

// AddNode decomposes a scene-graph node's world matrix into a MeshTransform
// (spec §4.4: "decompose into translation/rotation/scale with uniform-scale
// fallback"), registers it, then emits one RenderObject per surface owned by
// mesh, routing each into the opaque or transparent set according to its
// material's Transparent flag (spec §4.4: "a surface whose source material
// is flagged non-opaque routes to the transparent set; otherwise to the
// opaque set"). dynamic reserves the transform as an update_object_transform
// target (spec §3 invariant: the dynamic-writable partition of the transform
// array); the resource tables don't require dynamic transforms to occupy the
// low index range themselves, but ReserveDynamic's capacity check still
// fires so MaxDynamicObjects (spec §4.1) is enforced.
//
// Parameters:
//   - mesh: the Mesh record (first_surface/surface_count) this node instances
//   - worldMatrix: the node's column-major 4x4 world transform
//   - dynamic: true if this node's transform will be rewritten by
//     update_object_transform on a later frame
//
// Returns:
//   - transformID: the registered MeshTransform's handle
//   - error: a forgeerr KindCapacityExhausted error if any table is full
func (a *Assembler) AddNode(mesh resources.Mesh, worldMatrix []float32, dynamic bool) (resources.Handle, error) {
	pos, quat, scale, lossy := common.DecomposeMat4(worldMatrix)
	if lossy {
		forgelog.Warn("non-uniform scale reduced to max(sx,sy,sz)", "mesh", mesh.Name)
	}

	if dynamic {
		if _, err := a.tables.ReserveDynamic(); err != nil {
			return 0, err
		}
	}

	transformID, err := a.tables.Transforms.Add("", resources.Transform{
		Position:    pos,
		Scale:       scale,
		Orientation: quat,
	})
	if err != nil {
		return 0, err
	}

	for i := uint32(0); i < mesh.SurfaceCount; i++ {
		surfaceID := resources.Handle(mesh.FirstSurface + i)
		surf, ok := a.tables.Surfaces.Get(surfaceID)
		if !ok {
			continue
		}

		roHandle, err := a.tables.AddRenderObject(resources.RenderObject{
			TransformID: transformID,
			SurfaceID:   surfaceID,
		})
		if err != nil {
			return 0, err
		}

		mat, _ := a.tables.Materials.Get(surf.MaterialID)
		if mat.Transparent {
			a.set.Transparent = append(a.set.Transparent, roHandle)
		} else {
			a.set.Opaque = append(a.set.Opaque, roHandle)
		}
	}

	return transformID, nil
}

// AddOblique registers an explicit oblique-near-plane-clipping render object
// (spec §4.4: "an explicit caller-populated list for reflective planes"),
// bypassing the opaque/transparent material-flag routing entirely.
func (a *Assembler) AddOblique(transformID, surfaceID resources.Handle) (resources.Handle, error) {
	h, err := a.tables.AddRenderObject(resources.RenderObject{
		TransformID: transformID,
		SurfaceID:   surfaceID,
	})
	if err != nil {
		return 0, err
	}
	a.set.Oblique = append(a.set.Oblique, h)
	return h, nil
}
