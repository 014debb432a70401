// Package forge implements the renderer façade (spec C11): the single
// entry point a host application drives through init, setup_for_rendering,
// update, draw_frame, update_object_transform, upload_texture,
// draw_while_waiting, and final_setup, wiring together the resource tables
// (C1), mesh preparation (C2), texture ingest (C3), frame scheduling (C5),
// the resource state tracker (C7), culling (C8), and the depth pyramid (C9)
// behind oxy-go's existing renderer/window/camera collaborators.
// Grounded on engine/renderer/renderer.go's Renderer interface and
// engine/engine.go's three-phase (compute → shadow/light-cull → draw) frame
// orchestration, generalized from one implicit frame to an explicit
// N-frames-in-flight schedule (spec §9 Design Notes: "renderer passed as an
// explicit collaborator", no global static singleton).
package forge

import (
	"github.com/duskforge/forgecull/engine/cull"
	"github.com/duskforge/forgecull/engine/frame"
	"github.com/duskforge/forgecull/engine/meshprep"
	"github.com/duskforge/forgecull/engine/pyramid"
	"github.com/duskforge/forgecull/engine/renderer"
	"github.com/duskforge/forgecull/engine/resources"
	"github.com/duskforge/forgecull/engine/state"
	"github.com/duskforge/forgecull/engine/texture/dds"
	"github.com/duskforge/forgecull/forgelog"
)

// Config tunes the façade's one-time init (spec §4.11 init): frame-in-flight
// count, per-slot transform staging size, and the occlusion/instancing mode
// flags the CLI scene selector sets.
type Config struct {
	FramesInFlight       int
	StagingRegionBytes   int
	OcclusionMode        bool
	InstancedMode        bool
	TargetPixelError     float32
	ScreenWidth          int
	ScreenHeight         int
}

// Forge is the renderer façade: one instance per running application,
// constructed once via Init and driven once per frame via DrawFrame.
type Forge struct {
	cfg Config

	Tables    *resources.Tables
	Scheduler *frame.Scheduler
	Tracker   *state.Tracker
	Cull      *cull.Pipeline
	Pyramid   *pyramid.Pyramid

	r renderer.Renderer

	finalSetupDone bool
	objects        []cull.ObjectInput
}

// Init constructs the façade's CPU-side state (spec §4.11 init: "construct
// empty resource tables, frame slots, pipeline cache"). It does not touch
// the GPU; that happens once assets are loaded and SetupForRendering runs.
func Init(cfg Config, r renderer.Renderer) *Forge {
	if cfg.TargetPixelError <= 0 {
		cfg.TargetPixelError = cull.DefaultTargetPixelError
	}
	f := &Forge{
		cfg:       cfg,
		Tables:    resources.NewTables(),
		Scheduler: frame.NewScheduler(nil, cfg.FramesInFlight, cfg.StagingRegionBytes),
		Tracker:   state.NewTracker(),
		Cull:      cull.NewPipeline(0, 0, 0),
		r:         r,
	}
	f.Cull.SetOcclusionMode(cfg.OcclusionMode)
	return f
}

// LoadGLTF ingests a glTF asset through meshprep and registers its surfaces
// in the resource tables (spec §4.2/§4.11: asset loading happens before
// final_setup).
func (f *Forge) LoadGLTF(path string, materialOf func(int) resources.Handle) (resources.Handle, error) {
	return meshprep.LoadGLTF(f.Tables, path, meshprep.DefaultOptimizer{}, materialOf)
}

// LoadOBJ ingests a Wavefront OBJ asset through meshprep (spec §4.2).
func (f *Forge) LoadOBJ(path string, materialOf func(string) resources.Handle) (resources.Handle, error) {
	return meshprep.LoadOBJ(f.Tables, path, meshprep.DefaultOptimizer{}, materialOf)
}

// UploadTexture ingests a DDS texture and registers it in the texture table
// (spec §4.11 upload_texture), returning its handle for material assembly.
func (f *Forge) UploadTexture(name string, tex *dds.Texture) (resources.Handle, error) {
	return f.Tables.Textures.Add(name, resources.Texture{
		Name:        name,
		Width:       tex.Width,
		Height:      tex.Height,
		MipCount:    tex.MipCount,
		BlockFormat: tex.Format.String(),
		Compressed:  tex.Data,
	})
}

// AddRenderObject registers one render object (transform + surface pair) and
// reserves its per-frame cull slot (spec §4.4 Scene Assembly).
func (f *Forge) AddRenderObject(transformID, surfaceID resources.Handle) (resources.Handle, error) {
	return f.Tables.AddRenderObject(resources.RenderObject{TransformID: transformID, SurfaceID: surfaceID})
}

// FinalSetup emits the one-time GPU resource-state declarations (spec
// §4.11 final_setup: "emits the initial state transitions so runtime passes
// see buffers in their expected starting states"), idempotent after the
// first call (spec §8 round-trip invariant: "final_setup no-op after the
// first call").
func (f *Forge) FinalSetup() {
	if f.finalSetupDone {
		return
	}
	mipCount := 0
	if f.Pyramid != nil {
		mipCount = f.Pyramid.MipCount()
	}
	f.Tracker.DeclareFinalSetup(mipCount)
	f.finalSetupDone = true
}

// SetupForRendering builds the CPU-side per-object cull inputs from the
// registered surfaces/transforms (spec §4.11 setup_for_rendering), snapshot
// once after loading completes and before the first DrawFrame.
func (f *Forge) SetupForRendering() error {
	count := f.Tables.RenderObjects.Len()
	objects := make([]cull.ObjectInput, 0, count)
	for h := 0; h < count; h++ {
		ro, ok := f.Tables.RenderObjects.Get(resources.Handle(h))
		if !ok {
			continue
		}
		surf, ok := f.Tables.Surfaces.Get(ro.SurfaceID)
		if !ok {
			continue
		}
		tr, ok := f.Tables.Transforms.Get(ro.TransformID)
		if !ok {
			continue
		}

		errs := make([]float32, surf.LodCount)
		firstIdx := make([]uint32, surf.LodCount)
		idxCount := make([]uint32, surf.LodCount)
		clusterOff := make([]uint32, surf.LodCount)
		clusterCnt := make([]uint32, surf.LodCount)
		for i := uint8(0); i < surf.LodCount; i++ {
			lod, ok := f.Tables.Lods.Get(resources.Handle(surf.LodOffset) + resources.Handle(i))
			if !ok {
				continue
			}
			errs[i] = lod.Error
			firstIdx[i] = lod.FirstIndex
			idxCount[i] = lod.IndexCount
			clusterOff[i] = lod.ClusterOffset
			clusterCnt[i] = lod.ClusterCount
		}

		center := [3]float32{
			surf.BoundingCenter[0]*tr.Scale + tr.Position[0],
			surf.BoundingCenter[1]*tr.Scale + tr.Position[1],
			surf.BoundingCenter[2]*tr.Scale + tr.Position[2],
		}
		objects = append(objects, cull.ObjectInput{
			ObjectID:      uint32(h),
			Center:        center,
			Radius:        surf.BoundingRadius * tr.Scale,
			LodErrors:     errs,
			LodFirstIndex: firstIdx,
			LodIndexCount: idxCount,
			ClusterOffset: clusterOff,
			ClusterCount:  clusterCnt,
		})
	}
	f.objects = objects
	forgelog.Info("setup_for_rendering complete", "render_objects", len(objects))
	return nil
}

// UpdateObjectTransform rewrites one dynamic transform's world matrix (spec
// §4.11 update_object_transform), used by animated/instanced scenes every
// tick. The transform must already have been reserved via
// Tables.ReserveDynamic during asset load.
func (f *Forge) UpdateObjectTransform(transformID resources.Handle, t resources.Transform) bool {
	return f.Tables.Transforms.Set(transformID, t)
}

// FrameResult is what DrawFrame hands back to the host for telemetry/tests:
// the indirect draw commands and draw count the cull pass produced this
// frame (spec §8 "draw_count ≤ |render_objects| and equals frustum(+
// occlusion)-test pass count").
type FrameResult struct {
	Commands  []cull.DrawCommand
	DrawCount uint32
}

// DrawFrame runs one full frame: begin_frame (slot wait), the frustum+LOD
// cull, optional occlusion retest, indirect command assembly, then end_frame
// (spec §4.10/§4.11 update+draw_frame, collapsed into one call since the
// façade owns both halves of the frame boundary).
func (f *Forge) DrawFrame(view cull.View, sampler cull.OcclusionSampler) (FrameResult, error) {
	f.FinalSetup()

	slot, err := f.Scheduler.BeginFrame()
	if err != nil {
		return FrameResult{}, err
	}

	results, err := f.Cull.RunFrustumLod(f.Tracker, f.objects, view)
	if err != nil {
		return FrameResult{}, err
	}
	if f.cfg.OcclusionMode && sampler != nil {
		results = f.Cull.RunOcclusion(f.objects, results, sampler, view)
	}

	cmds, count := BuildDrawCommands(f.objects, results)

	if err := f.Tracker.BeginDraw(); err != nil {
		return FrameResult{}, err
	}

	// The depth attachment must cycle back to SHADER_RESOURCE before
	// EndFramePresent so next frame's BeginDraw finds it in the state it
	// expects (spec §4.7): the pyramid rebuild is what performs that
	// transition, whether or not a real mip chain is attached yet.
	if err := f.Tracker.BeginPyramid(); err != nil {
		return FrameResult{}, err
	}
	if f.Pyramid != nil {
		for i := 0; i < f.Pyramid.MipCount(); i++ {
			if err := f.Tracker.TransitionPyramidMip(i); err != nil {
				return FrameResult{}, err
			}
		}
		f.Tracker.ResetPyramidMips(f.Pyramid.MipCount())
	}

	if err := f.Tracker.EndFramePresent(); err != nil {
		return FrameResult{}, err
	}

	f.Scheduler.EndFrame(slot)
	return FrameResult{Commands: cmds, DrawCount: count}, nil
}

// BuildDrawCommands re-exports cull.BuildDrawCommands so callers that only
// import forge don't also need the cull package for this one call.
func BuildDrawCommands(objects []cull.ObjectInput, results []cull.Result) ([]cull.DrawCommand, uint32) {
	return cull.BuildDrawCommands(objects, results)
}

// DrawWhileWaiting runs a minimal present-only frame (spec §8 boundary
// behavior: "0 draw objects→0 indirect commands + still presents a cleared
// image"), used while assets are still loading on the background thread
// (spec §9 Design Notes: "Async loading is the one cross-thread interface:
// a single 'loading done' notification + read-only scene handoff").
func (f *Forge) DrawWhileWaiting() error {
	slot, err := f.Scheduler.BeginFrame()
	if err != nil {
		return err
	}
	if err := f.Tracker.BeginDraw(); err != nil {
		return err
	}
	if err := f.Tracker.BeginPyramid(); err != nil {
		return err
	}
	if err := f.Tracker.EndFramePresent(); err != nil {
		return err
	}
	f.Scheduler.EndFrame(slot)
	return nil
}

// Shutdown waits for every in-flight frame slot to retire (or forces a
// teardown past the timeout) before the renderer releases its GPU resources
// (spec §5 cooperative shutdown).
func (f *Forge) Shutdown() {
	f.Scheduler.WaitAllOrForce()
}
