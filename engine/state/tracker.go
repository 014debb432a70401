// Package state implements the resource state tracker (spec C7): every
// GPU buffer/image has one declared logical state between any two passes,
// and the tracker asserts the transition a pass requires matches the state
// the previous pass left behind, fatally if not (spec §3 invariant: "Every
// GPU buffer resource has exactly one declared current state known to C7
// between any two passes"). WebGPU issues no explicit barrier API of its
// own — resource transitions are implicit from usage flags — so this is a
// pure bookkeeping state machine grounded on oxy-go's mutex-guarded-
// struct idiom (engine/renderer/wgpu_renderer_backend.go's resource
// lifecycle) rather than on a WGPU barrier call; see DESIGN.md for why no
// third-party dependency applies here. It validates the same ordering
// original_source/src/Renderer/BlitzenDX12/dx12Draw.cpp encodes as explicit
// D3D12 barriers, now made assertable and testable in Go.
package state

import (
	"fmt"
	"sync"
)

// State identifies a resource's declared logical usage at a pass boundary
// (spec §4.7 / GLOSSARY "Resource state / barrier").
type State int

const (
	StateUndefined State = iota
	StateCopyDest
	StateShaderResource // NON_PIXEL_SHADER_RESOURCE
	StateUnorderedAccess
	StateIndirectArgument
	StateDepthWrite
	StateRenderTarget
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateCopyDest:
		return "COPY_DEST"
	case StateShaderResource:
		return "SHADER_RESOURCE"
	case StateUnorderedAccess:
		return "UNORDERED_ACCESS"
	case StateIndirectArgument:
		return "INDIRECT_ARGUMENT"
	case StateDepthWrite:
		return "DEPTH_WRITE"
	case StateRenderTarget:
		return "RENDER_TARGET"
	case StatePresent:
		return "PRESENT"
	default:
		return "UNDEFINED"
	}
}

// ResourceID names a tracked buffer or image. Per-mip depth-pyramid
// subresources get distinct IDs (e.g. "pyramid.mip3") so each mip's state
// is tracked independently (spec §4.7: "subresource mip tracking for the
// depth pyramid").
type ResourceID string

// TransitionError reports a pass requiring a state the tracker's last
// recorded transition doesn't match — a debug-build assert failure per
// spec §7 ("Asserts fail-fast in debug builds with file/line/expression/
// message"), modeled here as a returned error so callers choose whether to
// panic or propagate.
type TransitionError struct {
	Resource ResourceID
	Have     State
	Want     State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("resource %s: declared state %s does not satisfy required state %s", e.Resource, e.Have, e.Want)
}

// Tracker is the resource state tracker. forge owns a single Tracker
// across all frame slots; DeclareFinalSetup records, once, the starting
// states final_setup establishes (spec §4.11: "final_setup emits the
// initial state transitions so runtime passes see buffers in their
// expected starting states").
type Tracker struct {
	mu     sync.Mutex
	states map[ResourceID]State
}

// NewTracker constructs an empty Tracker; every resource starts
// StateUndefined until Declare or Transition records its first state.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[ResourceID]State)}
}

// Declare sets a resource's initial state without validating a prior one,
// used once by final_setup per resource.
func (t *Tracker) Declare(id ResourceID, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[id] = s
}

// Current returns a resource's currently declared state.
func (t *Tracker) Current(id ResourceID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[id]
}

// Require asserts a resource is currently in want state before a pass reads
// or writes it, returning a *TransitionError if not. This is the check spec
// §8 names: "the state declared by the tracker for B after P equals the
// state required by Q".
func (t *Tracker) Require(id ResourceID, want State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	have := t.states[id]
	if have != want {
		return &TransitionError{Resource: id, Have: have, Want: want}
	}
	return nil
}

// Transition records that a pass moved a resource from its current state to
// next, after first asserting the current state equals from (catching a
// caller that mis-tracked an intervening pass).
func (t *Tracker) Transition(id ResourceID, from, next State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	have, ok := t.states[id]
	if ok && have != from {
		return &TransitionError{Resource: id, Have: have, Want: from}
	}
	t.states[id] = next
	return nil
}

// Well-known resource IDs shared across engine/cull, engine/pyramid, and
// engine/forge, so every caller transitions the same logical resource.
const (
	ResourceIndirectBuffer  ResourceID = "indirect"
	ResourceDrawCountBuffer ResourceID = "draw-count"
	ResourceTransformBuffer ResourceID = "transform"
	ResourceDepthAttachment ResourceID = "depth"
	ResourceSwapchainImage  ResourceID = "swapchain"
)

// PyramidMip returns the ResourceID for depth-pyramid mip level i (spec
// §4.7: "subresource mip tracking for the depth pyramid").
func PyramidMip(i int) ResourceID {
	return ResourceID(fmt.Sprintf("pyramid.mip%d", i))
}

// DeclareFinalSetup records the initial states every runtime pass expects
// (spec §4.11 final_setup): indirect/draw-count buffers ready for the cull
// pass to write, transform buffer ready for upload, swapchain image ready to
// present into. The depth attachment starts in SHADER_RESOURCE, matching the
// state BeginPyramid leaves it in at the end of every subsequent frame, so
// BeginDraw's SHADER_RESOURCE->DEPTH_WRITE transition is valid on frame one
// too, not just from frame two onward.
func (t *Tracker) DeclareFinalSetup(pyramidMipCount int) {
	t.Declare(ResourceIndirectBuffer, StateIndirectArgument)
	t.Declare(ResourceDrawCountBuffer, StateIndirectArgument)
	t.Declare(ResourceTransformBuffer, StateCopyDest)
	t.Declare(ResourceDepthAttachment, StateShaderResource)
	t.Declare(ResourceSwapchainImage, StatePresent)
	for i := 0; i < pyramidMipCount; i++ {
		t.Declare(PyramidMip(i), StateUndefined)
	}
}

// BeginCull transitions the indirect and draw-count buffers into
// UNORDERED_ACCESS for the reset+cull dispatches, and the transform buffer
// into SHADER_RESOURCE for the cull shader to read (spec §4.7, and OQ2 in
// spec §9: the draw-count buffer is always UNORDERED_ACCESS during the cull
// passes, never left implicitly in INDIRECT_ARGUMENT).
func (t *Tracker) BeginCull() error {
	if err := t.Transition(ResourceIndirectBuffer, StateIndirectArgument, StateUnorderedAccess); err != nil {
		return err
	}
	if err := t.Transition(ResourceDrawCountBuffer, StateIndirectArgument, StateUnorderedAccess); err != nil {
		return err
	}
	return t.Transition(ResourceTransformBuffer, StateCopyDest, StateShaderResource)
}

// EndCull transitions the indirect and draw-count buffers back to
// INDIRECT_ARGUMENT for the graphics pass, and the transform buffer back to
// COPY_DEST so the next frame's upload can write it (spec §4.7/§9 OQ2).
func (t *Tracker) EndCull() error {
	if err := t.Transition(ResourceIndirectBuffer, StateUnorderedAccess, StateIndirectArgument); err != nil {
		return err
	}
	if err := t.Transition(ResourceDrawCountBuffer, StateUnorderedAccess, StateIndirectArgument); err != nil {
		return err
	}
	return t.Transition(ResourceTransformBuffer, StateShaderResource, StateCopyDest)
}

// BeginDraw transitions the swapchain image to RENDER_TARGET and the depth
// attachment to DEPTH_WRITE before the graphics draw pass (spec §4.10 step 1).
func (t *Tracker) BeginDraw() error {
	if err := t.Transition(ResourceSwapchainImage, StatePresent, StateRenderTarget); err != nil {
		return err
	}
	return t.Transition(ResourceDepthAttachment, StateShaderResource, StateDepthWrite)
}

// BeginPyramid transitions the depth attachment to SHADER_RESOURCE so the
// pyramid builder's mip-0 read can sample it (spec §4.9/§4.7).
func (t *Tracker) BeginPyramid() error {
	return t.Transition(ResourceDepthAttachment, StateDepthWrite, StateShaderResource)
}

// TransitionPyramidMip records mip i finishing its write and becoming
// sampleable so mip i+1 can read it (spec §4.9: "Each mip write is followed
// by an explicit subresource barrier before it is sampled as input for the
// next").
func (t *Tracker) TransitionPyramidMip(i int) error {
	return t.Transition(PyramidMip(i), StateUndefined, StateShaderResource)
}

// EndFramePresent transitions the swapchain image back to PRESENT (spec
// §4.10 step 7 / §4.7).
func (t *Tracker) EndFramePresent() error {
	return t.Transition(ResourceSwapchainImage, StateRenderTarget, StatePresent)
}

// ResetPyramidMips re-declares every pyramid mip as StateUndefined ahead of
// the next frame's rebuild (spec §3 lifecycle: "depth pyramid is rebuilt
// each frame").
func (t *Tracker) ResetPyramidMips(mipCount int) {
	for i := 0; i < mipCount; i++ {
		t.Declare(PyramidMip(i), StateUndefined)
	}
}
