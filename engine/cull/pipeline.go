package cull

import (
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/duskforge/forgecull/engine/state"
)

// Pipeline runs the per-frame cull sequence across a fixed render-object
// list (spec §4.8): draw-count reset, frustum+LOD cull, optional occlusion
// retest, optional instance expansion, then the indirect-buffer barrier back
// to INDIRECT_ARGUMENT. forge owns a single Pipeline across all frame slots
// so visibility history survives across frames (spec §4.8 step 3's "persistent per-object
// visibility bit").
type Pipeline struct {
	pool worker.DynamicWorkerPool

	mu              sync.Mutex
	lastVisible     map[uint32]bool
	occlusionActive bool
}

// NewPipeline constructs a Pipeline. workers/queueDepth/idleTimeout mirror
// oxy-go's engine/scene/scene.go computePool construction
// (worker.NewDynamicWorkerPool(workers, queueDepth, idleTimeout)); pass 0
// queueDepth/idleTimeout defaults matching oxy-go's scene setup when
// the caller has no tuned values yet.
func NewPipeline(workers, queueDepth int, idleTimeout time.Duration) *Pipeline {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Second
	}
	return &Pipeline{
		pool:        worker.NewDynamicWorkerPool(workers, queueDepth, idleTimeout),
		lastVisible: make(map[uint32]bool),
	}
}

// SetOcclusionMode toggles the late occlusion retest (spec §4.8 step 3,
// scenario 6). Off by default (RenderingStressTest / single-object scenes
// never need the pyramid retest; forge turns it on from
// Config.OcclusionMode, which cmd/forgecull sets from the -occlusion flag).
func (p *Pipeline) SetOcclusionMode(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.occlusionActive = enabled
}

// runResult is one object's per-frame outcome alongside the draw command it
// produces when visible, kept paired so BuildDrawCommands can sort deterministically
// by object ID before building the indirect command stream.
type runResult struct {
	obj ObjectInput
	res Result
}

// RunFrustumLod dispatches the frustum+LOD test across objects in parallel
// (spec §4.8 step 2: "one thread per object in groups of 64"; this CPU
// stand-in parallelizes across oxy-go's worker pool instead of GPU
// workgroups, the same role engine/scene/scene.go's computePool plays for
// per-animator prep work). It does not emit draw commands for objects the
// occlusion retest still needs to reject; call Pipeline.RunOcclusion
// afterward when occlusion mode is active.
func (p *Pipeline) RunFrustumLod(tracker *state.Tracker, objects []ObjectInput, view View) ([]Result, error) {
	if tracker != nil {
		if err := tracker.BeginCull(); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(objects))
	var wg sync.WaitGroup
	for i, obj := range objects {
		wg.Add(1)
		idx, o := i, obj
		p.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				results[idx] = CullObject(o, view)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if tracker != nil {
		if err := tracker.EndCull(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// RunOcclusion applies the late occlusion retest (spec §4.8 step 3) on top
// of RunFrustumLod's survivors: an object visible this frame but occluded in
// the pyramid sample is rejected for this frame's draw list, whether or not
// it was visible last frame. The persistent visibility bit records each
// object's outcome for this frame; RunOcclusion does not read it back.
func (p *Pipeline) RunOcclusion(objects []ObjectInput, results []Result, sampler OcclusionSampler, view View) []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Result, len(results))
	copy(out, results)

	for i, r := range out {
		if !r.Visible {
			p.lastVisible[objects[i].ObjectID] = false
			continue
		}
		if p.occlusionActive && sampler != nil {
			// Occluded in the pyramid sample: rejected for this frame whether
			// or not it was visible last frame.
			if sampler.IsOccluded(objects[i].Center, objects[i].Radius, view) {
				out[i].Visible = false
			}
		}
		p.lastVisible[objects[i].ObjectID] = out[i].Visible
	}
	return out
}

// OcclusionSampler tests a world-space bounding sphere against the depth
// pyramid built from the previous frame's depth buffer (spec §4.8 step 3:
// "project sphere, compute covering mip level, sample, compare
// nearest-point depth"). engine/pyramid implements this against the real
// mip chain; tests substitute a fake.
type OcclusionSampler interface {
	IsOccluded(center [3]float32, radius float32, view View) bool
}

// BuildDrawCommands assembles the indirect-draw command stream from visible
// results, sorted by object ID for determinism, and returns the draw count
// (spec §8 "draw_count ≤ |render_objects| and equals frustum(+occlusion)-test
// pass count").
func BuildDrawCommands(objects []ObjectInput, results []Result) ([]DrawCommand, uint32) {
	pairs := make([]runResult, 0, len(results))
	for i, r := range results {
		if r.Visible {
			pairs = append(pairs, runResult{obj: objects[i], res: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].obj.ObjectID < pairs[j].obj.ObjectID })

	cmds := make([]DrawCommand, len(pairs))
	for i, pr := range pairs {
		cmds[i] = BuildDrawCommand(pr.obj, pr.res)
	}
	return cmds, uint32(len(cmds))
}
