// Package pyramid implements the depth pyramid (Hi-Z) builder (spec C9): a
// mip chain built from the previous frame's depth attachment by successive
// max-reduction downsampling, read back by engine/cull's late occlusion
// pass. Grounded on oxy-go's compute-dispatch pattern
// (engine/renderer/wgpu_renderer_backend.go's DispatchCompute/
// BeginComputePass/SetBindGroup/DispatchWorkgroups) and common's reverse-Z
// convention (common/math_reversez.go's PerspectiveReverseZ): since reverse-Z
// maps "nearer" to a larger depth value, max-reduction over a mip's four
// texels yields the nearest (most conservative, most occluding) surface in
// that screen-space region, exactly what a Hi-Z occlusion test needs.
package pyramid

import (
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/duskforge/forgecull/engine/renderer/bind_group_provider"
	"github.com/duskforge/forgecull/engine/renderer/pipeline"
	"github.com/duskforge/forgecull/engine/state"
)

// MaxMipLevels caps the pyramid's mip chain (spec §4.9: "capped at 16").
const MaxMipLevels = 16

// MipCount returns the number of mip levels a width×height depth attachment
// produces: ⌊log2(max(w,h))⌋+1, capped at MaxMipLevels (spec §4.9).
func MipCount(width, height uint32) int {
	m := width
	if height > m {
		m = height
	}
	if m == 0 {
		return 1
	}
	count := int(math.Floor(math.Log2(float64(m)))) + 1
	if count > MaxMipLevels {
		count = MaxMipLevels
	}
	if count < 1 {
		count = 1
	}
	return count
}

// MipDimensions returns mip level's dimensions, halving (floored, minimum 1)
// per level from the base width/height.
func MipDimensions(width, height uint32, level int) (uint32, uint32) {
	w := width >> uint(level)
	h := height >> uint(level)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// CoveringMip picks the finest mip level whose texel footprint still
// covers an object projected to diameterPixels on screen (spec §4.9:
// "project sphere, compute covering mip level, sample"): the smallest level
// whose texel size (2^level) is at least as large as the projected
// diameter, so one sample conservatively covers the whole projected sphere.
func CoveringMip(diameterPixels float32, mipCount int) int {
	if diameterPixels <= 1 {
		return 0
	}
	level := int(math.Ceil(math.Log2(float64(diameterPixels))))
	if level < 0 {
		level = 0
	}
	if level > mipCount-1 {
		level = mipCount - 1
	}
	return level
}

// Pyramid owns the GPU mip-chain texture and per-mip views/bind groups for
// the downsample compute pass.
type Pyramid struct {
	device *wgpu.Device

	texture  *wgpu.Texture
	mipViews []*wgpu.TextureView
	width    uint32
	height   uint32
}

// New creates the pyramid texture sized to the depth attachment's
// dimensions, with a mip chain covering every level MipCount reports (spec
// §4.9: one R32Float mip chain, rebuilt every frame).
func New(device *wgpu.Device, width, height uint32) (*Pyramid, error) {
	mipCount := MipCount(width, height)
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "depth-pyramid",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(mipCount),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR32Float,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}

	views := make([]*wgpu.TextureView, mipCount)
	for i := 0; i < mipCount; i++ {
		v, vErr := tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           "depth-pyramid-mip",
			BaseMipLevel:    uint32(i),
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Dimension:       wgpu.TextureViewDimension2D,
			Format:          wgpu.TextureFormatR32Float,
		})
		if vErr != nil {
			return nil, vErr
		}
		views[i] = v
	}

	return &Pyramid{device: device, texture: tex, mipViews: views, width: width, height: height}, nil
}

// MipCount returns this pyramid's mip level count.
func (p *Pyramid) MipCount() int { return len(p.mipViews) }

// MipView returns the texture view for mip level i.
func (p *Pyramid) MipView(i int) *wgpu.TextureView { return p.mipViews[i] }

// Build dispatches one downsample compute pass per mip level, reading mip
// i-1 (or the depth attachment for mip 0) and writing mip i, transitioning
// each mip's tracked state in turn before it's sampled as the next level's
// input (spec §4.9: "Each mip write is followed by an explicit subresource
// barrier before it is sampled as input for the next").
func (p *Pyramid) Build(
	encoder *wgpu.CommandEncoder,
	downsamplePipeline pipeline.Pipeline,
	bindGroupForMip func(mip int) bind_group_provider.BindGroupProvider,
	tracker *state.Tracker,
) error {
	if err := tracker.BeginPyramid(); err != nil {
		return err
	}

	computePipeline, ok := downsamplePipeline.Pipeline().(*wgpu.ComputePipeline)
	if !ok {
		return errNotComputePipeline
	}

	for i := 0; i < len(p.mipViews); i++ {
		w, h := MipDimensions(p.width, p.height, i)
		groupsX := (w + 7) / 8
		groupsY := (h + 7) / 8

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(computePipeline)
		pass.SetBindGroup(0, bindGroupForMip(i).BindGroup(), nil)
		pass.DispatchWorkgroups(groupsX, groupsY, 1)
		pass.End()

		if err := tracker.TransitionPyramidMip(i); err != nil {
			return err
		}
	}
	return nil
}

var errNotComputePipeline = pyramidError("pyramid downsample pipeline is not a compute pipeline")

type pyramidError string

func (e pyramidError) Error() string { return string(e) }
