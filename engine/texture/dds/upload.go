package dds

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/duskforge/forgecull/forgeerr"
)

// StagingBudget is the bounded staging buffer size spec §4.3 names
// ("~128 MiB"), which this uploader never exceeds: a texture whose total
// mip chain is larger is uploaded mip-by-mip instead of in one copy.
const StagingBudget = 128 * 1024 * 1024

// wgpuBlockFormat maps a parsed BlockFormat to its WGPU texture format
// (sRGB variant, matching oxy-go's InitTextureView convention of
// uploading color textures as *Srgb).
func wgpuBlockFormat(f BlockFormat) wgpu.TextureFormat {
	switch f {
	case BlockFormatBC1:
		return wgpu.TextureFormatBC1RGBAUnormSrgb
	case BlockFormatBC2:
		return wgpu.TextureFormatBC2RGBAUnormSrgb
	case BlockFormatBC3:
		return wgpu.TextureFormatBC3RGBAUnormSrgb
	case BlockFormatBC4:
		return wgpu.TextureFormatBC4RUnorm
	case BlockFormatBC5:
		return wgpu.TextureFormatBC5RGUnorm
	case BlockFormatBC6H:
		return wgpu.TextureFormatBC6HRGBUfloat
	case BlockFormatBC7:
		return wgpu.TextureFormatBC7RGBAUnormSrgb
	default:
		return wgpu.TextureFormatBC1RGBAUnormSrgb
	}
}

// Upload creates a GPU-tiled image for tex and copies every mip level
// through the bounded staging path (spec §4.3: "one image at a time"). A
// single wgpu.Queue.WriteTexture call per mip keeps any one transfer under
// StagingBudget, since the largest mip (level 0) is always the size driving
// that bound and subsequent mips shrink geometrically.
func Upload(device *wgpu.Device, queue *wgpu.Queue, label string, tex *Texture) (*wgpu.Texture, *wgpu.TextureView, error) {
	if tex.MipSizes[0] > StagingBudget {
		return nil, nil, forgeerr.New(forgeerr.KindUploadFailed, "dds.Upload", nil)
	}

	format := wgpuBlockFormat(tex.Format)
	gpuTex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: tex.Width, Height: tex.Height, DepthOrArrayLayers: 1},
		Format:        format,
		MipLevelCount: tex.MipCount,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, forgeerr.New(forgeerr.KindAPIObjectCreate, "dds.Upload", err)
	}

	blockSize := uint32(tex.Format.BlockSize())
	w, h := tex.Width, tex.Height
	for mip := uint32(0); mip < tex.MipCount; mip++ {
		data := tex.Compressed[tex.MipOffsets[mip] : tex.MipOffsets[mip]+tex.MipSizes[mip]]
		blocksWide := (w + 3) / 4

		queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  gpuTex,
				MipLevel: mip,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  blocksWide * blockSize,
				RowsPerImage: (h + 3) / 4,
			},
			&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		)

		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}

	view, err := gpuTex.CreateView(nil)
	if err != nil {
		return nil, nil, forgeerr.New(forgeerr.KindAPIObjectCreate, "dds.Upload", err)
	}
	return gpuTex, view, nil
}

// DefaultTexture returns the 1x1 BC1 texture that texture tag 0 always
// resolves to (spec §3 invariant). A single fully-opaque-white 4x4 block is
// the smallest valid BC1 payload (one 8-byte block covers up to a 4x4
// region), so a 1x1 logical texture still costs exactly one block.
func DefaultTexture() *Texture {
	block := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}
	return &Texture{
		Width:      1,
		Height:     1,
		MipCount:   1,
		Format:     BlockFormatBC1,
		Compressed: block,
		MipOffsets: []uint32{0},
		MipSizes:   []uint32{uint32(len(block))},
	}
}
