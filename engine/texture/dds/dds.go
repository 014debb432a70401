// Package dds implements DDS texture ingest (spec C3): parsing the
// DDS_HEADER/DDS_PIXELFORMAT/DDS_HEADER_DXT10 binary layout, deriving a
// concrete BC1-BC7 block format, and computing per-mip compressed byte
// sizes. Header field order and the fourCC/dxgiFormat tables are grounded
// on original_source/src/Renderer/Resources/Textures/blitDDS.h (the Blitzen
// engine's own DDS reader, since DDS parsing sits below the "parsers"
// out-of-scope line in spec.md but its exact byte layout has no ambiguity
// worth guessing at). Block decompression never happens in Go; the
// compressed bytes are handed to the GPU as block-compressed texture data.
package dds

import (
	"encoding/binary"
	"io"

	"github.com/duskforge/forgecull/forgeerr"
)

const (
	magic            = 0x20534444 // "DDS "
	headerSize       = 124
	pixelFormatSize  = 32
	dxt10HeaderSize  = 20

	ddpfFourCC    = 0x4
	ddsCapsComplex = 0x8
	ddsCaps2Cubemap = 0x200
	ddsCaps2Volume  = 0x200000
)

// BlockFormat identifies a concrete BC1-BC7 compressed block format.
type BlockFormat int

const (
	BlockFormatUnknown BlockFormat = iota
	BlockFormatBC1
	BlockFormatBC2
	BlockFormatBC3
	BlockFormatBC4
	BlockFormatBC5
	BlockFormatBC6H
	BlockFormatBC7
)

// BlockSize returns the compressed byte size of one 4x4 block for the
// format, 8 bytes for BC1/BC4 and 16 for everything else.
func (f BlockFormat) BlockSize() int {
	switch f {
	case BlockFormatBC1, BlockFormatBC4:
		return 8
	default:
		return 16
	}
}

func (f BlockFormat) String() string {
	switch f {
	case BlockFormatBC1:
		return "BC1"
	case BlockFormatBC2:
		return "BC2"
	case BlockFormatBC3:
		return "BC3"
	case BlockFormatBC4:
		return "BC4"
	case BlockFormatBC5:
		return "BC5"
	case BlockFormatBC6H:
		return "BC6H"
	case BlockFormatBC7:
		return "BC7"
	default:
		return "unknown"
	}
}

// pixelFormat mirrors DDS_PIXELFORMAT (32 bytes).
type pixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// header mirrors DDS_HEADER (124 bytes, magic excluded).
type header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       pixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// dxt10Header mirrors DDS_HEADER_DXT10 (20 bytes).
type dxt10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// fourCC codes this reader recognizes (spec §4.3: "DXT1->BC1, DXT3->BC2,
// DXT5->BC3").
const (
	fourCCDXT1 = 0x31545844
	fourCCDXT3 = 0x33545844
	fourCCDXT5 = 0x35545844
	fourCCDX10 = 0x30315844
)

// DXGI_FORMAT values covering the BC1-BC7 family, used when the DXT10
// extension header is present (spec §4.3).
const (
	dxgiFormatBC1Unorm    = 71
	dxgiFormatBC1UnormSRGB = 72
	dxgiFormatBC2Unorm    = 74
	dxgiFormatBC2UnormSRGB = 75
	dxgiFormatBC3Unorm    = 77
	dxgiFormatBC3UnormSRGB = 78
	dxgiFormatBC4Unorm    = 80
	dxgiFormatBC4Snorm    = 81
	dxgiFormatBC5Unorm    = 83
	dxgiFormatBC5Snorm    = 84
	dxgiFormatBC6HUF16    = 95
	dxgiFormatBC6HSF16    = 96
	dxgiFormatBC7Unorm    = 98
	dxgiFormatBC7UnormSRGB = 99
)

// Texture is the parsed, host-side record for one DDS asset (spec §3
// Texture, host half): dimensions, mip chain, block format, and the raw
// compressed bytes for every mip concatenated in order.
type Texture struct {
	Width       uint32
	Height      uint32
	MipCount    uint32
	Format      BlockFormat
	Compressed  []byte
	MipOffsets  []uint32 // byte offset of each mip within Compressed
	MipSizes    []uint32 // byte size of each mip
}

// Parse reads a DDS file from r (spec §4.3): the 124-byte DDS_HEADER,
// optionally a 20-byte DXT10 extension, then every mip's compressed bytes.
// Cubemaps and volume textures are rejected per spec §4.3/§6.
func Parse(r io.Reader) (*Texture, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", err)
	}
	if binary.LittleEndian.Uint32(magicBuf[:]) != magic {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", nil)
	}

	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", err)
	}
	if hdr.Size != headerSize || hdr.PixelFormat.Size != pixelFormatSize {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", nil)
	}

	if hdr.Caps2&ddsCaps2Cubemap != 0 || hdr.Caps2&ddsCaps2Volume != 0 || hdr.Depth > 1 {
		return nil, forgeerr.New(forgeerr.KindUnsupportedFormat, "dds.Parse", nil)
	}

	var format BlockFormat
	if hdr.PixelFormat.Flags&ddpfFourCC != 0 {
		switch hdr.PixelFormat.FourCC {
		case fourCCDXT1:
			format = BlockFormatBC1
		case fourCCDXT3:
			format = BlockFormatBC2
		case fourCCDXT5:
			format = BlockFormatBC3
		case fourCCDX10:
			var dx10 dxt10Header
			if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
				return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", err)
			}
			if dx10.ResourceDimension == 4 /* TEXTURE3D */ || dx10.ArraySize > 1 {
				return nil, forgeerr.New(forgeerr.KindUnsupportedFormat, "dds.Parse", nil)
			}
			format = blockFormatFromDXGI(dx10.DXGIFormat)
		}
	}
	if format == BlockFormatUnknown {
		return nil, forgeerr.New(forgeerr.KindUnsupportedFormat, "dds.Parse", nil)
	}

	mipCount := hdr.MipMapCount
	if mipCount == 0 {
		mipCount = 1
	}

	sizes := MipSizes(hdr.Width, hdr.Height, mipCount, format)
	var total uint32
	offsets := make([]uint32, len(sizes))
	for i, s := range sizes {
		offsets[i] = total
		total += s
	}

	compressed := make([]byte, total)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "dds.Parse", err)
	}

	return &Texture{
		Width:      hdr.Width,
		Height:     hdr.Height,
		MipCount:   mipCount,
		Format:     format,
		Compressed: compressed,
		MipOffsets: offsets,
		MipSizes:   sizes,
	}, nil
}

func blockFormatFromDXGI(v uint32) BlockFormat {
	switch v {
	case dxgiFormatBC1Unorm, dxgiFormatBC1UnormSRGB:
		return BlockFormatBC1
	case dxgiFormatBC2Unorm, dxgiFormatBC2UnormSRGB:
		return BlockFormatBC2
	case dxgiFormatBC3Unorm, dxgiFormatBC3UnormSRGB:
		return BlockFormatBC3
	case dxgiFormatBC4Unorm, dxgiFormatBC4Snorm:
		return BlockFormatBC4
	case dxgiFormatBC5Unorm, dxgiFormatBC5Snorm:
		return BlockFormatBC5
	case dxgiFormatBC6HUF16, dxgiFormatBC6HSF16:
		return BlockFormatBC6H
	case dxgiFormatBC7Unorm, dxgiFormatBC7UnormSRGB:
		return BlockFormatBC7
	default:
		return BlockFormatUnknown
	}
}

// MipSizes computes the compressed byte size of every mip level (spec
// §4.3): ceil(w/4)*ceil(h/4)*blockSize per level, halving w,h each level
// (minimum 1), for mipCount levels.
func MipSizes(width, height, mipCount uint32, format BlockFormat) []uint32 {
	sizes := make([]uint32, mipCount)
	w, h := width, height
	blockSize := uint32(format.BlockSize())
	for i := uint32(0); i < mipCount; i++ {
		blocksWide := (w + 3) / 4
		blocksHigh := (h + 3) / 4
		sizes[i] = blocksWide * blocksHigh * blockSize
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return sizes
}
