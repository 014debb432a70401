package dds

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/duskforge/forgecull/forgeerr"
	"github.com/stretchr/testify/require"
)

func TestMipSizesHalvesDimensionsWithFloor(t *testing.T) {
	sizes := MipSizes(8, 8, 4, BlockFormatBC1)
	require.Len(t, sizes, 4)
	// 8x8 -> 2x2 blocks (8 bytes each) = 32; 4x4 -> 1x1 block = 8;
	// 2x2 -> 1x1 block (ceil) = 8; 1x1 -> 1x1 block = 8.
	require.Equal(t, []uint32{32, 8, 8, 8}, sizes)
}

func TestMipSizesBC3DoubleBlockSize(t *testing.T) {
	sizes := MipSizes(4, 4, 1, BlockFormatBC3)
	require.Equal(t, []uint32{16}, sizes)
}

func writeTestDDS(t *testing.T, width, height, mips uint32, fourCC uint32, caps2 uint32, payload []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, uint32(magic)))

	hdr := header{
		Size:        headerSize,
		Height:      height,
		Width:       width,
		MipMapCount: mips,
		Caps2:       caps2,
	}
	hdr.PixelFormat.Size = pixelFormatSize
	hdr.PixelFormat.Flags = ddpfFourCC
	hdr.PixelFormat.FourCC = fourCC
	require.NoError(t, binary.Write(buf, binary.LittleEndian, hdr))
	buf.Write(payload)
	return buf.Bytes()
}

func TestParseDXT5ProducesBC3(t *testing.T) {
	sizes := MipSizes(4, 4, 1, BlockFormatBC3)
	payload := make([]byte, sizes[0])
	data := writeTestDDS(t, 4, 4, 1, fourCCDXT5, 0, payload)

	tex, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, BlockFormatBC3, tex.Format)
	require.Equal(t, uint32(4), tex.Width)
	require.Equal(t, uint32(1), tex.MipCount)
}

func TestParseRejectsCubemap(t *testing.T) {
	sizes := MipSizes(4, 4, 1, BlockFormatBC1)
	payload := make([]byte, sizes[0])
	data := writeTestDDS(t, 4, 4, 1, fourCCDXT1, ddsCaps2Cubemap, payload)

	_, err := Parse(bytes.NewReader(data))
	require.Error(t, err)
	require.True(t, forgeerr.Is(err, forgeerr.KindUnsupportedFormat))
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0, 0, 0, 0}))
	require.Error(t, err)
	require.True(t, forgeerr.Is(err, forgeerr.KindAssetParse))
}

func TestDefaultTextureIsOneByOne(t *testing.T) {
	tex := DefaultTexture()
	require.Equal(t, uint32(1), tex.Width)
	require.Equal(t, uint32(1), tex.Height)
	require.Equal(t, uint32(1), tex.MipCount)
}
