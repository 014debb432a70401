package pyramid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMipCountFormula(t *testing.T) {
	require.Equal(t, 1, MipCount(1, 1))
	require.Equal(t, 4, MipCount(8, 4))  // floor(log2(8))+1 = 4
	require.Equal(t, 11, MipCount(1280, 720)) // floor(log2(1280))+1 = 11
}

func TestMipCountCapsAtMax(t *testing.T) {
	require.Equal(t, MaxMipLevels, MipCount(1<<20, 1<<20))
}

func TestMipDimensionsHalveAndFloorToOne(t *testing.T) {
	w, h := MipDimensions(1280, 720, 0)
	require.Equal(t, uint32(1280), w)
	require.Equal(t, uint32(720), h)

	w, h = MipDimensions(8, 4, 3)
	require.Equal(t, uint32(1), w)
	require.Equal(t, uint32(1), h)
}

func TestCoveringMipClampsToRange(t *testing.T) {
	require.Equal(t, 0, CoveringMip(1, 8))
	require.Equal(t, 0, CoveringMip(0.5, 8))
	require.Equal(t, 3, CoveringMip(8, 8))
	require.Equal(t, 7, CoveringMip(1<<20, 8))
}
