package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPerspectiveReverseZ_NearMapsToOne(t *testing.T) {
	var proj [16]float32
	PerspectiveReverseZ(proj[:], 1.2, 16.0/9.0, 0.1)

	// A point on the near plane, transformed and perspective-divided,
	// should land at depth 1.0 (reverse-Z convention).
	// Clip-space z = proj[10]*z + proj[14]*w-ish via column-major mul;
	// for a point at view-space z = -near, clip.z/clip.w == proj[14]/near == 1.
	require.InDelta(t, 1.0, proj[14]/0.1, 1e-5)
	require.Equal(t, float32(0), proj[10])
	require.Equal(t, float32(-1), proj[11])
}

func TestMat4FromQuatAndDecomposeRoundTrip(t *testing.T) {
	var m [16]float32
	Mat4FromQuat(m[:], 1, 2, 3, 0, 0, 0, 1, 2.0)

	pos, quat, scale, lossy := DecomposeMat4(m[:])
	require.False(t, lossy)
	require.InDelta(t, 2.0, scale, 1e-4)
	require.InDelta(t, 1.0, pos[0], 1e-4)
	require.InDelta(t, 2.0, pos[1], 1e-4)
	require.InDelta(t, 3.0, pos[2], 1e-4)
	// identity rotation
	require.InDelta(t, 1.0, quat[3], 1e-4)
}

func TestDecomposeMat4DetectsNonUniformScale(t *testing.T) {
	var m [16]float32
	Identity(m[:])
	m[0] = 2
	m[5] = 4
	m[10] = 1

	_, _, scale, lossy := DecomposeMat4(m[:])
	require.True(t, lossy)
	require.InDelta(t, 4.0, scale, 1e-4)
}
