package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveReverseZ creates a reverse-Z perspective projection matrix for
// WebGPU's [0, 1] clip-space convention: the near plane maps to depth 1.0 and
// the far plane (at infinity) maps to depth 0.0, paired with a
// CompareFunctionGreater depth test. This is distinct from Perspective, which
// keeps oxy-go's standard-Z convention; the culling and graphics draw
// passes (engine/cull, engine/pyramid, engine/renderer) require reverse-Z for
// the depth-pyramid occlusion tests described in spec §4.9.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
func PerspectiveReverseZ(out []float32, fovY, aspect, near float32) {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	Identity(out)

	out[0] = f / aspect
	out[5] = f
	out[10] = 0.0
	out[11] = -1.0
	out[14] = near
	out[15] = 0.0
}

// Mat4FromQuat builds a column-major 4x4 matrix (teacher's flat []float32
// convention) from a translation, a quaternion orientation, and a uniform
// scale, bridging go-gl/mathgl's mgl32.Quat into the flat layout every other
// common/math.go function expects. This is the narrow boundary named in
// DESIGN.md between oxy-go's own matrix math and the quaternion-based
// MeshTransform the design requires.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - posX, posY, posZ: translation
//   - qx, qy, qz, qw: orientation quaternion
//   - scale: uniform scale factor
func Mat4FromQuat(out []float32, posX, posY, posZ, qx, qy, qz, qw, scale float32) {
	q := mgl32.Quat{W: qw, V: mgl32.Vec3{qx, qy, qz}}
	rot := q.Mat4()
	scaled := rot.Mul4(mgl32.Scale3D(scale, scale, scale))
	scaled[12] = posX
	scaled[13] = posY
	scaled[14] = posZ
	for i := 0; i < 16; i++ {
		out[i] = scaled[i]
	}
}

// DecomposeMat4 decomposes a column-major 4x4 world matrix (flat []float32)
// into a translation, a quaternion orientation, and a single uniform scale.
// Non-uniform source scale is reduced to max(sx, sy, sz); the caller is
// responsible for emitting the warning spec §3 requires when that reduction
// is lossy (engine/scene's Assembler.AddNode does).
//
// Parameters:
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - pos: translation
//   - quat: orientation as (x, y, z, w)
//   - uniformScale: max(sx, sy, sz)
//   - lossy: true if sx, sy, sz were not already equal within tolerance
func DecomposeMat4(m []float32) (pos [3]float32, quat [4]float32, uniformScale float32, lossy bool) {
	var mm mgl32.Mat4
	copy(mm[:], m[:16])

	pos = [3]float32{mm[12], mm[13], mm[14]}

	sx := mgl32.Vec3{mm[0], mm[1], mm[2]}.Len()
	sy := mgl32.Vec3{mm[4], mm[5], mm[6]}.Len()
	sz := mgl32.Vec3{mm[8], mm[9], mm[10]}.Len()

	uniformScale = sx
	if sy > uniformScale {
		uniformScale = sy
	}
	if sz > uniformScale {
		uniformScale = sz
	}

	const tol = 1e-4
	lossy = absf(sx-sy) > tol || absf(sy-sz) > tol || absf(sx-sz) > tol

	rot := mgl32.Mat4{
		mm[0] / nz(sx), mm[1] / nz(sx), mm[2] / nz(sx), 0,
		mm[4] / nz(sy), mm[5] / nz(sy), mm[6] / nz(sy), 0,
		mm[8] / nz(sz), mm[9] / nz(sz), mm[10] / nz(sz), 0,
		0, 0, 0, 1,
	}
	q := mgl32.Mat4ToQuat(rot)
	quat = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	return
}

func nz(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
