package meshprep

import (
	"math"

	"github.com/duskforge/forgecull/engine/resources"
)

// GenerateTangents computes a per-vertex tangent from UV gradients across
// each triangle and averages the contribution across the triangle's three
// vertices (spec §4.2 step 6), then packs the result into Vertex.Tangent
// with handedness in the w lane. indices are the surface's local indices
// (no vertex offset added); GenerateSurface calls this once per surface,
// before the surface's vertices are appended to the global vertex buffer.
func GenerateTangents(vertices []resources.Vertex, indices []uint32) {
	accum := make([][3]float32, len(vertices))
	handed := make([]float32, len(vertices))
	counts := make([]int, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		uv0, uv1, uv2 := vertices[i0].UV, vertices[i1].UV, vertices[i2].UV

		e1 := sub3(p1, p0)
		e2 := sub3(p2, p0)
		du1, dv1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
		du2, dv2 := uv2[0]-uv0[0], uv2[1]-uv0[1]

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1.0 / det
		tangent := [3]float32{
			(e1[0]*dv2 - e2[0]*dv1) * r,
			(e1[1]*dv2 - e2[1]*dv1) * r,
			(e1[2]*dv2 - e2[2]*dv1) * r,
		}
		bitangent := [3]float32{
			(e2[0]*du1 - e1[0]*du2) * r,
			(e2[1]*du1 - e1[1]*du2) * r,
			(e2[2]*du1 - e1[2]*du2) * r,
		}

		n0 := decodeNormal(vertices[i0].Normal)
		h := handednessSign(n0, tangent, bitangent)

		for _, vi := range [3]uint32{i0, i1, i2} {
			accum[vi][0] += tangent[0]
			accum[vi][1] += tangent[1]
			accum[vi][2] += tangent[2]
			handed[vi] += h
			counts[vi]++
		}
	}

	for i := range vertices {
		if counts[i] == 0 {
			continue
		}
		t := normalize3(accum[i])
		h := float32(1)
		if handed[i] < 0 {
			h = -1
		}
		n := decodeNormal(vertices[i].Normal)
		_, tangentBytes := packNormalTangent(n, t, h)
		vertices[i].Tangent = tangentBytes
	}
}

func decodeNormal(n [4]uint8) [3]float32 {
	return [3]float32{DecodeUnitVector(n[0]), DecodeUnitVector(n[1]), DecodeUnitVector(n[2])}
}

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func normalize3(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return [3]float32{1, 0, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// handednessSign follows the standard bitangent-sign convention: positive
// if (normal x tangent) points the same way as the computed bitangent.
func handednessSign(normal, tangent, bitangent [3]float32) float32 {
	if dot3(cross3(normal, tangent), bitangent) < 0 {
		return -1
	}
	return 1
}

