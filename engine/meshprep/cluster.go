package meshprep

import (
	"math"

	"github.com/duskforge/forgecull/engine/resources"
)

// MaxClusterTriangles and MaxClusterVertices are the meshlet caps from
// spec §3 (Cluster invariant) and §4.2 step 4.
const (
	MaxClusterTriangles = 124
	MaxClusterVertices  = 64
)

// clusterConeWeight widens each meshlet's visibility cone by that fraction of
// its remaining slack (see ComputeMeshletBounds); meshlet growth in
// BuildMeshlets does not use it (spec §4.2 step 4: "cone-weight 0.25").
const clusterConeWeight = 0.25

// GeneratedCluster is one meshlet's local index data (triangle-local vertex
// indices into its own Vertices slice) plus its bounding sphere and
// visibility cone, before ComputeMeshletBounds packs the cone into
// resources.Cluster's int8 lanes.
type GeneratedCluster struct {
	Vertices  []uint32 // indices into the surface's vertex slice, local order of first use
	Triangles []uint8  // triangle-local vertex indices, 3 per triangle
	Center    [3]float32
	Radius    float32
	ConeAxis  [3]float32
	ConeCutoff float32
}

// BuildMeshlets greedily partitions a (cache-optimized) index list into
// meshlets bounded by MaxClusterVertices/MaxClusterTriangles (spec §4.2 step
// 4). Triangles are consumed in index order; a new meshlet starts whenever
// the current one would exceed either cap. This is simpler than
// meshoptimizer's scored greedy expansion but honors the same hard caps and
// keeps triangles that share vertices together, which is what the cone-weight
// heuristic in meshoptimizer is ultimately optimizing for.
func BuildMeshlets(indices []uint32, vertices []resources.Vertex) []GeneratedCluster {
	var clusters []GeneratedCluster

	var localVerts []uint32
	localIndex := make(map[uint32]uint8)
	var localTris []uint8

	flush := func() {
		if len(localTris) == 0 {
			return
		}
		c := GeneratedCluster{
			Vertices:  append([]uint32(nil), localVerts...),
			Triangles: append([]uint8(nil), localTris...),
		}
		clusters = append(clusters, c)
		localVerts = nil
		localIndex = make(map[uint32]uint8)
		localTris = nil
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]uint32{indices[i], indices[i+1], indices[i+2]}

		newCount := 0
		for _, v := range tri {
			if _, ok := localIndex[v]; !ok {
				newCount++
			}
		}

		if len(localVerts)+newCount > MaxClusterVertices || len(localTris)/3 >= MaxClusterTriangles {
			flush()
		}

		for _, v := range tri {
			local, ok := localIndex[v]
			if !ok {
				local = uint8(len(localVerts))
				localIndex[v] = local
				localVerts = append(localVerts, v)
			}
			localTris = append(localTris, local)
		}
	}
	flush()

	for i := range clusters {
		ComputeMeshletBounds(&clusters[i], vertices)
	}
	return clusters
}

// ComputeMeshletBounds computes a cluster's bounding sphere (mean center,
// max distance, same construction as GenerateBoundingSphere) and its
// visibility cone: the average triangle normal as the cone axis, and the
// cone cutoff as the cosine of the widest angle between that axis and any
// triangle's normal, widened by clusterConeWeight so near-silhouette
// triangles aren't falsely culled (spec §4.2 step 4).
func ComputeMeshletBounds(c *GeneratedCluster, vertices []resources.Vertex) {
	verts := make([]resources.Vertex, len(c.Vertices))
	for i, gi := range c.Vertices {
		verts[i] = vertices[gi]
	}
	c.Center, c.Radius = GenerateBoundingSphere(verts)

	var axisSum [3]float32
	normals := make([][3]float32, 0, len(c.Triangles)/3)
	for i := 0; i+2 < len(c.Triangles); i += 3 {
		p0 := verts[c.Triangles[i]].Position
		p1 := verts[c.Triangles[i+1]].Position
		p2 := verts[c.Triangles[i+2]].Position
		n := normalize3(cross3(sub3(p1, p0), sub3(p2, p0)))
		normals = append(normals, n)
		axisSum[0] += n[0]
		axisSum[1] += n[1]
		axisSum[2] += n[2]
	}
	axis := normalize3(axisSum)
	c.ConeAxis = axis

	minDot := float32(1)
	for _, n := range normals {
		d := dot3(axis, n)
		if d < minDot {
			minDot = d
		}
	}
	// Widen the cone by clusterConeWeight of the remaining slack so
	// silhouette triangles near the computed bound aren't over-culled.
	cutoff := minDot - clusterConeWeight*(1-minDot)
	if cutoff < -1 {
		cutoff = -1
	}
	c.ConeCutoff = cutoff
}

// PackCluster converts a GeneratedCluster plus its data offset into the
// GPU-facing resources.Cluster record, packing the float cone axis/cutoff
// into the int8 lanes spec §3 specifies.
func PackCluster(g GeneratedCluster, dataOffset uint32) resources.Cluster {
	return resources.Cluster{
		DataOffset:    dataOffset,
		TriangleCount: uint8(len(g.Triangles) / 3),
		VertexCount:   uint8(len(g.Vertices)),
		Center:        g.Center,
		Radius:        g.Radius,
		ConeAxis: [3]int8{
			encodeCone(g.ConeAxis[0]),
			encodeCone(g.ConeAxis[1]),
			encodeCone(g.ConeAxis[2]),
		},
		ConeCutoff: encodeCone(g.ConeCutoff),
	}
}

func encodeCone(v float32) int8 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int8(math.Round(float64(v) * 127))
}
