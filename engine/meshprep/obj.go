package meshprep

import (
	"os"
	"path/filepath"

	"github.com/duskforge/forgecull/engine/resources"
	"github.com/duskforge/forgecull/forgeerr"
	"github.com/udhos/gwob"
)

// LoadOBJ ingests a Wavefront OBJ file (spec §6: "positions, normals, UVs,
// optional tangents via the ingest library") and registers one surface per
// material group found in the file, all under one new Mesh named after the
// file's base name. materialOf resolves an OBJ group's material name (gwob
// groups by material, not primitive) to the Handle already registered in
// tables.Materials; callers populate materials before loading geometry.
func LoadOBJ(tables *resources.Tables, path string, opt Optimizer, materialOf func(name string) resources.Handle) (resources.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, forgeerr.New(forgeerr.KindAssetParse, "meshprep.LoadOBJ", err)
	}
	defer f.Close()

	obj, err := gwob.NewObjFromReader(path, f, &gwob.ObjParserOptions{})
	if err != nil {
		return 0, forgeerr.New(forgeerr.KindAssetParse, "meshprep.LoadOBJ", err)
	}

	vertices := objVertices(obj)

	firstSurface := uint32(tables.Surfaces.Len())
	var surfaceCount uint32

	for _, g := range obj.Groups {
		localIndices := make([]uint32, 0, g.IndexCount)
		base := vertexOffsetForGroup(obj, g)
		for i := 0; i < g.IndexCount; i++ {
			localIndices = append(localIndices, uint32(obj.Indices[g.IndexBegin+i])-base)
		}
		groupVerts := vertices[base : base+vertexSpanForGroup(obj, g)]

		var matHandle resources.Handle
		if materialOf != nil {
			matHandle = materialOf(g.Name)
		}

		if _, err := GenerateSurface(tables, append([]resources.Vertex(nil), groupVerts...), localIndices, matHandle, opt); err != nil {
			return 0, err
		}
		surfaceCount++
	}

	name := filepath.Base(path)
	return tables.Meshes.Add(name, resources.Mesh{
		Name:         name,
		FirstSurface: firstSurface,
		SurfaceCount: surfaceCount,
	})
}

// objVertices converts gwob's interleaved float32 coordinate buffer into
// packed Vertex records. The normal defaults to +Y when the source OBJ omits
// normals and the tangent starts as +X; GenerateSurface's tangent pass later
// overwrites the tangent of every vertex on a triangle with non-degenerate UVs.
func objVertices(obj *gwob.Obj) []resources.Vertex {
	out := make([]resources.Vertex, obj.NumberOfElements())
	stride := obj.StrideSize / 4
	for i := range out {
		base := i * stride
		v := resources.Vertex{}
		v.Position = [3]float32{
			obj.Coord[base+obj.StrideOffsetPosition/4],
			obj.Coord[base+obj.StrideOffsetPosition/4+1],
			obj.Coord[base+obj.StrideOffsetPosition/4+2],
		}
		if obj.TextCoordFound {
			v.UV = [2]float32{
				obj.Coord[base+obj.StrideOffsetTexture/4],
				obj.Coord[base+obj.StrideOffsetTexture/4+1],
			}
		}
		normal := [3]float32{0, 1, 0}
		if obj.NormCoordFound {
			normal = [3]float32{
				obj.Coord[base+obj.StrideOffsetNormal/4],
				obj.Coord[base+obj.StrideOffsetNormal/4+1],
				obj.Coord[base+obj.StrideOffsetNormal/4+2],
			}
		}
		n, t := packNormalTangent(normal, [3]float32{1, 0, 0}, 1)
		v.Normal = n
		v.Tangent = t
		out[i] = v
	}
	return out
}

// vertexOffsetForGroup and vertexSpanForGroup assume OBJ groups partition
// the vertex buffer contiguously, which holds for meshes exported with one
// material per contiguous face range (the common case for the bunny/kitten/
// dragon/human stress-test assets named in spec §6).
func vertexOffsetForGroup(obj *gwob.Obj, g gwob.Group) uint32 {
	min := uint32(obj.NumberOfElements())
	for i := 0; i < g.IndexCount; i++ {
		if idx := uint32(obj.Indices[g.IndexBegin+i]); idx < min {
			min = idx
		}
	}
	return min
}

func vertexSpanForGroup(obj *gwob.Obj, g gwob.Group) int {
	max := 0
	base := vertexOffsetForGroup(obj, g)
	for i := 0; i < g.IndexCount; i++ {
		if idx := int(uint32(obj.Indices[g.IndexBegin+i]) - base); idx > max {
			max = idx
		}
	}
	return max + 1
}
