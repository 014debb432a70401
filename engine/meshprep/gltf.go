package meshprep

import (
	"path/filepath"

	"github.com/duskforge/forgecull/common"
	"github.com/duskforge/forgecull/engine/resources"
	"github.com/duskforge/forgecull/forgeerr"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GltfMaterialSlots carries the texture handles a loaded glTF material maps
// to, resolved by the caller (engine/scene or cmd/forgecull) from whichever
// image the material references before LoadGLTF runs, since texture upload
// (C3) and mesh ingestion (C2) are independent pipelines that only meet at
// the Material table.
type GltfMaterialSlots struct {
	Albedo, Normal, Specular, Emissive resources.Handle
}

// LoadGLTF ingests a glTF 2.0 document (spec §6: "meshes, primitives with
// triangle-only topology and required indices; nodes with world transforms;
// materials with PBR metallic-roughness or spec-gloss texture slots") via
// qmuntal/gltf, the pack-attested real glTF parser (see DESIGN.md), and
// registers one Surface per primitive under one new Mesh. materialOf maps a
// glTF material index to the resources.Handle already registered for it;
// callers populate the Material table from doc.Materials before calling
// this (C3's texture tags must exist first).
func LoadGLTF(tables *resources.Tables, path string, opt Optimizer, materialOf func(materialIndex int) resources.Handle) (resources.Handle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return 0, forgeerr.New(forgeerr.KindAssetParse, "meshprep.LoadGLTF", err)
	}

	firstSurface := uint32(tables.Surfaces.Len())
	var surfaceCount uint32

	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				return 0, forgeerr.New(forgeerr.KindUnsupportedFormat, "meshprep.LoadGLTF", nil)
			}
			if prim.Indices == nil {
				return 0, forgeerr.New(forgeerr.KindUnsupportedFormat, "meshprep.LoadGLTF", nil)
			}

			vertices, err := gltfPrimitiveVertices(doc, prim)
			if err != nil {
				return 0, forgeerr.New(forgeerr.KindAssetParse, "meshprep.LoadGLTF", err)
			}

			rawIndices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return 0, forgeerr.New(forgeerr.KindAssetParse, "meshprep.LoadGLTF", err)
			}
			localIndices := make([]uint32, len(rawIndices))
			for i, idx := range rawIndices {
				localIndices[i] = uint32(idx)
			}

			var matHandle resources.Handle
			if materialOf != nil && prim.Material != nil {
				matHandle = materialOf(*prim.Material)
			}

			if _, err := GenerateSurface(tables, vertices, localIndices, matHandle, opt); err != nil {
				return 0, err
			}
			surfaceCount++
		}
	}

	name := filepath.Base(path)
	return tables.Meshes.Add(name, resources.Mesh{
		Name:         name,
		FirstSurface: firstSurface,
		SurfaceCount: surfaceCount,
	})
}

func gltfPrimitiveVertices(doc *gltf.Document, prim *gltf.Primitive) ([]resources.Vertex, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, forgeerr.New(forgeerr.KindAssetParse, "meshprep.gltfPrimitiveVertices", nil)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, err
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
	}

	var tangents [][4]float32
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
	}

	out := make([]resources.Vertex, len(positions))
	for i, p := range positions {
		v := resources.Vertex{Position: p}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		normal := [3]float32{0, 1, 0}
		if i < len(normals) {
			normal = normals[i]
		}
		tangent := [3]float32{1, 0, 0}
		handedness := float32(1)
		if i < len(tangents) {
			tangent = [3]float32{tangents[i][0], tangents[i][1], tangents[i][2]}
			handedness = tangents[i][3]
		}
		n, t := packNormalTangent(normal, tangent, handedness)
		v.Normal = n
		v.Tangent = t
		out[i] = v
	}
	return out, nil
}

// GltfNodeWorldMatrix resolves a node's world transform into the flat
// column-major []float32 form common.DecomposeMat4 expects, composing
// gltf.Node's own Matrix (if set) or its TRS fields, since qmuntal/gltf
// exposes the local transform only and leaves world-matrix composition to
// the caller (spec §4.4 "decompose into translation/rotation/scale").
// Hierarchical parent chains are walked by the caller (engine/scene), since
// spec's Non-goals exclude a full scene-graph with animated hierarchy.
func GltfNodeWorldMatrix(node *gltf.Node) [16]float32 {
	if node.Matrix != gltf.DefaultMatrix {
		return node.Matrix
	}
	var out [16]float32
	common.Identity(out[:])
	common.Mat4FromQuat(out[:],
		node.Translation[0], node.Translation[1], node.Translation[2],
		node.Rotation[0], node.Rotation[1], node.Rotation[2], node.Rotation[3],
		maxScale(node.Scale),
	)
	return out
}

func maxScale(s [3]float32) float32 {
	m := s[0]
	if s[1] > m {
		m = s[1]
	}
	if s[2] > m {
		m = s[2]
	}
	return m
}
