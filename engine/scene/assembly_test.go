package scene

import (
	"testing"

	"github.com/duskforge/forgecull/common"
	"github.com/duskforge/forgecull/engine/resources"
	"github.com/stretchr/testify/require"
)

func identity() []float32 {
	m := make([]float32, 16)
	common.Identity(m)
	return m
}

func TestAddNodeRoutesOpaqueAndTransparent(t *testing.T) {
	tables := resources.NewTables()

	opaqueMat, err := tables.Materials.Add("opaque_mat", resources.Material{Name: "opaque_mat"})
	require.NoError(t, err)
	glassMat, err := tables.Materials.Add("glass_mat", resources.Material{Name: "glass_mat", Transparent: true})
	require.NoError(t, err)

	opaqueSurf, err := tables.Surfaces.Add("", resources.Surface{MaterialID: opaqueMat, LodCount: 1})
	require.NoError(t, err)
	glassSurf, err := tables.Surfaces.Add("", resources.Surface{MaterialID: glassMat, LodCount: 1})
	require.NoError(t, err)
	require.Equal(t, opaqueSurf+1, glassSurf)

	mesh := resources.Mesh{Name: "m", FirstSurface: uint32(opaqueSurf), SurfaceCount: 2}

	a := NewAssembler(tables)
	transformID, err := a.AddNode(mesh, identity(), false)
	require.NoError(t, err)

	tr, ok := tables.Transforms.Get(transformID)
	require.True(t, ok)
	require.InDelta(t, float32(1), tr.Scale, 1e-5)

	set := a.Set()
	require.Len(t, set.Opaque, 1)
	require.Len(t, set.Transparent, 1)
	require.Empty(t, set.Oblique)
}

func TestAddNodeDynamicReservesSlot(t *testing.T) {
	tables := resources.NewTables()
	mesh := resources.Mesh{Name: "m", FirstSurface: 0, SurfaceCount: 0}

	a := NewAssembler(tables)
	_, err := a.AddNode(mesh, identity(), true)
	require.NoError(t, err)
	require.Equal(t, 1, tables.DynamicCount())
}

func TestAddObliqueBypassesRouting(t *testing.T) {
	tables := resources.NewTables()
	matHandle, err := tables.Materials.Add("mirror", resources.Material{Name: "mirror"})
	require.NoError(t, err)
	surf, err := tables.Surfaces.Add("", resources.Surface{MaterialID: matHandle, LodCount: 1})
	require.NoError(t, err)

	a := NewAssembler(tables)
	transformID, err := tables.Transforms.Add("", resources.Transform{Scale: 1})
	require.NoError(t, err)

	_, err = a.AddOblique(transformID, surf)
	require.NoError(t, err)

	set := a.Set()
	require.Len(t, set.Oblique, 1)
	require.Empty(t, set.Opaque)
	require.Empty(t, set.Transparent)
}
