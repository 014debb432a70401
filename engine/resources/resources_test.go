package resources

import (
	"testing"

	"github.com/duskforge/forgecull/forgeerr"
	"github.com/stretchr/testify/require"
)

func TestTablesAddAndGet(t *testing.T) {
	tabs := NewTables()

	h, err := tabs.Textures.Add("brick.dds", Texture{Name: "brick.dds", Width: 256, Height: 256})
	require.NoError(t, err)
	require.Equal(t, Handle(0), h)

	tex, ok := tabs.Textures.Get(h)
	require.True(t, ok)
	require.Equal(t, uint32(256), tex.Width)

	// Re-adding the same name returns the same handle, doesn't grow the table.
	h2, err := tabs.Textures.Add("brick.dds", Texture{Name: "brick.dds", Width: 999})
	require.NoError(t, err)
	require.Equal(t, h, h2)
	require.Equal(t, 1, tabs.Textures.Len())
}

func TestRenderObjectCapacityExhausted(t *testing.T) {
	small := newTable[RenderObject](2)
	_, err := small.Add("", RenderObject{})
	require.NoError(t, err)
	_, err = small.Add("", RenderObject{})
	require.NoError(t, err)
	_, err = small.Add("", RenderObject{})
	require.Error(t, err)
	require.True(t, forgeerr.Is(err, forgeerr.KindCapacityExhausted))
}

func TestReserveDynamicCapacity(t *testing.T) {
	tabs := NewTables()
	for i := 0; i < MaxDynamicObjects; i++ {
		_, err := tabs.ReserveDynamic()
		require.NoError(t, err)
	}
	_, err := tabs.ReserveDynamic()
	require.Error(t, err)
	require.True(t, forgeerr.Is(err, forgeerr.KindCapacityExhausted))
	require.Equal(t, MaxDynamicObjects, tabs.DynamicCount())
}

func TestMaterialSetPatchesTextureTag(t *testing.T) {
	tabs := NewTables()
	h, err := tabs.Materials.Add("rock", Material{Name: "rock"})
	require.NoError(t, err)

	mat, _ := tabs.Materials.Get(h)
	mat.AlbedoTexture = 7
	ok := tabs.Materials.Set(h, mat)
	require.True(t, ok)

	patched, _ := tabs.Materials.Get(h)
	require.Equal(t, Handle(7), patched.AlbedoTexture)
}
