package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssetStemStripsDirAndExtension(t *testing.T) {
	require.Equal(t, "bunny", assetStem("assets/stanford/bunny.obj"))
	require.Equal(t, "dragon", assetStem("dragon.obj"))
	require.Equal(t, "human", assetStem(`C:\models\human.obj`))
}

func TestIdentityMatrixIsIdentity(t *testing.T) {
	m := identityMatrix()
	require.Equal(t, float32(1), m[0])
	require.Equal(t, float32(1), m[5])
	require.Equal(t, float32(1), m[10])
	require.Equal(t, float32(1), m[15])
	require.Equal(t, float32(0), m[12])
}

func TestTranslationMatrixSetsColumn(t *testing.T) {
	m := translationMatrix(1, 2, 3)
	require.Equal(t, float32(1), m[12])
	require.Equal(t, float32(2), m[13])
	require.Equal(t, float32(3), m[14])
	require.Equal(t, float32(1), m[0])
}
