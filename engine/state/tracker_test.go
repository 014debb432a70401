package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullFrameTransitionSequenceSucceeds(t *testing.T) {
	tr := NewTracker()
	tr.DeclareFinalSetup(4)

	require.NoError(t, tr.BeginCull())
	require.Equal(t, StateUnorderedAccess, tr.Current(ResourceDrawCountBuffer))

	require.NoError(t, tr.EndCull())
	require.Equal(t, StateIndirectArgument, tr.Current(ResourceDrawCountBuffer))
	require.Equal(t, StateIndirectArgument, tr.Current(ResourceIndirectBuffer))

	require.NoError(t, tr.BeginDraw())
	require.Equal(t, StateRenderTarget, tr.Current(ResourceSwapchainImage))
	require.Equal(t, StateDepthWrite, tr.Current(ResourceDepthAttachment))

	require.NoError(t, tr.BeginPyramid())
	require.Equal(t, StateShaderResource, tr.Current(ResourceDepthAttachment))

	for i := 0; i < 4; i++ {
		require.NoError(t, tr.TransitionPyramidMip(i))
		require.Equal(t, StateShaderResource, tr.Current(PyramidMip(i)))
	}

	require.NoError(t, tr.EndFramePresent())
	require.Equal(t, StatePresent, tr.Current(ResourceSwapchainImage))
}

func TestTransitionRejectsOutOfOrderCall(t *testing.T) {
	tr := NewTracker()
	tr.DeclareFinalSetup(0)

	// Skipping BeginCull and calling EndCull directly should fail: the
	// indirect buffer, which EndCull checks first, is still
	// INDIRECT_ARGUMENT, not UNORDERED_ACCESS.
	err := tr.EndCull()
	require.Error(t, err)

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, ResourceIndirectBuffer, terr.Resource)
}

func TestRequireReportsMismatch(t *testing.T) {
	tr := NewTracker()
	tr.Declare(ResourceDepthAttachment, StateDepthWrite)

	require.NoError(t, tr.Require(ResourceDepthAttachment, StateDepthWrite))

	err := tr.Require(ResourceDepthAttachment, StateShaderResource)
	require.Error(t, err)
}

func TestResetPyramidMipsReturnsToUndefined(t *testing.T) {
	tr := NewTracker()
	tr.DeclareFinalSetup(2)
	require.NoError(t, tr.BeginDraw())
	require.NoError(t, tr.BeginPyramid())
	require.NoError(t, tr.TransitionPyramidMip(0))
	require.NoError(t, tr.TransitionPyramidMip(1))

	tr.ResetPyramidMips(2)
	require.Equal(t, StateUndefined, tr.Current(PyramidMip(0)))
	require.Equal(t, StateUndefined, tr.Current(PyramidMip(1)))
}
