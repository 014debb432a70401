package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFenceWaitReturnsOnceSignaled(t *testing.T) {
	f := &Fence{}
	done := make(chan struct{})
	go func() {
		f.Wait(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Signal")
	case <-time.After(20 * time.Millisecond):
	}

	f.Signal(1)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Signal")
	}
}

func TestSchedulerRotatesSlotsModuloN(t *testing.T) {
	s := NewScheduler(nil, 2, 64)
	require.Equal(t, 2, s.SlotCount())

	require.Equal(t, 0, s.CurrentSlotIndex())
	slot0 := s.slots[0]
	s.EndFrame(slot0)
	require.Equal(t, 1, s.CurrentSlotIndex())

	slot1 := s.slots[1]
	s.EndFrame(slot1)
	require.Equal(t, 0, s.CurrentSlotIndex())
}

func TestSchedulerClampsSlotCount(t *testing.T) {
	s := NewScheduler(nil, 99, 64)
	require.Equal(t, MaxFramesInFlight, s.SlotCount())

	s2 := NewScheduler(nil, 0, 64)
	require.Equal(t, 1, s2.SlotCount())
}

func TestWaitAllOrForceReturnsImmediatelyWhenNothingSubmitted(t *testing.T) {
	s := NewScheduler(nil, 2, 64)
	done := make(chan struct{})
	go func() {
		s.WaitAllOrForce()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAllOrForce blocked with no submitted frames")
	}
}
