// Package frame implements the frame scheduler (spec C5): N frame-in-flight
// slots, each owning a command-buffer/allocator pair for the main graphics
// work, a second pair for loader transfers, and a dedicated per-frame
// upload allocator, synchronized by a 64-bit monotonic in-flight fence and
// a copy fence. Grounded on oxy-go's BeginFrame/EndFrame/
// BeginComputeFrame/EndComputeFrame pattern in
// engine/renderer/wgpu_renderer_backend.go, generalized from one implicit
// slot to N explicit ones. WebGPU (unlike D3D12/Vulkan) has no raw fence
// handle; device.Poll(true) is the wgpu-native call that blocks until
// submitted work completes, which this package uses as the "OS event" wait
// spec §4.5 describes, paired with a monotonic counter for the "signaled
// value" half of the fence.
package frame

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/duskforge/forgecull/forgelog"
)

// MaxFramesInFlight is the compile-time cap from spec §4.5 ("N frame slots
// (compile-time 1 or 2)").
const MaxFramesInFlight = 2

// Fence is a 64-bit monotonic value plus the wait primitive for it (spec
// §4.5: "one in-flight fence (64-bit monotonic value + OS event)"). Go has
// no OS event handle to wrap, so Wait blocks on device.Poll, which is the
// actual synchronous wait wgpu-native performs.
type Fence struct {
	signaled atomic.Uint64
	device   *wgpu.Device
}

// Signal advances the fence to value, called once a submission completes.
func (f *Fence) Signal(value uint64) {
	f.signaled.Store(value)
}

// Value returns the last signaled value.
func (f *Fence) Value() uint64 {
	return f.signaled.Load()
}

// Wait blocks until the fence reaches at least value, polling the device
// (spec §5: "fence waits in begin_frame" are the only suspension points
// besides the loader-done condition and the OS message pump).
func (f *Fence) Wait(value uint64) {
	for f.signaled.Load() < value {
		if f.device != nil {
			f.device.Poll(true, nil)
		}
	}
}

// Slot is one frame-in-flight slot's full resource set (spec §4.5): a main
// graphics command encoder, a transfer encoder for loading, a dedicated
// per-frame-upload transfer encoder, an in-flight fence, and a copy fence.
type Slot struct {
	Index int

	InFlightFence *Fence
	CopyFence     *Fence

	lastSubmitted uint64

	GraphicsEncoder *wgpu.CommandEncoder
	LoadEncoder     *wgpu.CommandEncoder
	UploadEncoder   *wgpu.CommandEncoder

	// StagingRegion is this slot's private partition of the persistently-
	// mapped transform staging buffer (spec §5: "partitioned into N
	// slot-private regions, so no locking is needed").
	StagingRegion []byte
}

// Scheduler rotates through N frame slots (spec §4.5/§5).
type Scheduler struct {
	mu         sync.Mutex
	device     *wgpu.Device
	slots      []*Slot
	current    int
	frameCount uint64
}

// NewScheduler constructs a Scheduler with n slots (clamped to
// [1, MaxFramesInFlight]) and stagingRegionSize bytes of private staging
// space per slot.
func NewScheduler(device *wgpu.Device, n int, stagingRegionSize int) *Scheduler {
	if n < 1 {
		n = 1
	}
	if n > MaxFramesInFlight {
		n = MaxFramesInFlight
	}
	s := &Scheduler{device: device, slots: make([]*Slot, n)}
	for i := range s.slots {
		s.slots[i] = &Slot{
			Index:         i,
			InFlightFence: &Fence{device: device},
			CopyFence:     &Fence{device: device},
			StagingRegion: make([]byte, stagingRegionSize),
		}
	}
	return s
}

// SlotCount returns the number of frame-in-flight slots.
func (s *Scheduler) SlotCount() int {
	return len(s.slots)
}

// CurrentSlotIndex returns the index of the slot the next BeginFrame call
// will select.
func (s *Scheduler) CurrentSlotIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// BeginFrame waits on the next slot's in-flight fence (spec §4.5:
// "begin_frame waits on in_flight_fence >= last_signaled_for_this_slot,
// then resets allocator and list"), resets its encoders, and returns it.
// A frame slot is never re-entered while its in-flight fence is unsignaled
// (spec §8 invariant) because this wait is unconditional and blocking.
func (s *Scheduler) BeginFrame() (*Slot, error) {
	s.mu.Lock()
	slot := s.slots[s.current]
	s.mu.Unlock()

	slot.InFlightFence.Wait(slot.lastSubmitted)

	if s.device == nil {
		// No device to record into: the slot is returned without encoders.
		return slot, nil
	}

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	slot.GraphicsEncoder = encoder

	loadEncoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	slot.LoadEncoder = loadEncoder

	uploadEncoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	slot.UploadEncoder = uploadEncoder

	return slot, nil
}

// EndFrame signals slot's in-flight fence with the next monotonic value and
// advances the scheduler to the next slot modulo N (spec §4.5: "end_frame
// signals the in-flight fence with the next value and advances the slot
// modulo N").
func (s *Scheduler) EndFrame(slot *Slot) {
	s.mu.Lock()
	s.frameCount++
	next := s.frameCount
	s.current = (s.current + 1) % len(s.slots)
	s.mu.Unlock()

	slot.lastSubmitted = next
	slot.InFlightFence.Signal(next)
}

// ShutdownTimeout is the default wait-downgrade window from spec §5:
// "a configurable timeout (default 1s) downgrades a wait into a forced
// device teardown with a warning".
const ShutdownTimeout = time.Second

// WaitAllOrForce waits for every slot's in-flight fence to reach its last
// submitted value, downgrading to a logged warning and returning early if
// ShutdownTimeout elapses first (spec §5's cooperative-shutdown behavior).
func (s *Scheduler) WaitAllOrForce() {
	for _, slot := range s.slots {
		if slot.lastSubmitted == 0 {
			continue
		}
		done := make(chan struct{})
		go func(sl *Slot) {
			sl.InFlightFence.Wait(sl.lastSubmitted)
			close(done)
		}(slot)

		select {
		case <-done:
		case <-time.After(ShutdownTimeout):
			forgelog.Warn("fence wait exceeded shutdown timeout, forcing device teardown", "slot", slot.Index)
		}
	}
}
