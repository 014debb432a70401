// Package profiler tracks per-frame timing and memory statistics for the
// main thread's draw loop, logging a summary at a fixed interval rather than
// every frame (spec §5's draw loop runs on every OS message-pump iteration,
// far too often to log unconditionally).
package profiler

import (
	"runtime"
	"time"

	"github.com/duskforge/forgecull/forgelog"
)

// FrameProfiler accumulates frame counts and runtime.MemStats between ticks
// and emits one forgelog.Info line per update interval.
type FrameProfiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewFrameProfiler creates a FrameProfiler that logs once per second.
//
// Returns:
//   - *FrameProfiler: the newly created profiler instance
func NewFrameProfiler() *FrameProfiler {
	return &FrameProfiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick should be called once per drawn frame. It returns true on the frames
// where it actually logged a summary, so callers don't need to re-derive
// the interval themselves.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *FrameProfiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / (1 << 20)
	sysMB := float64(p.memStats.Sys) / (1 << 20)
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / (1 << 20) / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	forgelog.Info("frame profile",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc_count", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
