// Package frame decides which animation frames run a simulation step.
//
// Low-tier devices run one frame in three. Other tiers run one in two,
// or every frame when the context asks for full responsiveness and the
// measured rate is at least FastFPS. The scheduler only observes: it never
// lowers the particle count on its own. Callers that want adaptive quality
// read Stats and reconfigure the simulator.
package frame

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/culturewave/showcase/sim/device"
)

const (
	// FastFPS is the measured rate at which full responsiveness stops skipping.
	FastFPS = 45.0
	// FPSWindow is the length of one FPS measurement window.
	FPSWindow = time.Second
)

// Decision is the outcome of one animation-frame tick.
type Decision struct {
	Run bool
	// DeltaTime is the seconds since the previous run, accumulated over
	// skipped frames. Zero when Run is false.
	DeltaTime float64
}

// Stats is the observable frame state.
type Stats struct {
	FPS           float64 `json:"fps"`
	FrameTimeMs   float64 `json:"frame_time_ms"`
	ParticleCount int     `json:"particle_count"`
}

// Scheduler gates simulator steps. Not safe for concurrent use.
type Scheduler struct {
	tier     device.Tier
	fullResp bool

	frame   uint64
	last    time.Time
	started bool
	pending time.Duration
	skip    int

	windowStart  time.Time
	windowFrames int

	stats Stats
}

// NewScheduler creates a scheduler for tier. fullResponsiveness lets
// non-Low tiers run every frame once the measured rate is high enough.
func NewScheduler(tier device.Tier, fullResponsiveness bool) *Scheduler {
	s := &Scheduler{tier: tier, fullResp: fullResponsiveness}
	s.skip = s.skipCount()
	return s
}

// SkipCount returns how many frames are skipped between runs right now.
func (s *Scheduler) SkipCount() int {
	return s.skip
}

func (s *Scheduler) skipCount() int {
	switch {
	case s.tier == device.Low:
		return 2
	case s.fullResp && s.stats.FPS >= FastFPS:
		return 0
	default:
		return 1
	}
}

// Tick records an animation frame at now and reports whether it runs.
func (s *Scheduler) Tick(now time.Time) Decision {
	if !s.started {
		s.started = true
		s.windowStart = now
	} else {
		dt := now.Sub(s.last)
		s.pending += dt
		s.stats.FrameTimeMs = float64(dt) / float64(time.Millisecond)
		s.measure(now)
	}
	s.last = now

	run := s.frame%uint64(s.skip+1) == 0
	s.frame++
	if !run {
		return Decision{}
	}
	d := Decision{Run: true, DeltaTime: s.pending.Seconds()}
	s.pending = 0
	return d
}

// measure counts the frame ending at now. The frame that opens a window is
// not part of it.
func (s *Scheduler) measure(now time.Time) {
	s.windowFrames++
	elapsed := now.Sub(s.windowStart)
	if elapsed < FPSWindow {
		return
	}
	s.stats.FPS = float64(s.windowFrames) / elapsed.Seconds()
	s.windowFrames = 0
	s.windowStart = now

	if skip := s.skipCount(); skip != s.skip {
		logrus.WithFields(logrus.Fields{
			"tier": s.tier,
			"fps":  s.stats.FPS,
			"skip": skip,
		}).Debug("frame skip changed")
		s.skip = skip
		s.frame = 0
	}
}

// SetParticleCount records the simulator's live particle count for Stats.
func (s *Scheduler) SetParticleCount(n int) {
	s.stats.ParticleCount = n
}

// Stats returns the latest measurements.
func (s *Scheduler) Stats() Stats {
	return s.stats
}
