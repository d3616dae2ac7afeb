package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturewave/showcase/sim/device"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// drive ticks n frames spaced by interval and returns the decisions.
func drive(s *Scheduler, start time.Time, n int, interval time.Duration) []Decision {
	out := make([]Decision, n)
	for i := 0; i < n; i++ {
		out[i] = s.Tick(start.Add(time.Duration(i) * interval))
	}
	return out
}

func runs(ds []Decision) int {
	n := 0
	for _, d := range ds {
		if d.Run {
			n++
		}
	}
	return n
}

func TestScheduler_SkipPolicy(t *testing.T) {
	tests := []struct {
		name     string
		tier     device.Tier
		full     bool
		interval time.Duration
		wantSkip int
	}{
		{"low always skips two", device.Low, true, 10 * time.Millisecond, 2},
		{"medium default skips one", device.Medium, false, 10 * time.Millisecond, 1},
		{"high full and fast skips none", device.High, true, 10 * time.Millisecond, 0},
		{"high full but slow skips one", device.High, true, 30 * time.Millisecond, 1},
		{"medium full and fast skips none", device.Medium, true, 16 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a scheduler ticked for just over two FPS windows
			s := NewScheduler(tt.tier, tt.full)
			n := int(2*FPSWindow/tt.interval) + 2
			drive(s, t0, n, tt.interval)

			// THEN the skip count reflects tier and measured rate
			assert.Equal(t, tt.wantSkip, s.SkipCount())
		})
	}
}

func TestScheduler_LowRunsOneInThree(t *testing.T) {
	// GIVEN a Low tier scheduler
	s := NewScheduler(device.Low, false)

	// WHEN 9 frames tick at 16ms
	ds := drive(s, t0, 9, 16*time.Millisecond)

	// THEN frames 0, 3 and 6 run
	assert.Equal(t, 3, runs(ds))
	for i, d := range ds {
		assert.Equal(t, i%3 == 0, d.Run, "frame %d", i)
	}
}

func TestScheduler_DeltaTimeAccumulatesOverSkippedFrames(t *testing.T) {
	s := NewScheduler(device.Low, false)
	ds := drive(s, t0, 7, 16*time.Millisecond)

	require.True(t, ds[0].Run)
	assert.Equal(t, 0.0, ds[0].DeltaTime)
	assert.InDelta(t, 0.048, ds[3].DeltaTime, 1e-9)
	assert.InDelta(t, 0.048, ds[6].DeltaTime, 1e-9)
	assert.Equal(t, 0.0, ds[1].DeltaTime)
}

func TestScheduler_DefaultRunsEveryOtherFrame(t *testing.T) {
	s := NewScheduler(device.High, false)
	ds := drive(s, t0, 10, 16*time.Millisecond)
	assert.Equal(t, 5, runs(ds))
}

func TestScheduler_FullResponsiveness_RunsEveryFrameOnceFast(t *testing.T) {
	// GIVEN a fast High tier context asking for full responsiveness
	s := NewScheduler(device.High, true)
	warm := drive(s, t0, 100, 10*time.Millisecond)
	assert.Equal(t, 50, runs(warm))

	// WHEN the first window closes at ~100 fps and more frames tick
	next := drive(s, t0.Add(FPSWindow), 10, 10*time.Millisecond)

	// THEN every frame runs
	assert.Equal(t, 10, runs(next))
}

func TestScheduler_Stats(t *testing.T) {
	s := NewScheduler(device.Medium, false)
	s.SetParticleCount(300)
	drive(s, t0, 121, 10*time.Millisecond)

	st := s.Stats()
	assert.Equal(t, 300, st.ParticleCount)
	assert.InDelta(t, 10, st.FrameTimeMs, 1e-9)
	assert.InDelta(t, 100, st.FPS, 1e-6)
}

func TestScheduler_SteadyRateReportsExactFPS(t *testing.T) {
	// GIVEN a scheduler ticked at exactly 60 Hz for one second, both ends included
	s := NewScheduler(device.High, false)
	for i := 0; i <= 60; i++ {
		s.Tick(t0.Add(time.Duration(i) * time.Second / 60))
	}

	// THEN the first window reports 60 fps, not 61
	assert.InDelta(t, 60, s.Stats().FPS, 1e-9)
}
