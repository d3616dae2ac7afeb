// Package testutil provides shared test infrastructure for the showcase
// engine: a manually advanced clock and tolerance assertions for the float
// and vector math used by sim/ and its subpackages.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Epoch is the default start time of a Clock.
var Epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced time source. Pass Clock.Now wherever a
// func() time.Time is expected.
type Clock struct {
	t time.Time
}

// NewClock returns a clock parked at Epoch.
func NewClock() *Clock {
	return &Clock{t: Epoch}
}

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *Clock) Set(t time.Time)         { c.t = t }

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertVec3Near fails when any component of got is more than absTol away
// from want.
func AssertVec3Near(t *testing.T, name string, want, got mgl32.Vec3, absTol float32) {
	t.Helper()
	for k := 0; k < 3; k++ {
		if d := got[k] - want[k]; d > absTol || d < -absTol {
			t.Errorf("%s[%d]: got %v, want %v (tol %v)", name, k, got, want, absTol)
			return
		}
	}
}
