package cmd

import (
	"math"
	"math/rand"
	"time"

	"github.com/culturewave/showcase/sim/interaction"
)

// frameInput is the scripted input delivered before one frame.
type frameInput struct {
	Events []interaction.Event
	Scroll float64
}

// inputScript plays a press, a figure-eight drag, a release and occasional
// scroll bursts over a run of frames.
type inputScript struct {
	frames        int
	width, height float32
	rng           *rand.Rand
}

func newInputScript(frames, width, height int, rng *rand.Rand) *inputScript {
	return &inputScript{frames: frames, width: float32(width), height: float32(height), rng: rng}
}

// pressAt and releaseAt bound the drag to the middle of the run.
func (s *inputScript) pressAt() int   { return s.frames / 6 }
func (s *inputScript) releaseAt() int { return s.frames * 2 / 3 }

// At returns the input for frame i occurring at time at.
func (s *inputScript) At(i int, at time.Time) frameInput {
	var in frameInput
	switch {
	case i == s.pressAt():
		x, y := s.point(i)
		in.Events = append(in.Events, interaction.Event{Type: interaction.PointerDown, X: x, Y: y, At: at})
	case i > s.pressAt() && i < s.releaseAt():
		x, y := s.point(i)
		in.Events = append(in.Events, interaction.Event{Type: interaction.PointerMove, X: x, Y: y, At: at})
	case i == s.releaseAt():
		in.Events = append(in.Events, interaction.Event{Type: interaction.PointerUp, At: at})
	}
	if i > 0 && i%45 == 0 {
		in.Scroll = (s.rng.Float64()*2 - 1) * 400
	}
	return in
}

// point traces a figure eight around the viewport center with a little jitter.
func (s *inputScript) point(i int) (float32, float32) {
	t := 2 * math.Pi * float64(i) / 120
	cx, cy := float64(s.width)/2, float64(s.height)/2
	x := cx + 0.3*float64(s.width)*math.Sin(t) + s.rng.NormFloat64()*2
	y := cy + 0.2*float64(s.height)*math.Sin(2*t) + s.rng.NormFloat64()*2
	return float32(x), float32(y)
}
