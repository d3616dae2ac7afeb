package particles

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Behavior selects the per-frame displacement applied after the shared steps.
type Behavior uint8

const (
	Default Behavior = iota
	Spiral
	Explosion
	Wave
	Orbit
	Chaos

	numBehaviors
)

// ErrUnknownBehavior is returned by ParseBehavior for names outside the closed set.
var ErrUnknownBehavior = errors.New("unknown behavior")

var behaviorNames = [numBehaviors]string{"default", "spiral", "explosion", "wave", "orbit", "chaos"}

func (b Behavior) String() string {
	if b < numBehaviors {
		return behaviorNames[b]
	}
	return fmt.Sprintf("behavior(%d)", uint8(b))
}

// ParseBehavior maps a behavior name (case-insensitive) to a Behavior. The
// empty string selects Default.
func ParseBehavior(name string) (Behavior, error) {
	if name == "" {
		return Default, nil
	}
	for i, n := range behaviorNames {
		if strings.EqualFold(n, name) {
			return Behavior(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBehavior, name)
}

// BehaviorInput carries everything a behavior may read besides the particle.
type BehaviorInput struct {
	Index     int
	DeltaTime float32
	Elapsed   float32
	Speed     float32 // animation speed
	Intensity float32 // shape intensity, scales the displacement
	Noise     mgl32.Vec3
}

// BehaviorFunc is a pure displacement: it returns the updated particle.
type BehaviorFunc func(p Particle, in BehaviorInput) Particle

type behaviorEntry struct {
	fn BehaviorFunc
	// noisy behaviors get Noise sampled from the simulator's simplex field.
	noisy bool
}

var behaviorTable = [numBehaviors]behaviorEntry{
	Default:   {fn: floatBehavior},
	Spiral:    {fn: spiralBehavior},
	Explosion: {fn: explosionBehavior},
	Wave:      {fn: waveBehavior},
	Orbit:     {fn: orbitBehavior},
	Chaos:     {fn: chaosBehavior, noisy: true},
}

// Apply runs behavior b on p.
func (b Behavior) Apply(p Particle, in BehaviorInput) Particle {
	return behaviorTable[b].fn(p, in)
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }

// floatBehavior bobs each particle gently with a per-index phase.
func floatBehavior(p Particle, in BehaviorInput) Particle {
	p.Position[1] += sin32(in.Elapsed*in.Speed+float32(in.Index)*0.1) * 0.002 * in.Intensity
	return p
}

// spiralBehavior rotates the particle about the y axis.
func spiralBehavior(p Particle, in BehaviorInput) Particle {
	a := in.Speed * in.DeltaTime * 0.5 * in.Intensity
	s, c := sin32(a), cos32(a)
	x, z := p.Position[0], p.Position[2]
	p.Position[0] = x*c - z*s
	p.Position[2] = x*s + z*c
	return p
}

// explosionBehavior pulses the particle radially in and out.
func explosionBehavior(p Particle, in BehaviorInput) Particle {
	if p.Position.Len() < 1e-6 {
		return p
	}
	push := sin32(in.Elapsed*in.Speed) * in.DeltaTime * in.Intensity
	p.Position = p.Position.Add(p.Position.Normalize().Mul(push))
	return p
}

// waveBehavior adds a sinusoidal y offset driven by elapsed time and x.
func waveBehavior(p Particle, in BehaviorInput) Particle {
	p.Position[1] += sin32(in.Elapsed*in.Speed*2+p.Position[0]) * 0.01 * in.Intensity
	return p
}

// orbitBehavior advances Angle and recomputes x,z at the current xz radius.
func orbitBehavior(p Particle, in BehaviorInput) Particle {
	x, z := float64(p.Position[0]), float64(p.Position[2])
	r := float32(math.Hypot(x, z))
	p.Angle += in.Speed * in.DeltaTime * 0.5 * in.Intensity
	p.Position[0] = r * cos32(p.Angle)
	p.Position[2] = r * sin32(p.Angle)
	return p
}

// chaosBehavior jitters the particle by the supplied noise.
func chaosBehavior(p Particle, in BehaviorInput) Particle {
	p.Position = p.Position.Add(in.Noise.Mul(0.02 * in.Intensity))
	return p
}
