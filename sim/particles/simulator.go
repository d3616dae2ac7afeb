// Package particles is the adaptive particle simulation. A Simulator owns a
// flat arena of particles that is mutated in place every scheduled frame.
//
// The arena is deliberately shared mutable state: Particles returns the live
// slice, indexed by particle id, and callers must not retain it across a
// Reconfigure. Everything runs on the frame goroutine.
package particles

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
	"github.com/sirupsen/logrus"

	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/interaction"
)

// Particle is one arena slot. Velocity is per-frame scratch.
type Particle struct {
	BasePosition mgl32.Vec3
	Position     mgl32.Vec3
	Velocity     mgl32.Vec3
	Angle        float32
	Age          float32
	Lifespan     float32
	Color        mgl32.Vec3
	SizeFactor   float32
}

// FrameInput is what a scheduled frame feeds the simulator.
type FrameInput struct {
	DeltaTime float32 // seconds since the previous scheduled frame
	Elapsed   float32 // seconds since start
	Camera    interaction.Camera
	Pointer   interaction.Pointer
}

// StepStats reports what a Step did.
type StepStats struct {
	Culled int
	Resets int
}

// Instance is one particle packed for rendering, with group rotation applied.
type Instance struct {
	Position mgl32.Vec3
	Tail     mgl32.Vec3 // previous position; equals Position without trails
	Color    mgl32.Vec3
	Size     float32
}

// Simulator advances the particle arena.
type Simulator struct {
	cfg       Config
	params    tierParams
	baseColor mgl32.Vec3
	rng       *rand.Rand
	noise     opensimplex.Noise

	particles []Particle
	trail     []mgl32.Vec3 // previous positions, allocated only with ShowTrails

	bloom    float32
	rotation float32
}

// NewSimulator allocates the arena for cfg. Panics if cfg is invalid or rng
// is nil.
func NewSimulator(cfg Config, rng *rand.Rand) *Simulator {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	if rng == nil {
		panic("NewSimulator: rng must not be nil")
	}
	s := &Simulator{rng: rng, noise: opensimplex.New(rng.Int63()), bloom: 1}
	s.allocate(cfg)
	return s
}

func (s *Simulator) allocate(cfg Config) {
	s.cfg = cfg
	s.params = tierTable[cfg.Context.Tier]
	s.baseColor, _ = ParseColor(cfg.Color)

	n := RealizedCount(cfg.ParticleCount, cfg.Context)
	s.particles = make([]Particle, n)
	gen := shapeTable[cfg.Shape]
	for i := range s.particles {
		p := &s.particles[i]
		p.BasePosition = gen(i, n, s.rng).Add(s.jitter(initJitter))
		p.Position = p.BasePosition
		p.Angle = float32(math.Atan2(float64(p.Position[2]), float64(p.Position[0])))
		p.Lifespan = s.lifespan()
		p.Age = s.rng.Float32() * p.Lifespan
		p.Color = s.perturbColor()
		p.SizeFactor = 0.75 + 0.5*s.rng.Float32()
	}
	s.trail = nil
	if cfg.ShowTrails {
		s.resetTrail()
	}
	logrus.WithFields(logrus.Fields{
		"shape":     cfg.Shape,
		"behavior":  cfg.Behavior,
		"requested": cfg.ParticleCount,
		"realized":  n,
		"tier":      cfg.Context.Tier,
		"role":      cfg.Context.Role,
	}).Debug("particle arena allocated")
}

func (s *Simulator) resetTrail() {
	s.trail = make([]mgl32.Vec3, len(s.particles))
	for i := range s.particles {
		s.trail[i] = s.particles[i].Position
	}
}

// Reconfigure applies cfg. The arena is reallocated only when the shape,
// color, context or realized count change; otherwise speeds, size, behavior
// and trails are updated in place. Returns whether it reallocated.
func (s *Simulator) Reconfigure(cfg Config) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	if s.cfg.layoutChanged(cfg) {
		s.allocate(cfg)
		return true, nil
	}
	trails := cfg.ShowTrails && !s.cfg.ShowTrails
	s.cfg = cfg
	switch {
	case trails:
		s.resetTrail()
	case !cfg.ShowTrails:
		s.trail = nil
	}
	return false, nil
}

// Config returns the active configuration.
func (s *Simulator) Config() Config { return s.cfg }

// Count returns the realized particle count.
func (s *Simulator) Count() int { return len(s.particles) }

// Particles returns the live arena.
func (s *Simulator) Particles() []Particle { return s.particles }

// Bloom returns the breathing scale.
func (s *Simulator) Bloom() float32 { return s.bloom }

// Scroll moves the bloom scale by delta scroll units and clamps it to
// [0.5, 2]. Returns the new scale.
func (s *Simulator) Scroll(delta float64) float32 {
	if math.IsNaN(delta) {
		return s.bloom
	}
	b := float64(s.bloom) + delta*scrollScale
	s.bloom = float32(math.Max(minBloom, math.Min(maxBloom, b)))
	return s.bloom
}

// Rotation returns the group rotation about the y axis in radians.
func (s *Simulator) Rotation() float32 { return s.rotation }

// PointerDecay is the per-frame pointer velocity decay factor for the tier.
func (s *Simulator) PointerDecay() float32 { return s.params.pointerDecay }

// Step advances every particle by one scheduled frame. Per particle, in order:
// cull, breathe toward the bloomed base, pointer attraction, pointer inertia,
// lifecycle tick, then exactly one behavior. A particle reset by the lifecycle
// tick skips its behavior for that frame.
func (s *Simulator) Step(in FrameInput) StepStats {
	var st StepStats
	cull := s.cfg.Context.Role != Dedicated || s.cfg.Context.Tier == device.Low
	entry := behaviorTable[s.cfg.Behavior]
	bin := BehaviorInput{
		DeltaTime: in.DeltaTime,
		Elapsed:   in.Elapsed,
		Speed:     s.cfg.AnimationSpeed,
		Intensity: s.cfg.ShapeIntensity,
	}
	pv := in.Pointer.Velocity
	drag := s.params.inertia && pv.Len() > inertiaThreshold

	for i := range s.particles {
		p := &s.particles[i]
		if s.trail != nil {
			s.trail[i] = p.Position
		}

		if cull && in.Camera.DistanceSq(p.Position) > s.params.cullDistSq {
			st.Culled++
			continue
		}

		target := p.BasePosition.Mul(s.bloom)
		p.Position = p.Position.Add(target.Sub(p.Position).Mul(s.params.breathRate))

		p.Velocity = mgl32.Vec3{}
		if in.Pointer.Active {
			d := in.Pointer.World.Sub(p.Position)
			if d2 := d.Dot(d); d2 < s.params.influenceSq && d2 > 1e-12 {
				p.Velocity = d.Normalize().Mul(in.DeltaTime * s.params.attraction)
			}
		}
		if drag {
			p.Velocity = p.Velocity.Add(pv.Mul(inertiaFraction * in.DeltaTime))
		}
		p.Position = p.Position.Add(p.Velocity)

		if s.rng.Float32() < s.params.lifecycleChance {
			p.Age += in.DeltaTime
		}
		if p.Age >= p.Lifespan {
			s.reset(p)
			st.Resets++
			continue
		}

		bin.Index = i
		if entry.noisy {
			bin.Noise = s.noiseAt(p.Position, in.Elapsed)
		}
		*p = entry.fn(*p, bin)
	}

	s.rotation += s.cfg.RotationSpeed * in.DeltaTime
	if s.rotation > 2*math.Pi || s.rotation < -2*math.Pi {
		s.rotation = float32(math.Mod(float64(s.rotation), 2*math.Pi))
	}
	return st
}

func (s *Simulator) reset(p *Particle) {
	p.Position = p.BasePosition.Add(s.jitter(resetJitter))
	p.Velocity = mgl32.Vec3{}
	p.Age = 0
	p.Lifespan = s.lifespan()
}

// Instances appends one render instance per particle to dst[:0].
func (s *Simulator) Instances(dst []Instance) []Instance {
	dst = dst[:0]
	rot := mgl32.Rotate3DY(s.rotation)
	for i := range s.particles {
		p := &s.particles[i]
		inst := Instance{
			Position: rot.Mul3x1(p.Position),
			Color:    p.Color,
			Size:     s.cfg.ParticleSize * p.SizeFactor,
		}
		inst.Tail = inst.Position
		if s.trail != nil {
			inst.Tail = rot.Mul3x1(s.trail[i])
		}
		dst = append(dst, inst)
	}
	return dst
}

func (s *Simulator) jitter(amount float32) mgl32.Vec3 {
	return mgl32.Vec3{
		(s.rng.Float32()*2 - 1) * amount,
		(s.rng.Float32()*2 - 1) * amount,
		(s.rng.Float32()*2 - 1) * amount,
	}
}

// noiseAt samples a coherent noise vector in roughly [-1,1]^3 at position p
// and time t. The three components read decorrelated slices of one field.
func (s *Simulator) noiseAt(p mgl32.Vec3, t float32) mgl32.Vec3 {
	x := float64(p[0]) * noiseScale
	y := float64(p[1]) * noiseScale
	z := float64(p[2]) * noiseScale
	w := float64(t) * noiseRate
	return mgl32.Vec3{
		float32(s.noise.Eval4(x, y, z, w)),
		float32(s.noise.Eval4(y+noiseOffset, z, x, w)),
		float32(s.noise.Eval4(z+2*noiseOffset, x, y, w)),
	}
}

func (s *Simulator) lifespan() float32 {
	return minLifespan + s.rng.Float32()*(maxLifespan-minLifespan)
}

func (s *Simulator) perturbColor() mgl32.Vec3 {
	c := s.baseColor
	v := s.cfg.ColorVariation
	for k := 0; k < 3; k++ {
		c[k] = mgl32.Clamp(c[k]+(s.rng.Float32()*2-1)*v, 0, 1)
	}
	return c
}
