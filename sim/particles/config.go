package particles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/culturewave/showcase/sim/device"
)

// Role distinguishes a dedicated full-screen display from an embedded overlay.
type Role uint8

const (
	Dedicated Role = iota
	Embedded
)

func (r Role) String() string {
	if r == Embedded {
		return "embedded"
	}
	return "dedicated"
}

// ParseRole maps "dedicated" or "embedded" to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "dedicated":
		return Dedicated, nil
	case "embedded":
		return Embedded, nil
	}
	return 0, fmt.Errorf("unknown render role %q", s)
}

// RenderContext is where and on what the simulation renders. It is always
// passed in explicitly.
type RenderContext struct {
	Tier device.Tier
	Role Role
}

// ceilings[role][tier] caps the realized particle count.
var ceilings = [2][3]int{
	Dedicated: {device.Low: 150, device.Medium: 300, device.High: 400},
	Embedded:  {device.Low: 15, device.Medium: 30, device.High: 80},
}

// Ceiling returns the particle budget for ctx.
func Ceiling(ctx RenderContext) int {
	return ceilings[ctx.Role][ctx.Tier]
}

// RealizedCount is min(requested, Ceiling(ctx)). A non-positive request
// takes the whole budget.
func RealizedCount(requested int, ctx RenderContext) int {
	ceiling := Ceiling(ctx)
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}

// tierParams holds every per-frame constant that depends on the tier.
type tierParams struct {
	cullDistSq      float32
	breathRate      float32
	influenceSq     float32
	attraction      float32
	lifecycleChance float32
	pointerDecay    float32
	inertia         bool
}

var tierTable = [3]tierParams{
	device.Low:    {cullDistSq: 81, breathRate: 0.2, influenceSq: 4, attraction: 1.5, lifecycleChance: 0.05, pointerDecay: 0.85},
	device.Medium: {cullDistSq: 121, breathRate: 0.15, influenceSq: 9, attraction: 3, lifecycleChance: 0.1, pointerDecay: 0.9, inertia: true},
	device.High:   {cullDistSq: 121, breathRate: 0.15, influenceSq: 9, attraction: 3, lifecycleChance: 0.1, pointerDecay: 0.9, inertia: true},
}

const (
	// Pointer speeds at or below this (units/s) produce no drag-along.
	inertiaThreshold = 0.05
	inertiaFraction  = 0.1
	resetJitter      = 0.05
	initJitter       = 0.05
	minLifespan      = 1
	maxLifespan      = 5
	scrollScale      = 0.001
	minBloom         = 0.5
	maxBloom         = 2.0

	// chaos noise field sampling
	noiseScale  = 1.5
	noiseRate   = 2.0
	noiseOffset = 31.7
)

// ErrInvalidColor is returned for colors that are not #rgb or #rrggbb hex.
var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses "#rgb" or "#rrggbb" (the # is optional) into [0,1] RGB.
func ParseColor(s string) (mgl32.Vec3, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 3 && len(hex) != 6 {
		return mgl32.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// Config parameterizes a Simulator.
type Config struct {
	Shape          Shape
	Color          string // hex
	Behavior       Behavior
	ParticleCount  int // requested; capped by the context budget
	ParticleSize   float32
	AnimationSpeed float32
	RotationSpeed  float32 // radians per second
	ColorVariation float32 // per-channel, [0,1]
	ShowTrails     bool
	ShapeIntensity float32
	Context        RenderContext
}

// DefaultConfig is a pink heart on a dedicated medium-tier display.
func DefaultConfig() Config {
	return Config{
		Shape:          Heart,
		Color:          "#ff6b9d",
		Behavior:       Default,
		ParticleCount:  300,
		ParticleSize:   0.05,
		AnimationSpeed: 1,
		RotationSpeed:  0.1,
		ColorVariation: 0.1,
		ShapeIntensity: 1,
		Context:        RenderContext{Tier: device.Medium, Role: Dedicated},
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Shape >= numShapes {
		return fmt.Errorf("%w: %v", ErrUnknownShape, c.Shape)
	}
	if c.Behavior >= numBehaviors {
		return fmt.Errorf("%w: %v", ErrUnknownBehavior, c.Behavior)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return err
	}
	if c.Context.Tier > device.High {
		return fmt.Errorf("invalid tier %v", c.Context.Tier)
	}
	if c.Context.Role > Embedded {
		return fmt.Errorf("invalid render role %v", c.Context.Role)
	}
	if c.ParticleSize <= 0 {
		return fmt.Errorf("ParticleSize must be > 0, got %v", c.ParticleSize)
	}
	if c.AnimationSpeed < 0 {
		return fmt.Errorf("AnimationSpeed must be >= 0, got %v", c.AnimationSpeed)
	}
	if c.ColorVariation < 0 || c.ColorVariation > 1 {
		return fmt.Errorf("ColorVariation must be in [0,1], got %v", c.ColorVariation)
	}
	if c.ShapeIntensity < 0 {
		return fmt.Errorf("ShapeIntensity must be >= 0, got %v", c.ShapeIntensity)
	}
	return nil
}

// layoutChanged reports whether moving from c to o requires a new arena.
func (c Config) layoutChanged(o Config) bool {
	return c.Shape != o.Shape ||
		c.Color != o.Color ||
		c.ColorVariation != o.ColorVariation ||
		c.Context != o.Context ||
		RealizedCount(c.ParticleCount, c.Context) != RealizedCount(o.ParticleCount, o.Context)
}
