package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/culturewave/showcase/sim/particles"
)

// SceneBundle is a particle preset loadable from YAML. Nil fields mean
// "not set" and leave the base config untouched.
type SceneBundle struct {
	Shape          *string  `yaml:"shape"`
	Behavior       *string  `yaml:"behavior"`
	Color          *string  `yaml:"color"`
	Role           *string  `yaml:"role"`
	ParticleCount  *int     `yaml:"particle_count"`
	ParticleSize   *float32 `yaml:"particle_size"`
	AnimationSpeed *float32 `yaml:"animation_speed"`
	RotationSpeed  *float32 `yaml:"rotation_speed"`
	ColorVariation *float32 `yaml:"color_variation"`
	ShapeIntensity *float32 `yaml:"shape_intensity"`
	ShowTrails     *bool    `yaml:"show_trails"`
}

// LoadSceneBundle reads a scene preset. Unknown keys are rejected.
func LoadSceneBundle(path string) (*SceneBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	var b SceneBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	return &b, nil
}

// Apply overlays the set fields onto base and validates the result.
func (b *SceneBundle) Apply(base particles.Config) (particles.Config, error) {
	cfg := base
	if b == nil {
		return cfg, cfg.Validate()
	}
	if b.Shape != nil {
		s, err := particles.ParseShape(*b.Shape)
		if err != nil {
			return base, err
		}
		cfg.Shape = s
	}
	if b.Behavior != nil {
		bh, err := particles.ParseBehavior(*b.Behavior)
		if err != nil {
			return base, err
		}
		cfg.Behavior = bh
	}
	if b.Role != nil {
		r, err := particles.ParseRole(*b.Role)
		if err != nil {
			return base, err
		}
		cfg.Context.Role = r
	}
	if b.Color != nil {
		cfg.Color = *b.Color
	}
	if b.ParticleCount != nil {
		cfg.ParticleCount = *b.ParticleCount
	}
	if b.ParticleSize != nil {
		cfg.ParticleSize = *b.ParticleSize
	}
	if b.AnimationSpeed != nil {
		cfg.AnimationSpeed = *b.AnimationSpeed
	}
	if b.RotationSpeed != nil {
		cfg.RotationSpeed = *b.RotationSpeed
	}
	if b.ColorVariation != nil {
		cfg.ColorVariation = *b.ColorVariation
	}
	if b.ShapeIntensity != nil {
		cfg.ShapeIntensity = *b.ShapeIntensity
	}
	if b.ShowTrails != nil {
		cfg.ShowTrails = *b.ShowTrails
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}
