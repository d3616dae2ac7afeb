package sim

import (
	"fmt"

	"github.com/culturewave/showcase/sim/particles"
	"github.com/culturewave/showcase/sim/rescache"
	"github.com/culturewave/showcase/sim/trace"
)

// ViewportConfig is the render surface size in pixels.
type ViewportConfig struct {
	Width  int
	Height int
}

// EngineConfig groups everything NewEngine needs besides the device profile.
type EngineConfig struct {
	Seed               int64
	Cache              rescache.Config
	Particles          particles.Config // Context.Tier is taken from the profile
	Viewport           ViewportConfig
	FullResponsiveness bool
	LoaderBuffer       int
	Trace              trace.TraceConfig
}

// DefaultEngineConfig returns stock settings for an 800x600 dedicated display.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Seed:         42,
		Cache:        rescache.DefaultConfig(),
		Particles:    particles.DefaultConfig(),
		Viewport:     ViewportConfig{Width: 800, Height: 600},
		LoaderBuffer: 16,
		Trace:        trace.TraceConfig{Level: trace.TraceLevelNone},
	}
}

// Validate checks every group.
func (c EngineConfig) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Particles.Validate(); err != nil {
		return fmt.Errorf("particles: %w", err)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	return nil
}
