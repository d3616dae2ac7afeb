package cmd

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/culturewave/showcase/sim"
	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/particles"
	"github.com/culturewave/showcase/sim/rescache"
	"github.com/culturewave/showcase/sim/trace"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DeviceSection describes the host to classify.
type DeviceSection struct {
	UserAgent     string  `yaml:"user_agent"`
	Cores         int     `yaml:"cores"`
	MemoryGB      float64 `yaml:"memory_gb"`
	GPUExtensions int     `yaml:"gpu_extensions"`
	NoGPUContext  bool    `yaml:"no_gpu_context"`
}

// Host converts the section into a device.Host with a static GPU probe.
func (d DeviceSection) Host() device.Host {
	return device.Host{
		UserAgent:           d.UserAgent,
		HardwareConcurrency: d.Cores,
		DeviceMemoryGB:      d.MemoryGB,
		GPU: device.StaticProbe{
			Info:      device.GPUInfo{Renderer: "static", Extensions: d.GPUExtensions},
			NoContext: d.NoGPUContext,
		},
	}
}

// ViewportSection is the render surface in pixels.
type ViewportSection struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config represents the full defaults.yaml structure. All top-level sections
// must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version            string          `yaml:"version"`
	Seed               int64           `yaml:"seed"`
	Frames             int             `yaml:"frames"`
	FrameInterval      time.Duration   `yaml:"frame_interval"`
	FullResponsiveness bool            `yaml:"full_responsiveness"`
	Trace              string          `yaml:"trace"`
	Viewport           ViewportSection `yaml:"viewport"`
	Device             DeviceSection   `yaml:"device"`
	Cache              rescache.Config `yaml:"cache"`
	Scene              sim.SceneBundle `yaml:"scene"`
}

// decodeStrict decodes data onto cfg, rejecting unknown keys. Keys absent
// from data leave cfg unchanged.
func decodeStrict(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

// loadConfig parses the embedded defaults and overlays the file at path, if any.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if err := decodeStrict(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := decodeStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// EngineConfig converts the file config into a validated sim.EngineConfig.
func (c Config) EngineConfig() (sim.EngineConfig, error) {
	ec := sim.DefaultEngineConfig()
	ec.Seed = c.Seed
	ec.Cache = c.Cache
	ec.FullResponsiveness = c.FullResponsiveness
	ec.Viewport = sim.ViewportConfig{Width: c.Viewport.Width, Height: c.Viewport.Height}
	if c.Trace != "" {
		ec.Trace = trace.TraceConfig{Level: trace.TraceLevel(c.Trace)}
	}
	pc, err := c.Scene.Apply(particles.DefaultConfig())
	if err != nil {
		return sim.EngineConfig{}, fmt.Errorf("scene: %w", err)
	}
	ec.Particles = pc
	if c.FrameInterval <= 0 {
		return sim.EngineConfig{}, fmt.Errorf("frame_interval must be > 0, got %v", c.FrameInterval)
	}
	if err := ec.Validate(); err != nil {
		return sim.EngineConfig{}, err
	}
	return ec, nil
}
