package rescache

import (
	"fmt"
	"time"
)

// Default cache limits. MaxModels is kept small because decoded meshes are
// far heavier than textures. The aggregate MB budgets are opt-in.
const (
	DefaultMaxTextures      = 10
	DefaultMaxModels        = 5
	DefaultCacheTTL         = 30 * time.Minute
	DefaultCleanupInterval  = 5 * time.Minute
	DefaultMaxTextureSizeMB = 0
	DefaultMaxModelSizeMB   = 0
	DefaultMinUsageCount    = 2
)

// Config groups resource cache limits.
type Config struct {
	MaxTextures      int           `yaml:"max_textures"`        // entry cap for textures (must be > 0)
	MaxModels        int           `yaml:"max_models"`          // entry cap for models (must be > 0)
	CacheTTL         time.Duration `yaml:"cache_ttl"`           // max age since CreatedAt
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`    // min spacing between MaybeSweep runs
	MaxTextureSizeMB float64       `yaml:"max_texture_size_mb"` // aggregate texture budget (0 = unlimited)
	MaxModelSizeMB   float64       `yaml:"max_model_size_mb"`   // aggregate model budget (0 = unlimited)
	MinUsageCount    uint          `yaml:"min_usage_count"`     // entries at or above this are protected from excess eviction
}

// DefaultConfig returns the stock cache limits.
func DefaultConfig() Config {
	return Config{
		MaxTextures:      DefaultMaxTextures,
		MaxModels:        DefaultMaxModels,
		CacheTTL:         DefaultCacheTTL,
		CleanupInterval:  DefaultCleanupInterval,
		MaxTextureSizeMB: DefaultMaxTextureSizeMB,
		MaxModelSizeMB:   DefaultMaxModelSizeMB,
		MinUsageCount:    DefaultMinUsageCount,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	switch {
	case c.MaxTextures <= 0:
		return fmt.Errorf("MaxTextures must be > 0, got %d", c.MaxTextures)
	case c.MaxModels <= 0:
		return fmt.Errorf("MaxModels must be > 0, got %d", c.MaxModels)
	case c.CacheTTL <= 0:
		return fmt.Errorf("CacheTTL must be > 0, got %v", c.CacheTTL)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("CleanupInterval must be > 0, got %v", c.CleanupInterval)
	case c.MaxTextureSizeMB < 0:
		return fmt.Errorf("MaxTextureSizeMB must be >= 0, got %v", c.MaxTextureSizeMB)
	case c.MaxModelSizeMB < 0:
		return fmt.Errorf("MaxModelSizeMB must be >= 0, got %v", c.MaxModelSizeMB)
	}
	return nil
}

func (c Config) maxCount(kind Kind) int {
	if kind == Model {
		return c.MaxModels
	}
	return c.MaxTextures
}

func (c Config) maxSizeMB(kind Kind) float64 {
	if kind == Model {
		return c.MaxModelSizeMB
	}
	return c.MaxTextureSizeMB
}
