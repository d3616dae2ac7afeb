package sim

import (
	"hash/fnv"
	"math/rand"
)

// RunKey identifies a reproducible engine run. Two runs with the same key,
// configuration and input script produce identical particle arenas.
type RunKey int64

// === Subsystem Constants ===

const (
	// SubsystemParticles seeds particle layout, lifecycle and chaos noise.
	// Uses the master seed directly.
	SubsystemParticles = "particles"

	// SubsystemInput seeds scripted pointer and scroll input.
	SubsystemInput = "input"
)

// PartitionedRNG hands out one deterministic *rand.Rand per subsystem, so
// draws in one subsystem never shift the sequence of another.
//
// Derivation:
//   - SubsystemParticles: the master seed
//   - everything else: master seed XOR fnv1a64(name)
//
// Thread-safety: NOT thread-safe. Must be called from the frame goroutine.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG for key.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG for name, creating it on first use. The same
// name always returns the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemParticles {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the run key.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
