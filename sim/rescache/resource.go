package rescache

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a cached GPU resource.
type Kind uint8

const (
	Texture Kind = iota
	Model

	numKinds
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Texture:
		return "texture"
	case Model:
		return "model"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps "texture" or "model" (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "texture":
		return Texture, nil
	case "model":
		return Model, nil
	}
	return 0, fmt.Errorf("unknown resource kind %q", s)
}

// ErrDispose wraps every failure raised while releasing a resource.
var ErrDispose = errors.New("dispose failed")

// ErrAlreadyDisposed is returned by handles released twice.
var ErrAlreadyDisposed = errors.New("resource already disposed")

// Resource is an opaque GPU handle. The cache calls Dispose exactly once per
// entry it owns.
type Resource interface {
	Dispose() error
}

// CachedResource is a single cache entry.
type CachedResource struct {
	Key            string // canonical URL
	Resource       Resource
	Kind           Kind
	CreatedAt      time.Time
	LastUsedAt     time.Time
	UsageCount     uint
	SizeEstimateMB float64
}

// Size reports aggregate size per kind in MB.
type Size struct {
	Textures float64 `json:"textures"`
	Models   float64 `json:"models"`
}
