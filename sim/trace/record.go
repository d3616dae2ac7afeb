// Package trace provides removal-trace recording for resource cache analysis.
// This package has no dependencies on the cache itself; it stores pure data types.
package trace

import "time"

// Reason identifies why an entry left the cache.
type Reason string

const (
	ReasonExpired  Reason = "expired"  // TTL sweep
	ReasonExcess   Reason = "excess"   // count cap exceeded
	ReasonBudget   Reason = "budget"   // aggregate MB budget exceeded
	ReasonReplaced Reason = "replaced" // same key put again
	ReasonRemoved  Reason = "removed"  // explicit Remove
	ReasonCleared  Reason = "cleared"  // ClearAll
)

// RemovalRecord captures a single entry leaving the cache.
type RemovalRecord struct {
	Key        string
	Kind       string
	Reason     Reason
	UsageCount uint
	SizeMB     float64
	Age        time.Duration // At - CreatedAt
	At         time.Time
	DisposeErr string // empty when dispose succeeded
}

// OverrunRecord captures an excess sweep that could not get back under the cap
// because every remaining entry was protected.
type OverrunRecord struct {
	Kind     string
	Count    int
	MaxCount int
	SizeMB   float64
	At       time.Time
}
