// Package rescache holds decoded GPU resources (textures and models) keyed by
// canonical URL. Entries expire after a TTL and are evicted by usage once a
// per-kind cap is exceeded.
//
// Thread-safety: NOT thread-safe. All calls must come from the frame goroutine;
// asynchronous loads hand their results back through Loader.Completed.
package rescache

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/culturewave/showcase/sim/trace"
)

// Stats counts cache activity since construction.
type Stats struct {
	Puts            int `json:"puts"`
	Replacements    int `json:"replacements"`
	Hits            int `json:"hits"`
	Misses          int `json:"misses"`
	Evictions       int `json:"evictions"` // excess and budget sweeps
	Expirations     int `json:"expirations"`
	Removals        int `json:"removals"`
	DisposeErrors   int `json:"dispose_errors"`
	SoftCapOverruns int `json:"soft_cap_overruns"`
}

// ResourceCache is the bounded store of GPU resources.
type ResourceCache struct {
	cfg       Config
	entries   [numKinds]map[string]*CachedResource
	now       func() time.Time
	lastSweep time.Time
	stats     Stats
	trace     *trace.CacheTrace
}

// NewResourceCache creates an empty cache. Panics on an invalid config.
func NewResourceCache(cfg Config) *ResourceCache {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("ResourceCache: %v", err))
	}
	c := &ResourceCache{
		cfg: cfg,
		now: time.Now,
	}
	for k := range c.entries {
		c.entries[k] = make(map[string]*CachedResource)
	}
	c.lastSweep = c.now()
	return c
}

// SetClock replaces the time source. Intended for tests and replays.
func (c *ResourceCache) SetClock(now func() time.Time) {
	c.now = now
	c.lastSweep = now()
}

// SetTrace attaches a removal trace. Nil disables tracing.
func (c *ResourceCache) SetTrace(t *trace.CacheTrace) {
	c.trace = t
}

// Config returns the limits the cache was built with.
func (c *ResourceCache) Config() Config {
	return c.cfg
}

// Stats returns a snapshot of the activity counters.
func (c *ResourceCache) Stats() Stats {
	return c.stats
}

// Len returns the number of live entries of a kind.
func (c *ResourceCache) Len(kind Kind) int {
	return len(c.entries[kind])
}

// Get looks up key without touching it. This is a pure method.
func (c *ResourceCache) Get(key string) (*CachedResource, bool) {
	for k := range c.entries {
		if e, ok := c.entries[k][key]; ok {
			return e, true
		}
	}
	return nil, false
}

// Acquire is Get followed by Touch on a hit. Hits and misses are counted.
func (c *ResourceCache) Acquire(key string) (*CachedResource, bool) {
	e, ok := c.Get(key)
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.touchEntry(e)
	return e, true
}

// Put inserts resource under key with UsageCount=1. An existing entry for key
// is replaced and its resource disposed (last writer wins). Runs the excess
// sweep for kind when the cap or budget is exceeded.
func (c *ResourceCache) Put(key string, resource Resource, kind Kind, sizeEstimateMB float64) {
	if kind >= numKinds {
		panic(fmt.Sprintf("ResourceCache: invalid kind %d", kind))
	}
	now := c.now()
	if prev, ok := c.Get(key); ok {
		delete(c.entries[prev.Kind], key)
		c.stats.Replacements++
		if prev.Resource != resource {
			c.dispose(prev, trace.ReasonReplaced, now)
		}
	}
	c.entries[kind][key] = &CachedResource{
		Key:            key,
		Resource:       resource,
		Kind:           kind,
		CreatedAt:      now,
		LastUsedAt:     now,
		UsageCount:     1,
		SizeEstimateMB: sizeEstimateMB,
	}
	c.stats.Puts++
	logrus.WithFields(logrus.Fields{"key": key, "kind": kind, "size_mb": sizeEstimateMB}).Debug("resource cached")

	if c.overLimit(kind) {
		c.CleanupExcess(kind)
	}
}

// Touch records a use of key. Returns false when key is absent.
func (c *ResourceCache) Touch(key string) bool {
	e, ok := c.Get(key)
	if !ok {
		return false
	}
	c.touchEntry(e)
	return true
}

func (c *ResourceCache) touchEntry(e *CachedResource) {
	e.UsageCount++
	e.LastUsedAt = c.now()
}

// Remove disposes and drops key. Returns false when key is absent.
func (c *ResourceCache) Remove(key string) bool {
	e, ok := c.Get(key)
	if !ok {
		return false
	}
	delete(c.entries[e.Kind], key)
	c.stats.Removals++
	c.dispose(e, trace.ReasonRemoved, c.now())
	return true
}

// CleanupExpired removes every entry older than CacheTTL and returns how many
// were removed. A failing dispose is logged and the sweep carries on.
func (c *ResourceCache) CleanupExpired() int {
	now := c.now()
	removed := 0
	for k := range c.entries {
		for _, key := range sortedKeys(c.entries[k]) {
			e := c.entries[k][key]
			if now.Sub(e.CreatedAt) <= c.cfg.CacheTTL {
				continue
			}
			delete(c.entries[k], key)
			c.stats.Expirations++
			c.dispose(e, trace.ReasonExpired, now)
			removed++
		}
	}
	c.lastSweep = now
	if removed > 0 {
		logrus.Debugf("TTL sweep removed %d resources", removed)
	}
	return removed
}

// MaybeSweep runs CleanupExpired when CleanupInterval has elapsed since the
// previous sweep. Called once per animation frame.
func (c *ResourceCache) MaybeSweep() bool {
	if c.now().Sub(c.lastSweep) < c.cfg.CleanupInterval {
		return false
	}
	c.CleanupExpired()
	return true
}

// CleanupExcess evicts unprotected entries of kind, least valuable first,
// until the kind is back within its cap and budget. When every remaining
// entry is protected the cap is left exceeded until a later TTL sweep.
func (c *ResourceCache) CleanupExcess(kind Kind) int {
	now := c.now()
	live := c.entries[kind]
	candidates := make([]*CachedResource, 0, len(live))
	for _, e := range live {
		if e.UsageCount < c.cfg.MinUsageCount {
			candidates = append(candidates, e)
		}
	}
	rankCandidates(candidates)

	evicted := 0
	for _, e := range candidates {
		reason, over := c.excessReason(kind)
		if !over {
			break
		}
		delete(live, e.Key)
		c.stats.Evictions++
		c.dispose(e, reason, now)
		evicted++
	}

	if c.overLimit(kind) {
		c.stats.SoftCapOverruns++
		size := c.kindSizeMB(kind)
		c.trace.RecordOverrun(trace.OverrunRecord{
			Kind:     kind.String(),
			Count:    len(live),
			MaxCount: c.cfg.maxCount(kind),
			SizeMB:   size,
			At:       now,
		})
		logrus.WithFields(logrus.Fields{
			"kind":  kind,
			"count": len(live),
			"max":   c.cfg.maxCount(kind),
			"mb":    size,
		}).Debug("all remaining resources are protected; cap exceeded until next TTL sweep")
	}
	return evicted
}

// ClearAll disposes and removes every entry in key order.
func (c *ResourceCache) ClearAll() {
	now := c.now()
	for k := range c.entries {
		for _, key := range sortedKeys(c.entries[k]) {
			e := c.entries[k][key]
			delete(c.entries[k], key)
			c.dispose(e, trace.ReasonCleared, now)
		}
	}
}

// GetCurrentCacheSize sums SizeEstimateMB per kind over live entries.
func (c *ResourceCache) GetCurrentCacheSize() Size {
	return Size{
		Textures: c.kindSizeMB(Texture),
		Models:   c.kindSizeMB(Model),
	}
}

func (c *ResourceCache) kindSizeMB(kind Kind) float64 {
	total := 0.0
	for _, e := range c.entries[kind] {
		total += e.SizeEstimateMB
	}
	return total
}

func (c *ResourceCache) overLimit(kind Kind) bool {
	_, over := c.excessReason(kind)
	return over
}

// excessReason reports whether kind is over its count cap or MB budget, and
// which one applies.
func (c *ResourceCache) excessReason(kind Kind) (trace.Reason, bool) {
	if len(c.entries[kind]) > c.cfg.maxCount(kind) {
		return trace.ReasonExcess, true
	}
	if budget := c.cfg.maxSizeMB(kind); budget > 0 && c.kindSizeMB(kind) > budget {
		return trace.ReasonBudget, true
	}
	return "", false
}

// dispose releases e's resource. Errors and panics are logged and counted,
// never propagated, so a sweep always visits every candidate.
func (c *ResourceCache) dispose(e *CachedResource, reason trace.Reason, now time.Time) {
	err := safeDispose(e.Resource)
	rec := trace.RemovalRecord{
		Key:        e.Key,
		Kind:       e.Kind.String(),
		Reason:     reason,
		UsageCount: e.UsageCount,
		SizeMB:     e.SizeEstimateMB,
		Age:        now.Sub(e.CreatedAt),
		At:         now,
	}
	if err != nil {
		c.stats.DisposeErrors++
		rec.DisposeErr = err.Error()
		logrus.WithFields(logrus.Fields{"key": e.Key, "kind": e.Kind, "reason": reason}).
			WithError(err).Warn("failed to dispose cached resource")
	}
	c.trace.RecordRemoval(rec)
}

func safeDispose(r Resource) (err error) {
	if r == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDispose, p)
		}
	}()
	if derr := r.Dispose(); derr != nil {
		return fmt.Errorf("%w: %w", ErrDispose, derr)
	}
	return nil
}

func sortedKeys(m map[string]*CachedResource) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
