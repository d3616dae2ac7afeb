package rescache

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturewave/showcase/sim/trace"
)

func TestNewResourceCache_ZeroMaxTextures_Panics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextures = 0
	assert.PanicsWithValue(t,
		"ResourceCache: MaxTextures must be > 0, got 0",
		func() { NewResourceCache(cfg) })
}

func TestNewResourceCache_NegativeTTL_Panics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = -time.Second
	assert.Panics(t, func() { NewResourceCache(cfg) })
}

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.MaxTextures)
	assert.LessOrEqual(t, cfg.MaxModels, 5)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, uint(2), cfg.MinUsageCount)
	assert.Zero(t, cfg.MaxTextureSizeMB)
	assert.Zero(t, cfg.MaxModelSizeMB)
	assert.NoError(t, cfg.Validate())
}

func TestPut_NewEntry_StartsWithUsageOne(t *testing.T) {
	// GIVEN an empty cache
	c, clock := newTestCache(DefaultConfig())

	// WHEN a texture is put
	c.Put("a", &fakeResource{}, Texture, 2)

	// THEN the entry is live with usage 1 and both timestamps at now
	e, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, uint(1), e.UsageCount)
	assert.Equal(t, clock.Now(), e.CreatedAt)
	assert.Equal(t, clock.Now(), e.LastUsedAt)
	assert.Equal(t, Texture, e.Kind)
	assert.Equal(t, 1, c.Len(Texture))
}

func TestGet_IsPure(t *testing.T) {
	// GIVEN a cached entry
	c, clock := newTestCache(DefaultConfig())
	c.Put("a", &fakeResource{}, Texture, 1)
	clock.Advance(time.Minute)

	// WHEN it is read repeatedly
	for i := 0; i < 5; i++ {
		_, _ = c.Get("a")
	}

	// THEN usage and recency are unchanged
	e, _ := c.Get("a")
	assert.Equal(t, uint(1), e.UsageCount)
	assert.Equal(t, clock.Now().Add(-time.Minute), e.LastUsedAt)
	assert.Equal(t, 0, c.Stats().Hits)
}

func TestGet_Miss(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	e, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestTouch_IncrementsUsageAndRecency(t *testing.T) {
	c, clock := newTestCache(DefaultConfig())
	c.Put("a", &fakeResource{}, Texture, 1)
	clock.Advance(3 * time.Second)

	assert.True(t, c.Touch("a"))
	assert.False(t, c.Touch("missing"))

	e, _ := c.Get("a")
	assert.Equal(t, uint(2), e.UsageCount)
	assert.Equal(t, clock.Now(), e.LastUsedAt)
}

func TestAcquire_CountsHitsAndMisses(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	c.Put("a", &fakeResource{}, Texture, 1)

	_, ok := c.Acquire("a")
	assert.True(t, ok)
	_, ok = c.Acquire("b")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	e, _ := c.Get("a")
	assert.Equal(t, uint(2), e.UsageCount)
}

func TestPut_ExistingKey_ReplacesAndDisposesPrior(t *testing.T) {
	// GIVEN a cached resource
	c, _ := newTestCache(DefaultConfig())
	first := &fakeResource{name: "first"}
	c.Put("a", first, Texture, 4)

	// WHEN the same key is put again with a new resource
	second := &fakeResource{name: "second"}
	c.Put("a", second, Texture, 6)

	// THEN the last writer wins and the prior resource is disposed once
	e, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, second, e.Resource)
	assert.Equal(t, 1, first.disposed)
	assert.Equal(t, 0, second.disposed)
	assert.Equal(t, 1, c.Len(Texture))
	assert.InDelta(t, 6.0, c.GetCurrentCacheSize().Textures, 1e-9)
	assert.Equal(t, 1, c.Stats().Replacements)
}

func TestPut_SameHandleTwice_NotDisposed(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	r := &fakeResource{}
	c.Put("a", r, Texture, 1)
	c.Put("a", r, Texture, 1)
	assert.Equal(t, 0, r.disposed)
}

func TestPut_KeyChangesKind_MovesEntry(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	old := &fakeResource{}
	c.Put("a", old, Texture, 1)
	c.Put("a", &fakeResource{}, Model, 3)

	assert.Equal(t, 0, c.Len(Texture))
	assert.Equal(t, 1, c.Len(Model))
	assert.Equal(t, 1, old.disposed)
	assert.Equal(t, Size{Textures: 0, Models: 3}, c.GetCurrentCacheSize())
}

func TestPut_TwelveTextures_EvictsTwoStalest(t *testing.T) {
	// GIVEN maxTextures=10 and twelve distinct keys put one second apart
	c, clock := newTestCache(DefaultConfig())
	resources := make([]*fakeResource, 12)
	for i := range resources {
		resources[i] = &fakeResource{}
		c.Put(texKey(i), resources[i], Texture, 1)
		clock.Advance(time.Second)
	}

	// WHEN the excess sweep runs (again)
	c.CleanupExcess(Texture)

	// THEN exactly ten remain and the two earliest-used were evicted
	assert.Equal(t, 10, c.Len(Texture))
	for i := 0; i < 2; i++ {
		_, ok := c.Get(texKey(i))
		assert.False(t, ok, "key %d should have been evicted", i)
		assert.Equal(t, 1, resources[i].disposed)
	}
	for i := 2; i < 12; i++ {
		_, ok := c.Get(texKey(i))
		assert.True(t, ok, "key %d should remain", i)
		assert.Equal(t, 0, resources[i].disposed)
	}
	assert.Equal(t, 2, c.Stats().Evictions)
}

func TestPut_TwelveLargeTextures_DefaultConfigKeepsTen(t *testing.T) {
	// GIVEN the stock config and twelve 30 MB textures put one second apart
	c, clock := newTestCache(DefaultConfig())
	for i := 0; i < 12; i++ {
		c.Put(texKey(i), &fakeResource{}, Texture, 30)
		clock.Advance(time.Second)
	}

	// WHEN the excess sweep runs again
	c.CleanupExcess(Texture)

	// THEN only the count cap applies: ten remain and two were evicted
	assert.Equal(t, 10, c.Len(Texture))
	assert.Equal(t, 2, c.Stats().Evictions)
	assert.InDelta(t, 300, c.GetCurrentCacheSize().Textures, 1e-9)
}

func TestCleanupExcess_EqualRecency_LargerEvictedFirst(t *testing.T) {
	// GIVEN a full cache plus two cold entries put at the same instant
	cfg := DefaultConfig()
	cfg.MaxTextures = 2
	c, clock := newTestCache(cfg)
	hot := &fakeResource{}
	c.Put("hot", hot, Texture, 50)
	c.Touch("hot")
	clock.Advance(time.Second)

	small := &fakeResource{}
	large := &fakeResource{}
	c.Put("small", small, Texture, 1)

	// WHEN a third entry with the same recency pushes the kind over its cap
	c.Put("large", large, Texture, 8)

	// THEN the larger of the two equally cold entries goes first
	assert.Equal(t, 1, large.disposed)
	assert.Equal(t, 0, small.disposed)
	assert.Equal(t, 0, hot.disposed)
	assert.Equal(t, 2, c.Len(Texture))
}

func TestRankCandidates_Ordering(t *testing.T) {
	t0 := time.Unix(1000, 0)
	entries := []*CachedResource{
		{Key: "warm", UsageCount: 1, LastUsedAt: t0, SizeEstimateMB: 100},
		{Key: "cold-new", UsageCount: 0, LastUsedAt: t0.Add(time.Second), SizeEstimateMB: 100},
		{Key: "cold-small", UsageCount: 0, LastUsedAt: t0, SizeEstimateMB: 1},
		{Key: "cold-large", UsageCount: 0, LastUsedAt: t0, SizeEstimateMB: 9},
	}

	rankCandidates(entries)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Key
	}
	assert.Equal(t, []string{"cold-large", "cold-small", "cold-new", "warm"}, got)
}

func TestCleanupExcess_AllProtected_SoftCapOverrun(t *testing.T) {
	// GIVEN every entry is protected on insert
	cfg := DefaultConfig()
	cfg.MaxTextures = 2
	cfg.MinUsageCount = 1
	c, clock := newTestCache(cfg)
	ct := trace.NewCacheTrace(trace.TraceConfig{Level: trace.TraceLevelRemovals})
	c.SetTrace(ct)
	rs := []*fakeResource{{}, {}, {}}

	// WHEN three entries are put against a cap of two
	for i, r := range rs {
		c.Put(texKey(i), r, Texture, 1)
	}

	// THEN nothing is evicted and the overrun is observable
	assert.Equal(t, 3, c.Len(Texture))
	assert.Equal(t, 1, c.Stats().SoftCapOverruns)
	require.Len(t, ct.Overruns, 1)
	assert.Equal(t, 3, ct.Overruns[0].Count)

	// AND the next TTL sweep reclaims the space
	clock.Advance(cfg.CacheTTL + time.Second)
	assert.Equal(t, 3, c.CleanupExpired())
	assert.Equal(t, 0, c.Len(Texture))
	for _, r := range rs {
		assert.Equal(t, 1, r.disposed)
	}
}

func TestCleanupExcess_HotEntriesSurviveColdArrival(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextures = 2
	c, _ := newTestCache(cfg)
	c.Put("a", &fakeResource{}, Texture, 1)
	c.Touch("a")
	c.Put("b", &fakeResource{}, Texture, 1)
	c.Touch("b")

	c.Put("c", &fakeResource{}, Texture, 1)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.True(t, okB)
	assert.False(t, okC, "the only cold entry is the one evicted")
}

func TestCleanupExcess_SizeBudget_EvictsUntilUnderBudget(t *testing.T) {
	// GIVEN a 10 MB texture budget
	cfg := DefaultConfig()
	cfg.MaxTextureSizeMB = 10
	c, clock := newTestCache(cfg)
	ct := trace.NewCacheTrace(trace.TraceConfig{Level: trace.TraceLevelRemovals})
	c.SetTrace(ct)

	// WHEN three 4 MB textures are put
	for i := 0; i < 3; i++ {
		c.Put(texKey(i), &fakeResource{}, Texture, 4)
		clock.Advance(time.Second)
	}

	// THEN the stalest is evicted for budget and the total fits
	assert.Equal(t, 2, c.Len(Texture))
	assert.LessOrEqual(t, c.GetCurrentCacheSize().Textures, 10.0)
	require.Len(t, ct.Removals, 1)
	assert.Equal(t, trace.ReasonBudget, ct.Removals[0].Reason)
	assert.Equal(t, texKey(0), ct.Removals[0].Key)
}

func TestCleanupExcess_KindsAreIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxModels = 1
	c, clock := newTestCache(cfg)
	for i := 0; i < 5; i++ {
		c.Put(texKey(i), &fakeResource{}, Texture, 1)
	}
	c.Put("m1", &fakeResource{}, Model, 20)
	clock.Advance(time.Second)
	c.Put("m2", &fakeResource{}, Model, 20)

	assert.Equal(t, 5, c.Len(Texture))
	assert.Equal(t, 1, c.Len(Model))
	_, ok := c.Get("m2")
	assert.True(t, ok)
}

func TestCleanupExcess_RandomWorkload_CapOrAllProtected(t *testing.T) {
	// GIVEN an arbitrary interleaving of puts and touches
	cfg := DefaultConfig()
	cfg.MaxTextures = 4
	cfg.MaxModels = 2
	cfg.MaxTextureSizeMB = 0
	cfg.MaxModelSizeMB = 0
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		c, clock := newTestCache(cfg)
		for op := 0; op < 60; op++ {
			key := texKey(rng.Intn(12))
			kind := Kind(rng.Intn(int(numKinds)))
			switch rng.Intn(3) {
			case 0, 1:
				c.Put(key, &fakeResource{}, kind, float64(1+rng.Intn(8)))
			case 2:
				c.Touch(key)
			}
			clock.Advance(time.Duration(rng.Intn(3)) * time.Second)
		}

		// WHEN the excess sweep runs
		for k := Kind(0); k < numKinds; k++ {
			c.CleanupExcess(k)

			// THEN the kind is within its cap or every survivor is protected
			if c.Len(k) <= cfg.maxCount(k) {
				continue
			}
			for _, e := range c.entries[k] {
				assert.GreaterOrEqual(t, e.UsageCount, cfg.MinUsageCount,
					"round %d: %s over cap with unprotected entry %s", round, k, e.Key)
			}
		}
	}
}

func TestCleanupExpired_RemovesOnlyStaleAndDisposesOnce(t *testing.T) {
	// GIVEN one old and one fresh entry
	c, clock := newTestCache(DefaultConfig())
	old := &fakeResource{}
	c.Put("old", old, Texture, 2)
	clock.Advance(20 * time.Minute)
	fresh := &fakeResource{}
	c.Put("fresh", fresh, Model, 3)
	clock.Advance(11 * time.Minute)

	// WHEN the TTL sweep runs twice
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 0, c.CleanupExpired())

	// THEN only the old one is gone and it was disposed exactly once
	_, ok := c.Get("old")
	assert.False(t, ok)
	_, ok = c.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, 1, old.disposed)
	assert.Equal(t, 0, fresh.disposed)
	assert.Equal(t, 1, c.Stats().Expirations)
}

func TestCleanupExpired_TouchDoesNotExtendTTL(t *testing.T) {
	c, clock := newTestCache(DefaultConfig())
	c.Put("a", &fakeResource{}, Texture, 1)
	clock.Advance(29 * time.Minute)
	c.Touch("a")
	clock.Advance(2 * time.Minute)

	c.CleanupExpired()

	_, ok := c.Get("a")
	assert.False(t, ok, "expiry is measured from CreatedAt")
}

func TestCleanupExpired_DisposeFailure_SweepContinues(t *testing.T) {
	// GIVEN expired entries whose disposal errors or panics
	c, clock := newTestCache(DefaultConfig())
	ct := trace.NewCacheTrace(trace.TraceConfig{Level: trace.TraceLevelRemovals})
	c.SetTrace(ct)
	failing := &fakeResource{failWith: errLostContext}
	panicking := &fakeResource{panics: true}
	healthy := &fakeResource{}
	c.Put("a-failing", failing, Texture, 1)
	c.Put("b-panicking", panicking, Texture, 1)
	c.Put("c-healthy", healthy, Model, 1)
	clock.Advance(31 * time.Minute)

	// WHEN the sweep runs
	removed := c.CleanupExpired()

	// THEN every entry is removed and every dispose was attempted once
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, failing.disposed)
	assert.Equal(t, 1, panicking.disposed)
	assert.Equal(t, 1, healthy.disposed)
	assert.Equal(t, 2, c.Stats().DisposeErrors)
	assert.Equal(t, 2, trace.Summarize(ct).DisposeFailures)
}

func TestSafeDispose_WrapsErrDispose(t *testing.T) {
	err := safeDispose(&fakeResource{failWith: errLostContext})
	assert.True(t, errors.Is(err, ErrDispose))
	assert.True(t, errors.Is(err, errLostContext))

	err = safeDispose(&fakeResource{panics: true})
	assert.True(t, errors.Is(err, ErrDispose))

	assert.NoError(t, safeDispose(nil))
}

func TestMaybeSweep_HonorsCleanupInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = time.Minute
	cfg.CleanupInterval = 5 * time.Minute
	c, clock := newTestCache(cfg)
	c.Put("a", &fakeResource{}, Texture, 1)

	clock.Advance(2 * time.Minute)
	assert.False(t, c.MaybeSweep(), "interval not yet elapsed")
	_, ok := c.Get("a")
	assert.True(t, ok, "expired entry survives until a sweep runs")

	clock.Advance(3 * time.Minute)
	assert.True(t, c.MaybeSweep())
	_, ok = c.Get("a")
	assert.False(t, ok)

	clock.Advance(time.Minute)
	assert.False(t, c.MaybeSweep(), "interval restarts after each sweep")
}

func TestClearAll_EmptiesAndZeroesSize(t *testing.T) {
	// GIVEN textures and models
	c, _ := newTestCache(DefaultConfig())
	rs := []*fakeResource{{}, {}, {failWith: errLostContext}}
	c.Put("t1", rs[0], Texture, 3)
	c.Put("t2", rs[1], Texture, 4)
	c.Put("m1", rs[2], Model, 10)

	// WHEN cleared
	c.ClearAll()

	// THEN both maps are empty, size is zero, each resource disposed once
	assert.Equal(t, Size{Textures: 0, Models: 0}, c.GetCurrentCacheSize())
	assert.Empty(t, c.entries[Texture])
	assert.Empty(t, c.entries[Model])
	for _, r := range rs {
		assert.Equal(t, 1, r.disposed)
	}
}

func TestRemove_DisposesAndDrops(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	r := &fakeResource{}
	c.Put("a", r, Model, 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, r.disposed)
	assert.Equal(t, 0, c.Len(Model))
}

func TestGetCurrentCacheSize_SumsLiveEntriesPerKind(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	c.Put("t1", &fakeResource{}, Texture, 1.5)
	c.Put("t2", &fakeResource{}, Texture, 2.5)
	c.Put("m1", &fakeResource{}, Model, 7)
	c.Put("t1", &fakeResource{}, Texture, 0.5) // replacement must not double count
	c.Remove("t2")

	size := c.GetCurrentCacheSize()
	assert.InDelta(t, 0.5, size.Textures, 1e-9)
	assert.InDelta(t, 7.0, size.Models, 1e-9)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Texture")
	require.NoError(t, err)
	assert.Equal(t, Texture, k)
	k, err = ParseKind("model")
	require.NoError(t, err)
	assert.Equal(t, Model, k)
	_, err = ParseKind("shader")
	assert.Error(t, err)
	assert.Equal(t, "texture", Texture.String())
}
