package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/frame"
	"github.com/culturewave/showcase/sim/interaction"
	"github.com/culturewave/showcase/sim/particles"
	"github.com/culturewave/showcase/sim/rescache"
	"github.com/culturewave/showcase/sim/trace"
)

// FrameResult reports what one animation frame did.
type FrameResult struct {
	Ran    bool
	Step   particles.StepStats
	Loaded int
	Failed []rescache.Load
}

// Engine drives one display: it owns the cache, loader, pointer tracker,
// particle simulator and frame scheduler, and advances them together.
type Engine struct {
	cfg     EngineConfig
	profile device.Profile
	rng     *PartitionedRNG

	cache   *rescache.ResourceCache
	loader  *rescache.Loader
	tracker *interaction.Tracker
	sim     *particles.Simulator
	sched   *frame.Scheduler
	trace   *trace.CacheTrace
	metrics *Metrics

	start     time.Time
	started   bool
	frames    int64
	instances []particles.Instance
}

// NewEngine builds an engine for profile. The particle context tier is
// taken from profile. Panics on an invalid config.
func NewEngine(cfg EngineConfig, profile device.Profile, fetcher rescache.Fetcher) *Engine {
	cfg.Particles.Context.Tier = profile.Tier
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewEngine: %v", err))
	}
	rng := NewPartitionedRNG(RunKey(cfg.Seed))
	e := &Engine{
		cfg:     cfg,
		profile: profile,
		rng:     rng,
		cache:   rescache.NewResourceCache(cfg.Cache),
		loader:  rescache.NewLoader(fetcher, cfg.LoaderBuffer),
		tracker: interaction.NewTracker(interaction.DefaultCamera(cfg.Viewport.Width, cfg.Viewport.Height)),
		sim:     particles.NewSimulator(cfg.Particles, rng.ForSubsystem(SubsystemParticles)),
		sched:   frame.NewScheduler(profile.Tier, cfg.FullResponsiveness),
		trace:   trace.NewCacheTrace(cfg.Trace),
		metrics: NewMetrics(),
	}
	e.cache.SetTrace(e.trace)
	e.sched.SetParticleCount(e.sim.Count())
	logrus.WithFields(logrus.Fields{
		"tier":      profile.Tier,
		"role":      cfg.Particles.Context.Role,
		"particles": e.sim.Count(),
		"seed":      cfg.Seed,
	}).Info("engine ready")
	return e
}

// SetClock replaces the cache time source. Intended for tests and replays.
func (e *Engine) SetClock(now func() time.Time) {
	e.cache.SetClock(now)
}

// Request starts an asynchronous load of key. The result reaches the cache
// on a later Frame.
func (e *Engine) Request(ctx context.Context, key string, kind rescache.Kind) <-chan singleflight.Result {
	return e.loader.Request(ctx, key, kind)
}

// Acquire looks up a cached resource and records the use.
func (e *Engine) Acquire(key string) (*rescache.CachedResource, bool) {
	return e.cache.Acquire(key)
}

// Handle feeds one input event to the pointer tracker.
func (e *Engine) Handle(ev interaction.Event) {
	e.tracker.Handle(ev)
}

// Scroll adjusts the bloom scale.
func (e *Engine) Scroll(delta float64) float32 {
	return e.sim.Scroll(delta)
}

// Reconfigure swaps the particle config, keeping the device tier.
func (e *Engine) Reconfigure(cfg particles.Config) error {
	cfg.Context.Tier = e.profile.Tier
	realloc, err := e.sim.Reconfigure(cfg)
	if err != nil {
		return err
	}
	e.cfg.Particles = cfg
	e.sched.SetParticleCount(e.sim.Count())
	if realloc {
		logrus.WithField("particles", e.sim.Count()).Info("particle arena reallocated")
	}
	return nil
}

// Frame runs one animation frame at now: drain finished loads into the
// cache, sweep expired resources when due, step the simulator if the
// scheduler allows, then decay pointer velocity.
func (e *Engine) Frame(now time.Time) FrameResult {
	if !e.started {
		e.started = true
		e.start = now
	}
	var res FrameResult
	res.Loaded, res.Failed = e.loader.Drain(e.cache)
	e.cache.MaybeSweep()

	dec := e.sched.Tick(now)
	if dec.Run {
		res.Ran = true
		res.Step = e.sim.Step(particles.FrameInput{
			DeltaTime: float32(dec.DeltaTime),
			Elapsed:   float32(now.Sub(e.start).Seconds()),
			Camera:    e.tracker.Camera(),
			Pointer:   e.tracker.Pointer(),
		})
		e.instances = e.sim.Instances(e.instances)
	}
	e.tracker.Decay(e.sim.PointerDecay())
	e.sched.SetParticleCount(e.sim.Count())

	e.record(now, dec, res)
	e.frames++
	return res
}

func (e *Engine) record(now time.Time, dec frame.Decision, res FrameResult) {
	st := e.sched.Stats()
	size := e.cache.GetCurrentCacheSize()
	e.metrics.Record(FrameRecord{
		Frame:        e.frames,
		AtMs:         float64(now.Sub(e.start)) / float64(time.Millisecond),
		Ran:          res.Ran,
		DeltaMs:      dec.DeltaTime * 1000,
		FrameTimeMs:  st.FrameTimeMs,
		FPS:          st.FPS,
		Particles:    st.ParticleCount,
		Culled:       res.Step.Culled,
		Resets:       res.Step.Resets,
		Bloom:        e.sim.Bloom(),
		PointerOn:    e.tracker.Pointer().Active,
		Textures:     e.cache.Len(rescache.Texture),
		Models:       e.cache.Len(rescache.Model),
		TexturesMB:   size.Textures,
		ModelsMB:     size.Models,
		Loaded:       res.Loaded,
		LoadFailures: len(res.Failed),
	})
}

// Instances returns the render instances from the last step. The slice is
// reused by the next step.
func (e *Engine) Instances() []particles.Instance { return e.instances }

// Profile returns the device profile the engine was built for.
func (e *Engine) Profile() device.Profile { return e.profile }

// Cache returns the resource cache.
func (e *Engine) Cache() *rescache.ResourceCache { return e.cache }

// Simulator returns the particle simulator.
func (e *Engine) Simulator() *particles.Simulator { return e.sim }

// Scheduler returns the frame scheduler.
func (e *Engine) Scheduler() *frame.Scheduler { return e.sched }

// Tracker returns the pointer tracker.
func (e *Engine) Tracker() *interaction.Tracker { return e.tracker }

// Metrics returns the per-frame records.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Trace returns the cache removal trace.
func (e *Engine) Trace() *trace.CacheTrace { return e.trace }

// Summary builds the end-of-run summary.
func (e *Engine) Summary() RunSummary {
	mean, p95 := e.metrics.FrameTimeStats()
	s := RunSummary{
		Profile:         e.profile,
		Seed:            e.cfg.Seed,
		Frames:          len(e.metrics.Frames),
		StepsRun:        e.metrics.StepsRun,
		MeanFrameTimeMs: mean,
		P95FrameTimeMs:  p95,
		Final:           e.sched.Stats(),
		Bloom:           e.sim.Bloom(),
		Loaded:          e.metrics.Loaded,
		LoadFailures:    e.metrics.LoadFailures,
		Cache:           e.cache.Stats(),
		CacheSize:       e.cache.GetCurrentCacheSize(),
	}
	if e.trace.Enabled() {
		s.Removals = trace.Summarize(e.trace)
	}
	return s
}

// Close disposes every cached resource.
func (e *Engine) Close() {
	e.cache.ClearAll()
	logrus.WithField("frames", e.frames).Info("engine closed")
}
