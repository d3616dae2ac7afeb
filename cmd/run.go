package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/singleflight"

	"github.com/culturewave/showcase/sim"
	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/particles"
	"github.com/culturewave/showcase/sim/rescache"
	"github.com/culturewave/showcase/sim/trace"
)

var (
	frames    int    // Number of animation frames to simulate
	seed      int64  // Run seed
	tierName  string // Forced device tier; empty classifies the configured host
	roleName  string // Render role override
	scenePath string // Scene preset YAML
	assetsDir string // Directory of textures and models to preload
	csvPath   string // Per-frame CSV output
	traceName string // Cache trace level
)

// runOptions is everything runHeadless needs, resolved from config and flags.
type runOptions struct {
	Engine   sim.EngineConfig
	Profile  device.Profile
	Frames   int
	Interval time.Duration
	Assets   string
	CSVPath  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine headless for a number of frames with scripted input",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd)
		if err != nil {
			logrus.Fatalf("Invalid run configuration: %v", err)
		}
		logrus.Infof("Starting run: %d frames at %v, tier=%v, role=%v, seed=%d",
			opts.Frames, opts.Interval, opts.Profile.Tier, opts.Engine.Particles.Context.Role, opts.Engine.Seed)

		summary, err := runHeadless(opts)
		if err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		if err := summary.Print(os.Stdout); err != nil {
			logrus.Fatalf("Writing summary: %v", err)
		}
		logrus.Info("Run complete.")
	},
}

func resolveRunOptions(cmd *cobra.Command) (runOptions, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return runOptions{}, err
	}
	if cmd.Flags().Changed("frames") {
		cfg.Frames = frames
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("role") {
		cfg.Scene.Role = &roleName
	}
	if cmd.Flags().Changed("trace") {
		cfg.Trace = traceName
	}
	if cfg.Frames <= 0 {
		return runOptions{}, fmt.Errorf("frames must be > 0, got %d", cfg.Frames)
	}
	ec, err := cfg.EngineConfig()
	if err != nil {
		return runOptions{}, err
	}
	if scenePath != "" {
		bundle, err := sim.LoadSceneBundle(scenePath)
		if err != nil {
			return runOptions{}, err
		}
		if ec.Particles, err = bundle.Apply(ec.Particles); err != nil {
			return runOptions{}, err
		}
	}
	profile := device.NewProfiler(cfg.Device.Host()).Profile()
	if tierName != "" {
		if profile.Tier, err = device.ParseTier(tierName); err != nil {
			return runOptions{}, err
		}
	}
	return runOptions{
		Engine:   ec,
		Profile:  profile,
		Frames:   cfg.Frames,
		Interval: cfg.FrameInterval,
		Assets:   assetsDir,
		CSVPath:  csvPath,
	}, nil
}

var modelExts = map[string]bool{".glb": true, ".gltf": true, ".obj": true}

// assetKind maps a file extension to a resource kind. Unknown extensions are
// skipped.
func assetKind(name string) (rescache.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return rescache.Texture, true
	}
	if modelExts[ext] {
		return rescache.Model, true
	}
	return 0, false
}

// listAssets returns loadable files in dir, sorted by name.
func listAssets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading assets: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := assetKind(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// runHeadless drives an engine on a virtual clock and returns its summary.
func runHeadless(opts runOptions) (sim.RunSummary, error) {
	var assets []string
	if opts.Assets != "" {
		var err error
		if assets, err = listAssets(opts.Assets); err != nil {
			return sim.RunSummary{}, err
		}
		if opts.Engine.LoaderBuffer < len(assets) {
			opts.Engine.LoaderBuffer = len(assets)
		}
	}

	engine := sim.NewEngine(opts.Engine, opts.Profile, rescache.FileFetcher{Root: opts.Assets})
	defer engine.Close()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	engine.SetClock(func() time.Time { return now })

	pending := make([]<-chan singleflight.Result, 0, len(assets))
	for _, name := range assets {
		kind, _ := assetKind(name)
		pending = append(pending, engine.Request(context.Background(), name, kind))
	}
	for _, ch := range pending {
		if res := <-ch; res.Err != nil {
			logrus.WithError(res.Err).Warn("asset preload failed")
		}
	}

	rng := sim.NewPartitionedRNG(sim.RunKey(opts.Engine.Seed)).ForSubsystem(sim.SubsystemInput)
	script := newInputScript(opts.Frames, opts.Engine.Viewport.Width, opts.Engine.Viewport.Height, rng)
	for i := 0; i < opts.Frames; i++ {
		now = start.Add(time.Duration(i) * opts.Interval)
		in := script.At(i, now)
		for _, ev := range in.Events {
			engine.Handle(ev)
		}
		if in.Scroll != 0 {
			engine.Scroll(in.Scroll)
		}
		engine.Frame(now)
		for _, name := range assets {
			engine.Acquire(name)
		}
	}

	if opts.CSVPath != "" {
		if err := writeCSV(opts.CSVPath, engine.Metrics()); err != nil {
			return sim.RunSummary{}, err
		}
	}
	return engine.Summary(), nil
}

func writeCSV(path string, m *sim.Metrics) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return m.WriteCSV(f)
}

func init() {
	runCmd.Flags().IntVar(&frames, "frames", 600, "Number of animation frames to simulate")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for particle layout and scripted input")
	runCmd.Flags().StringVar(&tierName, "tier", "", "Force the device tier (low, medium, high) instead of classifying the host")
	runCmd.Flags().StringVar(&roleName, "role", particles.Dedicated.String(), "Render role (dedicated, embedded)")
	runCmd.Flags().StringVar(&scenePath, "scene", "", "Scene preset YAML applied on top of the config")
	runCmd.Flags().StringVar(&assetsDir, "assets", "", "Directory of textures and models to preload into the cache")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Write per-frame records to this CSV file")
	runCmd.Flags().StringVar(&traceName, "trace", string(trace.TraceLevelNone), "Cache trace level (none, removals)")
}
