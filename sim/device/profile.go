// Package device classifies the host into a performance tier once per
// process. The resulting Profile is a plain value handed to every consumer;
// nothing downstream reads it back from package state.
package device

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Tier is a coarse device performance class.
type Tier uint8

const (
	Low Tier = iota
	Medium
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// ParseTier maps "low", "medium" or "high" (case-insensitive) to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(s) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// Classification thresholds.
const (
	MinGPUExtensions = 20 // fewer supported extensions means a weak GPU
	LowCores         = 4
	LowMemoryGB      = 4
	HighCores        = 8
	HighMemoryGB     = 8

	// Assumed when the host does not report a value.
	DefaultCores    = 4
	DefaultMemoryGB = 4
)

// Profile is the immutable classification result.
type Profile struct {
	Tier     Tier    `json:"tier"`
	Cores    int     `json:"cores"`
	MemoryGB float64 `json:"memory_gb"`
	IsMobile bool    `json:"is_mobile"`
	IsTablet bool    `json:"is_tablet"`
	WeakGPU  bool    `json:"weak_gpu"`
}

// GPUInfo is what a throwaway rendering context reports.
type GPUInfo struct {
	Renderer   string
	Extensions int
}

// GPUProbe creates a throwaway context and reports its capabilities. ok is
// false when no context could be created.
type GPUProbe interface {
	Probe() (info GPUInfo, ok bool)
}

// ErrNoContext is returned by ProbeGPU when no rendering context exists.
var ErrNoContext = errors.New("no rendering context")

// ProbeGPU runs probe and converts a missing context into ErrNoContext.
func ProbeGPU(probe GPUProbe) (GPUInfo, error) {
	if probe == nil {
		return GPUInfo{}, ErrNoContext
	}
	info, ok := probe.Probe()
	if !ok {
		return GPUInfo{}, ErrNoContext
	}
	return info, nil
}

// StaticProbe reports fixed capabilities.
type StaticProbe struct {
	Info      GPUInfo
	NoContext bool
}

// Probe implements GPUProbe.
func (p StaticProbe) Probe() (GPUInfo, bool) {
	return p.Info, !p.NoContext
}

// Host describes the machine being classified. Zero values mean "not reported".
type Host struct {
	UserAgent           string
	HardwareConcurrency int
	DeviceMemoryGB      float64
	GPU                 GPUProbe // nil means no context can be created
}

var (
	mobileUA  = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)
	ipadUA    = regexp.MustCompile(`(?i)iPad`)
	androidUA = regexp.MustCompile(`(?i)Android`)
	mobileTok = regexp.MustCompile(`(?i)Mobile`)
)

// IsMobileUA reports whether ua names a phone or tablet.
func IsMobileUA(ua string) bool {
	return mobileUA.MatchString(ua)
}

// IsTabletUA reports whether ua names a tablet: an iPad, or Android without
// the "Mobile" token.
func IsTabletUA(ua string) bool {
	if ipadUA.MatchString(ua) {
		return true
	}
	return androidUA.MatchString(ua) && !mobileTok.MatchString(ua)
}

// Classify computes a Profile for h:
//   - Low if mobile, cores < 4, memory < 4 GB or weak GPU
//   - Medium if cores < 8, memory < 8 GB or tablet
//   - High otherwise
func Classify(h Host) Profile {
	p := Profile{
		Cores:    h.HardwareConcurrency,
		MemoryGB: h.DeviceMemoryGB,
		IsMobile: IsMobileUA(h.UserAgent),
		IsTablet: IsTabletUA(h.UserAgent),
	}
	if p.Cores <= 0 {
		p.Cores = DefaultCores
	}
	if p.MemoryGB <= 0 {
		p.MemoryGB = DefaultMemoryGB
	}
	p.WeakGPU = weakGPU(h.GPU)

	switch {
	case p.IsMobile || p.Cores < LowCores || p.MemoryGB < LowMemoryGB || p.WeakGPU:
		p.Tier = Low
	case p.Cores < HighCores || p.MemoryGB < HighMemoryGB || p.IsTablet:
		p.Tier = Medium
	default:
		p.Tier = High
	}
	return p
}

func weakGPU(probe GPUProbe) bool {
	info, err := ProbeGPU(probe)
	return err != nil || info.Extensions < MinGPUExtensions
}

// Profiler classifies once and hands out the memoized result.
type Profiler struct {
	once    sync.Once
	host    Host
	profile Profile
}

// NewProfiler creates a Profiler for h. Classification is deferred to the
// first Profile call.
func NewProfiler(h Host) *Profiler {
	return &Profiler{host: h}
}

// Profile returns the classification, computing it on first use.
func (p *Profiler) Profile() Profile {
	p.once.Do(func() {
		p.profile = Classify(p.host)
	})
	return p.profile
}
