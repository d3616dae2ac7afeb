// Per-frame records and the end-of-run summary.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/culturewave/showcase/sim/device"
	"github.com/culturewave/showcase/sim/frame"
	"github.com/culturewave/showcase/sim/rescache"
	"github.com/culturewave/showcase/sim/trace"
)

// FrameRecord is one animation frame as seen by the engine.
type FrameRecord struct {
	Frame        int64   `csv:"frame" json:"frame"`
	AtMs         float64 `csv:"at_ms" json:"at_ms"`
	Ran          bool    `csv:"ran" json:"ran"`
	DeltaMs      float64 `csv:"delta_ms" json:"delta_ms"`
	FrameTimeMs  float64 `csv:"frame_time_ms" json:"frame_time_ms"`
	FPS          float64 `csv:"fps" json:"fps"`
	Particles    int     `csv:"particles" json:"particles"`
	Culled       int     `csv:"culled" json:"culled"`
	Resets       int     `csv:"resets" json:"resets"`
	Bloom        float32 `csv:"bloom" json:"bloom"`
	PointerOn    bool    `csv:"pointer_active" json:"pointer_active"`
	Textures     int     `csv:"textures" json:"textures"`
	Models       int     `csv:"models" json:"models"`
	TexturesMB   float64 `csv:"textures_mb" json:"textures_mb"`
	ModelsMB     float64 `csv:"models_mb" json:"models_mb"`
	Loaded       int     `csv:"loaded" json:"loaded"`
	LoadFailures int     `csv:"load_failures" json:"load_failures"`
}

// Metrics accumulates frame records over a run.
type Metrics struct {
	Frames       []FrameRecord
	StepsRun     int
	Loaded       int
	LoadFailures int
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Frames: make([]FrameRecord, 0, 256)}
}

// Record appends r and updates the running totals.
func (m *Metrics) Record(r FrameRecord) {
	m.Frames = append(m.Frames, r)
	if r.Ran {
		m.StepsRun++
	}
	m.Loaded += r.Loaded
	m.LoadFailures += r.LoadFailures
}

// WriteCSV writes every frame record with a header row.
func (m *Metrics) WriteCSV(w io.Writer) error {
	if err := gocsv.Marshal(m.Frames, w); err != nil {
		return fmt.Errorf("writing frame csv: %w", err)
	}
	return nil
}

// FrameTimeStats returns the mean and 95th percentile frame time in ms over
// frames after the first. Both are zero with fewer than two frames.
func (m *Metrics) FrameTimeStats() (mean, p95 float64) {
	if len(m.Frames) < 2 {
		return 0, 0
	}
	xs := make([]float64, 0, len(m.Frames)-1)
	for _, f := range m.Frames[1:] {
		xs = append(xs, f.FrameTimeMs)
	}
	sort.Float64s(xs)
	return stat.Mean(xs, nil), stat.Quantile(0.95, stat.Empirical, xs, nil)
}

// RunSummary is the JSON document printed at the end of a run.
type RunSummary struct {
	Profile         device.Profile      `json:"profile"`
	Seed            int64               `json:"seed"`
	Frames          int                 `json:"frames"`
	StepsRun        int                 `json:"steps_run"`
	MeanFrameTimeMs float64             `json:"mean_frame_time_ms"`
	P95FrameTimeMs  float64             `json:"p95_frame_time_ms"`
	Final           frame.Stats         `json:"final"`
	Bloom           float32             `json:"bloom"`
	Loaded          int                 `json:"loaded"`
	LoadFailures    int                 `json:"load_failures"`
	Cache           rescache.Stats      `json:"cache"`
	CacheSize       rescache.Size       `json:"cache_size_mb"`
	Removals        *trace.TraceSummary `json:"removals,omitempty"`
}

// Print writes a header and the summary as indented JSON.
func (s RunSummary) Print(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "=== Run Metrics ==="); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
