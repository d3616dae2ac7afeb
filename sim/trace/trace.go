package trace

// TraceLevel controls the verbosity of cache tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRemovals captures every removal and soft-cap overrun.
	TraceLevelRemovals TraceLevel = "removals"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelRemovals: true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// CacheTrace collects removal records during a run.
type CacheTrace struct {
	Config   TraceConfig
	Removals []RemovalRecord
	Overruns []OverrunRecord
}

// NewCacheTrace creates a CacheTrace ready for recording.
func NewCacheTrace(config TraceConfig) *CacheTrace {
	return &CacheTrace{
		Config:   config,
		Removals: make([]RemovalRecord, 0),
		Overruns: make([]OverrunRecord, 0),
	}
}

// Enabled reports whether records are kept. Safe on a nil trace.
func (ct *CacheTrace) Enabled() bool {
	return ct != nil && ct.Config.Level == TraceLevelRemovals
}

// RecordRemoval appends a removal record.
func (ct *CacheTrace) RecordRemoval(record RemovalRecord) {
	if !ct.Enabled() {
		return
	}
	ct.Removals = append(ct.Removals, record)
}

// RecordOverrun appends a soft-cap overrun record.
func (ct *CacheTrace) RecordOverrun(record OverrunRecord) {
	if !ct.Enabled() {
		return
	}
	ct.Overruns = append(ct.Overruns, record)
}
