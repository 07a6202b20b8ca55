package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/sph3d/fluidcore/config"
)

// SampleRecorder accumulates raw per-pass millisecond samples across a run,
// satisfying simcore.ParticleSystem.SetDiagnosticsHook's signature directly
// (Record(phase, duration)). WriteCSV dumps it in the exact shape spec.md
// §6 requires: "columns are the instrumented function name and a
// comma-separated list of millisecond samples". That ragged, per-phase
// row width is not expressible with gocsv's struct-per-row marshaling
// (each phase accumulates a different number of samples), so this one
// export goes through encoding/csv directly instead.
type SampleRecorder struct {
	mu      sync.Mutex
	samples map[string][]float64
	order   []string
}

// NewSampleRecorder returns an empty recorder.
func NewSampleRecorder() *SampleRecorder {
	return &SampleRecorder{samples: make(map[string][]float64)}
}

// Record appends one millisecond sample under phase, in first-seen phase
// order.
func (r *SampleRecorder) Record(phase string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.samples[phase]; !seen {
		r.order = append(r.order, phase)
	}
	r.samples[phase] = append(r.samples[phase], float64(d.Microseconds())/1000)
}

// WriteCSV writes one row per phase: function name, then every recorded
// millisecond sample for that phase, in recording order.
func (r *SampleRecorder) WriteCSV(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating diagnostics directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating diagnostics csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, phase := range r.order {
		row := make([]string, 0, len(r.samples[phase])+1)
		row = append(row, phase)
		for _, ms := range r.samples[phase] {
			row = append(row, strconv.FormatFloat(ms, 'f', 3, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing diagnostics row for %s: %w", phase, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Phases returns the recorded phase names in first-seen order.
func (r *SampleRecorder) Phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// PerfStatsCSV is a flat struct for CSV export of a windowed stats summary,
// one row per window close.
type PerfStatsCSV struct {
	Step               int32   `csv:"step"`
	AvgStepUS          int64   `csv:"avg_step_us"`
	MinStepUS          int64   `csv:"min_step_us"`
	MaxStepUS          int64   `csv:"max_step_us"`
	StepsPerSec        float64 `csv:"steps_per_sec"`
	FPS                float64 `csv:"fps"`
	DensityPressurePct float64 `csv:"density_pressure_pct"`
	AccelerationPct    float64 `csv:"acceleration_pct"`
	IntegrationPct     float64 `csv:"integration_pct"`
	GridRebuildPct     float64 `csv:"grid_rebuild_pct"`
	MCDensityPct       float64 `csv:"mc_density_pct"`
	MCVertexPct        float64 `csv:"mc_vertex_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(step int32) PerfStatsCSV {
	return PerfStatsCSV{
		Step:               step,
		AvgStepUS:          s.AvgStepDuration.Microseconds(),
		MinStepUS:          s.MinStepDuration.Microseconds(),
		MaxStepUS:          s.MaxStepDuration.Microseconds(),
		StepsPerSec:        s.StepsPerSecond,
		FPS:                s.FPS,
		DensityPressurePct: s.PhasePct[PhaseDensityPressure],
		AccelerationPct:    s.PhasePct[PhaseAcceleration],
		IntegrationPct:     s.PhasePct[PhaseIntegration],
		GridRebuildPct:     s.PhasePct[PhaseGridRebuild],
		MCDensityPct:       s.PhasePct[PhaseMCDensity],
		MCVertexPct:        s.PhasePct[PhaseMCVertex],
	}
}

// Writer manages the optional diagnostic output directory: a windowed
// perf-summary CSV (fixed schema, via gocsv) alongside the raw per-pass
// sample dump a SampleRecorder produces. Grounded on pthm-soup/telemetry's
// OutputManager (lazy file creation, header-written-once marshaling).
type Writer struct {
	dir                string
	statsFile          *os.File
	statsHeaderWritten bool
}

// NewWriter creates the output directory and opens perf_window.csv.
// Returns nil if dir is empty (diagnostics disabled).
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating diagnostics directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "perf_window.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf_window.csv: %w", err)
	}
	return &Writer{dir: dir, statsFile: f}, nil
}

// WriteConfig saves the active configuration as YAML alongside the
// diagnostics output, so a run's numbers can be replayed against the
// settings that produced them.
func (w *Writer) WriteConfig(cfg config.Config) error {
	if w == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(w.dir, "config.yaml"))
}

// WriteWindowStats appends one windowed stats row.
func (w *Writer) WriteWindowStats(stats PerfStats, step int32) error {
	if w == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(step)}
	if !w.statsHeaderWritten {
		if err := gocsv.Marshal(records, w.statsFile); err != nil {
			return fmt.Errorf("writing perf window stats: %w", err)
		}
		w.statsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.statsFile); err != nil {
		return fmt.Errorf("writing perf window stats: %w", err)
	}
	return nil
}

// WriteSamples dumps recorder's raw per-pass samples to diagnostics.csv,
// the artifact spec.md §6 names directly.
func (w *Writer) WriteSamples(recorder *SampleRecorder) error {
	if w == nil || recorder == nil {
		return nil
	}
	return recorder.WriteCSV(filepath.Join(w.dir, "diagnostics.csv"))
}

// Dir returns the diagnostics output directory.
func (w *Writer) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Close flushes and closes the windowed stats file.
func (w *Writer) Close() error {
	if w == nil || w.statsFile == nil {
		return nil
	}
	return w.statsFile.Close()
}
