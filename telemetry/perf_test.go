package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorBasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseDensityPressure)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseAcceleration)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}
	if _, ok := stats.PhaseAvg[PhaseDensityPressure]; !ok {
		t.Error("expected density_pressure phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseAcceleration]; !ok {
		t.Error("expected acceleration phase to be tracked")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseIntegration)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollectorPhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)
	stats := pc.Stats()

	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}
	if stats.FPS < 40 || stats.FPS > 80 {
		t.Errorf("expected FPS between 40-80 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestSampleRecorderWriteCSV(t *testing.T) {
	r := NewSampleRecorder()
	r.Record(PhaseDensityPressure, 1*time.Millisecond)
	r.Record(PhaseDensityPressure, 2*time.Millisecond)
	r.Record(PhaseAcceleration, 3*time.Millisecond)

	path := t.TempDir() + "/diagnostics.csv"
	if err := r.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	phases := r.Phases()
	if len(phases) != 2 || phases[0] != PhaseDensityPressure || phases[1] != PhaseAcceleration {
		t.Fatalf("unexpected phase order: %v", phases)
	}
}

func TestWriterWithEmptyDirIsNoop(t *testing.T) {
	w, err := NewWriter("")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if w != nil {
		t.Fatal("expected nil writer when dir is empty")
	}
	if err := w.WriteWindowStats(PerfStats{}, 0); err != nil {
		t.Fatalf("WriteWindowStats on nil writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close on nil writer: %v", err)
	}
}

func TestWriterWritesWindowStatsAndSamples(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	pc := NewPerfCollector(10)
	pc.StartStep()
	pc.StartPhase(PhaseDensityPressure)
	pc.EndStep()
	stats := pc.Stats()

	if err := w.WriteWindowStats(stats, 1); err != nil {
		t.Fatalf("WriteWindowStats: %v", err)
	}

	recorder := NewSampleRecorder()
	recorder.Record(PhaseDensityPressure, 500*time.Microsecond)
	if err := w.WriteSamples(recorder); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
}
