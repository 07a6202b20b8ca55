// Command simulate runs the SPH particle system headlessly for a fixed
// number of steps, optionally dumping per-pass timing diagnostics. Grounded
// on pthm-soup/main.go's flag-var block and runHeadless() progress-report
// loop, with the ecosystem tick replaced by the fluid step.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sph3d/fluidcore/config"
	"github.com/sph3d/fluidcore/marching"
	"github.com/sph3d/fluidcore/scene"
	"github.com/sph3d/fluidcore/simcore"
	"github.com/sph3d/fluidcore/telemetry"
	"github.com/sph3d/fluidcore/workpool"
)

var (
	sceneName     = flag.String("scene", scene.SingleCube, "scene to load (single_cube, dam_break, droplet_fall)")
	steps         = flag.Int("steps", 200, "number of simulate() steps to run")
	threads       = flag.Int("threads", 4, "worker pool size")
	configPath    = flag.String("config", "", "path to a YAML config overriding the embedded defaults")
	diagnosticsOut = flag.String("diagnostics-out", "", "directory to write diagnostics.csv/perf_window.csv/config.yaml into (disabled if empty)")
	reportInterval = flag.Duration("report-interval", 2*time.Second, "minimum interval between progress log lines")
)

func main() {
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("config_init_failed", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg().Snapshot()
	cfg.NumThreads = config.ClampThreads(*threads)

	system := simcore.New(cfg.NumThreads)
	if err := system.SetConfig(cfg); err != nil {
		slog.Error("set_config_failed", "error", err)
		os.Exit(1)
	}

	mcPool := workpool.New(cfg.NumThreads)
	mc := marching.New(system, mcPool, cfg.MarchingCubes.CubeEdgeLength, cfg.MarchingCubes.Isovalue)
	registry := scene.NewDefaultRegistry()
	controller := scene.NewController(registry, system, mc)

	var recorder *telemetry.SampleRecorder
	writer, err := telemetry.NewWriter(*diagnosticsOut)
	if err != nil {
		slog.Error("diagnostics_writer_failed", "error", err)
		os.Exit(1)
	}
	defer writer.Close()
	if writer != nil {
		recorder = telemetry.NewSampleRecorder()
		system.SetDiagnosticsHook(recorder.Record)
		if err := writer.WriteConfig(cfg); err != nil {
			slog.Error("write_config_failed", "error", err)
		}
	}

	if err := controller.Start(*sceneName); err != nil {
		slog.Error("controller_start_failed", "scene", *sceneName, "error", err)
		os.Exit(1)
	}

	collector := telemetry.NewPerfCollector(60)
	lastReport := time.Now()
	start := time.Now()

	for i := 0; i < *steps; i++ {
		collector.StartStep()
		if err := controller.RunFrame(); err != nil {
			slog.Error("run_frame_failed", "step", i, "error", err)
			os.Exit(1)
		}
		collector.EndStep()

		if time.Since(lastReport) >= *reportInterval {
			stats := collector.Stats()
			stats.LogStats()
			if err := writer.WriteWindowStats(stats, int32(i)); err != nil {
				slog.Error("write_window_stats_failed", "error", err)
			}
			lastReport = time.Now()
		}
	}

	if recorder != nil {
		if err := writer.WriteSamples(recorder); err != nil {
			slog.Error("write_samples_failed", "error", err)
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("ran %d steps on %q in %s (%.1f steps/sec), %d particles\n",
		*steps, *sceneName, elapsed.Round(time.Millisecond),
		float64(*steps)/elapsed.Seconds(), system.ParticleCount())
}
