// Command tune searches for SPH physics parameters (gas constant,
// viscosity, rest density) that keep fluid density closest to incompressible
// across a set of scenes, via CMA-ES. Grounded on pthm-soup/cmd/optimize's
// main.go (gonum/optimize CMA-ES setup, CSV evaluation log, best-config
// YAML export).
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gonum.org/v1/gonum/optimize"

	"github.com/sph3d/fluidcore/config"
)

var (
	configPath   = flag.String("config", "", "base config YAML to tune from (embedded defaults if empty)")
	steps        = flag.Int("steps", 80, "simulate() steps per evaluation")
	evaluations  = flag.Int("evaluations", 200, "maximum CMA-ES function evaluations")
	population   = flag.Int("population", 12, "CMA-ES population size (0 lets gonum choose)")
	outConfig    = flag.String("out", "tuned.yaml", "path to write the best-found config")
	evalLogPath  = flag.String("eval-log", "tune_evals.csv", "path to write the per-evaluation CSV log")
	scenesFlag   = flag.String("scenes", "single_cube,dam_break", "comma-separated scenes to average fitness over")
)

func main() {
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("config_init_failed", "error", err)
		os.Exit(1)
	}
	baseCfg := config.Cfg().Snapshot()

	scenes := splitScenes(*scenesFlag)
	params := DefaultParamVector()
	evaluator := NewFitnessEvaluator(params, *steps, scenes, baseCfg)

	logFile, err := os.Create(*evalLogPath)
	if err != nil {
		slog.Error("eval_log_create_failed", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, s := range params.Specs {
		header = append(header, s.Name)
	}
	if err := logWriter.Write(header); err != nil {
		slog.Error("eval_log_header_failed", "error", err)
	}

	evalCount := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			params.Clamp(x)
			fitness := evaluator.Evaluate(x)

			evalCount++
			values := params.Denormalize(x)
			row := []string{strconv.Itoa(evalCount), strconv.FormatFloat(fitness, 'g', -1, 64)}
			for _, v := range values {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := logWriter.Write(row); err != nil {
				slog.Error("eval_log_row_failed", "error", err)
			}
			logWriter.Flush()

			slog.Info("tune_eval", "eval", evalCount, "fitness", fitness)
			return fitness
		},
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   *population,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *evaluations,
		Concurrent:      0,
	}

	result, err := optimize.Minimize(problem, params.DefaultVector(), settings, method)
	if err != nil {
		slog.Error("optimize_failed", "error", err)
		os.Exit(1)
	}

	best := evaluator.BestConfig()
	if err := best.WriteYAML(*outConfig); err != nil {
		slog.Error("write_best_config_failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("best fitness %.6g after %d evaluations, wrote %s\n", result.F, evalCount, *outConfig)
}

func splitScenes(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
