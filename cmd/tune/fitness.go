package main

import (
	"math"
	"sync"

	"github.com/sph3d/fluidcore/config"
	"github.com/sph3d/fluidcore/marching"
	"github.com/sph3d/fluidcore/scene"
	"github.com/sph3d/fluidcore/simcore"
	"github.com/sph3d/fluidcore/workpool"
)

// FitnessEvaluator runs headless simulations under candidate physics
// parameters and scores how close to incompressible (density near
// RestDensity, no blow-up) the fluid stays. Grounded on pthm-soup/cmd/
// optimize's FitnessEvaluator (parallel-over-seeds evaluation, aggregate
// to a single scalar); "seeds" here are the named scenes rather than RNG
// seeds, since the simulator is deterministic.
type FitnessEvaluator struct {
	params     *ParamVector
	steps      int
	scenes     []string
	baseConfig config.Config

	mu          sync.Mutex
	bestFitness float64
	bestConfig  config.Config
}

// NewFitnessEvaluator creates an evaluator running steps per scene, across
// scenes.
func NewFitnessEvaluator(params *ParamVector, steps int, scenes []string, baseCfg config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		steps:       steps,
		scenes:      scenes,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestConfig returns the config that produced the best fitness seen so far.
func (fe *FitnessEvaluator) BestConfig() config.Config {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestConfig
}

// Evaluate computes fitness for a normalized parameter vector (lower is
// better): the mean, across scenes, of the final step's relative density
// deviation from RestDensity, with a large fixed penalty for any NaN/Inf
// density (an unstable configuration).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Snapshot()
	fe.params.ApplyToConfig(&cfg, x)

	results := make([]float64, len(fe.scenes))
	var wg sync.WaitGroup
	for i, sceneName := range fe.scenes {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			results[idx] = fe.runScene(cfg, name)
		}(i, sceneName)
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		total += r
	}
	avg := total / float64(len(results))

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestConfig = cfg
	}
	fe.mu.Unlock()

	return avg
}

const instabilityPenalty = 1e6

// runScene runs one scene to fe.steps and returns its density-deviation
// score.
func (fe *FitnessEvaluator) runScene(cfg config.Config, sceneName string) float64 {
	system := simcore.New(cfg.NumThreads)
	if err := system.SetConfig(cfg); err != nil {
		return instabilityPenalty
	}

	mc := marching.New(system, workpool.New(cfg.NumThreads), cfg.MarchingCubes.CubeEdgeLength, cfg.MarchingCubes.Isovalue)
	registry := scene.NewDefaultRegistry()
	controller := scene.NewController(registry, system, mc)
	if err := controller.Start(sceneName); err != nil {
		return instabilityPenalty
	}

	for i := 0; i < fe.steps; i++ {
		if err := controller.RunFrame(); err != nil {
			return instabilityPenalty
		}
	}

	return densityDeviation(system, cfg.Physics.RestDensity)
}

// densityDeviation computes the RMS relative deviation of particle density
// from restDensity, or instabilityPenalty if any density is non-finite.
func densityDeviation(system *simcore.ParticleSystem, restDensity float32) float64 {
	particles := system.Particles()
	if len(particles) == 0 {
		return instabilityPenalty
	}

	var sumSq float64
	for _, p := range particles {
		d := float64(p.Density)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return instabilityPenalty
		}
		rel := (d - float64(restDensity)) / float64(restDensity)
		sumSq += rel * rel
	}
	return math.Sqrt(sumSq / float64(len(particles)))
}
