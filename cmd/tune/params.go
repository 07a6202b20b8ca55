package main

import (
	"github.com/sph3d/fluidcore/config"
)

// ParamSpec names one tunable scalar and the config field it maps to, in
// normalized [0,1] search space. Grounded on pthm-soup/cmd/optimize's
// ParamSpec/ParamVector.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector is the ordered set of physics parameters CMA-ES searches
// over: three SPH fluid constants (gas constant, viscosity, rest density),
// with particle mass and InitialSpacing left fixed so the particle count
// (and therefore run cost) doesn't change between evaluations.
type ParamVector struct {
	Specs []ParamSpec
}

// DefaultParamVector searches gas constant, viscosity, and rest density —
// the three parameters spec.md §3 marks as free fluid tuning knobs,
// excluding particle mass and spacing which jointly determine particle
// count and are held fixed per evaluation.
func DefaultParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{Name: "gas_constant", Min: 0.01, Max: 5.0, Default: 0.1},
		{Name: "viscosity", Min: config.MinViscosity, Max: 1.0, Default: 0.00089},
		{Name: "rest_density", Min: 100, Max: 2000, Default: 998.29},
	}}
}

// Dim returns the search dimensionality.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the normalized [0,1] vector of each spec's default.
func (pv *ParamVector) DefaultVector() []float64 {
	x := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		x[i] = pv.normalizeOne(s, s.Default)
	}
	return x
}

func (pv *ParamVector) normalizeOne(s ParamSpec, v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Denormalize maps a [0,1] vector back to physical units.
func (pv *ParamVector) Denormalize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, s := range pv.Specs {
		out[i] = s.Min + x[i]*(s.Max-s.Min)
	}
	return out
}

// Clamp clips a normalized vector into [0,1] per component, in place.
func (pv *ParamVector) Clamp(x []float64) {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
		if x[i] > 1 {
			x[i] = 1
		}
	}
}

// ApplyToConfig writes a normalized vector's denormalized values into cfg's
// physics parameters, by spec name.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, x []float64) {
	values := pv.Denormalize(x)
	for i, s := range pv.Specs {
		switch s.Name {
		case "gas_constant":
			cfg.Physics.GasConstant = float32(values[i])
		case "viscosity":
			cfg.Physics.Viscosity = float32(values[i])
		case "rest_density":
			cfg.Physics.RestDensity = float32(values[i])
		}
	}
}
