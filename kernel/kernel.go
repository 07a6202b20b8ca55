// Package kernel implements the closed-form SPH smoothing kernels used by
// the particle system: W_poly6 for density, the spiky gradient for
// pressure, and the viscosity Laplacian for viscous diffusion.
//
// All three kernels are defined only for |r| <= h. Callers are required to
// guarantee this before calling (the neighbor search already filters by
// distance); the kernels do not retest the bound, saving a branch in the
// per-pair inner loop.
package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Table caches the kernel radius and the normalization coefficients that
// depend on it, so the per-pair hot loop never recomputes a power of h.
type Table struct {
	h, h2 float32

	poly6Coeff     float32
	spikyCoeff     float32
	viscosityCoeff float32
}

// NewTable builds a kernel table for radius h. h must be > 0.
func NewTable(h float32) *Table {
	t := &Table{}
	t.SetRadius(h)
	return t
}

// SetRadius recomputes every cached coefficient for a new kernel radius.
// Call this only when h changes (e.g. on density-step change), never in
// the hot loop.
func (t *Table) SetRadius(h float32) {
	t.h = h
	t.h2 = h * h

	h3 := float64(h) * float64(h) * float64(h)
	h6 := h3 * h3
	h9 := h6 * h3

	t.poly6Coeff = float32(315.0 / (64.0 * math.Pi * h9))
	t.spikyCoeff = float32(-45.0 / (math.Pi * h6))
	t.viscosityCoeff = float32(45.0 / (math.Pi * h6))
}

// Radius returns the current kernel radius h.
func (t *Table) Radius() float32 { return t.h }

// RadiusSq returns h^2, cached.
func (t *Table) RadiusSq() float32 { return t.h2 }

// Poly6 evaluates W_poly6(r) = (315 / (64 pi h^9)) * (h^2 - |r|^2)^3.
// Precondition: r.LenSqr() <= h^2.
func (t *Table) Poly6(r mgl32.Vec3) float32 {
	diff := t.h2 - r.LenSqr()
	return t.poly6Coeff * diff * diff * diff
}

// SpikyGradient evaluates grad(W_spiky)(r) = (-45 / (pi h^6)) * (h - |r|)^2 * r/|r|.
// Returns the zero vector when |r| == 0, matching spec's tie-break (the
// gradient direction is undefined at zero separation).
// Precondition: |r| <= h.
func (t *Table) SpikyGradient(r mgl32.Vec3) mgl32.Vec3 {
	dist := r.Len()
	if dist == 0 {
		return mgl32.Vec3{}
	}
	diff := t.h - dist
	scale := t.spikyCoeff * diff * diff / dist
	return r.Mul(scale)
}

// ViscosityLaplacian evaluates lap(W_viscosity)(r) = (45 / (pi h^6)) * (h - |r|).
// Precondition: |r| <= h.
func (t *Table) ViscosityLaplacian(r mgl32.Vec3) float32 {
	return t.viscosityCoeff * (t.h - r.Len())
}
