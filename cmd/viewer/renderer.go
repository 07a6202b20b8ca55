package main

import (
	"github.com/go-gl/mathgl/mgl32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/sph3d/fluidcore/geom"
	"github.com/sph3d/fluidcore/marching"
	"github.com/sph3d/fluidcore/simcore"
)

// ParticleRenderer draws each live particle as a sphere colored by its
// density relative to rest density, grounded on renderer/particles.go's
// life-ratio-driven color ramp (there fading an effect particle's alpha by
// remaining lifetime; here coloring a fluid particle by compression).
type ParticleRenderer struct {
	Radius float32
}

// NewParticleRenderer creates a renderer drawing spheres of the given
// radius.
func NewParticleRenderer(radius float32) *ParticleRenderer {
	return &ParticleRenderer{Radius: radius}
}

// Draw renders every particle, colored from deep blue (under-dense) through
// white (at rest density) to red (over-dense).
func (r *ParticleRenderer) Draw(particles []simcore.ParticleView, restDensity float32) {
	if restDensity <= 0 {
		restDensity = 1
	}
	for _, p := range particles {
		ratio := p.Density / restDensity
		rl.DrawSphere(toRlVec3(p.Position), r.Radius, densityColor(ratio))
	}
}

func densityColor(ratio float32) rl.Color {
	switch {
	case ratio < 0.9:
		t := clamp01((ratio - 0.5) / 0.4)
		return lerpColor(rl.Color{R: 20, G: 40, B: 180, A: 255}, rl.White, t)
	case ratio > 1.1:
		t := clamp01((ratio - 1.1) / 0.4)
		return lerpColor(rl.White, rl.Color{R: 200, G: 30, B: 30, A: 255}, t)
	default:
		return rl.White
	}
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	lerp := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return rl.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// DrawSimulationSpace draws the domain boundary as a wireframe box.
func DrawSimulationSpace(space geom.Cuboid) {
	center := space.Center()
	extent := space.Extent()
	rl.DrawCubeWires(toRlVec3(center), extent.X(), extent.Y(), extent.Z(), rl.Color{R: 120, G: 120, B: 140, A: 255})
}

// IsosurfaceDebugRenderer draws a wire cube at every Marching Cubes cell
// whose corner values straddle the isovalue, as a cheap stand-in for the
// triangle surface a geometry shader would produce downstream (out of
// scope per spec.md §1/§4.6).
type IsosurfaceDebugRenderer struct{}

// Draw renders one outline per boundary cube.
func (IsosurfaceDebugRenderer) Draw(cubes []marching.Cube, edge, isovalue float32) {
	for _, c := range cubes {
		if !straddles(c, isovalue) {
			continue
		}
		center := c.MinCorner.Add(mgl32.Vec3{edge / 2, edge / 2, edge / 2})
		rl.DrawCubeWires(toRlVec3(center), edge, edge, edge, rl.Color{R: 80, G: 200, B: 255, A: 90})
	}
}

func straddles(c marching.Cube, isovalue float32) bool {
	var below, above bool
	for _, v := range c.Corners {
		if float32(v) < isovalue {
			below = true
		} else {
			above = true
		}
	}
	return below && above
}
