// Package boundary implements the two interchangeable boundary-response
// strategies named in spec.md §4.4: reflexion (a post-integration
// position/velocity correction) and force (a continuous spring-damper
// contribution added during the acceleration pass). Both satisfy the same
// Resolver interface so the particle system selects one implementation per
// step instead of branching on a method enum inside the per-particle inner
// loop, per spec.md §9's redesign note.
package boundary

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/geom"
)

// Resolver is implemented by both boundary strategies. The particle system
// calls AfterIntegration once per particle in every integration pass, and
// BoundaryForce once per particle in the acceleration pass only when the
// force method is selected; an implementation that has nothing to
// contribute at a stage returns the identity value (zero force, or
// position/velocity unchanged).
type Resolver interface {
	// BoundaryForce returns an additional acceleration-stage force
	// contribution for a particle at pos moving at vel. Reflexion
	// contributes nothing here.
	BoundaryForce(pos, vel mgl32.Vec3, space geom.Cuboid) mgl32.Vec3

	// AfterIntegration applies a post-integration correction to a
	// particle's updated position and velocity, returning the corrected
	// pair. Force-method resolvers leave the input unchanged: the wall
	// response was already folded into BoundaryForce during Pass 2.
	AfterIntegration(pos, vel mgl32.Vec3, space geom.Cuboid) (mgl32.Vec3, mgl32.Vec3)
}

// Reflexion snaps an escaped position component to the wall and negates
// the corresponding velocity component, damped by Damping in [0,1].
type Reflexion struct {
	Damping float32
}

// BoundaryForce contributes nothing: reflexion acts only after
// integration.
func (Reflexion) BoundaryForce(pos, vel mgl32.Vec3, space geom.Cuboid) mgl32.Vec3 {
	return mgl32.Vec3{}
}

// AfterIntegration clamps each escaped axis to the corresponding wall and
// negates-and-damps that axis's velocity component.
func (r Reflexion) AfterIntegration(pos, vel mgl32.Vec3, space geom.Cuboid) (mgl32.Vec3, mgl32.Vec3) {
	p := [3]float32{pos.X(), pos.Y(), pos.Z()}
	v := [3]float32{vel.X(), vel.Y(), vel.Z()}
	min := [3]float32{space.Min.X(), space.Min.Y(), space.Min.Z()}
	max := [3]float32{space.Max.X(), space.Max.Y(), space.Max.Z()}

	for axis := 0; axis < 3; axis++ {
		if p[axis] < min[axis] {
			p[axis] = min[axis]
			v[axis] = -v[axis] * r.Damping
		} else if p[axis] > max[axis] {
			p[axis] = max[axis]
			v[axis] = -v[axis] * r.Damping
		}
	}
	return mgl32.Vec3{p[0], p[1], p[2]}, mgl32.Vec3{v[0], v[1], v[2]}
}

// Force adds a Hookean spring plus a viscous damper along the wall normal
// whenever a particle is within ToleranceBand of a wall, active during the
// acceleration pass. It is not valid to combine with grid computation mode
// (spec.md §4.4): the force method permits transient excursion outside the
// grid volume, which the particle system validates before simulate().
type Force struct {
	SpringConstant float32
	DamperConstant float32
	ToleranceBand  float32
}

// BoundaryForce sums the spring-damper contribution of every wall the
// particle is within ToleranceBand of.
func (f Force) BoundaryForce(pos, vel mgl32.Vec3, space geom.Cuboid) mgl32.Vec3 {
	p := [3]float32{pos.X(), pos.Y(), pos.Z()}
	v := [3]float32{vel.X(), vel.Y(), vel.Z()}
	min := [3]float32{space.Min.X(), space.Min.Y(), space.Min.Z()}
	max := [3]float32{space.Max.X(), space.Max.Y(), space.Max.Z()}

	var force [3]float32
	for axis := 0; axis < 3; axis++ {
		// Distance inside the domain from the min wall, and from the max
		// wall; a negative value means the particle has already escaped.
		distFromMin := p[axis] - min[axis]
		distFromMax := max[axis] - p[axis]

		if distFromMin < f.ToleranceBand {
			penetration := f.ToleranceBand - distFromMin
			force[axis] += f.SpringConstant*penetration - f.DamperConstant*v[axis]
		}
		if distFromMax < f.ToleranceBand {
			penetration := f.ToleranceBand - distFromMax
			force[axis] -= f.SpringConstant*penetration + f.DamperConstant*v[axis]
		}
	}
	return mgl32.Vec3{force[0], force[1], force[2]}
}

// AfterIntegration leaves position and velocity untouched: the continuous
// spring-damper term already resolved the wall response during Pass 2.
func (Force) AfterIntegration(pos, vel mgl32.Vec3, space geom.Cuboid) (mgl32.Vec3, mgl32.Vec3) {
	return pos, vel
}
