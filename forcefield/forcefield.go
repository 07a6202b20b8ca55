// Package forcefield implements the interactive cylindrical attract/repel
// tool described in spec.md §4.3: a ray cast from the viewer camera acts on
// every particle within Radius of the ray's infinite line with a force
// along Ray x offset (tangential to the cylinder around the ray), its sign
// set by the polarity, falling off with distance from that line.
package forcefield

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/config"
)

// Direction selects the sign of the field's force: repellent pushes along
// Ray x offset, attractive along the opposite direction.
type Direction = config.ForceDirection

// Field is a ray-anchored cylindrical force source. Origin and Ray (a unit
// vector) define the ray; only particles within Radius of the ray's line
// are affected.
type Field struct {
	Origin    mgl32.Vec3
	Ray       mgl32.Vec3 // unit vector
	Radius    float32
	Strength  float32
	Polarity  config.ForceDirection
	epsilon   float32
}

// New builds a Field from a camera ray. dir need not be pre-normalized.
func New(origin, dir mgl32.Vec3, radius, strength float32, polarity config.ForceDirection) Field {
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Field{
		Origin:   origin,
		Ray:      dir,
		Radius:   radius,
		Strength: strength,
		Polarity: polarity,
		epsilon:  1e-4,
	}
}

// closestPointAndDistance projects pos onto the field's infinite ray and
// returns the perpendicular vector from the ray to pos (pointing away from
// the ray) along with its length.
func (f Field) closestPointAndDistance(pos mgl32.Vec3) (mgl32.Vec3, float32) {
	toPoint := pos.Sub(f.Origin)
	along := toPoint.Dot(f.Ray)
	closest := f.Origin.Add(f.Ray.Mul(along))
	perp := pos.Sub(closest)
	return perp, perp.Len()
}

// ForceAt returns the additional acceleration-stage force contributed to a
// particle at pos. Zero outside Radius. Falloff is 1/(distance+epsilon),
// chosen so the field remains finite exactly on the ray's line (spec.md §9
// leaves the falloff curve an Open Question; see DESIGN.md).
func (f Field) ForceAt(pos mgl32.Vec3) mgl32.Vec3 {
	perp, dist := f.closestPointAndDistance(pos)
	if dist > f.Radius {
		return mgl32.Vec3{}
	}
	if dist < f.epsilon {
		return mgl32.Vec3{}
	}

	magnitude := f.Strength / (dist + f.epsilon)
	direction := f.Ray.Cross(perp)
	if l := direction.Len(); l > f.epsilon {
		direction = direction.Mul(1 / l)
	}
	if f.Polarity == config.ForceAttractive {
		direction = direction.Mul(-1)
	}
	return direction.Mul(magnitude)
}
