// Package geom provides the axis-aligned cuboid geometry used to describe
// the simulation space and fluid-source volumes, grounded on
// original_source's Cuboid::contains/get_volume/fill_with_particles.
package geom

import "github.com/go-gl/mathgl/mgl32"

// Cuboid is an axis-aligned box described by its min and max corners.
type Cuboid struct {
	Min, Max mgl32.Vec3
}

// NewCuboid builds a cuboid from six scalar bounds.
func NewCuboid(xMin, xMax, yMin, yMax, zMin, zMax float32) Cuboid {
	return Cuboid{
		Min: mgl32.Vec3{xMin, yMin, zMin},
		Max: mgl32.Vec3{xMax, yMax, zMax},
	}
}

// ContainsPoint reports whether pos lies within the closed cuboid volume.
func (c Cuboid) ContainsPoint(pos mgl32.Vec3) bool {
	return pos.X() >= c.Min.X() && pos.X() <= c.Max.X() &&
		pos.Y() >= c.Min.Y() && pos.Y() <= c.Max.Y() &&
		pos.Z() >= c.Min.Z() && pos.Z() <= c.Max.Z()
}

// ContainsCuboid reports whether other is fully contained within c.
func (c Cuboid) ContainsCuboid(other Cuboid) bool {
	return other.Min.X() >= c.Min.X() && other.Max.X() <= c.Max.X() &&
		other.Min.Y() >= c.Min.Y() && other.Max.Y() <= c.Max.Y() &&
		other.Min.Z() >= c.Min.Z() && other.Max.Z() <= c.Max.Z()
}

// Extent returns the per-axis edge lengths.
func (c Cuboid) Extent() mgl32.Vec3 {
	return c.Max.Sub(c.Min)
}

// Volume returns the cuboid's volume.
func (c Cuboid) Volume() float32 {
	e := c.Extent()
	return e.X() * e.Y() * e.Z()
}

// Center returns the cuboid's geometric center, used as the arc-ball
// camera's point of interest by the (external) rendering collaborator.
func (c Cuboid) Center() mgl32.Vec3 {
	return c.Min.Add(c.Max).Mul(0.5)
}

// GenerateParticles returns positions regularly spaced at distance d
// inside the cuboid, inset by d/2 on every face so no particle starts
// exactly on the boundary.
func (c Cuboid) GenerateParticles(d float32) []mgl32.Vec3 {
	if d <= 0 {
		return nil
	}

	var positions []mgl32.Vec3
	half := d / 2
	// The small slack keeps a row that lands exactly on the inset bound
	// from being dropped by float accumulation error.
	slack := d * 1e-3
	xEnd := c.Max.X() - half + slack
	yEnd := c.Max.Y() - half + slack
	zEnd := c.Max.Z() - half + slack
	for x := c.Min.X() + half; x <= xEnd; x += d {
		for y := c.Min.Y() + half; y <= yEnd; y += d {
			for z := c.Min.Z() + half; z <= zEnd; z += d {
				positions = append(positions, mgl32.Vec3{x, y, z})
			}
		}
	}
	return positions
}
