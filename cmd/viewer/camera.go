package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OrbitCamera is a simple arc-ball camera around a fixed target, grounded
// on camera/camera.go's pan/zoom state-holder shape (there a 2D toroidal
// camera; here generalized to 3D orbit since the simulation space is a
// cuboid volume, not a wrapping plane).
type OrbitCamera struct {
	Target         mgl32.Vec3
	Distance       float32
	Yaw, Pitch     float32
	MinDistance    float32
	MaxDistance    float32
}

// NewOrbitCamera centers the camera on target, looking from distance away.
func NewOrbitCamera(target mgl32.Vec3, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:      target,
		Distance:    distance,
		Yaw:         45 * math.Pi / 180,
		Pitch:       25 * math.Pi / 180,
		MinDistance: 0.5,
		MaxDistance: 20,
	}
}

// HandleInput applies mouse drag (rotate) and mouse scroll (zoom), per
// spec.md §6's input surface.
func (c *OrbitCamera) HandleInput() {
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		delta := rl.GetMouseDelta()
		const sensitivity = 0.0035
		c.Yaw -= delta.X * sensitivity
		c.Pitch -= delta.Y * sensitivity
		const maxPitch = 1.5
		if c.Pitch > maxPitch {
			c.Pitch = maxPitch
		}
		if c.Pitch < -maxPitch {
			c.Pitch = -maxPitch
		}
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.Distance -= wheel * c.Distance * 0.1
		if c.Distance < c.MinDistance {
			c.Distance = c.MinDistance
		}
		if c.Distance > c.MaxDistance {
			c.Distance = c.MaxDistance
		}
	}
}

// Position returns the camera's world-space eye position.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	x := c.Distance * float32(math.Cos(float64(c.Pitch))) * float32(math.Cos(float64(c.Yaw)))
	y := c.Distance * float32(math.Sin(float64(c.Pitch)))
	z := c.Distance * float32(math.Cos(float64(c.Pitch))) * float32(math.Sin(float64(c.Yaw)))
	return c.Target.Add(mgl32.Vec3{x, y, z})
}

// ToRaylib builds the rl.Camera3D this frame's view uses.
func (c *OrbitCamera) ToRaylib() rl.Camera3D {
	return rl.Camera3D{
		Position:   toRlVec3(c.Position()),
		Target:     toRlVec3(c.Target),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
