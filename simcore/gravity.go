package simcore

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/config"
)

// gravityVector returns this step's gravity acceleration and advances the
// internal mode counters (rot_90's step count, wave's theta), per spec.md
// §4.3. Must be called exactly once per step, before Pass 2.
func (s *ParticleSystem) gravityVector() mgl32.Vec3 {
	g := s.cfg.Gravity.Magnitude

	switch s.cfg.Gravity.Mode {
	case config.GravityOff:
		return mgl32.Vec3{}

	case config.GravityNormal:
		return mgl32.Vec3{0, -g, 0}

	case config.GravityRot90:
		ticks := s.cfg.Gravity.RotSwitchTicks
		if ticks <= 0 {
			ticks = 1
		}
		phase := (s.gravityStepCount / ticks) % 2
		s.gravityStepCount++
		if phase == 0 {
			return mgl32.Vec3{0, -g, 0}
		}
		return mgl32.Vec3{-g, 0, 0}

	case config.GravityWave:
		theta := s.gravityTheta
		s.gravityTheta += float32(math.Pi) / 180
		return mgl32.Vec3{
			float32(math.Sin(float64(theta))) * g,
			-float32(math.Abs(math.Cos(float64(theta)))) * g,
			0,
		}

	default:
		return mgl32.Vec3{}
	}
}
