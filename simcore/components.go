package simcore

import "github.com/go-gl/mathgl/mgl32"

// Position, Velocity, Acceleration, Density and Pressure are the five ECS
// components ParticleSystem owns per spec.md §3's Particle data model.
// Each wraps a distinct Go type so github.com/mlange-42/ark can address it
// independently through Map5/Filter5, generalized from the teacher's
// (pthm-soup) components.Position/Velocity pattern.
type Position struct{ V mgl32.Vec3 }

type Velocity struct{ V mgl32.Vec3 }

type Acceleration struct{ V mgl32.Vec3 }

type Density struct{ Value float32 }

type Pressure struct{ Value float32 }
