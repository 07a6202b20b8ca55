package simcore

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/sph3d/fluidcore/config"
	"github.com/sph3d/fluidcore/spatial"
)

// visitFunc is called once per in-range neighbor j of particle i, with the
// separation vector r_i - r_j and its squared length (both already known
// to satisfy |r| <= h).
type visitFunc func(j int, rij mgl32.Vec3, distSq float32)

// neighborFunc enumerates the neighbors of particle i. Selected once per
// step from the computation mode, per spec.md §9's redesign note on
// keeping the inner loop monomorphic.
type neighborFunc func(i int, visit visitFunc)

func (s *ParticleSystem) selectNeighborFunc() neighborFunc {
	h2 := s.kernelTable.RadiusSq()
	positions := s.snapPos

	if s.cfg.ComputationMode == config.ComputationGrid {
		grid := s.grid
		return func(i int, visit visitFunc) {
			pi := positions[i]
			for _, key := range grid.NeighborKeys(pi) {
				for _, p := range grid.Bucket(key) {
					rij := pi.Sub(p.Position)
					d2 := rij.LenSqr()
					if d2 > h2 {
						continue
					}
					visit(p.Index, rij, d2)
				}
			}
		}
	}

	return func(i int, visit visitFunc) {
		pi := positions[i]
		for j, pj := range positions {
			rij := pi.Sub(pj)
			d2 := rij.LenSqr()
			if d2 > h2 {
				continue
			}
			visit(j, rij, d2)
		}
	}
}

// doStep runs the grid rebuild and three SPH passes, then applies the
// result back to the ECS components. Returns NotInitialized if the system
// is not Ready.
func (s *ParticleSystem) doStep() error {
	if !s.ready {
		return newError(NotInitialized, "simulate called before scene load (generateInitialParticles and setSimulationSpace)")
	}

	n := len(s.entities)
	if n == 0 {
		return newError(NotInitialized, "no live particles")
	}

	// Phase A: snapshot current ECS state (single-threaded, preserves a
	// stable read-only view for the parallel passes below).
	s.snapshotFromECS()

	if s.cfg.ComputationMode == config.ComputationGrid {
		s.timed("grid_rebuild", s.rebuildGrid)
	}

	neighbors := s.selectNeighborFunc()
	gravity := s.gravityVector()
	resolver := s.resolver()
	field, fieldActive := s.externalField()

	mass := s.physics.ParticleMass
	restDensity := s.physics.RestDensity
	gasConstant := s.physics.GasConstant
	viscosity := s.physics.Viscosity
	dt := float32(config.FixedDT)
	space := s.space

	// Pass 1: density and pressure.
	s.timed("density_pressure", func() {
		s.pool.ForRange(n, func(start, end int) {
			for i := start; i < end; i++ {
				density := float32(0)
				neighbors(i, func(j int, rij mgl32.Vec3, _ float32) {
					density += mass * s.kernelTable.Poly6(rij)
				})
				s.outDensity[i] = density
				s.outPressure[i] = gasConstant * (density - restDensity)
			}
		})
	})

	// Pass 2: acceleration.
	s.timed("acceleration", func() {
		s.pool.ForRange(n, func(start, end int) {
			for i := start; i < end; i++ {
				var fPressure, fViscosity mgl32.Vec3
				pi := s.outPressure[i]
				vi := s.snapVel[i]

				neighbors(i, func(j int, rij mgl32.Vec3, _ float32) {
					if j == i {
						return
					}
					pj := s.outPressure[j]
					rhoJ := s.outDensity[j]
					if rhoJ == 0 {
						return
					}
					pressureCoeff := -mass * (pi + pj) / (2 * rhoJ)
					fPressure = fPressure.Add(s.kernelTable.SpikyGradient(rij).Mul(pressureCoeff))

					viscCoeff := mass * viscosity / rhoJ
					relVel := s.snapVel[j].Sub(vi)
					fViscosity = fViscosity.Add(relVel.Mul(viscCoeff * s.kernelTable.ViscosityLaplacian(rij)))
				})

				fExternal := gravity
				if s.cfg.Collision.Method == config.CollisionForce {
					fExternal = fExternal.Add(resolver.BoundaryForce(s.snapPos[i], vi, space))
				}
				if fieldActive {
					fExternal = fExternal.Add(field.ForceAt(s.snapPos[i]))
				}

				rho := s.outDensity[i]
				if rho == 0 {
					s.outAccel[i] = mgl32.Vec3{}
					continue
				}
				s.outAccel[i] = fPressure.Add(fViscosity).Add(fExternal).Mul(1 / rho)
			}
		})
	})

	// Pass 3: symplectic Verlet integration and boundary resolution.
	s.timed("integration", func() {
		s.pool.ForRange(n, func(start, end int) {
			for i := start; i < end; i++ {
				pos := s.snapPos[i]
				vel := s.snapVel[i]
				accel := s.outAccel[i]

				newPos := pos.Add(vel.Mul(dt)).Add(accel.Mul(dt * dt))
				newVel := newPos.Sub(pos).Mul(1 / dt)

				newPos, newVel = resolver.AfterIntegration(newPos, newVel, space)

				s.outPos[i] = newPos
				s.outVel[i] = newVel
			}
		})
	})

	s.applyToECS()
	copy(s.prevDensity, s.outDensity)
	copy(s.prevPressure, s.outPressure)
	return nil
}

// timed runs fn and reports its wall-clock duration to the diagnostics hook
// if one is registered, per spec.md §6's optional diagnostic mode.
func (s *ParticleSystem) timed(phase string, fn func()) {
	if s.diagHook == nil {
		fn()
		return
	}
	start := time.Now()
	fn()
	s.diagHook(phase, time.Since(start))
}

// snapshotFromECS copies Position and Velocity into the scratch arrays
// used by the parallel passes (Phase A of the teacher's snapshot/compute/
// apply pattern in game/parallel.go).
func (s *ParticleSystem) snapshotFromECS() {
	query := s.filter.Query()
	i := 0
	for query.Next() {
		pos, vel, _, _, _ := query.Get()
		s.snapEntities[i] = query.Entity()
		s.snapPos[i] = pos.V
		s.snapVel[i] = vel.V
		i++
	}
}

// rebuildGrid repopulates the spatial grid from the current position
// snapshot, once per step, per spec.md §4.2's clear-and-refill policy.
// Density/Pressure on each bucket copy carry the previous step's values:
// Pass 2 does not read them (it addresses outDensity/outPressure by
// index), so staleness here only matters to external observers of
// Grid.Bucket, which see last step's field values until the next rebuild.
func (s *ParticleSystem) rebuildGrid() {
	particles := make([]spatial.Particle, len(s.snapPos))
	for i := range particles {
		particles[i] = spatial.Particle{
			Index:    i,
			Position: s.snapPos[i],
			Velocity: s.snapVel[i],
			Density:  s.prevDensity[i],
			Pressure: s.prevPressure[i],
		}
	}
	s.grid.Rebuild(s.pool, particles)
}

// applyToECS writes Pass 3's results back into the live components
// (Phase C, single-threaded to preserve deterministic write ordering).
func (s *ParticleSystem) applyToECS() {
	for i, e := range s.snapEntities {
		pos := s.posMap.Get(e)
		vel := s.velMap.Get(e)
		accel := s.accelMap.Get(e)
		density := s.densityMap.Get(e)
		pressure := s.pressureMap.Get(e)

		pos.V = s.outPos[i]
		vel.V = s.outVel[i]
		accel.V = s.outAccel[i]
		density.Value = s.outDensity[i]
		pressure.Value = s.outPressure[i]

		s.viewCache[i] = ParticleView{
			Position: pos.V,
			Velocity: vel.V,
			Density:  density.Value,
			Pressure: pressure.Value,
		}
	}
}
