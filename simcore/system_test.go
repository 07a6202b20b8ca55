package simcore

import (
	"errors"
	"math"
	"testing"

	"github.com/sph3d/fluidcore/config"
	"github.com/sph3d/fluidcore/geom"
)

func testPhysics() config.PhysicsConfig {
	return config.PhysicsConfig{
		ParticleMass:   0.02,
		RestDensity:    998.29,
		GasConstant:    0.1,
		Viscosity:      0.00089,
		InitialSpacing: 0.128,
	}
}

func newReadySystem(t *testing.T, numThreads int) *ParticleSystem {
	t.Helper()
	s := New(numThreads)
	space := geom.NewCuboid(-1, 1, -1, 1, -1, 1)
	if err := s.SetSimulationSpace(space); err != nil {
		t.Fatalf("SetSimulationSpace: %v", err)
	}
	source := geom.NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	if err := s.GenerateInitialParticles([]geom.Cuboid{source}, testPhysics()); err != nil {
		t.Fatalf("GenerateInitialParticles: %v", err)
	}
	if !s.IsReady() {
		t.Fatal("expected system to be Ready after space+particles")
	}
	return s
}

func TestSimulateBeforeInitializationFails(t *testing.T) {
	s := New(2)
	err := s.Simulate()
	if !errors.Is(err, Sentinel(NotInitialized)) {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestReadyOrderIndependence(t *testing.T) {
	// space first, then particles
	a := New(1)
	space := geom.NewCuboid(-1, 1, -1, 1, -1, 1)
	source := geom.NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	a.SetSimulationSpace(space)
	if err := a.GenerateInitialParticles([]geom.Cuboid{source}, testPhysics()); err != nil {
		t.Fatalf("GenerateInitialParticles: %v", err)
	}
	if !a.IsReady() {
		t.Fatal("expected Ready: space-then-particles")
	}

	// particles first, then space
	b := New(1)
	if err := b.GenerateInitialParticles([]geom.Cuboid{source}, testPhysics()); err != nil {
		t.Fatalf("GenerateInitialParticles: %v", err)
	}
	if b.IsReady() {
		t.Fatal("expected not-Ready before a space is set")
	}
	if err := b.SetSimulationSpace(space); err != nil {
		t.Fatalf("SetSimulationSpace: %v", err)
	}
	if !b.IsReady() {
		t.Fatal("expected Ready: particles-then-space")
	}
}

func TestSetSimulationSpaceInvalidatesReadySystem(t *testing.T) {
	s := newReadySystem(t, 1)
	if err := s.SetSimulationSpace(geom.NewCuboid(-2, 2, -2, 2, -2, 2)); err != nil {
		t.Fatalf("SetSimulationSpace: %v", err)
	}
	if s.IsReady() {
		t.Fatal("expected changing an established space to drop Ready")
	}
	if err := s.Simulate(); !errors.Is(err, Sentinel(NotInitialized)) {
		t.Fatalf("expected NotInitialized after space change, got %v", err)
	}
}

func TestGenerateInitialParticlesRejectsSceneEscapingSource(t *testing.T) {
	s := New(1)
	if err := s.SetSimulationSpace(geom.NewCuboid(-1, 1, -1, 1, -1, 1)); err != nil {
		t.Fatalf("SetSimulationSpace: %v", err)
	}
	escaping := geom.NewCuboid(-2, 2, -2, 2, -2, 2)
	err := s.GenerateInitialParticles([]geom.Cuboid{escaping}, testPhysics())
	if !errors.Is(err, Sentinel(SceneInvalid)) {
		t.Fatalf("expected SceneInvalid, got %v", err)
	}
}

func TestGenerateInitialParticlesRejectsInvalidPhysics(t *testing.T) {
	s := New(1)
	bad := testPhysics()
	bad.ParticleMass = -1
	err := s.GenerateInitialParticles([]geom.Cuboid{geom.NewCuboid(-1, 1, -1, 1, -1, 1)}, bad)
	if !errors.Is(err, Sentinel(ConfigInvalid)) {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func TestIncreaseDensityRespectsBounds(t *testing.T) {
	s := newReadySystem(t, 1)
	for i := 0; i < 100; i++ {
		if !s.IncreaseDensity() {
			break
		}
	}
	if s.PendingPhysics().InitialSpacing < config.MinInitialSpacing {
		t.Fatalf("spacing dropped below minimum: %v", s.PendingPhysics().InitialSpacing)
	}
	if s.IsReady() {
		t.Fatal("expected spacing change to drop Ready")
	}
}

func TestForceCollisionDisallowedWithGridMode(t *testing.T) {
	s := newReadySystem(t, 1)
	if err := s.SetComputationMode(config.ComputationGrid); err != nil {
		t.Fatalf("SetComputationMode: %v", err)
	}
	err := s.SetCollisionMethod(config.CollisionForce)
	if !errors.Is(err, Sentinel(ConfigInvalid)) {
		t.Fatalf("expected ConfigInvalid combining force+grid, got %v", err)
	}
}

func TestSimulateKeepsParticlesInsideSimulationSpace(t *testing.T) {
	s := newReadySystem(t, 2)
	s.SetGravityMode(config.GravityNormal)
	cfg := s.Config()
	cfg.Gravity.Magnitude = 9.8
	cfg.Collision.Reflexion.Damping = 0.5
	s.SetConfig(cfg)

	for i := 0; i < 50; i++ {
		if err := s.Simulate(); err != nil {
			t.Fatalf("Simulate step %d: %v", i, err)
		}
	}

	space := s.SimulationSpace()
	for i, p := range s.Particles() {
		if !space.ContainsPoint(p.Position) {
			t.Fatalf("particle %d escaped simulation space: %v", i, p.Position)
		}
		if math.IsNaN(float64(p.Density)) {
			t.Fatalf("particle %d has NaN density", i)
		}
	}
}

func TestPauseStopsSimulateFromAdvancing(t *testing.T) {
	s := newReadySystem(t, 1)
	s.Pause()
	before := append([]ParticleView(nil), s.Particles()...)
	if err := s.Simulate(); err != nil {
		t.Fatalf("Simulate while paused: %v", err)
	}
	after := s.Particles()
	if len(before) != len(after) {
		t.Fatal("particle count changed while paused")
	}
	for i := range before {
		if before[i].Position != after[i].Position {
			t.Fatal("expected no movement while paused")
		}
	}
}

func TestDeterminismAtSingleThread(t *testing.T) {
	run := func() []ParticleView {
		s := newReadySystem(t, 1)
		s.SetGravityMode(config.GravityNormal)
		for i := 0; i < 100; i++ {
			if err := s.Simulate(); err != nil {
				t.Fatalf("Simulate: %v", err)
			}
		}
		return append([]ParticleView(nil), s.Particles()...)
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("particle count mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d diverged between identical runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGravityNormalIsMonotonicNonIncreasingMeanY(t *testing.T) {
	s := newReadySystem(t, 1)
	s.SetGravityMode(config.GravityNormal)
	cfg := s.Config()
	cfg.Gravity.Magnitude = 9.8
	if err := s.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	meanY := func() float32 {
		var sum float32
		views := s.Particles()
		for _, p := range views {
			sum += p.Position.Y()
		}
		return sum / float32(len(views))
	}

	prev := meanY()
	const epsilon = 1e-4
	for i := 0; i < 50; i++ {
		if err := s.Simulate(); err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		cur := meanY()
		if cur > prev+epsilon {
			t.Fatalf("mean y increased at step %d: %v -> %v", i, prev, cur)
		}
		prev = cur
	}
}
