package scene

import (
	"errors"
	"testing"

	"github.com/sph3d/fluidcore/config"
	"github.com/sph3d/fluidcore/geom"
	"github.com/sph3d/fluidcore/marching"
	"github.com/sph3d/fluidcore/simcore"
	"github.com/sph3d/fluidcore/workpool"
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

func TestNewDescriptorRejectsEscapingSource(t *testing.T) {
	space := geom.NewCuboid(-1, 1, -1, 1, -1, 1)
	escaping := geom.NewCuboid(-2, 2, -2, 2, -2, 2)
	_, err := NewDescriptor("escape", space, []geom.Cuboid{escaping})
	if !errors.Is(err, simcore.Sentinel(simcore.SceneInvalid)) {
		t.Fatalf("expected SceneInvalid, got %v", err)
	}
}

func TestNewDescriptorAcceptsContainedSource(t *testing.T) {
	space := geom.NewCuboid(-1, 1, -1, 1, -1, 1)
	source := geom.NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	d, err := NewDescriptor("ok", space, []geom.Cuboid{source})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	if d.Name != "ok" || len(d.Sources) != 1 {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
}

func TestRegistryGetUnknownSceneFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	if !errors.Is(err, simcore.Sentinel(simcore.SceneInvalid)) {
		t.Fatalf("expected SceneInvalid, got %v", err)
	}
}

func newTestController(t *testing.T) (*Controller, *Registry) {
	t.Helper()
	space := geom.NewCuboid(-1, 1, -1, 1, -1, 1)
	source := geom.NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)
	desc, err := NewDescriptor("single-cube", space, []geom.Cuboid{source})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	registry := NewRegistry()
	registry.Register(desc)

	system := simcore.New(1)
	cfg := system.Config()
	cfg.Physics = testPhysics()
	if err := system.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	mc := marching.New(system, workpool.New(1), 0.2, 0.5)

	return NewController(registry, system, mc), registry
}

func TestControllerStartReachesSimRun(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Start("single-cube"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != SimRun {
		t.Fatalf("expected SIM_RUN, got %v", c.State())
	}
}

func TestControllerStartUnknownSceneTerminates(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Start("missing"); err == nil {
		t.Fatal("expected error starting unknown scene")
	}
	if c.State() != AppTerm || !c.Terminated() {
		t.Fatalf("expected APP_TERM, got %v (terminated=%v)", c.State(), c.Terminated())
	}
}

func TestControllerRunFrameOutsideSimRunFails(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.RunFrame(); !errors.Is(err, simcore.Sentinel(simcore.NotInitialized)) {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestControllerRunFrameAdvancesSimulation(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Start("single-cube"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := c.RunFrame(); err != nil {
			t.Fatalf("RunFrame step %d: %v", i, err)
		}
	}
	if c.State() != SimRun {
		t.Fatalf("expected to stay in SIM_RUN, got %v", c.State())
	}
}

func TestControllerReloadReturnsToSimRun(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Start("single-cube"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c.State() != SimRun {
		t.Fatalf("expected SIM_RUN after reload, got %v", c.State())
	}
}
