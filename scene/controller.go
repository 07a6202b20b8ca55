package scene

import (
	"log/slog"

	"github.com/sph3d/fluidcore/marching"
	"github.com/sph3d/fluidcore/simcore"
)

// State names a node of spec.md §4.7's lifecycle state machine.
type State int

const (
	Idle State = iota
	AppInit
	AppTerm
	SimInit
	SimRun
	SimTerm
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case AppInit:
		return "APP_INIT"
	case AppTerm:
		return "APP_TERM"
	case SimInit:
		return "SIM_INIT"
	case SimRun:
		return "SIM_RUN"
	case SimTerm:
		return "SIM_TERM"
	default:
		return "UNKNOWN"
	}
}

// mcGenerator is the narrow view Controller needs of the Marching Cubes
// generator: just enough to notify it of a scene reload.
type mcGenerator interface {
	OnSimulationSpaceChanged()
}

// Controller drives the IDLE/APP_INIT/APP_TERM/SIM_INIT/SIM_RUN/SIM_TERM
// state machine of spec.md §4.7. It owns the scene registry and decides
// which scene loads next; it does not own the window or input surface,
// which are an external rendering collaborator's responsibility per
// spec.md §6.
type Controller struct {
	registry *Registry
	system   *simcore.ParticleSystem
	mc       mcGenerator

	state      State
	nextScene  string
	terminated bool
}

// NewController builds a controller in the IDLE state.
func NewController(registry *Registry, system *simcore.ParticleSystem, mc *marching.Generator) *Controller {
	return &Controller{
		registry: registry,
		system:   system,
		mc:       mc,
		state:    Idle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Terminated reports whether the controller has reached APP_TERM.
func (c *Controller) Terminated() bool { return c.terminated }

// Start transitions IDLE -> APP_INIT -> SIM_INIT, loading sceneName.
// Grounded on main.go's top-level setup sequence (flag parsing, window/
// registry construction, then entering the simulation loop), collapsed
// here into the controller since window/input setup belongs to the
// external rendering collaborator.
func (c *Controller) Start(sceneName string) error {
	if c.state != Idle {
		return simcore.NewError(simcore.ConfigInvalid, "Start called outside IDLE")
	}
	c.state = AppInit
	slog.Info("scene_controller_app_init")

	c.nextScene = sceneName
	c.state = SimInit
	return c.runSimInit()
}

// runSimInit loads the pending scene into the particle system and
// notifies the MC generator, per spec.md §4.7's SIM_INIT transition.
func (c *Controller) runSimInit() error {
	desc, err := c.registry.Get(c.nextScene)
	if err != nil {
		slog.Error("scene_load_failed", "scene", c.nextScene, "error", err)
		return c.terminate(err)
	}

	if err := c.system.SetSimulationSpace(desc.Space); err != nil {
		slog.Error("scene_set_space_failed", "scene", desc.Name, "error", err)
		return c.terminate(err)
	}
	if err := c.system.GenerateInitialParticles(desc.Sources, c.system.Config().Physics); err != nil {
		slog.Error("scene_generate_particles_failed", "scene", desc.Name, "error", err)
		return c.terminate(err)
	}
	c.mc.OnSimulationSpaceChanged()

	slog.Info("scene_loaded", "scene", desc.Name)
	c.state = SimRun
	return nil
}

// RunFrame executes one simulate() while in SIM_RUN, per spec.md §4.7
// ("SIM_RUN executes one simulate() and one visualize() per frame").
// visualize() itself is the external rendering collaborator's concern;
// the controller only drives the simulation side of the frame.
func (c *Controller) RunFrame() error {
	if c.state != SimRun {
		return simcore.NewError(simcore.NotInitialized, "RunFrame called outside SIM_RUN")
	}
	if err := c.system.Simulate(); err != nil {
		slog.Error("simulate_failed", "error", err)
		return c.terminate(err)
	}
	return nil
}

// RequestSceneChange schedules nextScene to load next and transitions
// SIM_RUN -> SIM_TERM -> SIM_INIT.
func (c *Controller) RequestSceneChange(nextScene string) error {
	if c.state != SimRun {
		return simcore.NewError(simcore.ConfigInvalid, "RequestSceneChange called outside SIM_RUN")
	}
	c.nextScene = nextScene
	c.state = SimTerm
	slog.Info("scene_unload", "next_scene", nextScene)

	c.state = SimInit
	return c.runSimInit()
}

// Reload reloads the currently active scene, equivalent to requesting a
// scene change to the same name (the 'R' key input surface per spec.md §6).
func (c *Controller) Reload() error {
	return c.RequestSceneChange(c.nextScene)
}

// terminate transitions to APP_TERM and records the triggering error.
// Spec.md §7: "a scene-load failure aborts the controller to APP_TERM."
func (c *Controller) terminate(cause error) error {
	c.state = AppTerm
	c.terminated = true
	slog.Error("app_terminated", "cause", cause)
	return cause
}
