package scene

import "github.com/sph3d/fluidcore/geom"

// The named scenes below reproduce the six end-to-end scenarios spec.md §8
// exercises, with their exact domains and fluid-source cuboids. d (the
// particle spacing) is a PhysicsConfig concern, not a Descriptor one, so
// callers pair these with the matching config.PhysicsConfig.InitialSpacing.
const (
	SingleCube   = "single_cube"
	DamBreak     = "dam_break"
	DropletFall  = "droplet_fall"
)

// NewSingleCubeDescriptor builds the scene used by the single-cube, scale-
// invariance, thread-safety, and MC-closure scenarios: domain [-1,1]^3 with
// a fluid source centered in it, [-0.5,0.5]^3.
func NewSingleCubeDescriptor() Descriptor {
	d, err := NewDescriptor(
		SingleCube,
		geom.NewCuboid(-1, 1, -1, 1, -1, 1),
		[]geom.Cuboid{geom.NewCuboid(-0.5, 0.5, -0.5, 0.5, -0.5, 0.5)},
	)
	if err != nil {
		// The source cuboid is fixed above and always contained; a failure
		// here would mean this file itself is wrong.
		panic(err)
	}
	return d
}

// NewDamBreakDescriptor builds the dam-break scene: domain [-1,1]^3 with a
// fluid column filling the left half, [-1,-0.5]x[-1,1]x[-1,1].
func NewDamBreakDescriptor() Descriptor {
	d, err := NewDescriptor(
		DamBreak,
		geom.NewCuboid(-1, 1, -1, 1, -1, 1),
		[]geom.Cuboid{geom.NewCuboid(-1, -0.5, -1, 1, -1, 1)},
	)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDropletFallDescriptor builds the droplet-fall scene: a floor slab plus
// a small cube source suspended above it, so the two sources merge into one
// dominant mode near the floor over the run.
func NewDropletFallDescriptor() Descriptor {
	d, err := NewDescriptor(
		DropletFall,
		geom.NewCuboid(-1, 1, -1, 1, -1, 1),
		[]geom.Cuboid{
			geom.NewCuboid(-1, 1, -1, -0.7, -1, 1),
			geom.NewCuboid(-0.2, 0.2, 0.3, 0.7, -0.2, 0.2),
		},
	)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDefaultRegistry returns a Registry preloaded with every named scene.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewSingleCubeDescriptor())
	r.Register(NewDamBreakDescriptor())
	r.Register(NewDropletFallDescriptor())
	return r
}
