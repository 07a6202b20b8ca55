// Package scene implements the scene registry and lifecycle controller
// described in spec.md §3's SceneDescriptor and §4.7's state machine,
// grounded on pthm-soup/game/lifecycle.go's spawn/cleanup slog diagnostics
// and main.go's top-level run loop shape.
package scene

import (
	"fmt"

	"github.com/sph3d/fluidcore/geom"
	"github.com/sph3d/fluidcore/simcore"
)

// Descriptor names a simulation space and the fluid-source cuboids to fill
// it with at scene load.
type Descriptor struct {
	Name    string
	Space   geom.Cuboid
	Sources []geom.Cuboid
}

// NewDescriptor validates that every source cuboid is fully contained in
// space, per spec.md §3's SceneDescriptor invariant, returning SceneInvalid
// on the first violation found.
func NewDescriptor(name string, space geom.Cuboid, sources []geom.Cuboid) (Descriptor, error) {
	for i, src := range sources {
		if !space.ContainsCuboid(src) {
			return Descriptor{}, simcore.NewError(simcore.SceneInvalid,
				fmt.Sprintf("scene %q: fluid-source cuboid %d escapes simulation space", name, i))
		}
	}
	return Descriptor{Name: name, Space: space, Sources: append([]geom.Cuboid(nil), sources...)}, nil
}
