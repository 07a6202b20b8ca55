package scene

import "github.com/sph3d/fluidcore/simcore"

// Registry holds the set of scenes the controller can load by name.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a previously validated descriptor, replacing any existing
// scene with the same name.
func (r *Registry) Register(d Descriptor) {
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
}

// Get looks up a scene by name.
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, simcore.NewError(simcore.SceneInvalid, "no registered scene named "+name)
	}
	return d, nil
}

// Names returns the registered scene names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len reports the number of registered scenes.
func (r *Registry) Len() int { return len(r.order) }
