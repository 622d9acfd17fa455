package editor

import "github.com/inamate/inamate/diagram-go/internal/scene"

// SelectionsTag is the registry key of the manipulator used when two or more
// shapes are selected. It receives the document root as its shape.
const SelectionsTag = "selections"

// Registry maps a shape type tag to its manipulator.
type Registry struct {
	manipulators map[string]Manipulator
}

func NewRegistry() *Registry {
	return &Registry{manipulators: make(map[string]Manipulator)}
}

// Register adds a manipulator for tag, replacing any previous one.
func (r *Registry) Register(tag string, m Manipulator) {
	r.manipulators[tag] = m
}

// Get returns the manipulator registered for tag.
func (r *Registry) Get(tag string) (Manipulator, bool) {
	m, ok := r.manipulators[tag]
	return m, ok
}

// For returns the manipulator of a shape's kind. Kinds without one have no
// interactive affordance.
func (r *Registry) For(s *scene.Shape) (Manipulator, bool) {
	if s == nil {
		return nil, false
	}
	return r.Get(string(s.Kind))
}
