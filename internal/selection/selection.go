// Package selection keeps the ordered set of selected shapes of a document.
package selection

import (
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// Model is an ordered, duplicate-free set of shapes. The first element is the
// primary shape of a multi-selection. Every mutating call emits exactly one
// change notification with the resulting set.
type Model struct {
	store    *scene.Store
	shapes   []*scene.Shape
	onChange event.Emitter[[]*scene.Shape]
}

// New creates an empty selection over store.
func New(store *scene.Store) *Model {
	return &Model{store: store}
}

// OnChange registers a listener for selection changes.
func (m *Model) OnChange(fn func([]*scene.Shape)) event.Handle {
	return m.onChange.On(fn)
}

// Reset binds the model to another document and clears it.
func (m *Model) Reset(store *scene.Store) {
	m.store = store
	m.shapes = nil
	m.notify()
}

// Shapes returns a copy of the selected shapes in selection order.
func (m *Model) Shapes() []*scene.Shape {
	return slices.Clone(m.shapes)
}

// IDs returns the ids of the selected shapes.
func (m *Model) IDs() []string {
	return IDsOf(m.shapes)
}

// IDsOf returns the ids of shapes in order.
func IDsOf(shapes []*scene.Shape) []string {
	ids := make([]string, len(shapes))
	for i, s := range shapes {
		ids[i] = s.ID
	}
	return ids
}

// Size returns the number of selected shapes.
func (m *Model) Size() int { return len(m.shapes) }

// Primary returns the first selected shape, or nil.
func (m *Model) Primary() *scene.Shape {
	if len(m.shapes) == 0 {
		return nil
	}
	return m.shapes[0]
}

// IsSelected reports whether s is part of the selection.
func (m *Model) IsSelected(s *scene.Shape) bool {
	return m.indexOf(s) >= 0
}

// Select replaces the selection.
func (m *Model) Select(shapes ...*scene.Shape) {
	m.shapes = m.shapes[:0]
	m.add(shapes)
	m.notify()
}

// SelectAdditional adds shapes that are not yet selected.
func (m *Model) SelectAdditional(shapes ...*scene.Shape) {
	m.add(shapes)
	m.notify()
}

// Deselect removes shapes from the selection.
func (m *Model) Deselect(shapes ...*scene.Shape) {
	m.shapes = slices.DeleteFunc(m.shapes, func(s *scene.Shape) bool {
		return slices.ContainsFunc(shapes, func(d *scene.Shape) bool { return d != nil && d.ID == s.ID })
	})
	m.notify()
}

// DeselectAll empties the selection, notifying listeners if it was not empty.
func (m *Model) DeselectAll() {
	m.shapes = m.shapes[:0]
	m.notify()
}

// Toggle removes s when it is selected and adds it otherwise.
func (m *Model) Toggle(s *scene.Shape) {
	if m.IsSelected(s) {
		m.Deselect(s)
		return
	}
	m.SelectAdditional(s)
}

// SelectArea selects the top-level shapes whose global bounds overlap the
// rectangle spanned by (x0,y0) and (x1,y1), in any corner order.
func (m *Model) SelectArea(x0, y0, x1, y1 float64) {
	r := geometry.NormalizeRect(geometry.Pt(x0, y0), geometry.Pt(x1, y1))
	var hits []*scene.Shape
	if m.store != nil {
		for _, s := range m.store.Children(m.store.Root()) {
			if s.Visible && m.store.OverlapRect(s, r) {
				hits = append(hits, s)
			}
		}
	}
	m.Select(hits...)
}

// Prune drops shapes that are no longer part of the document. It notifies only
// when something was removed.
func (m *Model) Prune() {
	n := len(m.shapes)
	m.shapes = slices.DeleteFunc(m.shapes, func(s *scene.Shape) bool {
		return m.store == nil || !m.store.Has(s)
	})
	if len(m.shapes) != n {
		m.notify()
	}
}

func (m *Model) add(shapes []*scene.Shape) {
	for _, s := range shapes {
		if s != nil && s.Kind != scene.KindDocument && m.indexOf(s) < 0 {
			m.shapes = append(m.shapes, s)
		}
	}
}

func (m *Model) indexOf(s *scene.Shape) int {
	if s == nil {
		return -1
	}
	return slices.IndexFunc(m.shapes, func(x *scene.Shape) bool { return x.ID == s.ID })
}

func (m *Model) notify() {
	m.onChange.Emit(m.Shapes())
}
