package editor

import (
	"fmt"

	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

// Size given to shapes created by a click instead of a drag.
const (
	DefaultShapeWidth  = 100.0
	DefaultShapeHeight = 100.0
	minDragSize        = 2.0
)

// Factory materializes new shapes inside the container under them.
type Factory struct {
	ed       *Editor
	onCreate event.Emitter[*scene.Shape]
}

// OnCreate registers a listener fired after a shape is created.
func (f *Factory) OnCreate(fn func(*scene.Shape)) event.Handle {
	return f.onCreate.On(fn)
}

// Create inserts a shape of kind over the global rectangle r in a "create"
// transaction. Rectangles smaller than a couple of units get the default size.
func (f *Factory) Create(kind scene.Kind, r geometry.Rect) (*scene.Shape, error) {
	if kind == scene.KindLine {
		return f.CreateLine(geometry.Pt(r.X, r.Y), geometry.Pt(r.X+r.Width, r.Y+r.Height))
	}
	if kind == scene.KindDocument {
		return nil, fmt.Errorf("create %s: not a shape kind", kind)
	}
	if r.Width < minDragSize || r.Height < minDragSize {
		r.Width, r.Height = DefaultShapeWidth, DefaultShapeHeight
	}
	s := scene.NewShape(typeid.NewShapeID(), kind, r)
	switch kind {
	case scene.KindText:
		s.Name = "Text"
		s.Style.Fill = ""
	case scene.KindFrame:
		s.Name = "Frame"
	}
	return s, f.insert(s, r.Center(), nil)
}

// CreateLine inserts a two-point line from a to b (global coordinates).
func (f *Factory) CreateLine(a, b geometry.Point) (*scene.Shape, error) {
	r := geometry.NormalizeRect(a, b)
	if a.Distance(b) < minDragSize {
		b = a.Add(geometry.Pt(DefaultShapeWidth, 0))
		r = geometry.NormalizeRect(a, b)
	}
	r.Width, r.Height = max(r.Width, 1), max(r.Height, 1)
	s := scene.NewShape(typeid.NewShapeID(), scene.KindLine, r)
	return s, f.insert(s, r.Center(), []geometry.Point{a, b})
}

// insert places s centered on the global point center inside the container
// there, upright on screen. path is in global coordinates.
func (f *Factory) insert(s *scene.Shape, center geometry.Point, path []geometry.Point) error {
	ed := f.ed
	st := ed.Store()
	container := f.containerAt(center, s)

	local := st.GlobalToLocal(container, center)
	s.X, s.Y = local.X-s.Width/2, local.Y-s.Height/2
	s.Rotate = geometry.NormalizeAngle(-st.WorldRotation(container))

	tx := ed.Tx()
	if err := tx.Start("create"); err != nil {
		return err
	}
	if err := tx.CreateShape(s, container, -1); err != nil {
		_ = tx.Cancel()
		return err
	}
	if path != nil {
		lp := make([]geometry.Point, len(path))
		for i, p := range path {
			lp[i] = st.GlobalToLocal(s, p)
		}
		if err := tx.AtomicAssign(s, scene.FieldPath, lp); err != nil {
			_ = tx.Cancel()
			return err
		}
	}
	if err := tx.End(); err != nil {
		return err
	}

	ed.Logger().Debug("shape created", "shape", s.ID, "kind", s.Kind, "parent", container.ID)
	f.onCreate.Emit(s)
	return nil
}

// containerAt returns the innermost shape at p that accepts s, or the root.
func (f *Factory) containerAt(p geometry.Point, s *scene.Shape) *scene.Shape {
	st := f.ed.Store()
	for c := st.GetShapeAt(p); c != nil; c = st.Parent(c) {
		if c.CanContain(s) {
			return c
		}
	}
	return st.Root()
}
