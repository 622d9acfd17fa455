package editor

import (
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// Manipulator answers hit-test, cursor, drawing and dispatch queries for one
// shape type. Manipulators are stateless; per-gesture state lives in the
// editor's Gesture. The Pointer methods report whether they consumed the event.
type Manipulator interface {
	MouseIn(ed *Editor, shape *scene.Shape, e PointerEvent) bool
	MouseCursor(ed *Editor, shape *scene.Shape, e PointerEvent) (Cursor, bool)
	PointerDown(ed *Editor, shape *scene.Shape, e PointerEvent) bool
	PointerMove(ed *Editor, shape *scene.Shape, e PointerEvent) bool
	PointerUp(ed *Editor, shape *scene.Shape, e PointerEvent) bool
	KeyDown(ed *Editor, shape *scene.Shape, e KeyEvent) bool
	Draw(ed *Editor, shape *scene.Shape)
	DrawHovering(ed *Editor, shape *scene.Shape)
}

// Controller governs one affordance of a manipulator: move, rotate, resize or
// vertex editing.
//
// A controller whose Active predicate is false neither draws nor consumes
// input. Initialize opens the controller's transaction on the first move,
// Update applies the edit for every move and Finalize commits on release.
type Controller interface {
	Active(ed *Editor, shape *scene.Shape) bool
	MouseIn(ed *Editor, shape *scene.Shape, e PointerEvent) bool
	Cursor(ed *Editor, shape *scene.Shape, e PointerEvent) Cursor
	Initialize(ed *Editor, shape *scene.Shape, g *Gesture) error
	Update(ed *Editor, shape *scene.Shape, g *Gesture) error
	Finalize(ed *Editor, shape *scene.Shape, g *Gesture) error
	Draw(ed *Editor, shape *scene.Shape)
	DrawDragging(ed *Editor, shape *scene.Shape, g *Gesture)
}

// ControllerManipulator runs the Idle -> Active -> Dragging state machine over
// an ordered list of controllers. Earlier controllers win when several are hit.
type ControllerManipulator struct {
	controllers []Controller
}

func NewManipulator(controllers ...Controller) *ControllerManipulator {
	return &ControllerManipulator{controllers: controllers}
}

func (m *ControllerManipulator) owns(g *Gesture, shape *scene.Shape) bool {
	return !g.IsIdle() && g.Shape != nil && shape != nil && g.Shape.ID == shape.ID &&
		slices.Contains(m.controllers, g.Controller)
}

func (m *ControllerManipulator) MouseIn(ed *Editor, shape *scene.Shape, e PointerEvent) bool {
	if m.owns(ed.Gesture(), shape) {
		return true
	}
	for _, c := range m.controllers {
		if c.Active(ed, shape) && c.MouseIn(ed, shape, e) {
			return true
		}
	}
	return false
}

func (m *ControllerManipulator) MouseCursor(ed *Editor, shape *scene.Shape, e PointerEvent) (Cursor, bool) {
	if g := ed.Gesture(); m.owns(g, shape) {
		return g.Controller.Cursor(ed, shape, e), true
	}
	for _, c := range m.controllers {
		if c.Active(ed, shape) && c.MouseIn(ed, shape, e) {
			return c.Cursor(ed, shape, e), true
		}
	}
	return Cursor{}, false
}

func (m *ControllerManipulator) PointerDown(ed *Editor, shape *scene.Shape, e PointerEvent) bool {
	g := ed.Gesture()
	if !g.IsIdle() || e.Button != ButtonLeft {
		return false
	}
	for _, c := range m.controllers {
		if c.Active(ed, shape) && c.MouseIn(ed, shape, e) {
			g.begin(ed, shape, c, e)
			return true
		}
	}
	return false
}

func (m *ControllerManipulator) PointerMove(ed *Editor, shape *scene.Shape, e PointerEvent) bool {
	g := ed.Gesture()
	if !m.owns(g, shape) {
		return false
	}
	g.move(ed, e)
	c := g.Controller
	if g.State == Active {
		if err := c.Initialize(ed, shape, g); err != nil {
			ed.Invalid(err)
			g.Reset()
			return true
		}
		g.State = Dragging
	}
	ed.Report(c.Update(ed, shape, g))
	return true
}

func (m *ControllerManipulator) PointerUp(ed *Editor, shape *scene.Shape, e PointerEvent) bool {
	g := ed.Gesture()
	if !m.owns(g, shape) {
		return false
	}
	if g.State == Dragging {
		ed.Report(g.Controller.Finalize(ed, shape, g))
	}
	g.Reset()
	return true
}

func (m *ControllerManipulator) KeyDown(ed *Editor, shape *scene.Shape, e KeyEvent) bool {
	return false
}

func (m *ControllerManipulator) Draw(ed *Editor, shape *scene.Shape) {
	g := ed.Gesture()
	if g.IsDragging() {
		if m.owns(g, shape) {
			g.Controller.DrawDragging(ed, shape, g)
		}
		return
	}
	for _, c := range m.controllers {
		if c.Active(ed, shape) {
			c.Draw(ed, shape)
		}
	}
}

func (m *ControllerManipulator) DrawHovering(ed *Editor, shape *scene.Shape) {
	canvas.DrawHovering(ed.Surface(), ed.Store(), ed.Viewport(), shape)
}
