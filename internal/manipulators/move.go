// Package manipulators provides the manipulators and controllers of the
// built-in shape kinds.
package manipulators

import (
	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// singleSelected reports whether shape is the only selected shape.
func singleSelected(ed *editor.Editor, shape *scene.Shape) bool {
	sel := ed.Selection()
	return sel.Size() == 1 && sel.IsSelected(shape)
}

// Gate zeroes the deltas a movability class does not allow.
func Gate(m scene.Movable, dx, dy float64) (float64, float64) {
	if m == scene.MovableVert || m == scene.MovableNone {
		dx = 0
	}
	if m == scene.MovableHorz || m == scene.MovableNone {
		dy = 0
	}
	return dx, dy
}

// MoveTarget returns the shape a move of s actually moves: s itself, or its
// nearest ancestor that does not follow its parent. Nil means nothing moves.
func MoveTarget(st *scene.Store, s *scene.Shape) *scene.Shape {
	target := s
	if s.Movable == scene.MovableParent {
		target = st.FindAncestor(s, func(p *scene.Shape) bool { return p.Movable != scene.MovableParent })
	}
	if target == nil || target.Kind == scene.KindDocument {
		return nil
	}
	return target
}

// DropContainer resolves the container for target with the pointer at the global
// point of g. A candidate that is target or inside target, or that refuses it,
// resolves to the document root.
func DropContainer(st *scene.Store, target *scene.Shape, g *editor.Gesture) *scene.Shape {
	container := st.GetShapeAt(g.Global, target)
	if container != nil && st.IsDescendant(container, target) {
		container = nil
	}
	if container == nil || !container.CanContain(target) {
		return st.Root()
	}
	return container
}

// MoveController drags a single selected shape and re-parents it into the
// container under the pointer.
type MoveController struct{}

func (c *MoveController) Active(ed *editor.Editor, shape *scene.Shape) bool {
	return singleSelected(ed, shape) && !shape.Anchored
}

func (c *MoveController) MouseIn(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) bool {
	return ed.Store().ContainsPoint(shape, ed.GlobalPoint(e))
}

func (c *MoveController) Cursor(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) editor.Cursor {
	return editor.Cursor{Name: editor.CursorMove}
}

func (c *MoveController) Initialize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().Start("move")
}

func (c *MoveController) Update(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	st := ed.Store()
	target := MoveTarget(st, shape)
	if target == nil {
		return nil
	}
	dx, dy := g.Delta()
	dx, dy = Gate(target.Movable, dx, dy)
	container := DropContainer(st, target, g)

	tx := ed.Tx()
	if err := tx.MoveShapes([]*scene.Shape{target}, dx, dy, container); err != nil {
		return err
	}
	_, err := tx.ResolveAllConstraints()
	return err
}

func (c *MoveController) Finalize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().End()
}

func (c *MoveController) Draw(ed *editor.Editor, shape *scene.Shape) {
	if shape.IsLine() && (shape.IsTwoPointLine() || shape.PathEditable) {
		return
	}
	s := ed.Surface()
	canvas.DrawPolylineInLCS(s, ed.Store(), ed.Viewport(), shape, shape.Enclosure(), true, canvas.GuidePaint(s, canvas.ColorGuide))
}

func (c *MoveController) DrawDragging(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) {
	st, s := ed.Store(), ed.Surface()
	target := MoveTarget(st, shape)
	if target == nil {
		return
	}
	canvas.DrawPolylineInLCS(s, st, ed.Viewport(), target, target.Enclosure(), true, canvas.DashedPaint(s, canvas.ColorGhost))

	if container := DropContainer(st, target, g); container.Kind != scene.KindDocument {
		canvas.DrawPolylineInLCS(s, st, ed.Viewport(), container, container.Enclosure(), true, canvas.GuidePaint(s, canvas.ColorContainer))
	}
}
