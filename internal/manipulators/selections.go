package manipulators

import (
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// SelectionsController moves a multiple selection as a group. It is bound to
// the document root; the selected shapes stay in their containers.
type SelectionsController struct{}

// MoveTargets returns the move targets of shapes, leaving out anchored shapes
// and targets inside another target.
func MoveTargets(st *scene.Store, shapes []*scene.Shape) []*scene.Shape {
	var targets []*scene.Shape
	for _, s := range shapes {
		if s.Anchored {
			continue
		}
		if t := MoveTarget(st, s); t != nil && !slices.Contains(targets, t) {
			targets = append(targets, t)
		}
	}
	return slices.DeleteFunc(targets, func(s *scene.Shape) bool {
		return slices.ContainsFunc(targets, func(o *scene.Shape) bool {
			return o != s && st.IsDescendant(s, o)
		})
	})
}

// groupBounds returns the global bounding box of the selection.
func groupBounds(ed *editor.Editor) (geometry.Rect, bool) {
	shapes := ed.Selection().Shapes()
	if len(shapes) == 0 {
		return geometry.Rect{}, false
	}
	st := ed.Store()
	r := st.WorldBounds(shapes[0])
	for _, s := range shapes[1:] {
		r = r.Union(st.WorldBounds(s))
	}
	return r, true
}

func (c *SelectionsController) Active(ed *editor.Editor, shape *scene.Shape) bool {
	return ed.Selection().Size() > 1
}

func (c *SelectionsController) MouseIn(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) bool {
	r, ok := groupBounds(ed)
	return ok && r.Contains(ed.GlobalPoint(e))
}

func (c *SelectionsController) Cursor(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) editor.Cursor {
	return editor.Cursor{Name: editor.CursorMove}
}

func (c *SelectionsController) Initialize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().Start("move")
}

func (c *SelectionsController) Update(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	tx := ed.Tx()
	gdx, gdy := g.Delta()
	for _, t := range MoveTargets(ed.Store(), ed.Selection().Shapes()) {
		dx, dy := Gate(t.Movable, gdx, gdy)
		if dx == 0 && dy == 0 {
			continue
		}
		if err := tx.MoveShapes([]*scene.Shape{t}, dx, dy, nil); err != nil {
			return err
		}
	}
	_, err := tx.ResolveAllConstraints()
	return err
}

func (c *SelectionsController) Finalize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().End()
}

func (c *SelectionsController) Draw(ed *editor.Editor, shape *scene.Shape) {
	s := ed.Surface()
	for _, sel := range ed.Selection().Shapes() {
		canvas.DrawPolylineInLCS(s, ed.Store(), ed.Viewport(), sel, sel.Outline(), !sel.IsLine(), canvas.GuidePaint(s, canvas.ColorGuide))
	}
	if r, ok := groupBounds(ed); ok {
		canvas.DrawRect(s, ed.Viewport(), r, canvas.DashedPaint(s, canvas.ColorGuide))
	}
}

func (c *SelectionsController) DrawDragging(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) {
	s := ed.Surface()
	for _, t := range MoveTargets(ed.Store(), ed.Selection().Shapes()) {
		canvas.DrawPolylineInLCS(s, ed.Store(), ed.Viewport(), t, t.Enclosure(), true, canvas.DashedPaint(s, canvas.ColorGhost))
	}
}
