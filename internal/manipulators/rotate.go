package manipulators

import (
	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// RotateController turns a shape with a handle above the middle of its top edge.
type RotateController struct{}

func (c *RotateController) Active(ed *editor.Editor, shape *scene.Shape) bool {
	if shape.IsLine() && (shape.IsTwoPointLine() || shape.PathEditable) {
		return false
	}
	return singleSelected(ed, shape) && shape.Rotatable
}

// controlPoint returns the handle position in the shape's LCS.
func (c *RotateController) controlPoint(ed *editor.Editor, shape *scene.Shape) geometry.Point {
	encl := shape.Enclosure()
	mid := geometry.Mid(encl[0], encl[1])
	return mid.Sub(geometry.Pt(0, ed.Viewport().Units(geometry.ControlPointApothem*4)))
}

func (c *RotateController) MouseIn(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) bool {
	cp := ed.Store().LocalToGlobal(shape, c.controlPoint(ed, shape))
	return ed.Viewport().InControlPoint(ed.GlobalPoint(e), cp)
}

func (c *RotateController) Cursor(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) editor.Cursor {
	return editor.Cursor{Name: editor.CursorRotate, Angle: ed.Store().WorldRotation(shape)}
}

func (c *RotateController) Initialize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().Start("rotate")
}

// Update measures the pointer direction from the center against the shape's own
// upward direction and assigns the snapped absolute angle.
func (c *RotateController) Update(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	encl := shape.Enclosure()
	center := geometry.Mid(encl[0], encl[2])
	angle0 := geometry.Angle(encl[2], encl[1])
	angle1 := geometry.Angle(center, g.Local)
	delta := geometry.NormalizeAngle(angle1 - angle0)
	angle := geometry.QuantizeAngle(shape.Rotate+delta, ed.AngleStep())

	tx := ed.Tx()
	if err := tx.AtomicAssign(shape, scene.FieldRotate, angle); err != nil {
		return err
	}
	_, err := tx.ResolveAllConstraints()
	return err
}

func (c *RotateController) Finalize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().End()
}

func (c *RotateController) Draw(ed *editor.Editor, shape *scene.Shape) {
	canvas.DrawControlPoint(ed.Surface(), ed.Store().ToGlobal(ed.Viewport(), shape, c.controlPoint(ed, shape)))
}

func (c *RotateController) DrawDragging(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) {
	s := ed.Surface()
	canvas.DrawPolylineInLCS(s, ed.Store(), ed.Viewport(), shape, shape.Enclosure(), true, canvas.DashedPaint(s, canvas.ColorGhost))
}
