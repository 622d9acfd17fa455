package manipulators

import (
	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// Enclosure corner indexes.
const (
	CornerTopLeft = iota
	CornerTopRight
	CornerBottomRight
	CornerBottomLeft
)

const minShapeSize = 1.0

// ResizeController drags one corner of a shape's frame while the opposite
// corner stays fixed. It follows the shape's rotation.
type ResizeController struct {
	Corner int
}

func (c *ResizeController) Active(ed *editor.Editor, shape *scene.Shape) bool {
	return singleSelected(ed, shape) && !shape.IsLine()
}

func (c *ResizeController) MouseIn(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) bool {
	cp := ed.Store().LocalToGlobal(shape, shape.Enclosure()[c.Corner])
	return ed.Viewport().InControlPoint(ed.GlobalPoint(e), cp)
}

func (c *ResizeController) Cursor(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) editor.Cursor {
	name := editor.CursorNWSEResize
	if c.Corner == CornerTopRight || c.Corner == CornerBottomLeft {
		name = editor.CursorNESWResize
	}
	return editor.Cursor{Name: name, Angle: ed.Store().WorldRotation(shape)}
}

func (c *ResizeController) Initialize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().Start("resize")
}

// signs returns the direction of the dragged corner seen from the fixed one.
func (c *ResizeController) signs() (sx, sy float64) {
	sx, sy = 1, 1
	if c.Corner == CornerTopLeft || c.Corner == CornerBottomLeft {
		sx = -1
	}
	if c.Corner == CornerTopLeft || c.Corner == CornerTopRight {
		sy = -1
	}
	return sx, sy
}

func (c *ResizeController) Update(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	st := ed.Store()
	fixed := shape.LocalMatrix().Apply(shape.Enclosure()[(c.Corner+2)%4])
	pointer := st.GlobalToLocal(st.Parent(shape), g.Global)

	// Diagonal from the fixed corner in the shape's unrotated axes.
	v := geometry.Rotate(pointer.Sub(fixed), -shape.Rotate)
	sx, sy := c.signs()
	w := max(v.X*sx, minShapeSize)
	h := max(v.Y*sy, minShapeSize)

	center := fixed.Add(geometry.Rotate(geometry.Pt(sx*w/2, sy*h/2), shape.Rotate))

	tx := ed.Tx()
	for _, f := range []struct {
		field string
		value float64
	}{
		{scene.FieldWidth, w},
		{scene.FieldHeight, h},
		{scene.FieldX, center.X - w/2},
		{scene.FieldY, center.Y - h/2},
	} {
		if err := tx.AtomicAssign(shape, f.field, f.value); err != nil {
			return err
		}
	}
	_, err := tx.ResolveAllConstraints()
	return err
}

func (c *ResizeController) Finalize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	return ed.Tx().End()
}

func (c *ResizeController) Draw(ed *editor.Editor, shape *scene.Shape) {
	canvas.DrawControlPoint(ed.Surface(), ed.Store().ToGlobal(ed.Viewport(), shape, shape.Enclosure()[c.Corner]))
}

func (c *ResizeController) DrawDragging(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) {
	s := ed.Surface()
	canvas.DrawPolylineInLCS(s, ed.Store(), ed.Viewport(), shape, shape.Enclosure(), true, canvas.DashedPaint(s, canvas.ColorGhost))
}
