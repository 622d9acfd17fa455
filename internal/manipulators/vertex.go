package manipulators

import (
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// VertexController drags a vertex of a straight or path-editable line. Dropping
// an end vertex on a shape connects that end to it; dropping it elsewhere
// leaves it disconnected.
type VertexController struct{}

func (c *VertexController) Active(ed *editor.Editor, shape *scene.Shape) bool {
	return singleSelected(ed, shape) && shape.IsLine() && (shape.IsTwoPointLine() || shape.PathEditable)
}

// vertexAt returns the index of the vertex whose handle contains the global point p, or -1.
func (c *VertexController) vertexAt(ed *editor.Editor, shape *scene.Shape, p geometry.Point) int {
	st, vp := ed.Store(), ed.Viewport()
	for i := len(shape.Path) - 1; i >= 0; i-- {
		if vp.InControlPoint(p, st.LocalToGlobal(shape, shape.Path[i])) {
			return i
		}
	}
	return -1
}

func (c *VertexController) MouseIn(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) bool {
	return c.vertexAt(ed, shape, ed.GlobalPoint(e)) >= 0
}

func (c *VertexController) Cursor(ed *editor.Editor, shape *scene.Shape, e editor.PointerEvent) editor.Cursor {
	return editor.Cursor{Name: editor.CursorPointer}
}

// endField returns the connection field of vertex i, or "" for inner vertices.
func endField(shape *scene.Shape, i int) string {
	switch i {
	case 0:
		return scene.FieldTail
	case len(shape.Path) - 1:
		return scene.FieldHead
	default:
		return ""
	}
}

func (c *VertexController) Initialize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	g.Handle = c.vertexAt(ed, shape, g.StartGlobal)
	if g.Handle < 0 {
		return editor.ErrInvalidGesture
	}
	tx := ed.Tx()
	if err := tx.Start("path"); err != nil {
		return err
	}
	if field := endField(shape, g.Handle); field != "" {
		return tx.AtomicAssign(shape, field, "")
	}
	return nil
}

func (c *VertexController) Update(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	if g.Handle < 0 || g.Handle >= len(shape.Path) {
		return editor.ErrInvalidGesture
	}
	path := slices.Clone(shape.Path)
	path[g.Handle] = g.Local

	tx := ed.Tx()
	if err := tx.AtomicAssign(shape, scene.FieldPath, path); err != nil {
		return err
	}
	_, err := tx.ResolveAllConstraints()
	return err
}

// dropTarget returns the shape under the dragged end vertex that it can connect to.
func (c *VertexController) dropTarget(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) *scene.Shape {
	if endField(shape, g.Handle) == "" {
		return nil
	}
	return ed.Store().GetShapeAt(g.Global, shape)
}

func (c *VertexController) Finalize(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) error {
	tx := ed.Tx()
	if target := c.dropTarget(ed, shape, g); target != nil {
		if err := tx.AtomicAssign(shape, endField(shape, g.Handle), target.ID); err != nil {
			return err
		}
	}
	return tx.End()
}

func (c *VertexController) Draw(ed *editor.Editor, shape *scene.Shape) {
	s, st, vp := ed.Surface(), ed.Store(), ed.Viewport()
	canvas.DrawPolylineInLCS(s, st, vp, shape, shape.Path, false, canvas.GuidePaint(s, canvas.ColorGuide))
	for _, p := range shape.Path {
		canvas.DrawControlPoint(s, st.ToGlobal(vp, shape, p))
	}
}

func (c *VertexController) DrawDragging(ed *editor.Editor, shape *scene.Shape, g *editor.Gesture) {
	s, st, vp := ed.Surface(), ed.Store(), ed.Viewport()
	canvas.DrawPolylineInLCS(s, st, vp, shape, shape.Path, false, canvas.DashedPaint(s, canvas.ColorGhost))
	if target := c.dropTarget(ed, shape, g); target != nil {
		canvas.DrawPolylineInLCS(s, st, vp, target, target.Outline(), !target.IsLine(), canvas.GuidePaint(s, canvas.ColorContainer))
	}
}
