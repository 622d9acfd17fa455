package handlers

import (
	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// CreateHandler draws a new shape of one kind. On release it hands the dragged
// rectangle to the factory, selects the result and switches back to select.
type CreateHandler struct {
	editor.BaseHandler
	Kind scene.Kind

	dragging   bool
	start, end geometry.Point
}

// NewCreateHandler returns a creation tool whose id is the kind name.
func NewCreateHandler(kind scene.Kind) *CreateHandler {
	return &CreateHandler{BaseHandler: editor.BaseHandler{HandlerID: string(kind)}, Kind: kind}
}

func (h *CreateHandler) Activate(ed *editor.Editor) {
	h.dragging = false
	ed.SetCursor(editor.Cursor{Name: editor.CursorCrosshair})
}

func (h *CreateHandler) Deactivate(ed *editor.Editor) {
	h.dragging = false
}

func (h *CreateHandler) PointerDown(ed *editor.Editor, e editor.PointerEvent) {
	if e.Button != editor.ButtonLeft {
		return
	}
	h.dragging = true
	h.start = ed.GlobalPoint(e)
	h.end = h.start
}

func (h *CreateHandler) PointerMove(ed *editor.Editor, e editor.PointerEvent) {
	if h.dragging {
		h.end = ed.GlobalPoint(e)
	}
}

func (h *CreateHandler) PointerUp(ed *editor.Editor, e editor.PointerEvent) {
	if !h.dragging {
		return
	}
	h.dragging = false
	h.end = ed.GlobalPoint(e)

	var shape *scene.Shape
	var err error
	if h.Kind == scene.KindLine {
		shape, err = ed.Factory().CreateLine(h.start, h.end)
	} else {
		shape, err = ed.Factory().Create(h.Kind, geometry.NormalizeRect(h.start, h.end))
	}
	if err != nil {
		ed.Invalid(err)
		return
	}
	ed.Selection().Select(shape)
	if err := ed.SetActiveHandler(SelectID); err != nil {
		ed.Logger().Warn("switch back to select", "error", err)
	}
}

// KeyDown aborts the tool on Escape.
func (h *CreateHandler) KeyDown(ed *editor.Editor, e editor.KeyEvent) {
	if e.Key != editor.KeyEscape {
		return
	}
	h.dragging = false
	if err := ed.SetActiveHandler(SelectID); err != nil {
		ed.Logger().Warn("switch back to select", "error", err)
	}
}

func (h *CreateHandler) DrawOverlay(ed *editor.Editor) {
	if !h.dragging {
		return
	}
	s, vp := ed.Surface(), ed.Viewport()
	paint := canvas.DashedPaint(s, canvas.ColorGhost)
	if h.Kind == scene.KindLine {
		s.StrokePolyline([]geometry.Point{vp.ToCanvas(h.start), vp.ToCanvas(h.end)}, false, paint)
		return
	}
	canvas.DrawRect(s, vp, geometry.NormalizeRect(h.start, h.end), paint)
}
