// Package handlers provides the select tool and the shape creation tools.
package handlers

import (
	"fmt"
	"strings"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/manipulators"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

const SelectID = "select"

// Nudge distances of the arrow keys, in global units.
const (
	nudgeStep      = 1.0
	nudgeShiftStep = 10.0
)

// ExtraBehavior intercepts input before the select tool looks at manipulators
// and the scene. Each method returning true stops dispatch of that event, so an
// extra that claims a press can own the moves and the release that follow.
type ExtraBehavior interface {
	PointerDown(ed *editor.Editor, e editor.PointerEvent) bool
	PointerMove(ed *editor.Editor, e editor.PointerEvent) bool
	PointerUp(ed *editor.Editor, e editor.PointerEvent) bool
	KeyDown(ed *editor.Editor, e editor.KeyEvent) bool
	KeyUp(ed *editor.Editor, e editor.KeyEvent) bool
}

// BaseExtra passes every event through. Embed it to intercept only some.
type BaseExtra struct{}

func (BaseExtra) PointerDown(ed *editor.Editor, e editor.PointerEvent) bool { return false }
func (BaseExtra) PointerMove(ed *editor.Editor, e editor.PointerEvent) bool { return false }
func (BaseExtra) PointerUp(ed *editor.Editor, e editor.PointerEvent) bool   { return false }
func (BaseExtra) KeyDown(ed *editor.Editor, e editor.KeyEvent) bool         { return false }
func (BaseExtra) KeyUp(ed *editor.Editor, e editor.KeyEvent) bool           { return false }

// ExtraBehaviorFunc adapts a function to an ExtraBehavior that only looks at
// presses.
type ExtraBehaviorFunc func(ed *editor.Editor, e editor.PointerEvent) bool

func (f ExtraBehaviorFunc) PointerDown(ed *editor.Editor, e editor.PointerEvent) bool {
	return f(ed, e)
}

func (f ExtraBehaviorFunc) PointerMove(ed *editor.Editor, e editor.PointerEvent) bool { return false }
func (f ExtraBehaviorFunc) PointerUp(ed *editor.Editor, e editor.PointerEvent) bool   { return false }
func (f ExtraBehaviorFunc) KeyDown(ed *editor.Editor, e editor.KeyEvent) bool         { return false }
func (f ExtraBehaviorFunc) KeyUp(ed *editor.Editor, e editor.KeyEvent) bool           { return false }

// SelectHandler selects shapes by click, shift-click and area drag, and routes
// drags on selected shapes to their manipulators.
type SelectHandler struct {
	editor.BaseHandler
	extras []ExtraBehavior

	// Manipulator and shape owning the gesture in progress.
	target      editor.Manipulator
	targetShape *scene.Shape

	area                 bool
	areaStart, areaPoint geometry.Point

	hover *scene.Shape
}

func NewSelectHandler() *SelectHandler {
	return &SelectHandler{BaseHandler: editor.BaseHandler{HandlerID: SelectID}}
}

// AddExtra registers an extra behavior. Extras run in registration order.
func (h *SelectHandler) AddExtra(b ExtraBehavior) {
	h.extras = append(h.extras, b)
}

func (h *SelectHandler) reset() {
	h.target, h.targetShape = nil, nil
	h.area = false
}

func (h *SelectHandler) Activate(ed *editor.Editor) {
	h.reset()
	h.hover = nil
}

func (h *SelectHandler) Deactivate(ed *editor.Editor) {
	h.reset()
	h.hover = nil
}

// selectedManipulators returns the manipulators of the current selection with
// the shape each one is bound to, frontmost selection first. A selection of two
// or more shapes also yields the selections manipulator bound to the root.
func (h *SelectHandler) selectedManipulators(ed *editor.Editor) ([]editor.Manipulator, []*scene.Shape) {
	var ms []editor.Manipulator
	var shapes []*scene.Shape
	sel := ed.Selection().Shapes()
	for i := len(sel) - 1; i >= 0; i-- {
		if m, ok := ed.ManipulatorFor(sel[i]); ok {
			ms = append(ms, m)
			shapes = append(shapes, sel[i])
		}
	}
	if len(sel) > 1 {
		if m, ok := ed.Registry().Get(editor.SelectionsTag); ok {
			ms = append(ms, m)
			shapes = append(shapes, ed.Store().Root())
		}
	}
	return ms, shapes
}

func (h *SelectHandler) PointerDown(ed *editor.Editor, e editor.PointerEvent) {
	if h.target != nil || h.area {
		state := ed.Gesture().State
		ed.CancelGesture()
		h.reset()
		ed.Invalid(fmt.Errorf("pointer down while a %s gesture is in progress", state))
	}
	h.hover = nil
	for _, b := range h.extras {
		if b.PointerDown(ed, e) {
			return
		}
	}
	if e.Button != editor.ButtonLeft {
		return
	}

	// Handles of the selection win over shapes underneath them. Shift-clicks
	// go to the scene so they can toggle.
	if !e.Shift {
		ms, shapes := h.selectedManipulators(ed)
		for i, m := range ms {
			if m.MouseIn(ed, shapes[i], e) && m.PointerDown(ed, shapes[i], e) {
				h.target, h.targetShape = m, shapes[i]
				return
			}
		}
	}

	p := ed.GlobalPoint(e)
	sel := ed.Selection()
	if shape := ed.Store().GetShapeAt(p); shape != nil {
		if e.Shift {
			sel.Toggle(shape)
			return
		}
		if !sel.IsSelected(shape) || sel.Size() > 1 {
			sel.Select(shape)
		}
		if m, ok := ed.ManipulatorFor(shape); ok && m.PointerDown(ed, shape, e) {
			h.target, h.targetShape = m, shape
		}
		return
	}

	sel.DeselectAll()
	h.area = true
	h.areaStart, h.areaPoint = p, p
}

func (h *SelectHandler) PointerMove(ed *editor.Editor, e editor.PointerEvent) {
	for _, b := range h.extras {
		if b.PointerMove(ed, e) {
			return
		}
	}
	switch {
	case h.target != nil:
		h.target.PointerMove(ed, h.targetShape, e)
		if ed.Gesture().IsIdle() {
			h.reset()
		}
	case h.area:
		h.areaPoint = ed.GlobalPoint(e)
	default:
		h.updateHover(ed, e)
	}
}

func (h *SelectHandler) updateHover(ed *editor.Editor, e editor.PointerEvent) {
	h.hover = nil
	if e.LeftButtonDown {
		return
	}
	ms, shapes := h.selectedManipulators(ed)
	for i, m := range ms {
		if c, ok := m.MouseCursor(ed, shapes[i], e); ok {
			ed.SetCursor(c)
			return
		}
	}
	if shape := ed.Store().GetShapeAt(ed.GlobalPoint(e)); shape != nil && !ed.Selection().IsSelected(shape) {
		h.hover = shape
		ed.SetCursor(editor.Cursor{Name: editor.CursorPointer})
		return
	}
	ed.SetCursor(editor.DefaultCursor)
}

func (h *SelectHandler) PointerUp(ed *editor.Editor, e editor.PointerEvent) {
	for _, b := range h.extras {
		if b.PointerUp(ed, e) {
			h.reset()
			return
		}
	}
	switch {
	case h.target != nil:
		h.target.PointerUp(ed, h.targetShape, e)
	case h.area:
		h.areaPoint = ed.GlobalPoint(e)
		ed.Selection().SelectArea(h.areaStart.X, h.areaStart.Y, h.areaPoint.X, h.areaPoint.Y)
	}
	h.reset()
}

func (h *SelectHandler) KeyDown(ed *editor.Editor, e editor.KeyEvent) {
	for _, b := range h.extras {
		if b.KeyDown(ed, e) {
			return
		}
	}
	switch {
	case e.Key == editor.KeyEscape:
		h.reset()
		ed.Selection().DeselectAll()
	case h.target != nil || h.area:
		// Keys other than Escape wait for the gesture to end.
	case e.Key == editor.KeyDelete || e.Key == editor.KeyBackspace:
		h.deleteSelection(ed)
	case e.Ctrl && strings.EqualFold(e.Key, "z"):
		if e.Shift {
			ed.Redo()
		} else {
			ed.Undo()
		}
	case e.Key == editor.KeyLeft, e.Key == editor.KeyRight, e.Key == editor.KeyUp, e.Key == editor.KeyDown:
		h.nudge(ed, e)
	}
}

func (h *SelectHandler) KeyUp(ed *editor.Editor, e editor.KeyEvent) {
	for _, b := range h.extras {
		if b.KeyUp(ed, e) {
			return
		}
	}
}

func (h *SelectHandler) deleteSelection(ed *editor.Editor) {
	sel := ed.Selection()
	if sel.Size() == 0 {
		return
	}
	tx := ed.Tx()
	if err := tx.Start("delete"); err != nil {
		ed.Invalid(err)
		return
	}
	if err := tx.DeleteShapes(sel.Shapes()); err != nil {
		_ = tx.Cancel()
		ed.Invalid(err)
		return
	}
	ed.Report(tx.End())
	sel.Prune()
	h.hover = nil
}

func (h *SelectHandler) nudge(ed *editor.Editor, e editor.KeyEvent) {
	targets := manipulators.MoveTargets(ed.Store(), ed.Selection().Shapes())
	if len(targets) == 0 {
		return
	}
	step := nudgeStep
	if e.Shift {
		step = nudgeShiftStep
	}
	var dx, dy float64
	switch e.Key {
	case editor.KeyLeft:
		dx = -step
	case editor.KeyRight:
		dx = step
	case editor.KeyUp:
		dy = -step
	case editor.KeyDown:
		dy = step
	}

	tx := ed.Tx()
	if err := tx.Start("nudge"); err != nil {
		ed.Invalid(err)
		return
	}
	for _, t := range targets {
		gx, gy := manipulators.Gate(t.Movable, dx, dy)
		if gx == 0 && gy == 0 {
			continue
		}
		if err := tx.MoveShapes([]*scene.Shape{t}, gx, gy, nil); err != nil {
			_ = tx.Cancel()
			ed.Invalid(err)
			return
		}
	}
	ed.Report(tx.End())
}

func (h *SelectHandler) DrawOverlay(ed *editor.Editor) {
	st, s := ed.Store(), ed.Surface()
	if h.hover != nil && st.Has(h.hover) && !ed.Selection().IsSelected(h.hover) {
		if m, ok := ed.ManipulatorFor(h.hover); ok {
			m.DrawHovering(ed, h.hover)
		}
	}
	ms, shapes := h.selectedManipulators(ed)
	for i := len(ms) - 1; i >= 0; i-- {
		ms[i].Draw(ed, shapes[i])
	}
	if h.area {
		r := geometry.NormalizeRect(h.areaStart, h.areaPoint)
		for _, child := range st.Children(st.Root()) {
			if st.OverlapRect(child, r) {
				if m, ok := ed.ManipulatorFor(child); ok {
					m.DrawHovering(ed, child)
				}
			}
		}
		canvas.DrawRect(s, ed.Viewport(), r, canvas.DashedPaint(s, canvas.ColorArea))
	}
}
