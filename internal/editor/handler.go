package editor

// Handler owns a whole gesture class: the select tool or a creation tool.
// Exactly one handler is active at a time.
type Handler interface {
	ID() string
	Activate(ed *Editor)
	Deactivate(ed *Editor)
	PointerDown(ed *Editor, e PointerEvent)
	PointerMove(ed *Editor, e PointerEvent)
	PointerUp(ed *Editor, e PointerEvent)
	KeyDown(ed *Editor, e KeyEvent)
	KeyUp(ed *Editor, e KeyEvent)
	// DrawOverlay paints the handler's feedback over the freshly painted scene.
	DrawOverlay(ed *Editor)
}

// BaseHandler implements every Handler method as a no-op.
type BaseHandler struct {
	HandlerID string
}

func (h *BaseHandler) ID() string                             { return h.HandlerID }
func (h *BaseHandler) Activate(ed *Editor)                    {}
func (h *BaseHandler) Deactivate(ed *Editor)                  {}
func (h *BaseHandler) PointerDown(ed *Editor, e PointerEvent) {}
func (h *BaseHandler) PointerMove(ed *Editor, e PointerEvent) {}
func (h *BaseHandler) PointerUp(ed *Editor, e PointerEvent)   {}
func (h *BaseHandler) KeyDown(ed *Editor, e KeyEvent)         {}
func (h *BaseHandler) KeyUp(ed *Editor, e KeyEvent)           {}
func (h *BaseHandler) DrawOverlay(ed *Editor)                 {}
