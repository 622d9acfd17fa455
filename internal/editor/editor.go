// Package editor routes pointer and keyboard input to the active tool handler and
// the per-shape manipulators, and repaints the scene with interaction feedback.
//
// The editor is single threaded: every method must be called from one event loop.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/selection"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

var (
	ErrInvalidGesture = errors.New("invalid gesture state")
	ErrUnknownHandler = errors.New("unknown handler")
)

// Editor ties a document to its selection, transaction engine, manipulators and
// tool handlers.
type Editor struct {
	store     *scene.Store
	viewport  *geometry.Viewport
	surface   canvas.Surface
	selection *selection.Model
	tx        *txn.Engine
	registry  *Registry
	factory   *Factory

	handlers map[string]Handler
	active   Handler
	gesture  Gesture
	pointer  PointerEvent
	cursor   Cursor

	strict    bool
	angleStep float64
	logger    *slog.Logger
	txOpts    []txn.Option

	onHandlerChange event.Emitter[string]
	onCursor        event.Emitter[Cursor]
}

type Option func(*Editor)

// WithStrict makes invalid gesture states panic instead of being logged.
func WithStrict(strict bool) Option {
	return func(ed *Editor) { ed.strict = strict }
}

// WithAngleStep sets the rotation snapping step in degrees.
func WithAngleStep(step float64) Option {
	return func(ed *Editor) {
		if step > 0 {
			ed.angleStep = step
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(ed *Editor) {
		if l != nil {
			ed.logger = l
		}
	}
}

func WithViewport(vp *geometry.Viewport) Option {
	return func(ed *Editor) {
		if vp != nil {
			ed.viewport = vp
		}
	}
}

// WithTxOptions passes options to the transaction engine.
func WithTxOptions(opts ...txn.Option) Option {
	return func(ed *Editor) { ed.txOpts = append(ed.txOpts, opts...) }
}

// New creates an editor over store drawing on surface. A nil surface records
// draw commands in memory.
func New(store *scene.Store, surface canvas.Surface, opts ...Option) *Editor {
	ed := &Editor{
		store:     store,
		viewport:  geometry.NewViewport(),
		surface:   surface,
		registry:  NewRegistry(),
		handlers:  make(map[string]Handler),
		cursor:    DefaultCursor,
		angleStep: geometry.DefaultAngleStep,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(ed)
	}
	if ed.surface == nil {
		ed.surface = canvas.NewRecorder(800, 600, 1)
	}
	ed.tx = txn.New(store, append([]txn.Option{txn.WithLogger(ed.logger)}, ed.txOpts...)...)
	ed.selection = selection.New(store)
	ed.factory = &Factory{ed: ed}
	return ed
}

// Store returns the edited document.
func (ed *Editor) Store() *scene.Store { return ed.store }

// Viewport returns the live viewport. Callers may change it in place and Repaint.
func (ed *Editor) Viewport() *geometry.Viewport { return ed.viewport }

// Surface returns the surface the scene is painted on.
func (ed *Editor) Surface() canvas.Surface { return ed.surface }

// Selection returns the selection model of the document.
func (ed *Editor) Selection() *selection.Model { return ed.selection }

// Tx returns the transaction engine. Every document change goes through it.
func (ed *Editor) Tx() *txn.Engine { return ed.tx }

// Registry returns the manipulator registry.
func (ed *Editor) Registry() *Registry { return ed.registry }

// Factory returns the shape factory used by creation tools.
func (ed *Editor) Factory() *Factory { return ed.factory }

func (ed *Editor) Logger() *slog.Logger { return ed.logger }

// AngleStep is the rotation snap increment in degrees.
func (ed *Editor) AngleStep() float64 { return ed.angleStep }

// Gesture returns the drag in progress, idle when there is none.
func (ed *Editor) Gesture() *Gesture { return &ed.gesture }

// Pointer returns the last pointer event received.
func (ed *Editor) Pointer() PointerEvent { return ed.pointer }

// Cursor returns the cursor the active tool asked for.
func (ed *Editor) Cursor() Cursor { return ed.cursor }

// ActiveHandler returns the current tool, or nil before one is added.
func (ed *Editor) ActiveHandler() Handler { return ed.active }

// SetSurface replaces the drawing surface, e.g. to render one frame to a PNG.
func (ed *Editor) SetSurface(surface canvas.Surface) { ed.surface = surface }

// GlobalPoint converts the position of e to global coordinates.
func (ed *Editor) GlobalPoint(e PointerEvent) geometry.Point {
	return ed.viewport.ToGlobal(geometry.Pt(e.X, e.Y))
}

// LocalPoint converts the position of e to the LCS of shape.
func (ed *Editor) LocalPoint(shape *scene.Shape, e PointerEvent) geometry.Point {
	return ed.store.ToLocal(ed.viewport, shape, geometry.Pt(e.X, e.Y))
}

// ManipulatorFor returns the manipulator of shape, if its type has one.
func (ed *Editor) ManipulatorFor(shape *scene.Shape) (Manipulator, bool) {
	return ed.registry.For(shape)
}

// SetCursor changes the cursor and notifies listeners when it differs.
func (ed *Editor) SetCursor(c Cursor) {
	if c == ed.cursor {
		return
	}
	ed.cursor = c
	ed.onCursor.Emit(c)
}

// OnCursor registers a listener fired when the cursor changes.
func (ed *Editor) OnCursor(fn func(Cursor)) event.Handle {
	return ed.onCursor.On(fn)
}

// OnHandlerChange registers a listener fired with the id of the newly active handler.
func (ed *Editor) OnHandlerChange(fn func(string)) event.Handle {
	return ed.onHandlerChange.On(fn)
}

// AddHandler registers a handler. The first handler added becomes active.
func (ed *Editor) AddHandler(h Handler) {
	ed.handlers[h.ID()] = h
	if ed.active == nil {
		ed.active = h
		h.Activate(ed)
	}
}

// Handler returns a registered handler by id.
func (ed *Editor) Handler(id string) (Handler, bool) {
	h, ok := ed.handlers[id]
	return h, ok
}

// SetActiveHandler switches tools. A gesture in progress is cancelled.
func (ed *Editor) SetActiveHandler(id string) error {
	h, ok := ed.handlers[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownHandler)
	}
	if ed.active == h {
		return nil
	}
	ed.CancelGesture()
	if ed.active != nil {
		ed.active.Deactivate(ed)
	}
	ed.active = h
	h.Activate(ed)
	ed.SetCursor(DefaultCursor)
	ed.onHandlerChange.Emit(id)
	ed.Repaint()
	return nil
}

// SetDocument swaps the edited document. The selection, history and any
// gesture in progress are dropped.
func (ed *Editor) SetDocument(store *scene.Store) {
	ed.gesture.Reset()
	ed.store = store
	ed.tx.Reset(store)
	ed.selection.Reset(store)
	if ed.active != nil {
		ed.active.Deactivate(ed)
		ed.active.Activate(ed)
	}
	ed.Repaint()
}

// CancelGesture drops the gesture in progress and reverts its transaction.
func (ed *Editor) CancelGesture() {
	if ed.tx.InTransaction() {
		if err := ed.tx.Cancel(); err != nil {
			ed.logger.Error("cancel transaction", "error", err)
		}
	}
	ed.gesture.Reset()
}

// PointerDown dispatches a press to the active handler and repaints.
func (ed *Editor) PointerDown(e PointerEvent) {
	ed.pointer = e
	if ed.active != nil {
		ed.active.PointerDown(ed, e)
	}
	ed.Repaint()
}

// PointerMove dispatches a move, pressed or hovering, and repaints.
func (ed *Editor) PointerMove(e PointerEvent) {
	ed.pointer = e
	if ed.active != nil {
		ed.active.PointerMove(ed, e)
	}
	ed.Repaint()
}

// PointerUp dispatches a release to the active handler and repaints.
func (ed *Editor) PointerUp(e PointerEvent) {
	ed.pointer = e
	if ed.active != nil {
		ed.active.PointerUp(ed, e)
	}
	ed.Repaint()
}

// KeyDown dispatches a key press. Escape first aborts the gesture in progress.
func (ed *Editor) KeyDown(e KeyEvent) {
	if e.Key == KeyEscape {
		ed.CancelGesture()
	}
	if ed.active != nil {
		ed.active.KeyDown(ed, e)
	}
	ed.Repaint()
}

// KeyUp dispatches a key release. Nothing is repainted.
func (ed *Editor) KeyUp(e KeyEvent) {
	if ed.active != nil {
		ed.active.KeyUp(ed, e)
	}
}

// Repaint draws the scene and the active handler's feedback.
func (ed *Editor) Repaint() {
	canvas.DrawScene(ed.surface, ed.store, ed.viewport)
	if ed.active != nil {
		ed.active.DrawOverlay(ed)
	}
}

// Undo reverts the last committed transaction.
func (ed *Editor) Undo() {
	if err := ed.tx.Undo(); err != nil && !errors.Is(err, txn.ErrNothingToUndo) {
		ed.Invalid(err)
	}
	ed.selection.Prune()
}

// Redo re-applies the last undone transaction.
func (ed *Editor) Redo() {
	if err := ed.tx.Redo(); err != nil && !errors.Is(err, txn.ErrNothingToRedo) {
		ed.Invalid(err)
	}
	ed.selection.Prune()
}

// Invalid handles an invalid gesture state: a panic in strict mode, a warning
// otherwise.
func (ed *Editor) Invalid(err error) {
	if err == nil {
		return
	}
	if ed.strict {
		panic(fmt.Errorf("%w: %w", ErrInvalidGesture, err))
	}
	ed.logger.Warn("ignoring invalid gesture state", "error", err)
}

// Report handles an error returned by a controller. Constraint non-convergence
// keeps the best-effort geometry; anything else is an invalid gesture state.
func (ed *Editor) Report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, txn.ErrNotConverged):
		ed.logger.Debug("rendering best-effort geometry", "error", err)
	default:
		ed.Invalid(err)
	}
}
