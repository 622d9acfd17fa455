package editor

import (
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

type GestureState int

const (
	Idle GestureState = iota
	Active
	Dragging
)

func (s GestureState) String() string {
	switch s {
	case Active:
		return "active"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Gesture is the transient state of one direct manipulation. The editor owns a
// single gesture; controllers read and update it but keep no state of their own.
type Gesture struct {
	State      GestureState
	Shape      *scene.Shape
	Controller Controller

	// Handle is controller-defined, e.g. the index of a dragged vertex.
	Handle int

	StartGlobal geometry.Point
	PrevGlobal  geometry.Point
	Global      geometry.Point

	// Local is the pointer in the LCS of Shape as of the latest move.
	StartLocal geometry.Point
	Local      geometry.Point

	Shift bool
}

// Delta is the global movement since the previous pointer move.
func (g *Gesture) Delta() (dx, dy float64) {
	d := g.Global.Sub(g.PrevGlobal)
	return d.X, d.Y
}

func (g *Gesture) begin(ed *Editor, shape *scene.Shape, c Controller, e PointerEvent) {
	p := ed.GlobalPoint(e)
	*g = Gesture{
		State:       Active,
		Shape:       shape,
		Controller:  c,
		StartGlobal: p,
		PrevGlobal:  p,
		Global:      p,
		StartLocal:  ed.LocalPoint(shape, e),
		Local:       ed.LocalPoint(shape, e),
		Shift:       e.Shift,
	}
}

func (g *Gesture) move(ed *Editor, e PointerEvent) {
	g.PrevGlobal = g.Global
	g.Global = ed.GlobalPoint(e)
	g.Local = ed.LocalPoint(g.Shape, e)
	g.Shift = e.Shift
}

// Reset returns the gesture to Idle.
func (g *Gesture) Reset() {
	*g = Gesture{}
}

func (g *Gesture) IsIdle() bool { return g.State == Idle }

func (g *Gesture) IsDragging() bool { return g.State == Dragging }
