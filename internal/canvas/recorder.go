package canvas

import (
	"encoding/json"
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

// DrawCommand is a single drawing operation for a remote client to execute on
// its own Canvas2D context, in painter's order.
type DrawCommand struct {
	Op     string           `json:"op"`               // "clear", "stroke", "fill", "text"
	Points []geometry.Point `json:"points,omitempty"` // canvas coordinates
	Closed bool             `json:"closed,omitempty"`
	Paint  Paint            `json:"paint"`
	Text   string           `json:"text,omitempty"`
	Size   float64          `json:"size,omitempty"` // font size for "text"
}

// Recorder is a Surface that keeps every call as a DrawCommand.
type Recorder struct {
	width, height float64
	px            float64
	commands      []DrawCommand
}

func NewRecorder(width, height, px float64) *Recorder {
	if px <= 0 {
		px = 1
	}
	return &Recorder{width: width, height: height, px: px}
}

func (r *Recorder) PX() float64 { return r.px }

func (r *Recorder) Size() (float64, float64) { return r.width, r.height }

// Resize changes the surface size, e.g. when a client reports a new viewport.
func (r *Recorder) Resize(width, height, px float64) {
	r.width, r.height = width, height
	if px > 0 {
		r.px = px
	}
}

// Clear drops everything recorded so far and records a clear.
func (r *Recorder) Clear(color string) {
	r.commands = append(r.commands[:0], DrawCommand{Op: "clear", Paint: Paint{Color: color}})
}

func (r *Recorder) StrokePolyline(points []geometry.Point, closed bool, p Paint) {
	if len(points) < 2 || p.Color == "" {
		return
	}
	r.commands = append(r.commands, DrawCommand{Op: "stroke", Points: slices.Clone(points), Closed: closed, Paint: p})
}

func (r *Recorder) FillPolygon(points []geometry.Point, p Paint) {
	if len(points) < 3 || p.Color == "" {
		return
	}
	r.commands = append(r.commands, DrawCommand{Op: "fill", Points: slices.Clone(points), Closed: true, Paint: p})
}

func (r *Recorder) FillText(text string, at geometry.Point, size float64, p Paint) {
	if text == "" || p.Color == "" {
		return
	}
	r.commands = append(r.commands, DrawCommand{Op: "text", Points: []geometry.Point{at}, Text: text, Size: size, Paint: p})
}

// Commands returns the recorded commands.
func (r *Recorder) Commands() []DrawCommand {
	return slices.Clone(r.commands)
}

// Flush returns the recorded commands and starts a new recording.
func (r *Recorder) Flush() []DrawCommand {
	out := r.commands
	r.commands = nil
	return out
}

// MarshalCommands serializes draw commands to JSON.
func MarshalCommands(commands []DrawCommand) ([]byte, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	return json.Marshal(commands)
}
