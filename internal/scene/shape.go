package scene

import (
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

type Kind string

const (
	KindDocument Kind = "document"
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindFrame    Kind = "frame"
	KindText     Kind = "text"
	KindLine     Kind = "line"
)

// Movable restricts which axes a move gesture may change.
type Movable string

const (
	MovableFree   Movable = "free"
	MovableHorz   Movable = "horz"   // horizontal only
	MovableVert   Movable = "vert"   // vertical only
	MovableNone   Movable = "none"   // locked in place
	MovableParent Movable = "parent" // moves redirect to the nearest ancestor that is not "parent"
)

// Anchor pins an anchored shape to edges of its parent. DX and DY are the distances from
// the left (or right) and top (or bottom) edges.
type Anchor struct {
	Right  bool    `json:"right,omitempty"`
	Bottom bool    `json:"bottom,omitempty"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// Shape is a node of the scene graph. X and Y locate the unrotated top-left corner in
// the parent's local coordinate space; Rotate turns the frame about its own center.
type Shape struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rotate float64 `json:"rotate"`

	Movable   Movable `json:"movable"`
	Rotatable bool    `json:"rotatable"`
	Anchored  bool    `json:"anchored,omitempty"`
	Anchor    Anchor  `json:"anchor"`

	// Container shapes may host children. Accepts narrows the kinds they take;
	// Clip keeps children inside the container's frame.
	Container bool   `json:"container,omitempty"`
	Accepts   []Kind `json:"accepts,omitempty"`
	Clip      bool   `json:"clip,omitempty"`

	// Lines: vertices in the line's LCS, and the ids of connected shapes.
	Path         []geometry.Point `json:"path,omitempty"`
	PathEditable bool             `json:"pathEditable,omitempty"`
	Tail         string           `json:"tail,omitempty"`
	Head         string           `json:"head,omitempty"`

	Style   Style `json:"style"`
	Visible bool  `json:"visible"`

	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
}

// NewShape returns a visible, free-moving shape of the given kind with the default
// capabilities of that kind.
func NewShape(id string, kind Kind, r geometry.Rect) *Shape {
	s := &Shape{
		ID:        id,
		Kind:      kind,
		X:         r.X,
		Y:         r.Y,
		Width:     r.Width,
		Height:    r.Height,
		Movable:   MovableFree,
		Rotatable: true,
		Visible:   true,
		Children:  []string{},
		Style:     Style{Fill: "#ffffff", Stroke: "#000000", StrokeWidth: 1, Opacity: 1},
	}
	switch kind {
	case KindDocument:
		s.Container = true
		s.Rotatable = false
		s.Movable = MovableNone
	case KindFrame:
		s.Container = true
		s.Clip = true
	case KindLine:
		s.Style.Fill = ""
		s.Path = []geometry.Point{{X: 0, Y: 0}, {X: r.Width, Y: r.Height}}
	}
	return s
}

// CanContain reports whether s may host child. Non-containers refuse everything.
func (s *Shape) CanContain(child *Shape) bool {
	if s == nil || child == nil || !s.Container || s.ID == child.ID {
		return false
	}
	if child.Kind == KindDocument {
		return false
	}
	if len(s.Accepts) == 0 {
		return true
	}
	return slices.Contains(s.Accepts, child.Kind)
}

// IsLine reports whether s is a line.
func (s *Shape) IsLine() bool { return s.Kind == KindLine }

// IsTwoPointLine reports whether s is a straight connector with exactly two vertices.
func (s *Shape) IsTwoPointLine() bool { return s.IsLine() && len(s.Path) == 2 }

// Frame returns the unrotated frame in the parent's LCS.
func (s *Shape) Frame() geometry.Rect {
	return geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Enclosure is the minimal rectangle of the shape in its own LCS, as four corners
// clockwise from the top-left. Lines enclose their vertices.
func (s *Shape) Enclosure() []geometry.Point {
	if s.IsLine() && len(s.Path) > 0 {
		return geometry.BoundsOf(s.Path).Corners()
	}
	return geometry.Rect{Width: s.Width, Height: s.Height}.Corners()
}

// Outline is the polyline drawn for the shape body in its LCS.
func (s *Shape) Outline() []geometry.Point {
	if s.IsLine() {
		return slices.Clone(s.Path)
	}
	return s.Enclosure()
}

// LocalMatrix maps the shape's LCS into its parent's LCS.
func (s *Shape) LocalMatrix() geometry.Matrix2D {
	if s.Kind == KindDocument {
		return geometry.Identity()
	}
	return geometry.FromFrame(s.X, s.Y, s.Width, s.Height, s.Rotate)
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Accepts = slices.Clone(s.Accepts)
	c.Path = slices.Clone(s.Path)
	c.Children = slices.Clone(s.Children)
	if c.Children == nil {
		c.Children = []string{}
	}
	return &c
}
