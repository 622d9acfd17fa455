package scene

import (
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

// NewDocument creates an empty document with fresh ids.
func NewDocument(name string) *Store {
	st := NewStore(typeid.NewDocumentID(), typeid.NewShapeID())
	if name != "" {
		st.Name = name
	}
	return st
}

// NewSampleDocument builds a small diagram: a frame holding a box with an anchored badge,
// a free ellipse and a connector between the box and the ellipse.
func NewSampleDocument() *Store {
	st := NewDocument("Sample")
	root := st.Root()

	frame := NewShape(typeid.NewShapeID(), KindFrame, geometry.Rect{X: 40, Y: 40, Width: 400, Height: 300})
	frame.Name = "Frame"
	frame.Style.Fill = "#f5f5f5"

	box := NewShape(typeid.NewShapeID(), KindRect, geometry.Rect{X: 40, Y: 60, Width: 160, Height: 80})
	box.Name = "Box"
	box.Style.Fill = "#e94560"
	box.Container = true

	badge := NewShape(typeid.NewShapeID(), KindText, geometry.Rect{Width: 40, Height: 20})
	badge.Name = "Badge"
	badge.Anchored = true
	badge.Rotatable = false
	badge.Anchor = Anchor{Right: true, DX: 8, DY: 8}

	ellipse := NewShape(typeid.NewShapeID(), KindEllipse, geometry.Rect{X: 600, Y: 120, Width: 120, Height: 120})
	ellipse.Name = "Ellipse"
	ellipse.Style.Fill = "#0f3460"

	line := NewShape(typeid.NewShapeID(), KindLine, geometry.Rect{X: 0, Y: 0, Width: 1, Height: 1})
	line.Name = "Connector"
	line.Path = []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	line.Tail = box.ID
	line.Head = ellipse.ID

	for _, s := range []*Shape{frame, box, badge, ellipse, line} {
		st.Add(s)
	}
	_ = st.Attach(frame, root, -1)
	_ = st.Attach(box, frame, -1)
	_ = st.Attach(badge, box, -1)
	_ = st.Attach(ellipse, root, -1)
	_ = st.Attach(line, root, -1)

	return st
}
