package scene

import (
	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

// WorldMatrix maps the LCS of s into global (document) space: the product of every
// ancestor's local matrix, root first.
func (st *Store) WorldMatrix(s *Shape) geometry.Matrix2D {
	if s == nil {
		return geometry.Identity()
	}
	m := s.LocalMatrix()
	for p := st.Parent(s); p != nil; p = st.Parent(p) {
		m = p.LocalMatrix().Multiply(m)
	}
	return m
}

// ParentMatrix maps the parent's LCS of s into global space.
func (st *Store) ParentMatrix(s *Shape) geometry.Matrix2D {
	return st.WorldMatrix(st.Parent(s))
}

// WorldRotation is the accumulated rotation of s and its ancestors in degrees.
func (st *Store) WorldRotation(s *Shape) float64 {
	r := 0.0
	for cur := s; cur != nil; cur = st.Parent(cur) {
		r += cur.Rotate
	}
	return geometry.NormalizeAngle(r)
}

// LocalToGlobal converts a point from the LCS of s to global space.
func (st *Store) LocalToGlobal(s *Shape, p geometry.Point) geometry.Point {
	return st.WorldMatrix(s).Apply(p)
}

// GlobalToLocal converts a global point into the LCS of s.
func (st *Store) GlobalToLocal(s *Shape, p geometry.Point) geometry.Point {
	return st.WorldMatrix(s).Invert().Apply(p)
}

// ToGlobal converts a point in the LCS of s all the way to canvas space.
func (st *Store) ToGlobal(vp *geometry.Viewport, s *Shape, p geometry.Point) geometry.Point {
	return vp.ToCanvas(st.LocalToGlobal(s, p))
}

// ToLocal converts a canvas point into the LCS of s.
func (st *Store) ToLocal(vp *geometry.Viewport, s *Shape, p geometry.Point) geometry.Point {
	return st.GlobalToLocal(s, vp.ToGlobal(p))
}

// WorldCenter is the global position of the center of the enclosure of s.
func (st *Store) WorldCenter(s *Shape) geometry.Point {
	encl := s.Enclosure()
	return st.LocalToGlobal(s, geometry.Mid(encl[0], encl[2]))
}

// WorldBounds is the axis-aligned global bounding box of the enclosure of s.
func (st *Store) WorldBounds(s *Shape) geometry.Rect {
	return geometry.BoundsOf(st.WorldMatrix(s).ApplyAll(s.Enclosure()))
}

// OverlapRect reports whether the global bounds of s overlap r.
func (st *Store) OverlapRect(s *Shape, r geometry.Rect) bool {
	return st.WorldBounds(s).Overlaps(r)
}

// LineHitTolerance is how far, in global units, a point may be from a line and still hit it.
const LineHitTolerance = 4.0

// ContainsPoint reports whether the global point p falls on s.
func (st *Store) ContainsPoint(s *Shape, p geometry.Point) bool {
	if !s.Visible {
		return false
	}
	lp := st.GlobalToLocal(s, p)
	if s.IsLine() {
		return geometry.PolylineContains(s.Path, lp, LineHitTolerance)
	}
	return geometry.BoundsOf(s.Enclosure()).Contains(lp)
}

// GetShapeAt returns the topmost shape at the global point p, skipping the excluded
// shapes. Later siblings and children paint over earlier ones, so the search runs in
// reverse paint order. The root is never returned.
func (st *Store) GetShapeAt(p geometry.Point, exclude ...*Shape) *Shape {
	return st.hitTestNode(st.Root(), p, exclude)
}

func (st *Store) hitTestNode(s *Shape, p geometry.Point, exclude []*Shape) *Shape {
	if s == nil || !s.Visible && s.Kind != KindDocument {
		return nil
	}

	// Test children first (front to back = reverse order)
	for i := len(s.Children) - 1; i >= 0; i-- {
		if hit := st.hitTestNode(st.Get(s.Children[i]), p, exclude); hit != nil {
			return hit
		}
	}

	if s.Kind == KindDocument || isExcluded(s, exclude) {
		return nil
	}
	if st.ContainsPoint(s, p) {
		return s
	}
	return nil
}

func isExcluded(s *Shape, exclude []*Shape) bool {
	for _, e := range exclude {
		if e != nil && e.ID == s.ID {
			return true
		}
	}
	return false
}
