package txn

import (
	"fmt"
	"math"
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// tolerance below which a constraint counts as satisfied.
const tolerance = 1e-6

// ResolveAllConstraints re-applies anchoring, clip containment and connected line
// endpoints over the whole document until a pass changes nothing. It returns the
// number of passes run. When the ceiling is reached the geometry of the last pass
// is kept and the error wraps ErrNotConverged.
func (e *Engine) ResolveAllConstraints() (int, error) {
	for pass := 1; pass <= e.maxIterations; pass++ {
		changed, err := e.resolvePass()
		if err != nil {
			return pass, err
		}
		if !changed {
			e.metrics.ResolvePasses.Observe(float64(pass))
			return pass, nil
		}
	}
	e.metrics.ResolvePasses.Observe(float64(e.maxIterations))
	e.metrics.NotConverged.Inc()
	e.logger.Warn("constraint resolution hit the iteration ceiling",
		"doc", e.store.ID,
		"label", e.Label(),
		"max_iterations", e.maxIterations,
	)
	return e.maxIterations, fmt.Errorf("after %d passes: %w", e.maxIterations, ErrNotConverged)
}

func (e *Engine) resolvePass() (bool, error) {
	changed := false
	for s := range e.store.Shapes() {
		for _, rule := range []func(*scene.Shape) (bool, error){e.resolveAnchor, e.resolveClip, e.resolveEndpoints} {
			c, err := rule(s)
			if err != nil {
				return changed, fmt.Errorf("resolve %s: %w", s.ID, err)
			}
			changed = changed || c
		}
	}
	return changed, nil
}

// sizedParent returns the parent of s when it has a frame to constrain against.
func (e *Engine) sizedParent(s *scene.Shape) *scene.Shape {
	p := e.store.Parent(s)
	if p == nil || p.Kind == scene.KindDocument {
		return nil
	}
	return p
}

// resolveAnchor pins an anchored shape at Anchor.DX/DY from the left or right and
// top or bottom edges of its parent.
func (e *Engine) resolveAnchor(s *scene.Shape) (bool, error) {
	if !s.Anchored {
		return false, nil
	}
	p := e.sizedParent(s)
	if p == nil {
		return false, nil
	}
	x, y := s.Anchor.DX, s.Anchor.DY
	if s.Anchor.Right {
		x = p.Width - s.Width - s.Anchor.DX
	}
	if s.Anchor.Bottom {
		y = p.Height - s.Height - s.Anchor.DY
	}
	return e.setPosition(s, x, y)
}

// resolveClip keeps the rotated enclosure of a child inside a clipping parent.
// A child larger than the parent is aligned to the parent's top-left.
func (e *Engine) resolveClip(s *scene.Shape) (bool, error) {
	if s.Anchored || s.IsLine() && (s.Tail != "" || s.Head != "") {
		return false, nil
	}
	p := e.sizedParent(s)
	if p == nil || !p.Clip {
		return false, nil
	}
	b := geometry.BoundsOf(s.LocalMatrix().ApplyAll(s.Enclosure()))
	dx := clampShift(b.X, b.Width, p.Width)
	dy := clampShift(b.Y, b.Height, p.Height)
	return e.setPosition(s, s.X+dx, s.Y+dy)
}

func clampShift(pos, size, limit float64) float64 {
	switch {
	case pos < 0 || size > limit:
		return -pos
	case pos+size > limit:
		return limit - (pos + size)
	default:
		return 0
	}
}

// resolveEndpoints moves the first and last vertices of a connected line to the
// centers of its tail and head shapes.
func (e *Engine) resolveEndpoints(s *scene.Shape) (bool, error) {
	if !s.IsLine() || len(s.Path) < 2 {
		return false, nil
	}
	path := slices.Clone(s.Path)
	changed := false
	for _, end := range []struct {
		id  string
		idx int
	}{{s.Tail, 0}, {s.Head, len(path) - 1}} {
		if end.id == "" || end.id == s.ID {
			continue
		}
		target := e.store.Get(end.id)
		if target == nil {
			continue
		}
		p := e.store.GlobalToLocal(s, e.store.WorldCenter(target))
		if !path[end.idx].Near(p, tolerance) {
			path[end.idx] = p
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, e.assign(s, scene.FieldPath, path)
}

func (e *Engine) setPosition(s *scene.Shape, x, y float64) (bool, error) {
	changed := false
	if math.Abs(x-s.X) > tolerance {
		if err := e.assign(s, scene.FieldX, x); err != nil {
			return false, err
		}
		changed = true
	}
	if math.Abs(y-s.Y) > tolerance {
		if err := e.assign(s, scene.FieldY, y); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}
