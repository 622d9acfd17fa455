package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/handlers"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

type fixture struct {
	ed         *editor.Editor
	st         *scene.Store
	sel        *handlers.SelectHandler
	s1, s2, s3 *scene.Shape
}

// newFixture builds three 20x20 squares on a diagonal.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := scene.NewStore("doc", "root")
	f := &fixture{st: st}
	f.s1 = addShape(t, st, "s1", geometry.Rect{X: 0, Y: 0, Width: 20, Height: 20})
	f.s2 = addShape(t, st, "s2", geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20})
	f.s3 = addShape(t, st, "s3", geometry.Rect{X: 300, Y: 300, Width: 20, Height: 20})
	f.ed = editor.New(st, nil)
	f.sel = handlers.Install(f.ed)
	return f
}

func addShape(t *testing.T, st *scene.Store, id string, r geometry.Rect) *scene.Shape {
	t.Helper()
	s := scene.NewShape(id, scene.KindRect, r)
	st.Add(s)
	require.NoError(t, st.Attach(s, st.Root(), -1))
	return s
}

func (f *fixture) down(x, y float64, shift bool) {
	f.ed.PointerDown(editor.PointerEvent{X: x, Y: y, Button: editor.ButtonLeft, LeftButtonDown: true, Shift: shift})
}

func (f *fixture) move(x, y float64) {
	f.ed.PointerMove(editor.PointerEvent{X: x, Y: y, LeftButtonDown: true})
}

func (f *fixture) up(x, y float64) {
	f.ed.PointerUp(editor.PointerEvent{X: x, Y: y, Button: editor.ButtonLeft})
}

func (f *fixture) click(x, y float64, shift bool) {
	f.down(x, y, shift)
	f.up(x, y)
}

func (f *fixture) key(k string, shift, ctrl bool) {
	f.ed.KeyDown(editor.KeyEvent{Key: k, Shift: shift, Ctrl: ctrl})
}

func TestAreaSelection(t *testing.T) {
	f := newFixture(t)
	f.ed.Selection().Select(f.s1)

	f.down(50, 50, false)
	assert.Zero(t, f.ed.Selection().Size(), "selection clears on press")

	f.move(120, 130)
	f.move(150, 150)
	f.up(150, 150)

	assert.Equal(t, []string{"s2"}, f.ed.Selection().IDs())
	assert.False(t, f.ed.Tx().CanUndo())
}

func TestAreaSelectionDraggedUpLeft(t *testing.T) {
	f := newFixture(t)

	f.down(150, 150, false)
	f.move(50, 50)
	f.up(50, 50)

	assert.Equal(t, []string{"s2"}, f.ed.Selection().IDs())
}

func TestShiftClickToggles(t *testing.T) {
	f := newFixture(t)

	f.click(10, 10, false)
	f.click(110, 110, true)
	f.click(310, 310, true)
	require.Equal(t, []string{"s1", "s2", "s3"}, f.ed.Selection().IDs())

	f.click(110, 110, true)
	assert.Equal(t, []string{"s1", "s3"}, f.ed.Selection().IDs())
}

func TestClickSelectsAndDragMoves(t *testing.T) {
	f := newFixture(t)
	var labels []string
	f.ed.Tx().OnCommit(func(c txn.Commit) { labels = append(labels, c.Label) })

	f.down(10, 10, false)
	f.move(20, 10)
	f.move(30, 15)
	f.up(30, 15)

	assert.Equal(t, []string{"s1"}, f.ed.Selection().IDs())
	assert.InDelta(t, 20, f.s1.X, 1e-9)
	assert.InDelta(t, 5, f.s1.Y, 1e-9)
	assert.Equal(t, []string{"move"}, labels)
}

func TestSelectedHandleWinsOverShapeAbove(t *testing.T) {
	f := newFixture(t)
	a := addShape(t, f.st, "a", geometry.Rect{X: 400, Y: 0, Width: 100, Height: 100})
	b := addShape(t, f.st, "b", geometry.Rect{X: 450, Y: 50, Width: 100, Height: 100})
	f.ed.Selection().Select(a)

	// (500, 100) is a's bottom-right resize handle and lies inside b, which is on top.
	f.down(500, 100, false)
	f.move(520, 120)
	f.up(520, 120)

	assert.Equal(t, []string{"a"}, f.ed.Selection().IDs())
	assert.InDelta(t, 120, a.Width, 1e-9)
	assert.InDelta(t, 120, a.Height, 1e-9)
	assert.InDelta(t, 450, b.X, 1e-9)
}

func TestExtraBehaviorsRunFirst(t *testing.T) {
	f := newFixture(t)
	var calls []string
	f.sel.AddExtra(handlers.ExtraBehaviorFunc(func(ed *editor.Editor, e editor.PointerEvent) bool {
		calls = append(calls, "first")
		return e.Alt
	}))
	f.sel.AddExtra(handlers.ExtraBehaviorFunc(func(ed *editor.Editor, e editor.PointerEvent) bool {
		calls = append(calls, "second")
		return false
	}))

	f.ed.PointerDown(editor.PointerEvent{X: 10, Y: 10, Button: editor.ButtonLeft, LeftButtonDown: true, Alt: true})
	f.up(10, 10)
	assert.Equal(t, []string{"first"}, calls)
	assert.Zero(t, f.ed.Selection().Size())

	calls = nil
	f.click(10, 10, false)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []string{"s1"}, f.ed.Selection().IDs())
}

func TestEscapeCancelsDrag(t *testing.T) {
	f := newFixture(t)

	f.down(10, 10, false)
	f.move(40, 10)
	require.InDelta(t, 30, f.s1.X, 1e-9)
	require.True(t, f.ed.Tx().InTransaction())

	f.key(editor.KeyEscape, false, false)
	assert.InDelta(t, 0, f.s1.X, 1e-9)
	assert.False(t, f.ed.Tx().InTransaction())
	assert.Zero(t, f.ed.Selection().Size())
	assert.True(t, f.ed.Gesture().IsIdle())

	f.move(60, 10)
	f.up(60, 10)
	assert.InDelta(t, 0, f.s1.X, 1e-9)
	assert.False(t, f.ed.Tx().CanUndo())
}

func TestEscapeCancelsAreaSelection(t *testing.T) {
	f := newFixture(t)

	f.down(50, 50, false)
	f.move(150, 150)
	f.key(editor.KeyEscape, false, false)
	f.up(150, 150)

	assert.Zero(t, f.ed.Selection().Size())
}

func TestDeleteAndUndo(t *testing.T) {
	f := newFixture(t)
	f.click(10, 10, false)

	f.key(editor.KeyDelete, false, false)
	assert.False(t, f.st.Has(f.s1))
	assert.Zero(t, f.ed.Selection().Size())

	f.key("z", false, true)
	assert.NotNil(t, f.st.Get("s1"))

	f.key("Z", true, true)
	assert.Nil(t, f.st.Get("s1"))
}

func TestArrowKeysNudge(t *testing.T) {
	f := newFixture(t)
	var labels []string
	f.ed.Tx().OnCommit(func(c txn.Commit) { labels = append(labels, c.Label) })
	f.ed.Selection().Select(f.s2)

	f.key(editor.KeyRight, false, false)
	f.key(editor.KeyDown, true, false)

	assert.InDelta(t, 101, f.s2.X, 1e-9)
	assert.InDelta(t, 110, f.s2.Y, 1e-9)
	assert.Equal(t, []string{"nudge", "nudge"}, labels)
}

func TestCreateTool(t *testing.T) {
	tests := []struct {
		name     string
		kind     scene.Kind
		from, to geometry.Point
		want     geometry.Rect
	}{
		{"dragged down right", scene.KindRect, geometry.Pt(150, 180), geometry.Pt(200, 200), geometry.Rect{X: 150, Y: 180, Width: 50, Height: 20}},
		{"dragged up left", scene.KindEllipse, geometry.Pt(200, 200), geometry.Pt(150, 180), geometry.Rect{X: 150, Y: 180, Width: 50, Height: 20}},
		{"click", scene.KindFrame, geometry.Pt(200, 200), geometry.Pt(200, 200), geometry.Rect{X: 200, Y: 200, Width: 100, Height: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var changes []string
			f.ed.OnHandlerChange(func(id string) { changes = append(changes, id) })
			require.NoError(t, f.ed.SetActiveHandler(string(tt.kind)))

			f.down(tt.from.X, tt.from.Y, false)
			f.move(tt.to.X, tt.to.Y)
			f.up(tt.to.X, tt.to.Y)

			assert.Equal(t, handlers.SelectID, f.ed.ActiveHandler().ID())
			assert.Equal(t, []string{string(tt.kind), handlers.SelectID}, changes)
			created := f.ed.Selection().Primary()
			require.NotNil(t, created)
			assert.Equal(t, tt.kind, created.Kind)
			assert.Equal(t, "root", created.Parent)
			assert.InDelta(t, tt.want.X, created.X, 1e-9)
			assert.InDelta(t, tt.want.Y, created.Y, 1e-9)
			assert.InDelta(t, tt.want.Width, created.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, created.Height, 1e-9)
		})
	}
}

func TestCreateLineTool(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ed.SetActiveHandler(string(scene.KindLine)))

	f.down(200, 40, false)
	f.move(260, 40)
	f.up(280, 40)

	line := f.ed.Selection().Primary()
	require.NotNil(t, line)
	require.True(t, line.IsTwoPointLine())
	a := f.st.LocalToGlobal(line, line.Path[0])
	b := f.st.LocalToGlobal(line, line.Path[1])
	assert.InDelta(t, 200, a.X, 1e-6)
	assert.InDelta(t, 280, b.X, 1e-6)
	assert.InDelta(t, 40, b.Y, 1e-6)
}

func TestHoverOutline(t *testing.T) {
	f := newFixture(t)
	rec, ok := f.ed.Surface().(*canvas.Recorder)
	require.True(t, ok)

	hasHover := func() bool {
		for _, c := range rec.Commands() {
			if c.Paint.Color == canvas.ColorHover {
				return true
			}
		}
		return false
	}

	f.ed.PointerMove(editor.PointerEvent{X: 110, Y: 110})
	assert.True(t, hasHover())
	assert.Equal(t, editor.CursorPointer, f.ed.Cursor().Name)

	f.ed.PointerMove(editor.PointerEvent{X: 200, Y: 50})
	assert.False(t, hasHover())
	assert.Equal(t, editor.CursorDefault, f.ed.Cursor().Name)
}

// panExtra owns alt-drags: it pans the viewport and swallows the keys it sees
// while panning.
type panExtra struct {
	handlers.BaseExtra
	panning bool
	last    geometry.Point
	keys    []string
}

func (p *panExtra) PointerDown(ed *editor.Editor, e editor.PointerEvent) bool {
	if !e.Alt {
		return false
	}
	p.panning, p.last = true, geometry.Pt(e.X, e.Y)
	return true
}

func (p *panExtra) PointerMove(ed *editor.Editor, e editor.PointerEvent) bool {
	if !p.panning {
		return false
	}
	vp := ed.Viewport()
	vp.Origin = vp.Origin.Add(geometry.Pt(e.X-p.last.X, e.Y-p.last.Y))
	p.last = geometry.Pt(e.X, e.Y)
	return true
}

func (p *panExtra) PointerUp(ed *editor.Editor, e editor.PointerEvent) bool {
	if !p.panning {
		return false
	}
	p.panning = false
	return true
}

func (p *panExtra) KeyDown(ed *editor.Editor, e editor.KeyEvent) bool {
	if !p.panning {
		return false
	}
	p.keys = append(p.keys, e.Key)
	return true
}

func TestExtraBehaviorOwnsWholeDrag(t *testing.T) {
	f := newFixture(t)
	pan := &panExtra{}
	f.sel.AddExtra(pan)
	f.ed.Selection().Select(f.s2)

	f.ed.PointerDown(editor.PointerEvent{X: 10, Y: 10, Button: editor.ButtonLeft, LeftButtonDown: true, Alt: true})
	f.move(40, 30)
	f.key(editor.KeyDelete, false, false)
	f.up(40, 30)

	assert.Equal(t, geometry.Pt(30, 20), f.ed.Viewport().Origin)
	assert.InDelta(t, 0, f.s1.X, 1e-9, "the shape under the press is not dragged")
	assert.Equal(t, []string{"s2"}, f.ed.Selection().IDs(), "no area selection ran")
	assert.Equal(t, []string{editor.KeyDelete}, pan.keys)
	assert.True(t, f.st.Has(f.s2), "delete went to the extra")
	assert.False(t, f.ed.Tx().CanUndo())

	f.key(editor.KeyDelete, false, false)
	assert.False(t, f.st.Has(f.s2), "after the drag keys reach the select tool")
}

func TestAreaDragOutlinesOverlappedShapes(t *testing.T) {
	f := newFixture(t)
	rec, ok := f.ed.Surface().(*canvas.Recorder)
	require.True(t, ok)

	hovered := func() int {
		n := 0
		for _, c := range rec.Commands() {
			if c.Paint.Color == canvas.ColorHover {
				n++
			}
		}
		return n
	}

	f.down(50, 50, false)
	f.move(150, 150)
	assert.Equal(t, 1, hovered())

	f.move(330, 330)
	assert.Equal(t, 2, hovered())

	f.up(330, 330)
	assert.Zero(t, hovered())
	assert.Equal(t, []string{"s2", "s3"}, f.ed.Selection().IDs())
}
