package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/selection"
)

func threeShapes(t *testing.T) (*scene.Store, []*scene.Shape) {
	t.Helper()
	st := scene.NewStore("doc", "root")
	var out []*scene.Shape
	for i, id := range []string{"s1", "s2", "s3"} {
		s := scene.NewShape(id, scene.KindRect, geometry.Rect{X: float64(i) * 200, Y: 0, Width: 50, Height: 50})
		st.Add(s)
		require.NoError(t, st.Attach(s, st.Root(), -1))
		out = append(out, s)
	}
	return st, out
}

func TestSelectArea(t *testing.T) {
	st, shapes := threeShapes(t)
	m := selection.New(st)

	var events [][]string
	m.OnChange(func(sel []*scene.Shape) {
		ids := []string{}
		for _, s := range sel {
			ids = append(ids, s.ID)
		}
		events = append(events, ids)
	})

	// Dragged from bottom-right to top-left around s2 only.
	m.SelectArea(300, 100, 180, -10)

	assert.Equal(t, []string{"s2"}, m.IDs())
	assert.True(t, m.IsSelected(shapes[1]))
	assert.Equal(t, [][]string{{"s2"}}, events)
}

func TestToggleRemovesOnlyThatShape(t *testing.T) {
	_, shapes := threeShapes(t)
	m := selection.New(nil)
	m.Select(shapes...)

	m.Toggle(shapes[1])
	assert.Equal(t, []string{"s1", "s3"}, m.IDs())

	m.Toggle(shapes[1])
	assert.Equal(t, []string{"s1", "s3", "s2"}, m.IDs())
}

func TestOneNotificationPerCall(t *testing.T) {
	_, shapes := threeShapes(t)
	m := selection.New(nil)
	count := 0
	m.OnChange(func([]*scene.Shape) { count++ })

	tests := []struct {
		name string
		call func()
		want []string
	}{
		{"select", func() { m.Select(shapes[0], shapes[1]) }, []string{"s1", "s2"}},
		{"no duplicates", func() { m.SelectAdditional(shapes[1], shapes[2], shapes[2]) }, []string{"s1", "s2", "s3"}},
		{"deselect", func() { m.Deselect(shapes[0], shapes[2]) }, []string{"s2"}},
		{"deselect all", func() { m.DeselectAll() }, []string{}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.call()
			assert.Equal(t, tt.want, m.IDs())
			assert.Equal(t, i+1, count)
		})
	}
}

func TestSelectionDoesNotTouchGeometry(t *testing.T) {
	st, shapes := threeShapes(t)
	before, err := st.Snapshot()
	require.NoError(t, err)

	m := selection.New(st)
	m.Select(shapes...)
	m.SelectArea(0, 0, 1000, 1000)
	m.DeselectAll()

	after, err := st.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestPrune(t *testing.T) {
	st, shapes := threeShapes(t)
	m := selection.New(st)
	m.Select(shapes...)

	require.NoError(t, st.Detach(shapes[0]))
	st.Remove(shapes[0])
	m.Prune()

	assert.Equal(t, []string{"s2", "s3"}, m.IDs())
	assert.Equal(t, shapes[1], m.Primary())
}
