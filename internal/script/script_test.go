package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/handlers"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

const createRect = `
viewport:
  origin: {x: 0, y: 0}
  scale: 2
steps:
  - tool: rect
  - pointer: {action: down, x: 20, y: 20}
  - pointer: {action: move, x: 70, y: 50}
  - pointer: {action: move, x: 120, y: 80}
  - pointer: {action: up, x: 120, y: 80}
`

func newEditor(t *testing.T, st *scene.Store) *editor.Editor {
	t.Helper()
	ed := editor.New(st, nil)
	handlers.Install(ed)
	return ed
}

func onlyChild(t *testing.T, st *scene.Store) *scene.Shape {
	t.Helper()
	children := st.Children(st.Root())
	require.Len(t, children, 1)
	return children[0]
}

func TestRunCreatesShape(t *testing.T) {
	sc, err := Parse([]byte(createRect))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 5)

	st := scene.NewStore("doc", "root")
	ed := newEditor(t, st)
	require.NoError(t, Run(ed, sc))

	box := onlyChild(t, st)
	assert.Equal(t, scene.KindRect, box.Kind)
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 30}, box.Frame())
	assert.Equal(t, handlers.SelectID, ed.ActiveHandler().ID())
	assert.True(t, ed.Selection().IsSelected(box))
}

func TestRunUndoKey(t *testing.T) {
	sc, err := Parse([]byte(createRect + `
  - key: {action: down, key: z, ctrl: true}
  - key: {action: up, key: z, ctrl: true}
`))
	require.NoError(t, err)

	st := scene.NewStore("doc", "root")
	require.NoError(t, Run(newEditor(t, st), sc))
	assert.Empty(t, st.Children(st.Root()))
}

func TestRunUnknownTool(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - tool: lasso\n"))
	require.NoError(t, err)

	err = Run(newEditor(t, scene.NewStore("doc", "root")), sc)
	assert.ErrorIs(t, err, editor.ErrUnknownHandler)
}

func TestParseRejectsInvalidSteps(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty step", "steps:\n  - {}\n"},
		{"two kinds", "steps:\n  - {tool: rect, key: {action: down, key: a}}\n"},
		{"bad pointer action", "steps:\n  - pointer: {action: click, x: 1, y: 1}\n"},
		{"bad key action", "steps:\n  - key: {action: press, key: a}\n"},
		{"missing key", "steps:\n  - key: {action: down}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidStep)
		})
	}

	_, err := Parse([]byte("steps: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFileResolvesDocument(t *testing.T) {
	dir := t.TempDir()

	doc := scene.NewSampleDocument()
	data, err := doc.Snapshot()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.yaml"), []byte("document: doc.json\nsteps: []\n"), 0o644))

	sc, err := LoadFile(filepath.Join(dir, "run.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc.json"), sc.Document)

	st, err := sc.LoadDocument()
	require.NoError(t, err)
	assert.Equal(t, doc.ID, st.ID)
	assert.Equal(t, doc.Len(), st.Len())
}

func TestLoadDocumentDefaultsToEmpty(t *testing.T) {
	st, err := (&Scenario{}).LoadDocument()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}
