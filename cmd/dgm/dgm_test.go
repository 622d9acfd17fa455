package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/scene"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestReplayWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "draw.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`
steps:
  - tool: frame
  - pointer: {action: down, x: 10, y: 10}
  - pointer: {action: move, x: 110, y: 60}
  - pointer: {action: up, x: 110, y: 60}
`), 0o644))

	out := filepath.Join(dir, "out.json")
	img := filepath.Join(dir, "out.png")
	stdout := run(t, "replay", scenario, "-o", out, "--png", img)
	assert.Contains(t, stdout, "1 commits")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	st, err := scene.Load(data)
	require.NoError(t, err)
	children := st.Children(st.Root())
	require.Len(t, children, 1)
	assert.Equal(t, scene.KindFrame, children[0].Kind)
	assert.FileExists(t, img)
}

func TestRenderSample(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample.png")
	run(t, "render", "--sample", "-o", out)
	assert.FileExists(t, out)
}
