package canvas

import (
	"bytes"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

func TestRecorderDropsInvisiblePaint(t *testing.T) {
	r := NewRecorder(100, 100, 2)
	r.StrokePolyline([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, false, Paint{})
	r.FillPolygon([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, Paint{Color: "#000"})
	r.StrokePolyline([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, false, Paint{Color: "#000"})

	cmds := r.Flush()
	require.Len(t, cmds, 1)
	assert.Equal(t, "stroke", cmds[0].Op)
	assert.Empty(t, r.Commands())
}

func TestControlPointKeepsDeviceSize(t *testing.T) {
	r := NewRecorder(100, 100, 2)
	DrawControlPoint(r, geometry.Pt(50, 50))

	cmds := r.Commands()
	require.Len(t, cmds, 2)
	b := geometry.BoundsOf(cmds[0].Points)
	assert.InDelta(t, 2*geometry.ControlPointApothem*2, b.Width, 1e-9)
}

func TestDrawSceneRecordsPaintOrder(t *testing.T) {
	st := scene.NewSampleDocument()
	r := NewRecorder(800, 600, 1)
	DrawScene(r, st, geometry.NewViewport())

	cmds := r.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "clear", cmds[0].Op)

	data, err := MarshalCommands(cmds)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(cmds))
}

func TestRasterEncodesPNG(t *testing.T) {
	ra, err := NewRaster(120, 80, 1)
	require.NoError(t, err)

	st := scene.NewSampleDocument()
	DrawScene(ra, st, &geometry.Viewport{Scale: 0.25, PX: 1})
	ra.FillText("label", geometry.Pt(4, 70), 10, Paint{Color: "#333"})

	var buf bytes.Buffer
	require.NoError(t, ra.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b float64
		ok      bool
	}{
		{"#ffffff", 1, 1, 1, true},
		{"#f00", 1, 0, 0, true},
		{"000000", 0, 0, 0, true},
		{"red", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b, ok := parseHex(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.r, r, 1e-9)
			assert.InDelta(t, tt.g, g, 1e-9)
			assert.InDelta(t, tt.b, b, 1e-9)
		})
	}
}
