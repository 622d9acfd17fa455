package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizeAngle(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		step float64
		want float64
	}{
		{"rounds down", 37, 15, 30},
		{"rounds up", 38, 15, 45},
		{"wraps at 360", 359, 15, 0},
		{"negative", -37, 15, 330},
		{"no step", 370, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantizeAngle(tt.deg, tt.step)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}
}

func TestAngle(t *testing.T) {
	o := Pt(0, 0)
	assert.InDelta(t, 0, Angle(o, Pt(10, 0)), 1e-9)
	assert.InDelta(t, 90, Angle(o, Pt(0, 10)), 1e-9)
	assert.InDelta(t, 270, Angle(o, Pt(0, -10)), 1e-9)
}

func TestNormalizeRect(t *testing.T) {
	r := NormalizeRect(Pt(50, 80), Pt(10, 20))
	assert.Equal(t, Rect{X: 10, Y: 20, Width: 40, Height: 60}, r)
}

func TestFromFrameRotatesAboutCenter(t *testing.T) {
	m := FromFrame(10, 20, 100, 50, 90)
	center := m.Apply(Pt(50, 25))
	assert.InDelta(t, 60, center.X, 1e-9)
	assert.InDelta(t, 45, center.Y, 1e-9)

	back := m.Invert().Apply(center)
	assert.True(t, back.Near(Pt(50, 25), 1e-9))
}

func TestViewportRoundTrip(t *testing.T) {
	v := &Viewport{Origin: Pt(120, -40), Scale: 2.5, PX: 2}
	for _, p := range []Point{{0, 0}, {13, -7}, {1000, 250}} {
		assert.True(t, v.ToGlobal(v.ToCanvas(p)).Near(p, 1e-9))
	}
	assert.True(t, v.Matrix().Apply(Pt(3, 4)).Near(v.ToCanvas(Pt(3, 4)), 1e-9))
}

func TestInControlPointKeepsScreenSize(t *testing.T) {
	cp := Pt(100, 100)

	zoomedOut := &Viewport{Scale: 0.5, PX: 1}
	assert.True(t, zoomedOut.InControlPoint(Pt(107, 100), cp))

	zoomedIn := &Viewport{Scale: 4, PX: 1}
	assert.False(t, zoomedIn.InControlPoint(Pt(107, 100), cp))
	assert.True(t, zoomedIn.InControlPoint(Pt(100.9, 99.1), cp))
}

func TestPolylineContains(t *testing.T) {
	line := []Point{{0, 0}, {100, 0}, {100, 100}}
	assert.True(t, PolylineContains(line, Pt(50, 2), 3))
	assert.True(t, PolylineContains(line, Pt(101, 60), 3))
	assert.False(t, PolylineContains(line, Pt(50, 50), 3))
	assert.False(t, PolylineContains(nil, Pt(0, 0), math.MaxFloat64))
}
