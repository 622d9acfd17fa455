package canvas

import (
	"math"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// Colors used for interaction feedback.
const (
	ColorBackground = "#ffffff"
	ColorGuide      = "#1e88e5"
	ColorHover      = "#64b5f6"
	ColorGhost      = "#1e88e5"
	ColorHandleFill = "#ffffff"
	ColorContainer  = "#43a047"
	ColorArea       = "#1e88e5"
)

// GuidePaint is the default paint of guides, scaled by the surface's pixel ratio.
func GuidePaint(s Surface, color string) Paint {
	return Paint{Color: color, Width: 1.5 * s.PX()}
}

// DashedPaint is GuidePaint with a dash pattern.
func DashedPaint(s Surface, color string) Paint {
	p := GuidePaint(s, color)
	p.Dash = []float64{4 * s.PX(), 3 * s.PX()}
	return p
}

// DrawPolylineInLCS strokes points given in the LCS of shape.
func DrawPolylineInLCS(s Surface, st *scene.Store, vp *geometry.Viewport, shape *scene.Shape, points []geometry.Point, closed bool, p Paint) {
	out := make([]geometry.Point, len(points))
	for i, pt := range points {
		out[i] = st.ToGlobal(vp, shape, pt)
	}
	s.StrokePolyline(out, closed, p)
}

// DrawControlPoint draws a square handle centered on the canvas point at. Its
// size is fixed in device pixels, so it looks the same at every zoom.
func DrawControlPoint(s Surface, at geometry.Point) {
	half := geometry.ControlPointApothem * s.PX()
	square := []geometry.Point{
		{X: at.X - half, Y: at.Y - half},
		{X: at.X + half, Y: at.Y - half},
		{X: at.X + half, Y: at.Y + half},
		{X: at.X - half, Y: at.Y + half},
	}
	s.FillPolygon(square, Paint{Color: ColorHandleFill})
	s.StrokePolyline(square, true, GuidePaint(s, ColorGuide))
}

// DrawHovering outlines shape as hover feedback.
func DrawHovering(s Surface, st *scene.Store, vp *geometry.Viewport, shape *scene.Shape) {
	DrawPolylineInLCS(s, st, vp, shape, shape.Outline(), !shape.IsLine(), GuidePaint(s, ColorHover))
}

// DrawRect strokes a rectangle given in global coordinates.
func DrawRect(s Surface, vp *geometry.Viewport, r geometry.Rect, p Paint) {
	corners := r.Corners()
	for i := range corners {
		corners[i] = vp.ToCanvas(corners[i])
	}
	s.StrokePolyline(corners, true, p)
}

const ellipseSegments = 48

// bodyOutline is the polygon of the shape body in its LCS.
func bodyOutline(shape *scene.Shape) []geometry.Point {
	if shape.Kind != scene.KindEllipse {
		return shape.Outline()
	}
	rx, ry := shape.Width/2, shape.Height/2
	out := make([]geometry.Point, ellipseSegments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		out[i] = geometry.Pt(rx+rx*math.Cos(a), ry+ry*math.Sin(a))
	}
	return out
}

// DrawShape paints a single scene shape (not its children).
func DrawShape(s Surface, st *scene.Store, vp *geometry.Viewport, shape *scene.Shape) {
	if shape.Kind == scene.KindDocument || !shape.Visible {
		return
	}
	outline := bodyOutline(shape)
	pts := make([]geometry.Point, len(outline))
	for i, pt := range outline {
		pts[i] = st.ToGlobal(vp, shape, pt)
	}
	scale := vp.Scale
	if scale == 0 {
		scale = 1
	}

	if !shape.IsLine() {
		s.FillPolygon(pts, Paint{Color: shape.Style.Fill, Alpha: shape.Style.Opacity})
	}
	s.StrokePolyline(pts, !shape.IsLine(), Paint{
		Color: shape.Style.Stroke,
		Width: shape.Style.StrokeWidth * scale * s.PX(),
		Alpha: shape.Style.Opacity,
	})
	if shape.Kind == scene.KindText && shape.Name != "" {
		size := 12 * scale * s.PX()
		at := st.ToGlobal(vp, shape, geometry.Pt(2, shape.Height/2+4))
		s.FillText(shape.Name, at, size, Paint{Color: shape.Style.Stroke})
	}
}

// DrawScene clears the surface and paints every visible shape in paint order.
func DrawScene(s Surface, st *scene.Store, vp *geometry.Viewport) {
	s.Clear(ColorBackground)
	drawSubtree(s, st, vp, st.Root())
}

func drawSubtree(s Surface, st *scene.Store, vp *geometry.Viewport, shape *scene.Shape) {
	if shape == nil || !shape.Visible && shape.Kind != scene.KindDocument {
		return
	}
	DrawShape(s, st, vp, shape)
	for _, c := range st.Children(shape) {
		drawSubtree(s, st, vp, c)
	}
}
