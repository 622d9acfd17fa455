package geometry

const (
	// ControlPointApothem is the half-size of a control point handle in CSS pixels.
	ControlPointApothem = 4.0

	// DefaultAngleStep is the rotation snapping increment in degrees.
	DefaultAngleStep = 15.0
)

// Viewport maps global (document) space to canvas (device pixel) space.
//
//	canvas = global*Scale*PX + Origin
//
// Origin is the pan offset in device pixels, Scale the zoom factor and PX the
// device-pixel ratio of the surface.
type Viewport struct {
	Origin Point   `json:"origin" yaml:"origin"`
	Scale  float64 `json:"scale" yaml:"scale"`
	PX     float64 `json:"px" yaml:"px"`
}

// NewViewport returns an unpanned, unzoomed viewport at a device-pixel ratio of 1.
func NewViewport() *Viewport {
	return &Viewport{Scale: 1, PX: 1}
}

func (v *Viewport) factor() float64 {
	scale, px := v.Scale, v.PX
	if scale == 0 {
		scale = 1
	}
	if px == 0 {
		px = 1
	}
	return scale * px
}

// Matrix returns the global-to-canvas matrix.
func (v *Viewport) Matrix() Matrix2D {
	f := v.factor()
	return Translate(v.Origin.X, v.Origin.Y).Multiply(Scale(f, f))
}

// ToCanvas converts a global point to canvas space.
func (v *Viewport) ToCanvas(p Point) Point {
	f := v.factor()
	return Point{p.X*f + v.Origin.X, p.Y*f + v.Origin.Y}
}

// ToGlobal converts a canvas point to global space.
func (v *Viewport) ToGlobal(p Point) Point {
	f := v.factor()
	return Point{(p.X - v.Origin.X) / f, (p.Y - v.Origin.Y) / f}
}

// Units converts a length in CSS pixels to global units at the current zoom.
func (v *Viewport) Units(cssPixels float64) float64 {
	scale := v.Scale
	if scale == 0 {
		scale = 1
	}
	return cssPixels / scale
}

// InControlPoint reports whether the global point p falls in the square handle centered
// on the global point cp. The square keeps the same on-screen size at any zoom.
func (v *Viewport) InControlPoint(p, cp Point) bool {
	half := v.Units(ControlPointApothem)
	return p.X >= cp.X-half && p.X <= cp.X+half && p.Y >= cp.Y-half && p.Y <= cp.Y+half
}
