// Package canvas defines the drawing surface the editor paints on and provides
// a recording surface (for the wire) and a raster surface (for PNG output).
package canvas

import "github.com/inamate/inamate/diagram-go/internal/geometry"

// Paint parameterizes a stroke or a fill. Color is a hex string ("#rrggbb" or
// "#rgb"); an empty color paints nothing. Width and Dash are in device pixels.
type Paint struct {
	Color string    `json:"color,omitempty"`
	Width float64   `json:"width,omitempty"`
	Dash  []float64 `json:"dash,omitempty"`
	Alpha float64   `json:"alpha,omitempty"`
}

// Surface is the render collaborator. All coordinates are canvas (device pixel)
// coordinates; callers convert through the viewport first.
type Surface interface {
	// PX is the device-pixel ratio used to keep widths and handle sizes
	// resolution independent.
	PX() float64
	Size() (width, height float64)
	Clear(color string)
	StrokePolyline(points []geometry.Point, closed bool, p Paint)
	FillPolygon(points []geometry.Point, p Paint)
	FillText(text string, at geometry.Point, size float64, p Paint)
}

func alphaOf(p Paint) float64 {
	if p.Alpha <= 0 || p.Alpha > 1 {
		return 1
	}
	return p.Alpha
}
