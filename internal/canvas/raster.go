package canvas

import (
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

// Raster is a Surface backed by an in-memory image.
type Raster struct {
	dc    *gg.Context
	px    float64
	font  *truetype.Font
	faces map[float64]font.Face
}

// NewRaster creates a raster surface of width x height device pixels.
func NewRaster(width, height int, px float64) (*Raster, error) {
	if px <= 0 {
		px = 1
	}
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Raster{
		dc:    gg.NewContext(width, height),
		px:    px,
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

func (r *Raster) PX() float64 { return r.px }

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) Clear(color string) {
	if color == "" {
		color = "#ffffff"
	}
	r.setColor(Paint{Color: color})
	r.dc.Clear()
}

func (r *Raster) StrokePolyline(points []geometry.Point, closed bool, p Paint) {
	if len(points) < 2 || p.Color == "" {
		return
	}
	r.path(points, closed)
	r.setColor(p)
	r.dc.SetLineWidth(max(p.Width, 1))
	if len(p.Dash) > 0 {
		r.dc.SetDash(p.Dash...)
	} else {
		r.dc.SetDash()
	}
	r.dc.Stroke()
}

func (r *Raster) FillPolygon(points []geometry.Point, p Paint) {
	if len(points) < 3 || p.Color == "" {
		return
	}
	r.path(points, true)
	r.setColor(p)
	r.dc.Fill()
}

func (r *Raster) FillText(text string, at geometry.Point, size float64, p Paint) {
	if text == "" || p.Color == "" {
		return
	}
	r.dc.SetFontFace(r.face(size))
	r.setColor(p)
	r.dc.DrawString(text, at.X, at.Y)
}

// Image returns the rendered image.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

// SavePNG writes the image to a PNG file.
func (r *Raster) SavePNG(path string) error { return r.dc.SavePNG(path) }

func (r *Raster) path(points []geometry.Point, closed bool) {
	r.dc.NewSubPath()
	r.dc.MoveTo(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		r.dc.LineTo(pt.X, pt.Y)
	}
	if closed {
		r.dc.ClosePath()
	}
}

func (r *Raster) face(size float64) font.Face {
	if size <= 0 {
		size = 12
	}
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[size] = f
	return f
}

func (r *Raster) setColor(p Paint) {
	red, green, blue, ok := parseHex(p.Color)
	if !ok {
		red, green, blue = 0, 0, 0
	}
	r.dc.SetRGBA(red, green, blue, alphaOf(p))
}

// parseHex parses "#rgb" or "#rrggbb" into unit floats.
func parseHex(s string) (r, g, b float64, ok bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, true
}
