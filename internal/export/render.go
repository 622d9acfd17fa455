package export

import (
	"errors"
	"math"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

const (
	DefaultMargin = 20.0
	MaxDimension  = 4096
)

var ErrTooLarge = errors.New("render size exceeds limit")

// RenderOptions control how a document is rasterized. A zero Width or Height
// fits the image to the document bounds.
type RenderOptions struct {
	Width  int
	Height int
	Scale  float64
	Margin float64
}

// ContentBounds is the global bounding box of every shape below the root.
func ContentBounds(st *scene.Store) geometry.Rect {
	var bounds geometry.Rect
	for _, s := range st.Children(st.Root()) {
		if s.Visible {
			bounds = bounds.Union(st.WorldBounds(s))
		}
	}
	return bounds
}

// Render draws the document onto a new raster surface framed around its content.
func Render(st *scene.Store, opts RenderOptions) (*canvas.Raster, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	} else if opts.Margin == 0 {
		opts.Margin = DefaultMargin
	}

	bounds := ContentBounds(st)
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = int(math.Ceil(bounds.Width*opts.Scale + 2*opts.Margin))
	}
	if height <= 0 {
		height = int(math.Ceil(bounds.Height*opts.Scale + 2*opts.Margin))
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, ErrTooLarge
	}
	width, height = max(width, 1), max(height, 1)

	r, err := canvas.NewRaster(width, height, 1)
	if err != nil {
		return nil, err
	}
	vp := &geometry.Viewport{
		Origin: geometry.Pt(opts.Margin-bounds.X*opts.Scale, opts.Margin-bounds.Y*opts.Scale),
		Scale:  opts.Scale,
		PX:     1,
	}
	canvas.DrawScene(r, st, vp)
	return r, nil
}
