// Package overlay renders transparent marker images (ellipse or underline)
// positioned over a resolved bounding box, one marker per file, so the
// video-assembly stage can fade each marker in independently.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/slidecast/pkg/transform"
	"github.com/menta2k/slidecast/pkg/types"
)

// Style selects the marker shape drawn over a located keyword.
type Style string

const (
	StyleCircle    Style = "circle"
	StyleUnderline Style = "underline"
)

// Styles lists the shapes a resolver may pick from.
var Styles = []Style{StyleCircle, StyleUnderline}

// ErrInvalidBox is returned when clipping collapses the marker box to zero
// area; nothing is drawn in that case.
var ErrInvalidBox = errors.New("overlay: box degenerate after clipping")

// Config holds drawing parameters.
type Config struct {
	// StrokeWidth is the marker line thickness in pixels.
	StrokeWidth int
	// CircleMargin widens the ellipse semi-axes beyond the box half-extents
	// so the stroke clears the text.
	CircleMargin float64
	// EdgeMargin is the minimum distance the ellipse keeps from each canvas
	// edge; the ellipse is shrunk to maintain it.
	EdgeMargin float64
	// UnderlineOffset is how far below the box baseline the underline sits.
	UnderlineOffset float64
	// Color is the marker color, opaque.
	Color color.NRGBA
}

// Renderer draws markers onto transparent canvases. Rendering is
// deterministic: identical inputs produce pixel-identical output.
type Renderer struct {
	config Config
}

// New creates a Renderer with default configuration.
func New() *Renderer {
	return &Renderer{
		config: Config{
			StrokeWidth:     8,
			CircleMargin:    15,
			EdgeMargin:      10,
			UnderlineOffset: 5,
			Color:           color.NRGBA{R: 255, A: 255},
		},
	}
}

// NewWithConfig creates a Renderer with custom configuration.
func NewWithConfig(config Config) *Renderer {
	return &Renderer{config: config}
}

// Render draws a single marker at box onto a transparent width x height
// canvas. The box is clipped into the canvas first; a box that clips away
// returns ErrInvalidBox.
func (r *Renderer) Render(width, height int, box types.Box, style Style) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("overlay: invalid canvas %dx%d", width, height)
	}
	clipped, ok := transform.ClipToCanvas(box, float64(width), float64(height))
	if !ok {
		return nil, fmt.Errorf("%w: original (%.1f,%.1f,%.1f,%.1f) canvas %dx%d",
			ErrInvalidBox, box.X0, box.Y0, box.X1, box.Y1, width, height)
	}

	canvas := imaging.New(width, height, color.NRGBA{})

	switch style {
	case StyleCircle:
		if err := r.drawEllipse(canvas, clipped); err != nil {
			return nil, err
		}
	case StyleUnderline:
		r.drawUnderline(canvas, clipped)
	default:
		return nil, fmt.Errorf("overlay: unknown style %q", style)
	}

	return canvas, nil
}

// RenderToFile renders a marker and saves it as PNG (the only output format
// that preserves the alpha channel the assembler composites with).
func (r *Renderer) RenderToFile(width, height int, box types.Box, style Style, path string) error {
	img, err := r.Render(width, height, box, style)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("overlay: save %s: %w", path, err)
	}
	return nil
}

// drawEllipse strokes an elliptical ring centered on the box, semi-axes
// half-extent plus CircleMargin, shrunk so the ring keeps EdgeMargin pixels
// from every canvas edge.
func (r *Renderer) drawEllipse(canvas *image.NRGBA, box types.Box) error {
	w := float64(canvas.Bounds().Dx())
	h := float64(canvas.Bounds().Dy())
	cx, cy := box.Center()

	a := box.Width()/2 + r.config.CircleMargin
	b := box.Height()/2 + r.config.CircleMargin

	// Shrink to honor the edge safety margin on all four sides.
	a = math.Min(a, math.Min(cx-r.config.EdgeMargin, w-r.config.EdgeMargin-cx))
	b = math.Min(b, math.Min(cy-r.config.EdgeMargin, h-r.config.EdgeMargin-cy))
	if a <= 0 || b <= 0 {
		return fmt.Errorf("%w: no room for ellipse at (%.1f,%.1f)", ErrInvalidBox, cx, cy)
	}

	stroke := float64(r.config.StrokeWidth)
	innerA := math.Max(a-stroke, 0)
	innerB := math.Max(b-stroke, 0)

	x0 := int(math.Floor(cx - a))
	x1 := int(math.Ceil(cx + a))
	y0 := int(math.Floor(cy - b))
	y1 := int(math.Ceil(cy + b))

	for y := y0; y <= y1; y++ {
		if y < 0 || y >= int(h) {
			continue
		}
		py := float64(y) + 0.5
		for x := x0; x <= x1; x++ {
			if x < 0 || x >= int(w) {
				continue
			}
			px := float64(x) + 0.5
			dx := px - cx
			dy := py - cy
			outer := (dx*dx)/(a*a) + (dy*dy)/(b*b)
			if outer > 1 {
				continue
			}
			inside := false
			if innerA > 0 && innerB > 0 {
				inner := (dx*dx)/(innerA*innerA) + (dy*dy)/(innerB*innerB)
				inside = inner < 1
			}
			if !inside {
				setPix(canvas, x, y, r.config.Color)
			}
		}
	}
	return nil
}

// drawUnderline fills a horizontal bar from x0 to x1 at UnderlineOffset
// below the box, clipped to the canvas.
func (r *Renderer) drawUnderline(canvas *image.NRGBA, box types.Box) {
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()

	yLine := int(box.Y1 + r.config.UnderlineOffset)
	if yLine+r.config.StrokeWidth > h {
		yLine = h - r.config.StrokeWidth
	}
	if yLine < 0 {
		yLine = 0
	}

	x0 := int(box.X0)
	x1 := int(box.X1)
	if x0 < 0 {
		x0 = 0
	}
	if x1 > w {
		x1 = w
	}

	for s := 0; s < r.config.StrokeWidth; s++ {
		y := yLine + s
		if y < 0 || y >= h {
			continue
		}
		i := y*canvas.Stride + x0*4
		for x := x0; x < x1; x++ {
			canvas.Pix[i+0] = r.config.Color.R
			canvas.Pix[i+1] = r.config.Color.G
			canvas.Pix[i+2] = r.config.Color.B
			canvas.Pix[i+3] = r.config.Color.A
			i += 4
		}
	}
}

func setPix(img *image.NRGBA, x, y int, c color.NRGBA) {
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
