// Package transform maps bounding boxes between the coordinate spaces a
// slide passes through on its way to the final canvas: source document
// units, DPI-scaled raw pixels, and the letterboxed target canvas. All call
// sites go through MapToCanvas so the composition order is fixed in exactly
// one place.
package transform

import (
	"fmt"
	"math"

	"github.com/menta2k/slidecast/pkg/types"
)

// ToRawPixels scales a box uniformly from source units to raw pixels, e.g.
// dpiScale = 150.0/72.0 for a document rendered at 150 DPI.
func ToRawPixels(b types.Box, dpiScale float64) types.Box {
	return types.Box{
		X0: b.X0 * dpiScale,
		Y0: b.Y0 * dpiScale,
		X1: b.X1 * dpiScale,
		Y1: b.Y1 * dpiScale,
	}
}

// FlipY converts a box from a bottom-left-origin space to a top-left-origin
// space of the given height. The transform is its own inverse; applying it
// twice returns the original box.
func FlipY(b types.Box, sourceHeight float64) types.Box {
	return types.Box{
		X0: b.X0,
		Y0: sourceHeight - b.Y1,
		X1: b.X1,
		Y1: sourceHeight - b.Y0,
	}
}

// ScaleAndPad maps a box from a renderW x renderH raster into a
// targetW x targetH canvas the same way the raster itself is fitted:
// aspect-preserving scale, then centering padding.
func ScaleAndPad(b types.Box, renderW, renderH, targetW, targetH float64) types.Box {
	scale := math.Min(targetW/renderW, targetH/renderH)
	padX := (targetW - renderW*scale) / 2
	padY := (targetH - renderH*scale) / 2
	return types.Box{
		X0: b.X0*scale + padX,
		Y0: b.Y0*scale + padY,
		X1: b.X1*scale + padX,
		Y1: b.Y1*scale + padY,
	}
}

// ClipToCanvas clamps a box into [0,width] x [0,height]. The second return
// value is false when clamping collapses the box to zero or negative area;
// callers must treat that as "no box" rather than drawing a degenerate one.
func ClipToCanvas(b types.Box, width, height float64) (types.Box, bool) {
	out := types.Box{
		X0: clamp(b.X0, 0, width),
		Y0: clamp(b.Y0, 0, height),
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
	}
	if !out.Valid() {
		return types.Box{}, false
	}
	return out, true
}

// MapToCanvas runs the full composition: raw-pixel scale, Y flip when the
// source origin is bottom-left, resize+pad, clip. The order is load-bearing:
// flipping after the letterbox pad is applied would mirror around the wrong
// axis. Returns an error for invalid input boxes since those indicate a
// caller bug, and (zero, false, nil) when the mapped box clips away.
func MapToCanvas(b types.Box, g types.RenderGeometry) (types.Box, bool, error) {
	if !b.Valid() {
		return types.Box{}, false, fmt.Errorf("transform: invalid box (%.2f,%.2f,%.2f,%.2f)", b.X0, b.Y0, b.X1, b.Y1)
	}
	if g.DPIScale <= 0 || g.RenderW <= 0 || g.RenderH <= 0 || g.TargetW <= 0 || g.TargetH <= 0 {
		return types.Box{}, false, fmt.Errorf("transform: invalid geometry %+v", g)
	}

	out := ToRawPixels(b, g.DPIScale)
	if g.FlipY {
		out = FlipY(out, g.RenderH)
	}
	out = ScaleAndPad(out, g.RenderW, g.RenderH, g.TargetW, g.TargetH)
	clipped, ok := ClipToCanvas(out, g.TargetW, g.TargetH)
	if !ok {
		return types.Box{}, false, nil
	}
	return clipped, true, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
