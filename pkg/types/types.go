package types

import "math"

// Box is an axis-aligned bounding rectangle. The coordinate space it lives
// in (document points, rendered pixels, or final canvas pixels) is owned by
// the caller; a valid box always has X0 < X1 and Y0 < Y1.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Valid reports whether the box has positive area.
func (b Box) Valid() bool {
	return b.X0 < b.X1 && b.Y0 < b.Y1
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Area returns the area of the box, or 0 for an invalid box.
func (b Box) Area() float64 {
	if !b.Valid() {
		return 0
	}
	return b.Width() * b.Height()
}

// Center returns the center point of the box.
func (b Box) Center() (float64, float64) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Intersect returns the overlapping region of b and o. The second return
// value is false when the boxes do not overlap.
func (b Box) Intersect(o Box) (Box, bool) {
	out := Box{
		X0: math.Max(b.X0, o.X0),
		Y0: math.Max(b.Y0, o.Y0),
		X1: math.Min(b.X1, o.X1),
		Y1: math.Min(b.Y1, o.Y1),
	}
	if !out.Valid() {
		return Box{}, false
	}
	return out, true
}

// TokenSource identifies where a positioned token came from. Document
// extraction is treated as ground truth; OCR output is noisy and subject to
// a confidence gate.
type TokenSource string

const (
	SourceDocument TokenSource = "document"
	SourceOCR      TokenSource = "ocr"
)

// Token is a single positioned text unit.
type Token struct {
	Text       string      `json:"text"`
	Box        Box         `json:"box"`
	Confidence float64     `json:"confidence"`
	Source     TokenSource `json:"source"`
}

// KeywordRequest is a candidate phrase to mark on a slide, with the
// planner's estimated display time in seconds relative to slide start. The
// estimate is replaced once the synthesized audio duration is known.
type KeywordRequest struct {
	Text       string  `json:"text"`
	TimingHint float64 `json:"timing"`
}

// ResolveReason explains why a marker resolved the way it did. A marker
// suppressed by deduplication and a marker whose text was never found both
// end up with Found=false but carry different reasons for diagnostics.
type ResolveReason string

const (
	ReasonResolved       ResolveReason = "resolved"
	ReasonNotFound       ResolveReason = "not_found"
	ReasonDedupOverlap   ResolveReason = "dedup_overlap"
	ReasonDedupProximity ResolveReason = "dedup_proximity"
	ReasonInvalidBox     ResolveReason = "invalid_box"
)

// ResolvedMarker is the outcome of resolving one KeywordRequest on one
// slide. Box is in final canvas pixel space and nil when not found. Timing
// starts as the planner hint and is recomputed once per slide after speech
// synthesis; TimingVerified is false when the keyword was not found verbatim
// in the narration script and the hint was kept.
type ResolvedMarker struct {
	Keyword        string        `json:"keyword"`
	Box            *Box          `json:"bbox,omitempty"`
	OverlayImage   string        `json:"overlay_image,omitempty"`
	Timing         float64       `json:"timing"`
	TimingVerified bool          `json:"timing_verified"`
	Found          bool          `json:"found"`
	Reason         ResolveReason `json:"reason"`
}

// ArrowPointer is a marker keyed by a literal in-text tag rather than a
// keyword. TargetX/TargetY is the anchor an arrow should point at and
// MarkerBox is the region of the tag token itself, erased from the slide
// raster at the end of the pipeline so the tag is invisible in the video.
type ArrowPointer struct {
	Tag       string  `json:"tag"`
	TargetX   float64 `json:"target_x"`
	TargetY   float64 `json:"target_y"`
	MarkerBox Box     `json:"marker_bbox"`
	Timing    float64 `json:"timing"`
	Found     bool    `json:"found"`
}

// SlideText is the textual content of one slide as produced by the document
// parser collaborator.
type SlideText struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Notes string `json:"notes,omitempty"`
}

// SlideScript is the narration plan for one slide as produced by the LLM
// collaborator. Only Script and the keyword texts/timings are consumed by
// the core; timing values are re-derived after speech synthesis.
type SlideScript struct {
	Index     int              `json:"index"`
	Script    string           `json:"script"`
	Keywords  []KeywordRequest `json:"keywords"`
	Highlight *KeywordRequest  `json:"highlight,omitempty"`
}

// AudioMeta describes one slide's synthesized narration audio. Estimated is
// set when Duration came from a character-count guess instead of probing the
// file; timings recomputed against it cannot be treated as verified.
type AudioMeta struct {
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Estimated bool    `json:"estimated,omitempty"`
}

// RenderGeometry captures how a source coordinate space was turned into the
// final canvas: a uniform DPI scale from source units to raw pixels, an
// optional bottom-left to top-left Y flip, and an aspect-preserving resize
// with centering padding into the target canvas.
type RenderGeometry struct {
	DPIScale float64 `json:"dpi_scale"`
	RenderW  float64 `json:"render_w"`
	RenderH  float64 `json:"render_h"`
	TargetW  float64 `json:"target_w"`
	TargetH  float64 `json:"target_h"`
	FlipY    bool    `json:"flip_y"`
}

// Identity returns a geometry that maps a space onto itself, used for
// tokens that already live in final canvas pixels (OCR output).
func Identity(width, height float64) RenderGeometry {
	return RenderGeometry{
		DPIScale: 1,
		RenderW:  width,
		RenderH:  height,
		TargetW:  width,
		TargetH:  height,
	}
}
