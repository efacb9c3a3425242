// Package marker drives per-slide keyword resolution: locate the keyword
// among positioned tokens, map its box into the final canvas, deduplicate
// against markers already accepted on the slide, and render the overlay.
// Every failure is per-marker and non-fatal; the reason code tells a miss
// apart from a suppression.
package marker

import (
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/pkg/dedup"
	"github.com/menta2k/slidecast/pkg/locator"
	"github.com/menta2k/slidecast/pkg/overlay"
	"github.com/menta2k/slidecast/pkg/transform"
	"github.com/menta2k/slidecast/pkg/types"
)

// Resolver resolves keyword requests against one slide's token list. It owns
// per-slide dedup state, so each slide (and each concurrent worker) needs
// its own Resolver.
type Resolver struct {
	locator  *locator.Locator
	dedup    *dedup.Deduplicator
	renderer *overlay.Renderer
	rng      *rand.Rand
	log      logger.Logger
}

// Options configures a Resolver. Zero values fall back to package defaults.
type Options struct {
	Locator *locator.Config
	Dedup   *dedup.Config
	Overlay *overlay.Config
	// Rand picks the overlay style per keyword. A seeded source makes a
	// whole run reproducible; nil means style selection defaults to the
	// first style.
	Rand *rand.Rand
	Log  logger.Logger
}

// NewResolver creates a Resolver with fresh dedup state.
func NewResolver(opts Options) *Resolver {
	loc := locator.New()
	if opts.Locator != nil {
		loc = locator.NewWithConfig(*opts.Locator)
	}
	ded := dedup.New()
	if opts.Dedup != nil {
		ded = dedup.NewWithConfig(*opts.Dedup)
	}
	ren := overlay.New()
	if opts.Overlay != nil {
		ren = overlay.NewWithConfig(*opts.Overlay)
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Resolver{
		locator:  loc,
		dedup:    ded,
		renderer: ren,
		rng:      opts.Rand,
		log:      log,
	}
}

// Slide describes the slide being resolved: its token source, the geometry
// mapping token space to the final canvas, and where overlays go.
type Slide struct {
	Index      int
	Tokens     []types.Token
	Geometry   types.RenderGeometry
	CanvasW    int
	CanvasH    int
	OverlayDir string
}

// ResolveKeywords resolves each request in order. The returned slice always
// has one entry per request; unfound and suppressed markers carry Found=false
// with a distinguishing reason.
func (r *Resolver) ResolveKeywords(slide Slide, requests []types.KeywordRequest) []types.ResolvedMarker {
	markers := make([]types.ResolvedMarker, 0, len(requests))
	for i, req := range requests {
		markers = append(markers, r.resolveOne(slide, i, req))
	}
	return markers
}

func (r *Resolver) resolveOne(slide Slide, seq int, req types.KeywordRequest) types.ResolvedMarker {
	marker := types.ResolvedMarker{
		Keyword: req.Text,
		Timing:  req.TimingHint,
		Reason:  types.ReasonNotFound,
	}

	box, found := r.locator.Locate(req.Text, slide.Tokens)
	if !found {
		r.log.Debug("marker: slide %d: %q not found among %d tokens",
			slide.Index, req.Text, len(slide.Tokens))
		return marker
	}

	canvasBox, ok, err := transform.MapToCanvas(box, slide.Geometry)
	if err != nil || !ok {
		if err != nil {
			r.log.Warn("marker: slide %d: %q: map to canvas: %v", slide.Index, req.Text, err)
		}
		marker.Reason = types.ReasonInvalidBox
		return marker
	}

	decision := r.dedup.Check(canvasBox)
	if decision != dedup.Accepted {
		r.log.Debug("marker: slide %d: %q suppressed (%s)", slide.Index, req.Text, decision)
		marker.Reason = decision.Reason()
		return marker
	}

	style := r.pickStyle()
	overlayPath := filepath.Join(slide.OverlayDir, OverlayFileName(slide.Index, seq))
	if err := r.renderer.RenderToFile(slide.CanvasW, slide.CanvasH, canvasBox, style, overlayPath); err != nil {
		r.log.Warn("marker: slide %d: %q: render overlay: %v", slide.Index, req.Text, err)
		marker.Reason = types.ReasonInvalidBox
		return marker
	}
	// Only a drawn marker takes part in deduplication.
	r.dedup.Accept(canvasBox)

	marker.Box = &canvasBox
	marker.OverlayImage = overlayPath
	marker.Found = true
	marker.Reason = types.ReasonResolved
	return marker
}

// ResolveArrows resolves literal tag tokens into arrow pointers. The tag's
// own box becomes the erase region; the anchor is its center mapped into
// canvas space. Tags never participate in deduplication since they are
// erased, not drawn.
func (r *Resolver) ResolveArrows(slide Slide, tags []types.KeywordRequest) []types.ArrowPointer {
	arrows := make([]types.ArrowPointer, 0, len(tags))
	for _, tag := range tags {
		arrow := types.ArrowPointer{Tag: tag.Text, Timing: tag.TimingHint}

		box, found := r.locator.Locate(tag.Text, slide.Tokens)
		if found {
			if canvasBox, ok, err := transform.MapToCanvas(box, slide.Geometry); err == nil && ok {
				arrow.TargetX, arrow.TargetY = canvasBox.Center()
				arrow.MarkerBox = canvasBox
				arrow.Found = true
			}
		}
		if !arrow.Found {
			r.log.Debug("marker: slide %d: arrow tag %q not found", slide.Index, tag.Text)
		}
		arrows = append(arrows, arrow)
	}
	return arrows
}

func (r *Resolver) pickStyle() overlay.Style {
	if r.rng == nil {
		return overlay.Styles[0]
	}
	return overlay.Styles[r.rng.Intn(len(overlay.Styles))]
}

// OverlayFileName names a marker overlay by slide index and marker sequence.
func OverlayFileName(slideIndex, seq int) string {
	return fmt.Sprintf("slide_%03d_marker_%02d.png", slideIndex, seq)
}

// EraseRegions removes arrow-tag regions from a slide raster in place by
// filling each box with the median color of a ring of pixels sampled just
// outside it. Runs once per slide, after all marker resolution is done.
func EraseRegions(img *image.NRGBA, boxes []types.Box, ringWidth int) {
	if ringWidth < 1 {
		ringWidth = 3
	}
	for _, box := range boxes {
		if !box.Valid() {
			continue
		}
		eraseOne(img, box, ringWidth)
	}
}

func eraseOne(img *image.NRGBA, box types.Box, ringWidth int) {
	bounds := img.Bounds()
	x0, y0 := int(box.X0), int(box.Y0)
	x1, y1 := int(box.X1+0.5), int(box.Y1+0.5)

	fill := medianRingColor(img, x0, y0, x1, y1, ringWidth)

	for y := y0; y < y1; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] = fill[0]
			img.Pix[i+1] = fill[1]
			img.Pix[i+2] = fill[2]
			img.Pix[i+3] = 255
		}
	}
}

// medianRingColor samples the frame of pixels around the box and returns the
// per-channel median, which survives text and noise near the tag better than
// a mean would.
func medianRingColor(img *image.NRGBA, x0, y0, x1, y1, ringWidth int) [3]uint8 {
	bounds := img.Bounds()
	var rs, gs, bs []uint8

	sample := func(x, y int) {
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			return
		}
		i := img.PixOffset(x, y)
		rs = append(rs, img.Pix[i+0])
		gs = append(gs, img.Pix[i+1])
		bs = append(bs, img.Pix[i+2])
	}

	for d := 1; d <= ringWidth; d++ {
		for x := x0 - d; x < x1+d; x++ {
			sample(x, y0-d)
			sample(x, y1+d-1)
		}
		for y := y0 - d + 1; y < y1+d-1; y++ {
			sample(x0-d, y)
			sample(x1+d-1, y)
		}
	}
	if len(rs) == 0 {
		return [3]uint8{255, 255, 255}
	}
	return [3]uint8{medianU8(rs), medianU8(gs), medianU8(bs)}
}

func medianU8(v []uint8) uint8 {
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	return v[len(v)/2]
}
