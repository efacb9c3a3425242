// Package slidecast turns slide decks into narrated lecture videos with
// keyword markers that appear in sync with the spoken narration.
//
// The core problem it solves is localization and timing: given a phrase the
// narration planner wants to emphasize, find where that phrase sits on the
// slide (from document word extraction or OCR), map that position through
// the DPI/flip/letterbox geometry into final video pixels, suppress
// duplicate markers, draw the overlay, and compute when it should appear
// against the real synthesized audio duration.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		"github.com/menta2k/slidecast"
//		"github.com/menta2k/slidecast/pkg/types"
//	)
//
//	func main() {
//		sc := slidecast.New()
//
//		// Tokens come from a word sidecar or OCR; geometry describes how
//		// their coordinate space maps onto the 1920x1080 canvas.
//		markers := sc.ResolveSlide(1, tokens, geom, "overlays", []types.KeywordRequest{
//			{Text: "반도체 공정", TimingHint: 2.0},
//		})
//
//		// After speech synthesis, replace estimates with real timings.
//		markers = sc.SyncTimings(script, markers, audioDuration)
//
//		for _, m := range markers {
//			if m.Found {
//				fmt.Printf("%s at %.1fs -> %s\n", m.Keyword, m.Timing, m.OverlayImage)
//			} else {
//				log.Printf("skipped %s (%s)", m.Keyword, m.Reason)
//			}
//		}
//	}
//
// The package consists of the per-slide core (pkg/transform, pkg/locator,
// pkg/dedup, pkg/overlay, pkg/timing, pkg/marker), collaborator boundaries
// (pkg/pdfdoc, pkg/ocr, pkg/narration, pkg/speech, pkg/video), and the
// worker-pool orchestration in pkg/pipeline. The cmd/slidecast CLI wires
// them together end to end.
package slidecast

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/menta2k/slidecast/internal/config"
	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/pkg/dedup"
	"github.com/menta2k/slidecast/pkg/locator"
	"github.com/menta2k/slidecast/pkg/marker"
	"github.com/menta2k/slidecast/pkg/overlay"
	"github.com/menta2k/slidecast/pkg/pdfdoc"
	"github.com/menta2k/slidecast/pkg/raster"
	"github.com/menta2k/slidecast/pkg/timing"
	"github.com/menta2k/slidecast/pkg/types"
)

// Version of the slidecast library
const Version = "1.0.0"

// Slidecast provides a high-level interface over the marker resolution core.
type Slidecast struct {
	cfg *config.Config
	log logger.Logger
}

// New creates a Slidecast with default configuration.
func New() *Slidecast {
	return NewWithConfig(config.Default(), logger.NewNoOpLogger())
}

// NewWithConfig creates a Slidecast with custom configuration.
func NewWithConfig(cfg *config.Config, log logger.Logger) *Slidecast {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Slidecast{cfg: cfg, log: log}
}

// ResolveSlide resolves keyword requests against one slide's tokens and
// renders overlay images into overlayDir. Each call owns fresh dedup state,
// so calls for different slides are independent and safe to run
// concurrently.
func (s *Slidecast) ResolveSlide(index int, tokens []types.Token, geom types.RenderGeometry, overlayDir string, keywords []types.KeywordRequest) []types.ResolvedMarker {
	resolver := s.newResolver(index)
	return resolver.ResolveKeywords(marker.Slide{
		Index:      index,
		Tokens:     tokens,
		Geometry:   geom,
		CanvasW:    s.cfg.Render.Width,
		CanvasH:    s.cfg.Render.Height,
		OverlayDir: overlayDir,
	}, keywords)
}

// ResolveArrows resolves literal arrow-tag tokens on one slide.
func (s *Slidecast) ResolveArrows(index int, tokens []types.Token, geom types.RenderGeometry, tags []types.KeywordRequest) []types.ArrowPointer {
	resolver := s.newResolver(index)
	return resolver.ResolveArrows(marker.Slide{
		Index:    index,
		Tokens:   tokens,
		Geometry: geom,
		CanvasW:  s.cfg.Render.Width,
		CanvasH:  s.cfg.Render.Height,
	}, tags)
}

// SyncTimings recomputes marker timings against the measured narration
// duration, replacing planner estimates.
func (s *Slidecast) SyncTimings(script string, markers []types.ResolvedMarker, duration float64) []types.ResolvedMarker {
	synchronizer := timing.NewWithConfig(timing.Config{MarkingDelay: s.cfg.Timing.MarkingDelay}, s.log)
	return synchronizer.Apply(script, markers, duration)
}

// LetterboxSlide loads a slide raster, letterboxes it into the configured
// canvas, saves the result, and returns the geometry that maps raster
// coordinates onto the canvas.
func (s *Slidecast) LetterboxSlide(inPath, outPath string) (types.RenderGeometry, error) {
	img, err := raster.LoadImage(inPath)
	if err != nil {
		return types.RenderGeometry{}, fmt.Errorf("load slide %s: %w", inPath, err)
	}
	canvas, geom, err := raster.Letterbox(img, s.cfg.Render.Width, s.cfg.Render.Height)
	if err != nil {
		return types.RenderGeometry{}, err
	}
	if err := raster.SaveImage(canvas, outPath, "png", 100, true); err != nil {
		return types.RenderGeometry{}, err
	}
	return geom, nil
}

// LoadDocumentTokens loads a positioned-word sidecar and returns its tokens
// together with the geometry mapping document points (bottom-left origin)
// onto the configured canvas.
func (s *Slidecast) LoadDocumentTokens(path string) ([]types.Token, types.RenderGeometry, error) {
	sidecar, tokens, err := pdfdoc.LoadWords(path)
	if err != nil {
		return nil, types.RenderGeometry{}, err
	}
	geom := types.RenderGeometry{
		DPIScale: 1,
		RenderW:  sidecar.Width,
		RenderH:  sidecar.Height,
		TargetW:  float64(s.cfg.Render.Width),
		TargetH:  float64(s.cfg.Render.Height),
		FlipY:    true,
	}
	return tokens, geom, nil
}

func (s *Slidecast) newResolver(index int) *marker.Resolver {
	return marker.NewResolver(marker.Options{
		Locator: &locator.Config{
			MinOCRConfidence: s.cfg.Locator.MinOCRConfidence,
			MaxWindow:        s.cfg.Locator.MaxWindow,
			MaxLengthFactor:  s.cfg.Locator.MaxLengthFactor,
		},
		Dedup: &dedup.Config{
			OverlapThreshold:  s.cfg.Dedup.OverlapThreshold,
			MinCenterDistance: s.cfg.Dedup.MinCenterDistance,
		},
		Overlay: &overlay.Config{
			StrokeWidth:     s.cfg.Overlay.StrokeWidth,
			CircleMargin:    s.cfg.Overlay.CircleMargin,
			EdgeMargin:      s.cfg.Overlay.EdgeMargin,
			UnderlineOffset: s.cfg.Overlay.UnderlineOffset,
			Color:           color.NRGBA{R: 255, A: 255},
		},
		Rand: rand.New(rand.NewSource(s.cfg.Pipeline.StyleSeed + int64(index))),
		Log:  s.log,
	})
}
