// Package pipeline drives the whole deck: narration, speech synthesis,
// token sourcing, marker resolution, and timing recompute run per slide
// inside a bounded worker pool; arrow-tag erasure mutates slide rasters
// exactly once, after every worker has finished.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/menta2k/slidecast/internal/config"
	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/internal/utils"
	"github.com/menta2k/slidecast/pkg/dedup"
	"github.com/menta2k/slidecast/pkg/locator"
	"github.com/menta2k/slidecast/pkg/marker"
	"github.com/menta2k/slidecast/pkg/overlay"
	"github.com/menta2k/slidecast/pkg/raster"
	"github.com/menta2k/slidecast/pkg/timing"
	"github.com/menta2k/slidecast/pkg/types"
	"github.com/menta2k/slidecast/pkg/video"
)

// Narrator produces the narration plan for a slide.
type Narrator interface {
	Generate(ctx context.Context, slide types.SlideText, deckContext string) (*types.SlideScript, error)
}

// Synthesizer turns a script into an audio file with a measured duration.
type Synthesizer interface {
	Synthesize(ctx context.Context, index int, script, outPath string) (types.AudioMeta, error)
}

// TextReader reads positioned tokens off a base64-encoded slide image. Used
// as the token source when no document word extraction is available.
type TextReader interface {
	ReadText(ctx context.Context, imgB64 string) ([]types.Token, error)
}

// Slide is one unit of pipeline work.
type Slide struct {
	Index     int
	Text      types.SlideText
	ImagePath string // letterboxed slide raster at canvas size
	// Tokens are document-extracted words in their source space. Empty means
	// fall back to OCR over ImagePath.
	Tokens    []types.Token
	Geometry  types.RenderGeometry
	ArrowTags []types.KeywordRequest
}

// Result is the outcome for one slide. Err poisons only its own slide;
// other slides proceed.
type Result struct {
	Index   int                    `json:"index"`
	Script  *types.SlideScript     `json:"script,omitempty"`
	Audio   types.AudioMeta        `json:"audio"`
	Markers []types.ResolvedMarker `json:"markers"`
	Arrows  []types.ArrowPointer   `json:"arrows,omitempty"`
	Err     error                  `json:"-"`
}

// Pipeline coordinates collaborators across a deck.
type Pipeline struct {
	narrator Narrator
	synth    Synthesizer
	reader   TextReader
	cfg      *config.Config
	log      logger.Logger
}

// New creates a Pipeline. reader may be nil when every slide carries
// document tokens.
func New(narrator Narrator, synth Synthesizer, reader TextReader, cfg *config.Config, log logger.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Pipeline{
		narrator: narrator,
		synth:    synth,
		reader:   reader,
		cfg:      cfg,
		log:      log,
	}
}

// Run processes all slides with bounded concurrency, writes per-slide
// sidecar JSON under outDir/meta, and finally erases arrow-tag regions from
// the slide rasters. Results come back in slide order.
func (p *Pipeline) Run(ctx context.Context, slides []Slide, outDir, deckContext string) ([]Result, error) {
	audioDir := filepath.Join(outDir, "audio")
	overlayDir := filepath.Join(outDir, "overlays")
	metaDir := filepath.Join(outDir, "meta")
	for _, dir := range []string{audioDir, overlayDir, metaDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("pipeline: create %s: %w", dir, err)
		}
	}

	workers := p.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 3
	}
	p.log.Info("pipeline: %d slides, %d workers", len(slides), workers)

	results := make([]Result, len(slides))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, slide := range slides {
		wg.Add(1)
		go func(i int, slide Slide) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.processSlide(ctx, slide, audioDir, overlayDir, metaDir, deckContext)
		}(i, slide)
	}
	wg.Wait()

	// Slide rasters are read concurrently above but mutated only here, after
	// every worker is done, so no worker ever reads a half-erased image.
	p.eraseArrowTags(slides, results)

	return results, nil
}

func (p *Pipeline) processSlide(ctx context.Context, slide Slide, audioDir, overlayDir, metaDir, deckContext string) Result {
	res := Result{Index: slide.Index}

	script, err := p.narrator.Generate(ctx, slide.Text, deckContext)
	if err != nil {
		res.Err = fmt.Errorf("slide %d: narration: %w", slide.Index, err)
		p.log.Error("pipeline: %v", res.Err)
		return res
	}
	res.Script = script

	audio, err := p.synth.Synthesize(ctx, slide.Index, script.Script, utils.SlideAudioPath(audioDir, slide.Index))
	if err != nil {
		res.Err = fmt.Errorf("slide %d: speech: %w", slide.Index, err)
		p.log.Error("pipeline: %v", res.Err)
		return res
	}
	res.Audio = audio

	tokens, geom, err := p.tokenSource(ctx, slide)
	if err != nil {
		res.Err = fmt.Errorf("slide %d: tokens: %w", slide.Index, err)
		p.log.Error("pipeline: %v", res.Err)
		return res
	}

	// Each worker owns its resolver: dedup state is per slide by contract,
	// and the seeded rng keeps style choice reproducible per slide.
	resolver := marker.NewResolver(marker.Options{
		Locator: &locator.Config{
			MinOCRConfidence: p.cfg.Locator.MinOCRConfidence,
			MaxWindow:        p.cfg.Locator.MaxWindow,
			MaxLengthFactor:  p.cfg.Locator.MaxLengthFactor,
		},
		Dedup: &dedup.Config{
			OverlapThreshold:  p.cfg.Dedup.OverlapThreshold,
			MinCenterDistance: p.cfg.Dedup.MinCenterDistance,
		},
		Overlay: &overlay.Config{
			StrokeWidth:     p.cfg.Overlay.StrokeWidth,
			CircleMargin:    p.cfg.Overlay.CircleMargin,
			EdgeMargin:      p.cfg.Overlay.EdgeMargin,
			UnderlineOffset: p.cfg.Overlay.UnderlineOffset,
			Color:           color.NRGBA{R: 255, A: 255},
		},
		Rand: rand.New(rand.NewSource(p.cfg.Pipeline.StyleSeed + int64(slide.Index))),
		Log:  p.log,
	})
	markerSlide := marker.Slide{
		Index:      slide.Index,
		Tokens:     tokens,
		Geometry:   geom,
		CanvasW:    p.cfg.Render.Width,
		CanvasH:    p.cfg.Render.Height,
		OverlayDir: overlayDir,
	}
	res.Markers = resolver.ResolveKeywords(markerSlide, script.Keywords)
	res.Arrows = resolver.ResolveArrows(markerSlide, slide.ArrowTags)

	synchronizer := timing.NewWithConfig(timing.Config{MarkingDelay: p.cfg.Timing.MarkingDelay}, p.log)
	res.Markers = synchronizer.Apply(script.Script, res.Markers, audio.Duration)
	res.Arrows = synchronizer.ApplyArrows(script.Script, res.Arrows, audio.Duration)
	if audio.Estimated {
		// Timings recomputed against a guessed duration are no better than
		// the planner hints.
		for i := range res.Markers {
			res.Markers[i].TimingVerified = false
		}
	}

	if err := writeSidecar(utils.SidecarPath(metaDir, slide.Index), res); err != nil {
		p.log.Warn("pipeline: slide %d: %v", slide.Index, err)
	}
	p.log.Info("pipeline: slide %d done: %d/%d markers resolved",
		slide.Index, countFound(res.Markers), len(res.Markers))
	return res
}

// tokenSource returns the slide's positioned tokens and the geometry that
// maps them onto the final canvas. Document words win; OCR over the rendered
// canvas is the fallback and needs only an identity mapping.
func (p *Pipeline) tokenSource(ctx context.Context, slide Slide) ([]types.Token, types.RenderGeometry, error) {
	if len(slide.Tokens) > 0 {
		return slide.Tokens, slide.Geometry, nil
	}
	if p.reader == nil {
		return nil, types.RenderGeometry{}, fmt.Errorf("no document tokens and no OCR reader configured")
	}

	img, err := raster.LoadImage(slide.ImagePath)
	if err != nil {
		return nil, types.RenderGeometry{}, err
	}
	b64, err := raster.PrepareForModel(img, "jpg", p.cfg.OCR.MaxDim, p.cfg.OCR.Quality)
	if err != nil {
		return nil, types.RenderGeometry{}, err
	}
	tokens, err := p.reader.ReadText(ctx, b64)
	if err != nil {
		return nil, types.RenderGeometry{}, err
	}

	// OCR coordinates live in the possibly downscaled model image; scale
	// them back up to the canvas.
	geom := types.Identity(float64(p.cfg.Render.Width), float64(p.cfg.Render.Height))
	bounds := img.Bounds()
	longSide := bounds.Dx()
	if bounds.Dy() > longSide {
		longSide = bounds.Dy()
	}
	if p.cfg.OCR.MaxDim > 0 && longSide > p.cfg.OCR.MaxDim {
		scale := float64(longSide) / float64(p.cfg.OCR.MaxDim)
		geom.RenderW = float64(p.cfg.Render.Width) / scale
		geom.RenderH = float64(p.cfg.Render.Height) / scale
	}
	return tokens, geom, nil
}

// eraseArrowTags removes found arrow-tag regions from each slide raster in
// place. One synchronous pass, no workers.
func (p *Pipeline) eraseArrowTags(slides []Slide, results []Result) {
	for i, res := range results {
		var boxes []types.Box
		for _, arrow := range res.Arrows {
			if arrow.Found {
				boxes = append(boxes, arrow.MarkerBox)
			}
		}
		if len(boxes) == 0 {
			continue
		}

		path := slides[i].ImagePath
		img, err := raster.LoadImage(path)
		if err != nil {
			p.log.Warn("pipeline: slide %d: erase tags: %v", res.Index, err)
			continue
		}
		nrgba := raster.ToNRGBA(img)
		marker.EraseRegions(nrgba, boxes, 3)
		if err := raster.SaveImage(nrgba, path, utils.GetFileExtension(path), 100, true); err != nil {
			p.log.Warn("pipeline: slide %d: save erased raster: %v", res.Index, err)
			continue
		}
		p.log.Debug("pipeline: slide %d: erased %d arrow tags", res.Index, len(boxes))
	}
}

// SegmentArgs converts one slide's result into the FFmpeg invocation for its
// video segment. Markers that did not resolve contribute no overlay.
func SegmentArgs(res Result, imagePath, clipPath string, settings video.Settings, fadeIn float64) []string {
	var overlays []video.Overlay
	for _, m := range res.Markers {
		if !m.Found || m.OverlayImage == "" {
			continue
		}
		overlays = append(overlays, video.Overlay{
			Path:   m.OverlayImage,
			Start:  m.Timing,
			End:    res.Audio.Duration,
			FadeIn: fadeIn,
		})
	}
	return video.SegmentArgs(settings, imagePath, res.Audio.Path, res.Audio.Duration, overlays, clipPath)
}

func writeSidecar(path string, res Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func countFound(markers []types.ResolvedMarker) int {
	n := 0
	for _, m := range markers {
		if m.Found {
			n++
		}
	}
	return n
}
