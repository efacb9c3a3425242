package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/menta2k/slidecast"
	"github.com/menta2k/slidecast/internal/config"
	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/internal/utils"
	"github.com/menta2k/slidecast/pkg/client"
	"github.com/menta2k/slidecast/pkg/llamacpp"
	"github.com/menta2k/slidecast/pkg/narration"
	"github.com/menta2k/slidecast/pkg/ocr"
	"github.com/menta2k/slidecast/pkg/ollama"
	"github.com/menta2k/slidecast/pkg/pdfdoc"
	"github.com/menta2k/slidecast/pkg/pipeline"
	"github.com/menta2k/slidecast/pkg/speech"
	"github.com/menta2k/slidecast/pkg/subtitle"
	"github.com/menta2k/slidecast/pkg/types"
	"github.com/menta2k/slidecast/pkg/video"
)

func main() {
	var slidesDir, wordsDir, textsPath, pdfPath, outDir string
	var backend, url, model string
	var configPath, deckContext string
	var workers int
	var seed int64

	flag.StringVar(&slidesDir, "slides", "", "directory of rendered slide images (png/jpg/webp), named slide_NNN.*")
	flag.StringVar(&wordsDir, "words", "", "directory of positioned-word sidecars slide_NNN.words.json (optional)")
	flag.StringVar(&textsPath, "texts", "", "JSON file with per-slide title/body text for narration (optional)")
	flag.StringVar(&pdfPath, "pdf", "", "deck PDF to split into per-page documents under out/pages (optional)")
	flag.StringVar(&outDir, "out", "out", "output directory")

	flag.StringVar(&backend, "backend", "ollama", "OCR backend: ollama or llamacpp")
	flag.StringVar(&url, "url", "", "OCR server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	flag.StringVar(&model, "model", "", "OCR vision model name (default from config)")

	flag.StringVar(&configPath, "config", "", "config JSON path (default: built-in defaults)")
	flag.StringVar(&deckContext, "context", "", "one-line deck context passed to the narration prompt")
	flag.IntVar(&workers, "workers", 0, "concurrent slide workers (default from config)")
	flag.Int64Var(&seed, "seed", 0, "marker style seed, 0 keeps the config value")

	flag.Parse()
	if slidesDir == "" {
		log.Fatalf("usage: %s -slides dir [-words dir] [-texts slides.json] [-pdf deck.pdf] [-out outdir] [-backend ollama|llamacpp]", filepath.Base(os.Args[0]))
	}

	// API keys come from the environment; a local .env is a convenience, not
	// a requirement.
	_ = godotenv.Load()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if backend != "" {
		cfg.OCR.Backend = backend
	}
	if url != "" {
		cfg.OCR.URL = url
	}
	if model != "" {
		cfg.OCR.Model = model
	}
	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}
	if seed != 0 {
		cfg.Pipeline.StyleSeed = seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	appLog, err := logger.New(logger.Config{})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	ctx := context.Background()

	if pdfPath != "" {
		if err := splitDeck(pdfPath, filepath.Join(outDir, "pages"), appLog); err != nil {
			log.Fatalf("split pdf: %v", err)
		}
	}

	slides, err := collectSlides(slidesDir, wordsDir, textsPath, outDir, cfg, appLog)
	if err != nil {
		log.Fatalf("collect slides: %v", err)
	}
	if len(slides) == 0 {
		log.Fatalf("no slide images found in %s", slidesDir)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatalf("OPENAI_API_KEY is not set (narration and speech need it)")
	}

	reader, err := newTextReader(cfg)
	if err != nil {
		log.Fatalf("init OCR backend: %v", err)
	}

	p := pipeline.New(
		narration.New(apiKey, cfg.Narration.Model, appLog),
		speech.New(apiKey, cfg.Speech.Model, cfg.Speech.Voice, appLog),
		reader,
		cfg,
		appLog,
	)

	results, err := p.Run(ctx, slides, outDir, deckContext)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	if err := writeRenderPlan(results, slides, outDir, cfg); err != nil {
		log.Fatalf("write render plan: %v", err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	appLog.Info("done: %d slides, %d failed, render plan at %s",
		len(results), failed, filepath.Join(outDir, "render_plan.json"))
	if failed > 0 {
		os.Exit(1)
	}
}

// splitDeck extracts every PDF page as a standalone document so an external
// rasterizer can render them at the desired DPI.
func splitDeck(pdfPath, pagesDir string, appLog logger.Logger) error {
	pages, err := pdfdoc.SplitFile(pdfPath)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(pagesDir); err != nil {
		return err
	}
	for _, page := range pages {
		out := filepath.Join(pagesDir, fmt.Sprintf("page_%03d.pdf", page.Number))
		if err := os.WriteFile(out, page.Data, 0o644); err != nil {
			return err
		}
		appLog.Debug("wrote %s (%.0fx%.0f pt)", out, page.Width, page.Height)
	}
	appLog.Info("split %s into %d pages", pdfPath, len(pages))
	return nil
}

// collectSlides letterboxes every input raster into the output canvas and
// attaches word-sidecar tokens and narration text where available.
func collectSlides(slidesDir, wordsDir, textsPath, outDir string, cfg *config.Config, appLog logger.Logger) ([]pipeline.Slide, error) {
	images, err := utils.ListImageFiles(slidesDir)
	if err != nil {
		return nil, err
	}

	texts := map[int]types.SlideText{}
	if textsPath != "" {
		data, err := os.ReadFile(textsPath)
		if err != nil {
			return nil, fmt.Errorf("read texts: %w", err)
		}
		var list []types.SlideText
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse texts: %w", err)
		}
		for _, st := range list {
			texts[st.Index] = st
		}
	}

	sc := slidecast.NewWithConfig(cfg, appLog)
	canvasDir := filepath.Join(outDir, "slides")
	if err := utils.EnsureDir(canvasDir); err != nil {
		return nil, err
	}

	slides := make([]pipeline.Slide, 0, len(images))
	for i, imgPath := range images {
		index := i + 1
		canvasPath := utils.SlideImagePath(canvasDir, index)
		geom, err := sc.LetterboxSlide(imgPath, canvasPath)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", index, err)
		}

		slide := pipeline.Slide{
			Index:     index,
			ImagePath: canvasPath,
			Geometry:  geom,
		}

		if wordsDir != "" {
			sidecarPath := utils.WordSidecarPath(wordsDir, index)
			if utils.FileExists(sidecarPath) {
				tokens, wordGeom, err := sc.LoadDocumentTokens(sidecarPath)
				if err != nil {
					return nil, fmt.Errorf("slide %d: %w", index, err)
				}
				slide.Tokens = tokens
				slide.Geometry = wordGeom
			}
		}

		if st, ok := texts[index]; ok {
			slide.Text = st
		} else {
			slide.Text = types.SlideText{Index: index, Body: joinTokenText(slide.Tokens)}
		}
		slide.Text.Index = index

		slides = append(slides, slide)
	}
	return slides, nil
}

func joinTokenText(tokens []types.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

func newTextReader(cfg *config.Config) (pipeline.TextReader, error) {
	var visionClient client.VisionClient
	var err error

	switch cfg.OCR.Backend {
	case "ollama":
		visionClient, err = ollama.NewClient(cfg.OCR.URL)
	case "llamacpp":
		visionClient, err = llamacpp.NewClient(cfg.OCR.URL)
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.OCR.Backend)
	}
	if err != nil {
		return nil, err
	}
	return ocr.New(visionClient, cfg.OCR.Model), nil
}

// renderPlan is everything the external assembler needs: the exact ffmpeg
// argument lists per segment, the concat pass, and the subtitle burn-in.
type renderPlan struct {
	Segments  [][]string `json:"segments"`
	Concat    []string   `json:"concat"`
	List      string     `json:"concat_list"`
	SRT       string     `json:"subtitle_file"`
	Subtitles []string   `json:"subtitles"`
}

func writeRenderPlan(results []pipeline.Result, slides []pipeline.Slide, outDir string, cfg *config.Config) error {
	settings := video.Settings{
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		FPS:    cfg.Render.FPS,
		Preset: cfg.Render.Preset,
		CRF:    cfg.Render.CRF,
	}

	clipsDir := filepath.Join(outDir, "clips")
	if err := utils.EnsureDir(clipsDir); err != nil {
		return err
	}

	plan := renderPlan{}
	var clips []string
	var entries []subtitle.Entry
	offset := 0.0
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		clip := filepath.Join(clipsDir, fmt.Sprintf("clip_%03d.mp4", res.Index))
		plan.Segments = append(plan.Segments,
			pipeline.SegmentArgs(res, slides[i].ImagePath, clip, settings, cfg.Overlay.FadeIn))
		clips = append(clips, clip)

		// Failed slides produce no clip, so subtitle offsets only advance
		// over the segments that actually reach the concat list.
		if res.Script != nil {
			entries = append(entries, subtitle.Entry{
				Script:   res.Script.Script,
				Start:    offset,
				Duration: res.Audio.Duration,
			})
		}
		offset += res.Audio.Duration
	}

	listPath := filepath.Join(outDir, "concat_list.txt")
	if err := os.WriteFile(listPath, []byte(video.ConcatList(clips)), 0o644); err != nil {
		return err
	}
	finalPath := filepath.Join(outDir, "final.mp4")
	plan.List = listPath
	plan.Concat = video.ConcatArgs(listPath, finalPath)

	srtPath := filepath.Join(outDir, "final.srt")
	if err := subtitle.WriteSRT(entries, srtPath); err != nil {
		return err
	}
	plan.SRT = srtPath
	plan.Subtitles = video.SubtitleArgs(settings, finalPath, srtPath, filepath.Join(outDir, "final_subtitled.mp4"))

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "render_plan.json"), data, 0o644)
}
