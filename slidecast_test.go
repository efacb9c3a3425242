package slidecast

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/slidecast/internal/config"
	"github.com/menta2k/slidecast/pkg/raster"
	"github.com/menta2k/slidecast/pkg/types"
)

func TestNew(t *testing.T) {
	sc := New()
	if sc == nil {
		t.Fatal("New() returned nil")
	}
	if sc.cfg == nil {
		t.Error("config is nil")
	}
	if sc.log == nil {
		t.Error("logger is nil")
	}
}

func TestResolveSlideEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Width = 400
	cfg.Render.Height = 300
	sc := NewWithConfig(cfg, nil)

	tokens := []types.Token{
		{Text: "반도체", Box: types.Box{X0: 60, Y0: 50, X1: 180, Y1: 90}, Confidence: 1, Source: types.SourceDocument},
	}
	markers := sc.ResolveSlide(1, tokens, types.Identity(400, 300), t.TempDir(), []types.KeywordRequest{
		{Text: "반도체", TimingHint: 1.5},
		{Text: "없는말", TimingHint: 4.0},
	})

	if len(markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(markers))
	}
	if !markers[0].Found {
		t.Errorf("first marker not resolved: %+v", markers[0])
	}
	if markers[1].Found || markers[1].Reason != types.ReasonNotFound {
		t.Errorf("second marker = %+v", markers[1])
	}
}

func TestSyncTimings(t *testing.T) {
	sc := New()
	markers := []types.ResolvedMarker{
		{Keyword: "반도체", Timing: 9.0, Found: true},
	}
	// 반도체 at rune offset 4 of 14: 4/14*7.0 + 0.5 = 2.5.
	out := sc.SyncTimings("오늘은 반도체 공정 수업요", markers, 7.0)
	if math.Abs(out[0].Timing-2.5) > 0.05 || !out[0].TimingVerified {
		t.Errorf("synced marker = %+v", out[0])
	}
}

func TestLetterboxSlide(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Width = 192
	cfg.Render.Height = 108
	sc := NewWithConfig(cfg, nil)

	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	if err := raster.SaveImage(img, src, "png", 100, true); err != nil {
		t.Fatalf("save source: %v", err)
	}

	out := filepath.Join(dir, "slide_001.png")
	geom, err := sc.LetterboxSlide(src, out)
	if err != nil {
		t.Fatalf("LetterboxSlide: %v", err)
	}
	if geom.RenderW != 100 || geom.RenderH != 80 {
		t.Errorf("geometry source dims = %vx%v", geom.RenderW, geom.RenderH)
	}
	if geom.TargetW != 192 || geom.TargetH != 108 {
		t.Errorf("geometry target dims = %vx%v", geom.TargetW, geom.TargetH)
	}

	canvas, err := raster.LoadImage(out)
	if err != nil {
		t.Fatalf("load canvas: %v", err)
	}
	if canvas.Bounds().Dx() != 192 || canvas.Bounds().Dy() != 108 {
		t.Errorf("canvas = %dx%d, want 192x108", canvas.Bounds().Dx(), canvas.Bounds().Dy())
	}
}

func TestLoadDocumentTokensGeometryFlips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slide_001.words.json")
	content := `{"slide":1,"width":720,"height":540,"words":[{"text":"공정","x0":100,"y0":400,"x1":160,"y1":430}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	sc := New()
	tokens, geom, err := sc.LoadDocumentTokens(path)
	if err != nil {
		t.Fatalf("LoadDocumentTokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Source != types.SourceDocument {
		t.Fatalf("tokens = %+v", tokens)
	}
	if !geom.FlipY {
		t.Error("document geometry must flip the Y axis")
	}
	if geom.RenderW != 720 || geom.RenderH != 540 {
		t.Errorf("geometry = %+v", geom)
	}
}
