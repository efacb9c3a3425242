package marker

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"testing"

	"github.com/menta2k/slidecast/pkg/overlay"
	"github.com/menta2k/slidecast/pkg/types"
)

func testSlide(t *testing.T, tokens []types.Token) Slide {
	t.Helper()
	return Slide{
		Index:      1,
		Tokens:     tokens,
		Geometry:   types.Identity(1920, 1080),
		CanvasW:    1920,
		CanvasH:    1080,
		OverlayDir: t.TempDir(),
	}
}

func TestResolveKeywords(t *testing.T) {
	tokens := []types.Token{
		{Text: "반도체", Box: types.Box{X0: 200, Y0: 100, X1: 400, Y1: 160}, Confidence: 1, Source: types.SourceDocument},
		{Text: "공정", Box: types.Box{X0: 1200, Y0: 600, X1: 1350, Y1: 660}, Confidence: 1, Source: types.SourceDocument},
	}
	r := NewResolver(Options{Rand: rand.New(rand.NewSource(7))})
	markers := r.ResolveKeywords(testSlide(t, tokens), []types.KeywordRequest{
		{Text: "반도체", TimingHint: 2.0},
		{Text: "존재하지않음", TimingHint: 4.0},
	})

	if len(markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(markers))
	}
	m := markers[0]
	if !m.Found || m.Reason != types.ReasonResolved {
		t.Fatalf("first marker not resolved: %+v", m)
	}
	if m.Box == nil || *m.Box != tokens[0].Box {
		t.Errorf("box = %+v, want %+v", m.Box, tokens[0].Box)
	}
	if m.Timing != 2.0 {
		t.Errorf("timing hint not carried: %v", m.Timing)
	}
	if _, err := os.Stat(m.OverlayImage); err != nil {
		t.Errorf("overlay image not written: %v", err)
	}

	miss := markers[1]
	if miss.Found || miss.Reason != types.ReasonNotFound {
		t.Errorf("miss marker = %+v", miss)
	}
	if miss.OverlayImage != "" || miss.Box != nil {
		t.Errorf("miss marker must carry no artifacts: %+v", miss)
	}
}

func TestResolveKeywordsDedupSuppression(t *testing.T) {
	// Both keywords resolve to the same token region; the second must be
	// suppressed with a dedup reason, not reported as missing.
	tokens := []types.Token{
		{Text: "8대 공정", Box: types.Box{X0: 500, Y0: 300, X1: 800, Y1: 360}, Confidence: 1, Source: types.SourceDocument},
	}
	r := NewResolver(Options{})
	markers := r.ResolveKeywords(testSlide(t, tokens), []types.KeywordRequest{
		{Text: "8대 공정"},
		{Text: "공정"},
	})

	if !markers[0].Found {
		t.Fatalf("first marker should resolve: %+v", markers[0])
	}
	if markers[1].Found {
		t.Fatalf("second marker should be suppressed: %+v", markers[1])
	}
	if markers[1].Reason != types.ReasonDedupOverlap {
		t.Errorf("reason = %s, want %s", markers[1].Reason, types.ReasonDedupOverlap)
	}
}

func TestResolveKeywordsInvalidGeometry(t *testing.T) {
	// Token sits entirely outside the render area, so the canvas mapping
	// clips it away.
	tokens := []types.Token{
		{Text: "밖", Box: types.Box{X0: 2000, Y0: 200, X1: 2100, Y1: 260}, Confidence: 1, Source: types.SourceDocument},
	}
	r := NewResolver(Options{})
	markers := r.ResolveKeywords(testSlide(t, tokens), []types.KeywordRequest{{Text: "밖"}})

	if markers[0].Found {
		t.Fatalf("marker should fail: %+v", markers[0])
	}
	if markers[0].Reason != types.ReasonInvalidBox {
		t.Errorf("reason = %s, want %s", markers[0].Reason, types.ReasonInvalidBox)
	}
}

func TestRenderFailureDoesNotPoisonDedup(t *testing.T) {
	// The first keyword sits flush against the canvas edge, leaving no room
	// for the ellipse, so its render fails. A marker that was never drawn
	// must not suppress the overlapping second keyword.
	tokens := []types.Token{
		{Text: "가", Box: types.Box{X0: 0, Y0: 500, X1: 4, Y1: 530}, Confidence: 1, Source: types.SourceDocument},
		{Text: "가나다라", Box: types.Box{X0: 2, Y0: 500, X1: 200, Y1: 530}, Confidence: 1, Source: types.SourceDocument},
	}
	r := NewResolver(Options{})
	markers := r.ResolveKeywords(testSlide(t, tokens), []types.KeywordRequest{
		{Text: "가"},
		{Text: "가나다라"},
	})

	if markers[0].Found || markers[0].Reason != types.ReasonInvalidBox {
		t.Fatalf("edge marker should fail rendering: %+v", markers[0])
	}
	if !markers[1].Found {
		t.Errorf("overlapping keyword suppressed by an undrawn marker: %+v", markers[1])
	}
}

func TestStylePickDeterministicWithSeed(t *testing.T) {
	run := func() []string {
		r := NewResolver(Options{Rand: rand.New(rand.NewSource(42))})
		var picked []string
		for i := 0; i < 8; i++ {
			picked = append(picked, string(r.pickStyle()))
		}
		return picked
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded style picks differ: %v vs %v", a, b)
		}
	}
}

func TestStylePickDefaultsWithoutRand(t *testing.T) {
	r := NewResolver(Options{})
	if got := r.pickStyle(); got != overlay.Styles[0] {
		t.Errorf("pickStyle without rng = %q, want %q", got, overlay.Styles[0])
	}
}

func TestResolveArrows(t *testing.T) {
	tokens := []types.Token{
		{Text: "※1", Box: types.Box{X0: 900, Y0: 500, X1: 940, Y1: 530}, Confidence: 1, Source: types.SourceDocument},
	}
	r := NewResolver(Options{})
	arrows := r.ResolveArrows(testSlide(t, tokens), []types.KeywordRequest{
		{Text: "※1", TimingHint: 3.0},
		{Text: "※9", TimingHint: 5.0},
	})

	if len(arrows) != 2 {
		t.Fatalf("arrows = %d, want 2", len(arrows))
	}
	hit := arrows[0]
	if !hit.Found {
		t.Fatalf("arrow tag not found: %+v", hit)
	}
	if hit.TargetX != 920 || hit.TargetY != 515 {
		t.Errorf("target = (%v,%v), want token center (920,515)", hit.TargetX, hit.TargetY)
	}
	if hit.MarkerBox != tokens[0].Box {
		t.Errorf("marker box = %+v", hit.MarkerBox)
	}
	if arrows[1].Found {
		t.Errorf("unknown tag should not resolve: %+v", arrows[1])
	}
}

func TestEraseRegions(t *testing.T) {
	// Uniform gray background with a black tag block in the middle. After
	// erasing, the block must take the surrounding median color.
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	bg := color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}

	EraseRegions(img, []types.Box{{X0: 40, Y0: 40, X1: 60, Y1: 60}}, 3)

	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			if got := img.NRGBAAt(x, y); got != bg {
				t.Fatalf("pixel (%d,%d) = %+v, want background fill", x, y, got)
			}
		}
	}
}

func TestEraseRegionsSkipsInvalidBoxes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	// Must not panic or touch anything.
	EraseRegions(img, []types.Box{{X0: 5, Y0: 5, X1: 5, Y1: 8}}, 3)
}

func TestOverlayFileName(t *testing.T) {
	if got := OverlayFileName(3, 1); got != "slide_003_marker_01.png" {
		t.Errorf("OverlayFileName = %q", got)
	}
}
