package locator

import (
	"testing"

	"github.com/menta2k/slidecast/pkg/types"
)

func docToken(text string, box types.Box) types.Token {
	return types.Token{Text: text, Box: box, Confidence: 1.0, Source: types.SourceDocument}
}

func ocrToken(text string, box types.Box, conf float64) types.Token {
	return types.Token{Text: text, Box: box, Confidence: conf, Source: types.SourceOCR}
}

var (
	box1 = types.Box{X0: 10, Y0: 10, X1: 110, Y1: 40}
	box2 = types.Box{X0: 130, Y0: 10, X1: 200, Y1: 40}
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Hello World ", "helloworld"},
		{"반도체 공정", "반도체공정"},
		{"ALREADY", "already"},
		{"", ""},
		{"  \t\n ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLocateExactMatch(t *testing.T) {
	loc := New()
	tokens := []types.Token{docToken("반도체", box1), docToken("공정", box2)}

	got, ok := loc.Locate("반도체", tokens)
	if !ok {
		t.Fatal("expected match")
	}
	if got != box1 {
		t.Errorf("got %+v, want %+v", got, box1)
	}
}

func TestLocateSubstringBothDirections(t *testing.T) {
	loc := New()
	tokens := []types.Token{docToken("8대 공정", box1)}

	// Target inside token text.
	if _, ok := loc.Locate("공정", tokens); !ok {
		t.Error("target-in-token containment should match")
	}
	// Token text inside target.
	if _, ok := loc.Locate("반도체 8대 공정", tokens); !ok {
		t.Error("token-in-target containment should match")
	}
}

func TestLocateMultiTokenMerge(t *testing.T) {
	loc := New()
	tokens := []types.Token{docToken("8대", box1), docToken("공정", box2)}

	got, ok := loc.Locate("8대공정", tokens)
	if !ok {
		t.Fatal("expected window match")
	}
	want := box1.Union(box2)
	if got != want {
		t.Errorf("got %+v, want union %+v", got, want)
	}
}

func TestLocateMiss(t *testing.T) {
	loc := New()
	tokens := []types.Token{docToken("반도체", box1), docToken("공정", box2)}

	if _, ok := loc.Locate("존재하지않음", tokens); ok {
		t.Error("expected no match")
	}
}

func TestLocateEmptyTargetNeverMatches(t *testing.T) {
	loc := New()
	tokens := []types.Token{docToken("anything", box1)}

	if _, ok := loc.Locate("", tokens); ok {
		t.Error("empty target must not match")
	}
	if _, ok := loc.Locate("   ", tokens); ok {
		t.Error("whitespace target must not match")
	}
}

func TestLocateConfidenceGateOCROnly(t *testing.T) {
	loc := New()

	// Low-confidence OCR token is skipped.
	low := []types.Token{ocrToken("반도체", box1, 0.1)}
	if _, ok := loc.Locate("반도체", low); ok {
		t.Error("low-confidence OCR token must be rejected")
	}

	// Same confidence on a document token passes: extracted text is ground
	// truth regardless of the stored value.
	doc := []types.Token{{Text: "반도체", Box: box1, Confidence: 0.1, Source: types.SourceDocument}}
	if _, ok := loc.Locate("반도체", doc); !ok {
		t.Error("document token must bypass the confidence gate")
	}

	// OCR token at the threshold passes.
	at := []types.Token{ocrToken("반도체", box1, 0.3)}
	if _, ok := loc.Locate("반도체", at); !ok {
		t.Error("OCR token at threshold must pass")
	}
}

func TestLocateFirstMatchWins(t *testing.T) {
	loc := New()
	// Two candidates; natural order decides, not confidence.
	tokens := []types.Token{
		ocrToken("공정", box1, 0.4),
		ocrToken("공정", box2, 0.99),
	}
	got, ok := loc.Locate("공정", tokens)
	if !ok {
		t.Fatal("expected match")
	}
	if got != box1 {
		t.Errorf("expected first token in scan order, got %+v", got)
	}
}

func TestLocateWindowLengthGuard(t *testing.T) {
	loc := New()
	// The concatenated window contains the target but is more than 3x
	// longer, which indicates spurious containment.
	tokens := []types.Token{
		docToken("대형공", box1),
		docToken("정밀도장치", box2),
	}
	if _, ok := loc.Locate("공정", tokens); ok {
		t.Error("overly long window must be rejected")
	}
}
