// Package ocr reads positioned text off slide rasters through a vision
// model backend. The engine runs at most once per slide; its token list is
// reused for every keyword and arrow-tag lookup on that slide.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/menta2k/slidecast/pkg/client"
	"github.com/menta2k/slidecast/pkg/types"
)

// ReadTextPrompt instructs the vision model to emit OCR regions as strict
// JSON. Coordinates are pixels of the submitted image, origin top-left.
const ReadTextPrompt = `You are an OCR engine.

Read ALL text visible in this image and return JSON only:
{
  "regions": [
    {
      "quad": [[x, y], [x, y], [x, y], [x, y]],
      "text": "string",
      "confidence": 0.0
    }
  ]
}

HARD RULES
- Coordinates are PIXELS of this image, origin at the TOP-LEFT corner.
- "quad" lists the four corners of the text region in clockwise order
  starting top-left.
- One region per word or tightly connected text run; do not merge separate
  lines into one region.
- "confidence" is your certainty in [0,1] that the text reads exactly as
  given.
- Preserve the original language and characters exactly; do not translate.
- If the image contains no text, return {"regions":[]}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Region is one raw OCR detection as returned by the model.
type Region struct {
	Quad       [][2]float64 `json:"quad"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
}

// Engine drives a vision model as an OCR reader.
type Engine struct {
	client client.VisionClient
	model  string
}

// New creates an Engine over the given backend and model name.
func New(c client.VisionClient, model string) *Engine {
	return &Engine{client: c, model: model}
}

// ReadText runs OCR over one base64-encoded image and returns positioned
// tokens in the image's pixel space, in the model's reading order.
func (e *Engine) ReadText(ctx context.Context, imgB64 string) ([]types.Token, error) {
	raw, err := e.client.Query(ctx, e.model, ReadTextPrompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("ocr: model query: %w", err)
	}

	regions, err := ParseRegions(raw)
	if err != nil {
		return nil, err
	}

	tokens := make([]types.Token, 0, len(regions))
	for _, reg := range regions {
		box, ok := QuadToBox(reg.Quad)
		if !ok || strings.TrimSpace(reg.Text) == "" {
			continue
		}
		tokens = append(tokens, types.Token{
			Text:       reg.Text,
			Box:        box,
			Confidence: clamp01(reg.Confidence),
			Source:     types.SourceOCR,
		})
	}
	return tokens, nil
}

// ParseRegions parses the model response into OCR regions. The response is
// sanitized first since vision models wrap JSON in fences or sneak comments
// in despite the prompt.
func ParseRegions(raw string) ([]Region, error) {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return nil, fmt.Errorf("ocr: model returned non-JSON response")
	}

	var payload struct {
		Regions []Region `json:"regions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Conservative brace-slice retry before giving up.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("ocr: parse response: %w", err)
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &payload); err2 != nil {
			return nil, fmt.Errorf("ocr: parse response: %w", err2)
		}
	}
	return payload.Regions, nil
}

// QuadToBox reduces a four-corner quad to its axis-aligned bounding box.
// The second return value is false for malformed or degenerate quads.
func QuadToBox(quad [][2]float64) (types.Box, bool) {
	if len(quad) != 4 {
		return types.Box{}, false
	}
	box := types.Box{
		X0: math.Inf(1), Y0: math.Inf(1),
		X1: math.Inf(-1), Y1: math.Inf(-1),
	}
	for _, p := range quad {
		box.X0 = math.Min(box.X0, p[0])
		box.Y0 = math.Min(box.Y0, p[1])
		box.X1 = math.Max(box.X1, p[0])
		box.Y1 = math.Max(box.Y1, p[1])
	}
	if !box.Valid() {
		return types.Box{}, false
	}
	return box, true
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from
// a model response.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	// Remove /* ... */ block comments
	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove // line/inline comments
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
