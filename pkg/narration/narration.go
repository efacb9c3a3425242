// Package narration generates the per-slide lecture script and keyword plan
// through the OpenAI Responses API. Output is constrained by a JSON schema,
// so responses never need fence stripping.
package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/pkg/types"
)

// slideScriptSchema constrains the model output to the narration plan shape.
// Keyword timings are estimates in seconds from slide start; they are
// replaced once the synthesized audio duration is known.
var slideScriptSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"script": map[string]any{
			"type": "string",
		},
		"keywords": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":   map[string]any{"type": "string"},
					"timing": map[string]any{"type": "number", "minimum": 0.0},
				},
				"required":             []string{"text", "timing"},
				"additionalProperties": false,
			},
		},
		"highlight": map[string]any{
			"type": []string{"object", "null"},
			"properties": map[string]any{
				"text":   map[string]any{"type": "string"},
				"timing": map[string]any{"type": "number", "minimum": 0.0},
			},
			"required":             []string{"text", "timing"},
			"additionalProperties": false,
		},
	},
	"required":             []string{"script", "keywords", "highlight"},
	"additionalProperties": false,
}

// Generator produces narration plans for slides.
type Generator struct {
	client openai.Client
	model  shared.ChatModel
	log    logger.Logger
}

// New creates a Generator. An empty model name falls back to gpt-5-mini.
func New(apiKey, model string, log logger.Logger) *Generator {
	if model == "" {
		model = shared.ChatModelGPT5Mini
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Generator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

// BuildPrompt renders the narration prompt for one slide. The model is asked
// to explain rather than read the slide aloud, and to pick a handful of
// on-slide phrases worth marking visually while they are spoken.
func BuildPrompt(slide types.SlideText, deckContext string) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly lecturer explaining a slide to students.\n")
	sb.WriteString("Write a short spoken-style narration for the slide below, then pick the key on-slide phrases to mark visually while they are spoken.\n\n")
	if deckContext != "" {
		sb.WriteString("Deck context:\n")
		sb.WriteString(deckContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Slide title: ")
	sb.WriteString(slide.Title)
	sb.WriteString("\nSlide body:\n")
	sb.WriteString(slide.Body)
	if slide.Notes != "" {
		sb.WriteString("\nSpeaker notes: ")
		sb.WriteString(slide.Notes)
	}
	sb.WriteString(`

Rules:
- Explain the content in your own words; never read the slide text verbatim as a list.
- Keep the narration to roughly 15 to 20 seconds of speech.
- Preserve the slide's language; do not translate.
- "keywords" must be 0 to 3 phrases copied EXACTLY as they appear on the slide, each with the estimated second (from slide start) at which the narration reaches it. Keywords that appear verbatim in the narration script synchronize best.
- "highlight" is the single most important keyword, or null.`)
	return sb.String()
}

// Generate produces the narration plan for one slide.
func (g *Generator) Generate(ctx context.Context, slide types.SlideText, deckContext string) (*types.SlideScript, error) {
	response, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						responses.ResponseInputContentParamOfInputText(BuildPrompt(slide, deckContext)),
					},
					"user",
				),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("slide_script", slideScriptSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("narration: slide %d: %w", slide.Index, err)
	}

	script, err := ParseScript(response.OutputText())
	if err != nil {
		return nil, fmt.Errorf("narration: slide %d: %w", slide.Index, err)
	}
	script.Index = slide.Index
	g.log.Debug("narration: slide %d: %d keywords, %d chars of script",
		slide.Index, len(script.Keywords), len(script.Script))
	return script, nil
}

// ParseScript decodes a model response into a narration plan. Empty scripts
// are rejected; an empty keyword list is fine.
func ParseScript(raw string) (*types.SlideScript, error) {
	var script types.SlideScript
	if err := json.Unmarshal([]byte(raw), &script); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if strings.TrimSpace(script.Script) == "" {
		return nil, fmt.Errorf("model returned an empty script")
	}

	// Drop blank keyword texts; the locator would never match them anyway.
	kept := script.Keywords[:0]
	for _, kw := range script.Keywords {
		if strings.TrimSpace(kw.Text) != "" {
			kept = append(kept, kw)
		}
	}
	script.Keywords = kept
	if script.Highlight != nil && strings.TrimSpace(script.Highlight.Text) == "" {
		script.Highlight = nil
	}
	return &script, nil
}
