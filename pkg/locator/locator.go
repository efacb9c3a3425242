// Package locator finds where a target phrase appears among positioned text
// tokens, whether those came from structured document extraction or OCR.
package locator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/menta2k/slidecast/pkg/types"
)

// Config holds matching thresholds.
type Config struct {
	// MinOCRConfidence gates OCR tokens only; document-extracted tokens are
	// ground truth and always pass.
	MinOCRConfidence float64
	// MaxWindow caps the sliding-window size in the multi-token pass.
	MaxWindow int
	// MaxLengthFactor rejects window matches whose combined text is this
	// many times longer than the target (spurious containment).
	MaxLengthFactor int
}

// Locator matches target phrases against token lists.
type Locator struct {
	config Config
}

// New creates a Locator with default configuration.
func New() *Locator {
	return &Locator{
		config: Config{
			MinOCRConfidence: 0.3,
			MaxWindow:        10,
			MaxLengthFactor:  3,
		},
	}
}

// NewWithConfig creates a Locator with custom configuration.
func NewWithConfig(config Config) *Locator {
	return &Locator{config: config}
}

// Locate returns the bounding box of the best match for target among the
// tokens, in the tokens' own coordinate space.
//
// Matching runs in three passes, most specific first:
//  1. a single token equal to or fully containing the target,
//  2. a sliding window of up to MaxWindow tokens whose concatenation
//     contains the whole target (boxes merged to their union),
//  3. a single token that is itself a fragment of the target.
//
// Full-phrase coverage is preferred over fragment matches so that a short
// leading token ("8대") cannot shadow the merged phrase ("8대"+"공정").
// Within a pass, tokens are scanned in their natural document/OCR order and
// the first match wins. The second return value is false when nothing
// matches; an empty target never matches.
func (l *Locator) Locate(target string, tokens []types.Token) (types.Box, bool) {
	norm := Normalize(target)
	if norm == "" {
		return types.Box{}, false
	}

	for _, tok := range tokens {
		if !l.passesGate(tok) {
			continue
		}
		tn := Normalize(tok.Text)
		if tn == "" {
			continue
		}
		if tn == norm || strings.Contains(tn, norm) {
			return tok.Box, true
		}
	}

	if box, ok := l.locateWindow(norm, tokens); ok {
		return box, true
	}

	// Fragment fallback: a token that is a piece of the target, e.g.
	// OCR split "반도체" out of the phrase "반도체 공정".
	for _, tok := range tokens {
		if !l.passesGate(tok) {
			continue
		}
		tn := Normalize(tok.Text)
		if tn == "" {
			continue
		}
		if strings.Contains(norm, tn) {
			return tok.Box, true
		}
	}

	return types.Box{}, false
}

func (l *Locator) locateWindow(norm string, tokens []types.Token) (types.Box, bool) {
	maxLen := utf8.RuneCountInString(norm) * l.config.MaxLengthFactor

	n := len(tokens)
	maxWin := l.config.MaxWindow
	if maxWin > n {
		maxWin = n
	}

	for size := 1; size <= maxWin; size++ {
		for start := 0; start+size <= n; start++ {
			var sb strings.Builder
			usable := true
			for i := start; i < start+size; i++ {
				if !l.passesGate(tokens[i]) {
					usable = false
					break
				}
				sb.WriteString(Normalize(tokens[i].Text))
			}
			if !usable {
				continue
			}
			combined := sb.String()
			if combined == "" || utf8.RuneCountInString(combined) >= maxLen {
				continue
			}
			if strings.Contains(combined, norm) {
				box := tokens[start].Box
				for i := start + 1; i < start+size; i++ {
					box = box.Union(tokens[i].Box)
				}
				return box, true
			}
		}
	}
	return types.Box{}, false
}

func (l *Locator) passesGate(tok types.Token) bool {
	if tok.Source != types.SourceOCR {
		return true
	}
	return tok.Confidence >= l.config.MinOCRConfidence
}

// Normalize lowercases, trims, and strips all internal whitespace so
// multi-word targets can match run-together OCR tokens and vice versa.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
