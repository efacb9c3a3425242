// Package timing converts planner-estimated keyword display times into
// timestamps consistent with the actual duration of the synthesized
// narration audio, which is only known after speech synthesis runs.
package timing

import (
	"strings"
	"unicode/utf8"

	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/pkg/types"
)

// Config holds synchronization parameters.
type Config struct {
	// MarkingDelay is added to every computed timestamp so a marker appears
	// shortly after its word is spoken, never before or simultaneously.
	MarkingDelay float64
}

// Synchronizer recomputes keyword timings against measured audio durations.
type Synchronizer struct {
	config Config
	log    logger.Logger
}

// New creates a Synchronizer with the default 0.5s marking delay.
func New(log logger.Logger) *Synchronizer {
	return NewWithConfig(Config{MarkingDelay: 0.5}, log)
}

// NewWithConfig creates a Synchronizer with custom configuration.
func NewWithConfig(config Config, log logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Synchronizer{config: config, log: log}
}

// KeywordTiming computes the display timestamp for one keyword:
// the keyword's rune offset in the script, proportional to the measured
// audio duration, plus the marking delay. Offsets are counted in runes
// because scripts are predominantly Korean and byte offsets would skew the
// ratio.
//
// When the keyword does not occur verbatim in the script the fallback (the
// planner's original estimate) is returned unchanged with verified=false;
// guessing a position would desynchronize the marker.
func (s *Synchronizer) KeywordTiming(script, keyword string, fallback, actualDuration float64) (timing float64, verified bool) {
	totalRunes := utf8.RuneCountInString(script)
	if totalRunes == 0 || keyword == "" {
		return fallback, false
	}

	idx := strings.Index(script, keyword)
	if idx < 0 {
		s.log.Warn("timing: keyword %q not found verbatim in script, keeping estimate %.2fs", keyword, fallback)
		return fallback, false
	}

	charRatio := float64(utf8.RuneCountInString(script[:idx])) / float64(totalRunes)
	return charRatio*actualDuration + s.config.MarkingDelay, true
}

// Apply recomputes the timing of every marker in place against the measured
// audio duration, replacing the planner estimates assigned at script
// generation time. It runs once per slide, after speech synthesis. An empty
// script leaves all markers untouched (no keywords for an empty script).
func (s *Synchronizer) Apply(script string, markers []types.ResolvedMarker, actualDuration float64) []types.ResolvedMarker {
	if utf8.RuneCountInString(script) == 0 {
		return markers
	}
	for i := range markers {
		markers[i].Timing, markers[i].TimingVerified =
			s.KeywordTiming(script, markers[i].Keyword, markers[i].Timing, actualDuration)
	}
	return markers
}

// ApplyArrows recomputes arrow pointer timings by their tag text the same
// way Apply does for keyword markers.
func (s *Synchronizer) ApplyArrows(script string, arrows []types.ArrowPointer, actualDuration float64) []types.ArrowPointer {
	if utf8.RuneCountInString(script) == 0 {
		return arrows
	}
	for i := range arrows {
		arrows[i].Timing, _ = s.KeywordTiming(script, arrows[i].Tag, arrows[i].Timing, actualDuration)
	}
	return arrows
}
