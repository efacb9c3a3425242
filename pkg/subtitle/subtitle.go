// Package subtitle renders per-slide narration scripts into an SRT file
// aligned with the measured audio durations, so the assembled lecture can
// carry subtitles burned in or as a soft track.
package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLineRunes caps one subtitle entry's length. 42 characters is the usual
// broadcast line limit.
const MaxLineRunes = 42

// Entry is one slide's narration positioned on the final video timeline.
// Start is the slide's offset in the concatenated video and Duration the
// measured length of its narration audio.
type Entry struct {
	Script   string
	Start    float64
	Duration float64
}

var sentenceBreak = regexp.MustCompile(`[.!?,]\s+`)

// SplitChunks breaks text into subtitle-sized pieces along sentence
// punctuation, packing consecutive sentences while they fit in maxRunes.
// A single sentence longer than maxRunes stays whole rather than being cut
// mid-word.
func SplitChunks(text string, maxRunes int) []string {
	if maxRunes < 1 {
		maxRunes = MaxLineRunes
	}

	var pieces []string
	last := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		pieces = append(pieces, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		pieces = append(pieces, text[last:])
	}

	var chunks []string
	current := ""
	for _, piece := range pieces {
		if current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(piece) > maxRunes {
			chunks = append(chunks, strings.TrimSpace(current))
			current = piece
			continue
		}
		current += piece
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// FormatTimestamp renders seconds as an SRT timestamp, HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	millis := int((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", whole/3600, (whole%3600)/60, whole%60, millis)
}

// GenerateSRT renders entries into SRT text. Each script is chunked to
// MaxLineRunes and its slide's duration is divided across the chunks
// proportionally to their rune counts, so longer chunks stay on screen
// longer. Blank scripts are skipped; numbering stays contiguous.
func GenerateSRT(entries []Entry) string {
	var sb strings.Builder
	index := 1
	for _, entry := range entries {
		if strings.TrimSpace(entry.Script) == "" {
			continue
		}
		chunks := SplitChunks(entry.Script, MaxLineRunes)
		total := 0
		for _, c := range chunks {
			total += utf8.RuneCountInString(c)
		}
		if total == 0 {
			continue
		}

		start := entry.Start
		for _, chunk := range chunks {
			d := entry.Duration * float64(utf8.RuneCountInString(chunk)) / float64(total)
			fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
				index, FormatTimestamp(start), FormatTimestamp(start+d), chunk)
			index++
			start += d
		}
	}
	return sb.String()
}

// WriteSRT writes the SRT rendering of entries to path.
func WriteSRT(entries []Entry, path string) error {
	if err := os.WriteFile(path, []byte(GenerateSRT(entries)), 0644); err != nil {
		return fmt.Errorf("subtitle: write %s: %w", path, err)
	}
	return nil
}
