// Package video builds the FFmpeg invocations that assemble the final
// lecture: one segment per slide (still image, narration audio, timed marker
// overlays) plus a concat pass. It only constructs argument lists; running
// FFmpeg is the caller's job.
package video

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Settings controls encoding of slide segments.
type Settings struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
	Preset string `json:"preset"`
	CRF    int    `json:"crf"`
}

// DefaultSettings returns 1080p/30 with a balanced encode.
func DefaultSettings() Settings {
	return Settings{
		Width:  1920,
		Height: 1080,
		FPS:    30,
		Preset: "medium",
		CRF:    23,
	}
}

// Overlay is one transparent marker image shown over the slide for a time
// window, with a short alpha fade-in at its start.
type Overlay struct {
	Path   string  `json:"path"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	FadeIn float64 `json:"fade_in"`
}

// SegmentArgs builds the ffmpeg argument list for one slide segment: a
// looped still, the narration audio, and each overlay composited during its
// [Start,End) window. Overlays are applied in start order so later markers
// stack on top.
func SegmentArgs(s Settings, imagePath, audioPath string, duration float64, overlays []Overlay, outPath string) []string {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
	}
	sorted := make([]Overlay, len(overlays))
	copy(sorted, overlays)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for _, ov := range sorted {
		// Overlay PNGs are single frames; without looping the stream ends at
		// t=0 and a fade starting later only ever sees that one frame.
		args = append(args, "-loop", "1", "-i", ov.Path)
	}
	args = append(args, "-i", audioPath)

	args = append(args,
		"-filter_complex", filterGraph(s, sorted),
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a", len(sorted)+1),
		"-c:v", "libx264",
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
		"-r", strconv.Itoa(s.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100",
		"-pix_fmt", "yuv420p",
		"-t", formatSeconds(duration),
		"-shortest",
		outPath,
	)
	return args
}

// filterGraph letterboxes the still into the target canvas, then chains one
// overlay filter per marker gated by enable='between(t,start,end)'.
func filterGraph(s Settings, overlays []Overlay) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2[base]",
		s.Width, s.Height, s.Width, s.Height)

	prev := "base"
	for i, ov := range overlays {
		in := fmt.Sprintf("%d:v", i+1)
		faded := in
		if ov.FadeIn > 0 {
			faded = fmt.Sprintf("ov%d", i)
			fmt.Fprintf(&sb, ";[%s]format=rgba,fade=t=in:st=%s:d=%s:alpha=1[%s]",
				in, formatSeconds(ov.Start), formatSeconds(ov.FadeIn), faded)
		}
		out := fmt.Sprintf("v%d", i)
		if i == len(overlays)-1 {
			out = "vout"
		}
		fmt.Fprintf(&sb, ";[%s][%s]overlay=0:0:enable='between(t,%s,%s)'[%s]",
			prev, faded, formatSeconds(ov.Start), formatSeconds(ov.End), out)
		prev = out
	}
	if len(overlays) == 0 {
		sb.WriteString(";[base]null[vout]")
	}
	return sb.String()
}

// ConcatList renders the ffmpeg concat demuxer file for the given clips.
// Single quotes in paths are escaped the way the demuxer expects.
func ConcatList(clipPaths []string) string {
	var sb strings.Builder
	for _, p := range clipPaths {
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return sb.String()
}

// ConcatArgs builds the stream-copy concatenation pass over a concat list
// file produced by ConcatList.
func ConcatArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

// SubtitleArgs builds the optional subtitle burn-in pass.
func SubtitleArgs(s Settings, videoPath, subtitlePath, outPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s", subtitlePath),
		"-c:v", "libx264",
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
		"-c:a", "copy",
		outPath,
	}
}

// formatSeconds renders a duration without trailing zero noise, so filter
// strings stay readable in logs.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
