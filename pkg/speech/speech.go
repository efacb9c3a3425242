// Package speech synthesizes narration audio through OpenAI TTS and
// measures the resulting duration with ffprobe. The measured duration is
// what drives the keyword timing recompute; the synthesis itself is
// replaceable.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/menta2k/slidecast/internal/logger"
	"github.com/menta2k/slidecast/pkg/types"
)

// Synthesizer turns script text into slide audio files.
type Synthesizer struct {
	client openai.Client
	model  openai.SpeechModel
	voice  openai.AudioSpeechNewParamsVoice
	log    logger.Logger
}

// New creates a Synthesizer. Empty model and voice fall back to tts-1 and
// alloy.
func New(apiKey, model, voice string, log logger.Logger) *Synthesizer {
	if model == "" {
		model = openai.SpeechModelTTS1
	}
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Synthesizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		voice:  openai.AudioSpeechNewParamsVoice(voice),
		log:    log,
	}
}

// Synthesize renders the script to an audio file and returns its metadata.
// Duration comes from ffprobe on the written file, not from an estimate.
func (s *Synthesizer) Synthesize(ctx context.Context, index int, script, outPath string) (types.AudioMeta, error) {
	meta := types.AudioMeta{Index: index, Path: outPath}
	if strings.TrimSpace(script) == "" {
		return meta, fmt.Errorf("speech: slide %d: empty script", index)
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: s.model,
		Input: script,
		Voice: s.voice,
	})
	if err != nil {
		return meta, fmt.Errorf("speech: slide %d: tts request: %w", index, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return meta, fmt.Errorf("speech: slide %d: create %s: %w", index, outPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return meta, fmt.Errorf("speech: slide %d: write audio: %w", index, err)
	}
	if err := out.Close(); err != nil {
		return meta, fmt.Errorf("speech: slide %d: close audio: %w", index, err)
	}

	duration, err := ProbeDuration(ctx, outPath)
	if err != nil {
		// The audio exists and is usable; fall back to a words-per-minute
		// estimate rather than failing the slide.
		duration = EstimateDuration(script)
		meta.Estimated = true
		s.log.Warn("speech: slide %d: ffprobe failed (%v), estimating %.1fs", index, err, duration)
	}
	meta.Duration = duration
	s.log.Info("speech: slide %d: %s (%.1fs)", index, outPath, duration)
	return meta, nil
}

// ProbeDuration reads a media file's duration in seconds using ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration: %w", path, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe %s: non-positive duration %v", path, duration)
	}
	return duration, nil
}

// EstimateDuration guesses speech length from text size, roughly 4 spoken
// characters per second for the mixed Korean/Latin corpus this runs on.
func EstimateDuration(script string) float64 {
	runes := len([]rune(strings.TrimSpace(script)))
	d := float64(runes) / 4.0
	if d < 1 {
		d = 1
	}
	return d
}
