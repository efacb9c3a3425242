package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Locator   LocatorConfig   `json:"locator"`
	Dedup     DedupConfig     `json:"dedup"`
	Overlay   OverlayConfig   `json:"overlay"`
	Timing    TimingConfig    `json:"timing"`
	Render    RenderConfig    `json:"render"`
	OCR       OCRConfig       `json:"ocr"`
	Narration NarrationConfig `json:"narration"`
	Speech    SpeechConfig    `json:"speech"`
	Pipeline  PipelineConfig  `json:"pipeline"`
}

// LocatorConfig holds configuration for keyword matching
type LocatorConfig struct {
	MinOCRConfidence float64 `json:"min_ocr_confidence"`
	MaxWindow        int     `json:"max_window"`
	MaxLengthFactor  int     `json:"max_length_factor"`
}

// DedupConfig holds configuration for marker deduplication
type DedupConfig struct {
	OverlapThreshold  float64 `json:"overlap_threshold"`
	MinCenterDistance float64 `json:"min_center_distance"`
}

// OverlayConfig holds configuration for marker drawing
type OverlayConfig struct {
	StrokeWidth     int     `json:"stroke_width"`
	CircleMargin    float64 `json:"circle_margin"`
	EdgeMargin      float64 `json:"edge_margin"`
	UnderlineOffset float64 `json:"underline_offset"`
	FadeIn          float64 `json:"fade_in"`
}

// TimingConfig holds configuration for timing synchronization
type TimingConfig struct {
	MarkingDelay float64 `json:"marking_delay"`
}

// RenderConfig holds configuration for the output canvas and encode
type RenderConfig struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
	Preset string `json:"preset"`
	CRF    int    `json:"crf"`
}

// OCRConfig holds configuration for vision-model text reading
type OCRConfig struct {
	Backend string `json:"backend"` // "ollama" or "llamacpp"
	URL     string `json:"url"`
	Model   string `json:"model"`
	MaxDim  int    `json:"max_dim"`
	Quality int    `json:"quality"`
}

// NarrationConfig holds configuration for script generation
type NarrationConfig struct {
	Model string `json:"model"`
}

// SpeechConfig holds configuration for speech synthesis
type SpeechConfig struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

// PipelineConfig holds configuration for the slide worker pool
type PipelineConfig struct {
	Workers   int   `json:"workers"`
	StyleSeed int64 `json:"style_seed"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Locator: LocatorConfig{
			MinOCRConfidence: 0.3,
			MaxWindow:        10,
			MaxLengthFactor:  3,
		},
		Dedup: DedupConfig{
			OverlapThreshold:  0.3,
			MinCenterDistance: 80,
		},
		Overlay: OverlayConfig{
			StrokeWidth:     8,
			CircleMargin:    15,
			EdgeMargin:      10,
			UnderlineOffset: 5,
			FadeIn:          0.3,
		},
		Timing: TimingConfig{
			MarkingDelay: 0.5,
		},
		Render: RenderConfig{
			Width:  1920,
			Height: 1080,
			FPS:    30,
			Preset: "medium",
			CRF:    23,
		},
		OCR: OCRConfig{
			Backend: "ollama",
			URL:     "http://localhost:11434",
			Model:   "minicpm-v4.5",
			MaxDim:  1536,
			Quality: 85,
		},
		Narration: NarrationConfig{
			Model: "gpt-5-mini",
		},
		Speech: SpeechConfig{
			Model: "tts-1",
			Voice: "alloy",
		},
		Pipeline: PipelineConfig{
			Workers:   3,
			StyleSeed: 0,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Locator.MinOCRConfidence < 0 || c.Locator.MinOCRConfidence > 1 {
		return fmt.Errorf("locator.min_ocr_confidence must be between 0 and 1")
	}

	if c.Locator.MaxWindow < 1 {
		return fmt.Errorf("locator.max_window must be positive")
	}

	if c.Locator.MaxLengthFactor < 1 {
		return fmt.Errorf("locator.max_length_factor must be positive")
	}

	if c.Dedup.OverlapThreshold < 0 || c.Dedup.OverlapThreshold > 1 {
		return fmt.Errorf("dedup.overlap_threshold must be between 0 and 1")
	}

	if c.Dedup.MinCenterDistance < 0 {
		return fmt.Errorf("dedup.min_center_distance must not be negative")
	}

	if c.Overlay.StrokeWidth < 1 {
		return fmt.Errorf("overlay.stroke_width must be positive")
	}

	if c.Timing.MarkingDelay < 0 {
		return fmt.Errorf("timing.marking_delay must not be negative")
	}

	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("render dimensions must be positive")
	}

	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be between 0 and 51")
	}

	if c.OCR.Backend != "ollama" && c.OCR.Backend != "llamacpp" {
		return fmt.Errorf("ocr.backend must be 'ollama' or 'llamacpp'")
	}

	if c.OCR.Quality < 1 || c.OCR.Quality > 100 {
		return fmt.Errorf("ocr.quality must be between 1 and 100")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "slidecast", "config.json")
}
