// Package raster handles slide image IO: loading rendered slide pages,
// letterboxing them into the output canvas, preparing downscaled copies for
// the vision model, and saving results.
package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/slidecast/pkg/types"
)

// LoadImage loads a slide raster from a file path with WebP support.
func LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	low := strings.ToLower(path)
	if strings.Contains(low, ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// DecodeBytes decodes an image from raw bytes with WebP support.
func DecodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// PrepareForModel converts an image to base64 for the vision model,
// optionally downscaling so the long side stays within maxDim.
func PrepareForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage saves an image with the specified format and quality.
func SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Letterbox fits img into a targetW x targetH canvas: aspect-preserving
// Lanczos resize, centered on an opaque black background. The returned
// geometry describes the mapping from the input raster's pixel space into
// the canvas, for reuse by the coordinate transform.
func Letterbox(img image.Image, targetW, targetH int) (*image.NRGBA, types.RenderGeometry, error) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 || targetW <= 0 || targetH <= 0 {
		return nil, types.RenderGeometry{}, fmt.Errorf("raster: invalid dimensions %dx%d -> %dx%d", srcW, srcH, targetW, targetH)
	}

	fitted := imaging.Fit(img, targetW, targetH, imaging.Lanczos)
	canvas := imaging.New(targetW, targetH, color.NRGBA{A: 255})

	padX := (targetW - fitted.Bounds().Dx()) / 2
	padY := (targetH - fitted.Bounds().Dy()) / 2
	canvas = imaging.Paste(canvas, fitted, image.Pt(padX, padY))

	geom := types.RenderGeometry{
		DPIScale: 1,
		RenderW:  float64(srcW),
		RenderH:  float64(srcH),
		TargetW:  float64(targetW),
		TargetH:  float64(targetH),
	}
	return canvas, geom, nil
}

// ToNRGBA returns img as an NRGBA image, cloning when the underlying format
// differs, so callers can mutate pixels in place.
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	return imaging.Clone(img)
}

// Info contains basic raster metadata.
type Info struct {
	Width       int
	Height      int
	AspectRatio float64
}

// GetInfo returns basic information about an image.
func GetInfo(img image.Image) Info {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	return Info{
		Width:       width,
		Height:      height,
		AspectRatio: float64(width) / float64(height),
	}
}

// Validate rejects rasters too small to carry readable slide text.
func Validate(img image.Image, minSize int) error {
	bounds := img.Bounds()
	if bounds.Dx() < minSize || bounds.Dy() < minSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), minSize)
	}
	return nil
}
