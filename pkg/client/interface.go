package client

import "context"

// VisionClient sends a prompt plus one base64-encoded image to a vision
// model backend and returns the raw model text. Parsing of the OCR JSON is
// owned by pkg/ocr so both backends stay interchangeable.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
