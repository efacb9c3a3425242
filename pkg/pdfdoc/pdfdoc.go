// Package pdfdoc is the PDF boundary: it splits a deck into single-page
// documents, reports page dimensions in document points, and loads the
// positioned-word sidecars that give markers their preferred token source.
package pdfdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/menta2k/slidecast/pkg/types"
)

// Page is one extracted page of a deck.
type Page struct {
	Number int // 1-based
	Data   []byte
	Width  float64 // document points
	Height float64 // document points
}

// Split validates a PDF and extracts every page as a standalone document,
// recording each page's MediaBox dimensions.
func Split(pdf []byte) ([]Page, error) {
	reader := bytes.NewReader(pdf)
	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: read pdf: %w", err)
	}
	pageCount := pdfContext.PageCount
	if pageCount == 0 {
		return nil, nil
	}

	dims, err := pdfContext.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: page dimensions: %w", err)
	}

	pages := make([]Page, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pageReader, err := api.ExtractPage(pdfContext, pageNum)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: extract page %d: %w", pageNum, err)
		}
		pageData, err := io.ReadAll(pageReader)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: read page %d: %w", pageNum, err)
		}
		page := Page{Number: pageNum, Data: pageData}
		if pageNum-1 < len(dims) {
			page.Width = dims[pageNum-1].Width
			page.Height = dims[pageNum-1].Height
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// SplitFile is Split over a file path.
func SplitFile(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: read %s: %w", path, err)
	}
	return Split(data)
}

// Word is one positioned word from a text-extraction sidecar. Coordinates
// are document points with a bottom-left origin, as PDF extractors emit
// them; the coordinate transform flips them later.
type Word struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// WordSidecar is the per-slide word list written by the deck parser.
type WordSidecar struct {
	Slide  int     `json:"slide"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Words  []Word  `json:"words"`
}

// LoadWords reads a word sidecar and converts it into document tokens.
// Document tokens carry confidence 1 and bypass the locator's OCR gate.
func LoadWords(path string) (*WordSidecar, []types.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("pdfdoc: read sidecar %s: %w", path, err)
	}
	var sidecar WordSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, nil, fmt.Errorf("pdfdoc: parse sidecar %s: %w", path, err)
	}

	tokens := make([]types.Token, 0, len(sidecar.Words))
	for _, w := range sidecar.Words {
		box := types.Box{X0: w.X0, Y0: w.Y0, X1: w.X1, Y1: w.Y1}
		if w.Text == "" || !box.Valid() {
			continue
		}
		tokens = append(tokens, types.Token{
			Text:       w.Text,
			Box:        box,
			Confidence: 1,
			Source:     types.SourceDocument,
		})
	}
	return &sidecar, tokens, nil
}
