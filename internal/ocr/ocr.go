// Package ocr turns a PDF into one text string per page, either from the
// embedded text layer or through an OCR engine.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PromptMode selects the output structure requested from OCR engines.
type PromptMode string

const (
	ModeMarkdown PromptMode = "markdown"
	ModePlain    PromptMode = "plain"
)

// Engine names reported in Pages.Engine.
const (
	EngineNative    = "native"
	EnginePdfToText = "pdftotext"
	EngineMistral   = "mistral"
	EngineTesseract = "tesseract"
)

// Pages is the per-page text of a document. Markdown is true only when the
// engine honored a markdown prompt, so pipe tables in the text can be trusted.
type Pages struct {
	Pages    []string
	Engine   string
	Markdown bool
}

// PageExtractor produces per-page text for a PDF.
type PageExtractor interface {
	Name() string
	ExtractPages(ctx context.Context, pdfPath string, mode PromptMode) (*Pages, error)
}

// Failover tries each extractor in order and returns the first success.
type Failover struct {
	chain []PageExtractor
}

// NewFailover builds a Failover from the non-nil extractors given.
func NewFailover(extractors ...PageExtractor) *Failover {
	f := &Failover{}
	for _, e := range extractors {
		if e != nil {
			f.chain = append(f.chain, e)
		}
	}
	return f
}

// Len returns the number of extractors in the chain.
func (f *Failover) Len() int { return len(f.chain) }

// Name returns the primary extractor's name.
func (f *Failover) Name() string {
	if len(f.chain) == 0 {
		return "none"
	}
	return f.chain[0].Name()
}

// ExtractPages runs the chain, moving to the next extractor on any error.
func (f *Failover) ExtractPages(ctx context.Context, pdfPath string, mode PromptMode) (*Pages, error) {
	if len(f.chain) == 0 {
		return nil, eris.New("ocr: no extractor configured")
	}
	var lastErr error
	for i, e := range f.chain {
		pages, err := e.ExtractPages(ctx, pdfPath, mode)
		if err == nil {
			return pages, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(f.chain)-1 {
			zap.L().Warn("ocr: engine failed, falling back",
				zap.String("engine", e.Name()),
				zap.String("next", f.chain[i+1].Name()),
				zap.String("path", pdfPath),
				zap.Error(err),
			)
		}
	}
	return nil, lastErr
}
