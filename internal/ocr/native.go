package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docforge/internal/probe"
)

// NativeText reads the embedded text layer with the pure-Go PDF parser.
type NativeText struct{}

// NewNativeText creates a NativeText extractor.
func NewNativeText() *NativeText { return &NativeText{} }

// Name implements PageExtractor.
func (n *NativeText) Name() string { return EngineNative }

// ExtractPages returns the plain text of every page. Pages whose content
// cannot be decoded come back empty.
func (n *NativeText) ExtractPages(ctx context.Context, pdfPath string, _ PromptMode) (*Pages, error) {
	f, r, err := probe.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocr: native text cancelled")
		}
		pages = append(pages, probe.PageText(r.Page(i)))
	}
	return &Pages{Pages: pages, Engine: EngineNative}, nil
}
