package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docforge/internal/model"
)

// PdfToText extracts the text layer using the poppler pdftotext CLI.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// Name implements PageExtractor.
func (p *PdfToText) Name() string { return EnginePdfToText }

// Available reports whether the pdftotext binary can be found.
func (p *PdfToText) Available() error {
	if _, err := exec.LookPath(p.binPath); err != nil {
		return eris.Wrapf(model.ErrEngineUnavailable, "ocr: pdftotext not found: %v", err)
	}
	return nil
}

// ExtractPages runs pdftotext -layout and splits its output on form feeds.
func (p *PdfToText) ExtractPages(ctx context.Context, pdfPath string, _ PromptMode) (*Pages, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-enc", "UTF-8", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(model.ErrEngineFailure, "ocr: pdftotext failed for %s: %v: %s", pdfPath, err, stderr.String())
	}

	return &Pages{Pages: SplitFormFeeds(stdout.String()), Engine: EnginePdfToText}, nil
}

// SplitFormFeeds splits pdftotext output into pages. pdftotext ends every
// page with a form feed, so the empty tail after the last one is dropped.
func SplitFormFeeds(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
