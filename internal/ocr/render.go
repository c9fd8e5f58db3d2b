package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docforge/internal/model"
)

// PageRenderer rasterizes every page of a PDF into PNG files under dir and
// returns their paths in page order.
type PageRenderer interface {
	Render(ctx context.Context, pdfPath, dir string) ([]string, error)
}

// PdfToPPM renders pages with the poppler pdftoppm CLI.
type PdfToPPM struct {
	binPath string
	dpi     int
}

// NewPdfToPPM creates a renderer. Empty binPath selects "pdftoppm"; a
// non-positive dpi selects 300.
func NewPdfToPPM(binPath string, dpi int) *PdfToPPM {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &PdfToPPM{binPath: binPath, dpi: dpi}
}

// Available reports whether the pdftoppm binary can be found.
func (p *PdfToPPM) Available() error {
	if _, err := exec.LookPath(p.binPath); err != nil {
		return eris.Wrapf(model.ErrEngineUnavailable, "ocr: pdftoppm not found: %v", err)
	}
	return nil
}

// Render implements PageRenderer.
func (p *PdfToPPM) Render(ctx context.Context, pdfPath, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-r", strconv.Itoa(p.dpi), "-png", pdfPath, filepath.Join(dir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(model.ErrEngineFailure, "ocr: pdftoppm failed for %s: %v: %s", pdfPath, err, stderr.String())
	}
	return RenderedPages(dir)
}

var renderedPage = regexp.MustCompile(`^page-(\d+)\.png$`)

// RenderedPages lists page-N.png files in dir ordered by N. pdftoppm pads N
// with zeros depending on the page count, so ordering is numeric.
func RenderedPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: list rendered pages")
	}
	type page struct {
		n    int
		path string
	}
	var pages []page
	for _, e := range entries {
		m := renderedPage.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		pages = append(pages, page{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}
