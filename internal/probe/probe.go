// Package probe samples a bounded set of pages from a PDF and records how much
// native text and how many images each sampled page carries.
package probe

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
)

// DefaultMaxPages is the sample budget used when none is configured.
const DefaultMaxPages = 12

// DefaultTextCharThreshold is the character count a page must exceed to count
// as a text page.
const DefaultTextCharThreshold = 40

// Prober samples a document.
type Prober interface {
	Probe(ctx context.Context, path string, maxPages int) (*model.DocumentProbe, error)
}

// SampleIndexes returns the 0-based page indexes sampled from a document of
// total pages: stride max(1, total/limit), at most limit entries.
func SampleIndexes(total, limit int) []int {
	if total <= 0 || limit <= 0 {
		return nil
	}
	step := max(1, total/limit)
	idx := make([]int, 0, min(total, limit))
	for i := 0; i < total && len(idx) < limit; i += step {
		idx = append(idx, i)
	}
	return idx
}

// Summarize builds a DocumentProbe from samples. A page is a text page when
// its CharCount exceeds threshold.
func Summarize(total int, samples []model.PageSample, threshold int) *model.DocumentProbe {
	text := 0
	for _, s := range samples {
		if s.CharCount > threshold {
			text++
		}
	}
	return &model.DocumentProbe{
		TotalPages:    total,
		Samples:       samples,
		TextPageCount: text,
		TextPageRatio: float64(text) / float64(max(1, len(samples))),
	}
}

// PDFProber reads pages with the pure-Go ledongthuc/pdf parser.
type PDFProber struct {
	TextCharThreshold int
}

// NewPDFProber returns a prober using threshold to classify text pages.
// A non-positive threshold selects DefaultTextCharThreshold.
func NewPDFProber(threshold int) *PDFProber {
	if threshold <= 0 {
		threshold = DefaultTextCharThreshold
	}
	return &PDFProber{TextCharThreshold: threshold}
}

// Probe samples up to maxPages pages of the PDF at path.
func (p *PDFProber) Probe(ctx context.Context, path string, maxPages int) (*model.DocumentProbe, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	f, r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	total := r.NumPage()
	indexes := SampleIndexes(total, maxPages)
	samples := make([]model.PageSample, 0, len(indexes))
	for _, i := range indexes {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "probe: cancelled")
		}
		page := r.Page(i + 1)
		samples = append(samples, model.PageSample{
			Index:      i,
			CharCount:  utf8.RuneCountInString(PageText(page)),
			ImageCount: countImages(page),
		})
	}

	zap.L().Debug("probe: sampled pages",
		zap.String("path", path),
		zap.Int("total_pages", total),
		zap.Int("sampled", len(samples)),
	)

	return Summarize(total, samples, p.TextCharThreshold), nil
}

// Open opens a PDF, wrapping any failure in model.ErrDocumentUnreadable. The
// parser panics on some malformed files; those are reported the same way.
func Open(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f, r = nil, nil
			err = eris.Wrapf(model.ErrDocumentUnreadable, "probe: open %s: %v", path, rec)
		}
	}()

	f, r, err = pdf.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(model.ErrDocumentUnreadable, "probe: open %s: %v", path, err)
	}
	if r.NumPage() < 1 {
		f.Close() //nolint:errcheck
		return nil, nil, eris.Wrapf(model.ErrDocumentUnreadable, "probe: %s has no pages", path)
	}
	return f, r, nil
}

// PageText returns the plain text of page, or "" when the page is empty or its
// content stream cannot be decoded.
func PageText(page pdf.Page) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Debug("probe: page text decode panic", zap.String("error", fmt.Sprint(rec)))
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func countImages(page pdf.Page) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	if page.V.IsNull() {
		return 0
	}
	xobjs := page.V.Key("Resources").Key("XObject")
	if xobjs.IsNull() {
		return 0
	}
	for _, key := range xobjs.Keys() {
		if xobjs.Key(key).Key("Subtype").Name() == "Image" {
			n++
		}
	}
	return n
}
