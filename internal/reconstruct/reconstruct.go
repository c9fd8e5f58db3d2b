// Package reconstruct turns raw per-page text into clean prose: repeated
// headers and footers are stripped, soft-wrapped paragraphs rejoined, bullet
// glyphs normalized and page labels removed, then pages are concatenated with
// byte offsets.
package reconstruct

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Options configures every stage of the pipeline.
type Options struct {
	Strip         StripOptions
	Skim          SkimOptions
	MaxJoinLength int
}

// DefaultOptions returns the standard stage settings.
func DefaultOptions() Options {
	return Options{
		Strip:         DefaultStripOptions,
		Skim:          DefaultSkimOptions,
		MaxJoinLength: DefaultMaxJoinLength,
	}
}

// Result is the reconstructed document.
type Result struct {
	// Pages are the final per-page texts; Text is their concatenation.
	Pages []string
	Text  string
	// Offsets[i] is the byte offset of Pages[i] within Text.
	Offsets []int
}

// Pipeline runs the reconstruction stages in a fixed order.
type Pipeline struct {
	opts Options
}

// New returns a Pipeline with opts.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run applies, in order: boilerplate strip, repeated-line skim, paragraph
// fuse, list normalization and page-label removal, then concatenates. The
// input slice is not modified.
func (p *Pipeline) Run(pages []string) Result {
	staged := make([]string, len(pages))
	for i, pg := range pages {
		staged[i] = norm.NFC.String(strings.ReplaceAll(strings.ReplaceAll(pg, "\r\n", "\n"), "\r", "\n"))
	}

	staged = StripBoilerplate(staged, p.opts.Strip)
	staged = SkimRepeatedLines(staged, p.opts.Skim)
	for i := range staged {
		staged[i] = FuseParagraphs(staged[i], p.opts.MaxJoinLength)
		staged[i] = NormalizeLists(staged[i])
		staged[i] = RemovePageLabels(staged[i])
	}

	text, offsets := Concat(staged)
	return Result{Pages: staged, Text: text, Offsets: offsets}
}

// Concat joins pages with no separator and returns each page's starting byte
// offset in the result.
func Concat(pages []string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(pages))
	for i, p := range pages {
		offsets[i] = b.Len()
		b.WriteString(p)
	}
	return b.String(), offsets
}
