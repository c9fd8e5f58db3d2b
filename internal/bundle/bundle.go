// Package bundle assembles the per-document output record and persists it.
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docforge/internal/langdetect"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/reconstruct"
	"github.com/sells-group/docforge/internal/tokens"
)

// DocumentID returns the first 16 hex characters of the SHA-256 of the file.
// Identical bytes always yield the same id.
func DocumentID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(model.ErrDocumentUnreadable, "bundle: open %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrapf(model.ErrDocumentUnreadable, "bundle: hash %s: %v", path, err)
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Input is everything gathered for one document before assembly.
type Input struct {
	DocumentID    string
	SourcePath    string
	Text          reconstruct.Result
	Probe         *model.DocumentProbe
	Decision      model.RoutingDecision
	Tables        model.TableExtractionResult
	TextEngine    string
	MarkdownPages bool
}

// Assembler builds bundles, filling in language and token count.
type Assembler struct {
	lang   langdetect.Detector
	tokens tokens.Counter
}

// NewAssembler creates an Assembler. A nil detector reports "unknown"; a nil
// counter counts words.
func NewAssembler(lang langdetect.Detector, counter tokens.Counter) *Assembler {
	if lang == nil {
		lang = langdetect.Disabled{}
	}
	if counter == nil {
		counter = tokens.Words{}
	}
	return &Assembler{lang: lang, tokens: counter}
}

// Assemble packages the reconstructed text and metadata. It fails if the page
// offsets do not slice Text back into the page texts.
func (a *Assembler) Assemble(in Input) (*model.DocumentBundle, error) {
	if in.DocumentID == "" {
		return nil, eris.New("bundle: empty document id")
	}
	if err := CheckOffsets(in.Text.Text, in.Text.Pages, in.Text.Offsets); err != nil {
		return nil, err
	}

	var stats model.ProbeStats
	if in.Probe != nil {
		stats = model.ProbeStats{
			NumPages:         in.Probe.TotalPages,
			TextPageRatio:    in.Probe.TextPageRatio,
			TextPagesSampled: in.Probe.TextPageCount,
		}
	}

	tables := in.Tables
	if tables.Engine == "" {
		tables.Engine = model.EngineNone
	}

	return &model.DocumentBundle{
		DocumentID:  in.DocumentID,
		Text:        in.Text.Text,
		PageTexts:   append([]string(nil), in.Text.Pages...),
		PageOffsets: append([]int(nil), in.Text.Offsets...),
		Routed:      in.Decision.Route,
		Language:    a.lang.Detect(in.Text.Text),
		Meta: model.BundleMeta{
			Probe:         stats,
			RouteReason:   in.Decision.Reason,
			TokenCount:    a.tokens.Count(in.Text.Text),
			Tables:        tables,
			SourcePath:    in.SourcePath,
			TextEngine:    in.TextEngine,
			MarkdownPages: in.MarkdownPages,
		},
	}, nil
}

// CheckOffsets verifies that offsets has one entry per page, that each entry
// is the running byte length of the preceding pages, and that slicing text at
// the offsets reproduces every page.
func CheckOffsets(text string, pages []string, offsets []int) error {
	if len(offsets) != len(pages) {
		return eris.Errorf("bundle: %d offsets for %d pages", len(offsets), len(pages))
	}
	want := 0
	for i, p := range pages {
		if offsets[i] != want {
			return eris.Errorf("bundle: page %d offset %d, want %d", i, offsets[i], want)
		}
		end := want + len(p)
		if end > len(text) || text[want:end] != p {
			return eris.Errorf("bundle: page %d does not match text at offset %d", i, want)
		}
		want = end
	}
	if want != len(text) {
		return eris.Errorf("bundle: pages cover %d of %d text bytes", want, len(text))
	}
	return nil
}
