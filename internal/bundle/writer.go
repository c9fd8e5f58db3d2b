package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
)

// Persisted file and directory names inside a bundle directory.
const (
	TextFile   = "text.txt"
	MetaFile   = "docmeta.json"
	RecordFile = "record.json"
	PagesDir   = "page_text"
	TablesDir  = "tables"
)

// DocMeta is the content of docmeta.json.
type DocMeta struct {
	DocumentID  string           `json:"doc_id"`
	Routed      model.Route      `json:"routed"`
	Language    string           `json:"language"`
	PageOffsets []int            `json:"page_offsets"`
	Meta        model.BundleMeta `json:"meta"`
}

// Writer persists bundles under root/<doc_id>/.
type Writer struct {
	root       string
	savePages  bool
	keepRecord bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithPageFiles also writes page_text/NNNN.txt, numbered from 1.
func WithPageFiles(on bool) WriterOption {
	return func(w *Writer) { w.savePages = on }
}

// WithRecord also writes record.json holding the full bundle.
func WithRecord(on bool) WriterOption {
	return func(w *Writer) { w.keepRecord = on }
}

// NewWriter creates a Writer rooted at root.
func NewWriter(root string, opts ...WriterOption) *Writer {
	w := &Writer{root: root}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Root returns the output root.
func (w *Writer) Root() string { return w.root }

// Staging is a private directory that becomes root/<doc_id> on Commit.
// Engines may write into it (tables/) before the bundle exists.
type Staging struct {
	docID string
	dir   string
	final string
	done  bool
}

// Dir returns the staging directory.
func (s *Staging) Dir() string { return s.dir }

// TablesDir returns the directory table engines write into.
func (s *Staging) TablesDir() string { return filepath.Join(s.dir, TablesDir) }

// FinalDir returns where the bundle lands after Commit.
func (s *Staging) FinalDir() string { return s.final }

// Discard removes the staging directory. It is a no-op after Commit.
func (s *Staging) Discard() {
	if s.done {
		return
	}
	s.done = true
	os.RemoveAll(s.dir) //nolint:errcheck
}

// Stage creates a staging directory for docID on the same filesystem as the
// final location so Commit can rename it.
func (w *Writer) Stage(docID string) (*Staging, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, eris.Wrapf(err, "bundle: create output root %s", w.root)
	}
	dir, err := os.MkdirTemp(w.root, ".stage-"+docID+"-*")
	if err != nil {
		return nil, eris.Wrap(err, "bundle: create staging dir")
	}
	return &Staging{docID: docID, dir: dir, final: filepath.Join(w.root, docID)}, nil
}

// Commit writes the bundle files into s and moves it into place, replacing
// any previous bundle for the same document. On error nothing is left at the
// final location except a previous bundle.
func (w *Writer) Commit(s *Staging, b *model.DocumentBundle) (string, error) {
	if s.done {
		return "", eris.New("bundle: staging already committed or discarded")
	}
	if b.DocumentID != s.docID {
		return "", eris.Errorf("bundle: staging for %s used for %s", s.docID, b.DocumentID)
	}
	if err := w.writeFiles(s.dir, b); err != nil {
		s.Discard()
		return "", err
	}

	var backup string
	if _, err := os.Stat(s.final); err == nil {
		backup = s.final + ".old-" + filepath.Base(s.dir)
		if err := os.Rename(s.final, backup); err != nil {
			s.Discard()
			return "", eris.Wrapf(err, "bundle: move previous bundle %s", s.final)
		}
	}
	if err := os.Rename(s.dir, s.final); err != nil {
		if backup != "" {
			os.Rename(backup, s.final) //nolint:errcheck
		}
		s.Discard()
		return "", eris.Wrapf(err, "bundle: publish %s", s.final)
	}
	s.done = true
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			zap.L().Warn("bundle: remove previous bundle", zap.String("path", backup), zap.Error(err))
		}
	}

	zap.L().Debug("bundle: written",
		zap.String("doc", b.DocumentID),
		zap.String("path", s.final),
		zap.Int("pages", len(b.PageTexts)),
	)
	return s.final, nil
}

// Write stages and commits b in one step.
func (w *Writer) Write(b *model.DocumentBundle) (string, error) {
	s, err := w.Stage(b.DocumentID)
	if err != nil {
		return "", err
	}
	return w.Commit(s, b)
}

func (w *Writer) writeFiles(dir string, b *model.DocumentBundle) error {
	if err := os.WriteFile(filepath.Join(dir, TextFile), []byte(b.Text), 0o644); err != nil {
		return eris.Wrap(err, "bundle: write text")
	}

	meta := DocMeta{
		DocumentID:  b.DocumentID,
		Routed:      b.Routed,
		Language:    b.Language,
		PageOffsets: b.PageOffsets,
		Meta:        b.Meta,
	}
	if err := writeJSON(filepath.Join(dir, MetaFile), meta); err != nil {
		return err
	}

	if w.savePages {
		pagesDir := filepath.Join(dir, PagesDir)
		if err := os.MkdirAll(pagesDir, 0o755); err != nil {
			return eris.Wrap(err, "bundle: create page dir")
		}
		for i, p := range b.PageTexts {
			name := filepath.Join(pagesDir, fmt.Sprintf("%04d.txt", i+1))
			if err := os.WriteFile(name, []byte(p), 0o644); err != nil {
				return eris.Wrapf(err, "bundle: write page %d", i+1)
			}
		}
	}

	if w.keepRecord {
		if err := writeJSON(filepath.Join(dir, RecordFile), b); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "bundle: marshal %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "bundle: write %s", filepath.Base(path))
	}
	return nil
}

// Summarize returns the per-document summary for a committed bundle.
func Summarize(b *model.DocumentBundle, outDir string) model.Summary {
	return model.Summary{
		DocumentID: b.DocumentID,
		OutDir:     outDir,
		Routed:     b.Routed,
		Language:   b.Language,
		TokenCount: b.Meta.TokenCount,
		SourcePath: b.Meta.SourcePath,
	}
}
