package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docforge/internal/langdetect"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/reconstruct"
	"github.com/sells-group/docforge/internal/tokens"
)

type fixedLang string

func (f fixedLang) Detect(string) string { return string(f) }

func TestDocumentID(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	c := filepath.Join(dir, "c.pdf")
	require.NoError(t, os.WriteFile(a, []byte("%PDF-1.4 same"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("%PDF-1.4 same"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("%PDF-1.4 other"), 0o644))

	idA, err := DocumentID(a)
	require.NoError(t, err)
	idB, err := DocumentID(b)
	require.NoError(t, err)
	idC, err := DocumentID(c)
	require.NoError(t, err)

	assert.Len(t, idA, 16)
	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, idC)
	assert.Equal(t, strings.ToLower(idA), idA)
}

func TestDocumentID_Missing(t *testing.T) {
	_, err := DocumentID(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, model.ErrDocumentUnreadable)
}

func TestCheckOffsets(t *testing.T) {
	pages := []string{"héllo\n", "", "world\n"}
	text, offsets := reconstruct.Concat(pages)
	require.NoError(t, CheckOffsets(text, pages, offsets))

	assert.Error(t, CheckOffsets(text, pages, offsets[:2]))
	assert.Error(t, CheckOffsets(text, pages, []int{0, 6, 7}))
	assert.Error(t, CheckOffsets(text+"x", pages, offsets))
	assert.Error(t, CheckOffsets(strings.Replace(text, "world", "wOrld", 1), pages, offsets))
	assert.NoError(t, CheckOffsets("", nil, nil))
}

func sampleInput() Input {
	res := reconstruct.New(reconstruct.DefaultOptions()).Run([]string{
		"Revenue grew in every region.\n",
		"Costs stayed flat this year.\n",
	})
	return Input{
		DocumentID: "0123456789abcdef",
		SourcePath: "in/report.pdf",
		Text:       res,
		Probe: &model.DocumentProbe{
			TotalPages:    2,
			Samples:       []model.PageSample{{Index: 0, CharCount: 200}, {Index: 1, CharCount: 180}},
			TextPageCount: 2,
			TextPageRatio: 1,
		},
		Decision:   model.RoutingDecision{Route: model.RouteNonOCR, Reason: model.ReasonRouterNonOCR},
		TextEngine: "native",
	}
}

func TestAssemble(t *testing.T) {
	a := NewAssembler(fixedLang("en"), tokens.Words{})
	b, err := a.Assemble(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "0123456789abcdef", b.DocumentID)
	assert.Equal(t, model.RouteNonOCR, b.Routed)
	assert.Equal(t, "en", b.Language)
	assert.Equal(t, model.ReasonRouterNonOCR, b.Meta.RouteReason)
	assert.Equal(t, 10, b.Meta.TokenCount)
	assert.Equal(t, model.ProbeStats{NumPages: 2, TextPageRatio: 1, TextPagesSampled: 2}, b.Meta.Probe)
	assert.Equal(t, model.EngineNone, b.Meta.Tables.Engine)
	assert.Equal(t, "native", b.Meta.TextEngine)

	require.Len(t, b.PageOffsets, len(b.PageTexts))
	for i, p := range b.PageTexts {
		assert.Equal(t, p, b.Text[b.PageOffsets[i]:b.PageOffsets[i]+len(p)])
		if i > 0 {
			assert.GreaterOrEqual(t, b.PageOffsets[i], b.PageOffsets[i-1])
		}
	}
}

func TestAssemble_Defaults(t *testing.T) {
	b, err := NewAssembler(nil, nil).Assemble(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, langdetect.Unknown, b.Language)
	assert.Equal(t, 10, b.Meta.TokenCount)
}

func TestAssemble_RejectsMisalignedOffsets(t *testing.T) {
	in := sampleInput()
	in.Text.Offsets = []int{0, 3}
	_, err := NewAssembler(nil, nil).Assemble(in)
	assert.Error(t, err)

	in = sampleInput()
	in.DocumentID = ""
	_, err = NewAssembler(nil, nil).Assemble(in)
	assert.Error(t, err)
}

func TestAssemble_DoesNotAliasInput(t *testing.T) {
	in := sampleInput()
	b, err := NewAssembler(nil, nil).Assemble(in)
	require.NoError(t, err)

	in.Text.Pages[0] = "changed"
	assert.NotEqual(t, "changed", b.PageTexts[0])
}

func assembled(t *testing.T) *model.DocumentBundle {
	t.Helper()
	b, err := NewAssembler(fixedLang("en"), tokens.Words{}).Assemble(sampleInput())
	require.NoError(t, err)
	return b
}

func TestWriter_Write(t *testing.T) {
	root := t.TempDir()
	b := assembled(t)

	out, err := NewWriter(root).Write(b)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, b.DocumentID), out)

	text, err := os.ReadFile(filepath.Join(out, TextFile))
	require.NoError(t, err)
	assert.Equal(t, b.Text, string(text))

	raw, err := os.ReadFile(filepath.Join(out, MetaFile))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, b.DocumentID, meta["doc_id"])
	assert.Equal(t, "non_ocr", meta["routed"])
	assert.Equal(t, "en", meta["language"])
	assert.Contains(t, meta, "page_offsets")
	assert.Contains(t, meta, "meta")

	assert.NoDirExists(t, filepath.Join(out, PagesDir))
	assert.NoFileExists(t, filepath.Join(out, RecordFile))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directory must not be left behind")
}

func TestWriter_PagesAndRecord(t *testing.T) {
	root := t.TempDir()
	b := assembled(t)

	out, err := NewWriter(root, WithPageFiles(true), WithRecord(true)).Write(b)
	require.NoError(t, err)

	for i, p := range b.PageTexts {
		data, err := os.ReadFile(filepath.Join(out, PagesDir, []string{"0001.txt", "0002.txt"}[i]))
		require.NoError(t, err)
		assert.Equal(t, p, string(data))
	}

	raw, err := os.ReadFile(filepath.Join(out, RecordFile))
	require.NoError(t, err)
	var rec model.DocumentBundle
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, *b, rec)
}

func TestWriter_StageKeepsTables(t *testing.T) {
	root := t.TempDir()
	b := assembled(t)
	w := NewWriter(root)

	s, err := w.Stage(b.DocumentID)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(s.TablesDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.TablesDir(), "table_01.csv"), []byte("a,b\n"), 0o644))
	assert.NoDirExists(t, s.FinalDir())

	out, err := w.Commit(s, b)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, TablesDir, "table_01.csv"))
	assert.NoDirExists(t, s.Dir())

	_, err = w.Commit(s, b)
	assert.Error(t, err)
}

func TestWriter_ReplacesPreviousBundle(t *testing.T) {
	root := t.TempDir()
	b := assembled(t)
	w := NewWriter(root)

	out, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.txt"), []byte("x"), 0o644))

	out, err = w.Write(b)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "stale.txt"))
	assert.FileExists(t, filepath.Join(out, TextFile))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriter_DiscardLeavesNothing(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	s, err := w.Stage("abc")
	require.NoError(t, err)
	s.Discard()
	s.Discard()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_MismatchedStaging(t *testing.T) {
	w := NewWriter(t.TempDir())
	s, err := w.Stage("other")
	require.NoError(t, err)
	defer s.Discard()

	_, err = w.Commit(s, assembled(t))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	b := assembled(t)
	s := Summarize(b, "out/0123456789abcdef")
	assert.Equal(t, model.Summary{
		DocumentID: b.DocumentID,
		OutDir:     "out/0123456789abcdef",
		Routed:     model.RouteNonOCR,
		Language:   "en",
		TokenCount: 10,
		SourcePath: "in/report.pdf",
	}, s)
}
