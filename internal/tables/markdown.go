package tables

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var gfm = goldmark.New(goldmark.WithExtensions(extension.Table))

// FindPipeTables returns each GitHub-style pipe table block in md. A block is
// a line starting with "|", a delimiter line made only of "|", ":", "-" and
// spaces, then every following line that starts with "|".
func FindPipeTables(md string) []string {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	var blocks []string
	for i := 0; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), "|") || i+1 >= len(lines) {
			continue
		}
		delim := strings.TrimSpace(lines[i+1])
		if delim == "" || strings.Trim(delim, "|:- ") != "" {
			continue
		}
		j := i + 2
		for j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), "|") {
			j++
		}
		blocks = append(blocks, strings.Join(lines[i:j], "\n"))
		i = j - 1
	}
	return blocks
}

// ParseMarkdownTable parses one pipe-table block with the GFM table extension.
// It reports false when the block does not parse as a table.
func ParseMarkdownTable(block string) (Table, bool) {
	src := []byte(block)
	doc := gfm.Parser().Parse(text.NewReader(src))

	var (
		t     Table
		found bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		tbl, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		found = true
		for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
			cells := rowCells(row, src)
			if _, isHeader := row.(*extast.TableHeader); isHeader {
				t.Header = cells
				continue
			}
			t.Rows = append(t.Rows, cells)
		}
		return ast.WalkStop, nil
	})
	return t, found
}

func rowCells(row ast.Node, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			cells = append(cells, inlineText(c, src))
		}
	}
	return cells
}

// inlineText flattens the inline content of n to plain text.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// RenderMarkdown renders a table as a pipe table.
func RenderMarkdown(t Table) string {
	var b strings.Builder
	w := t.Width()
	header := t.Header
	if header == nil {
		header = make([]string, w)
	}
	writeRow := func(r []string) {
		b.WriteString("|")
		for c := 0; c < w; c++ {
			v := ""
			if c < len(r) {
				v = strings.ReplaceAll(r[c], "|", `\|`)
			}
			b.WriteString(" " + v + " |")
		}
		b.WriteString("\n")
	}
	writeRow(header)
	b.WriteString("|" + strings.Repeat(" --- |", w) + "\n")
	for _, r := range t.Rows {
		writeRow(r)
	}
	return b.String()
}
