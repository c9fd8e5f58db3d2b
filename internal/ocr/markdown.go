package ocr

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	mdParser    = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	excessLines = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown reduces OCR markdown to plain page text. Headings and
// emphasis markers are dropped, list items become "- " lines, table rows
// become space-separated cells, and images and raw HTML are removed.
// Paragraph breaks are kept as blank lines.
func StripMarkdown(md string) string {
	src := []byte(md)
	doc := mdParser.Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				b.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.Image, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				b.WriteString("- ")
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ThematicBreak, *extast.Table:
			if !entering {
				b.WriteString("\n\n")
			}
		case *extast.TableCell:
			if !entering && n.NextSibling() != nil {
				b.WriteByte(' ')
			}
		case *extast.TableHeader, *extast.TableRow:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(excessLines.ReplaceAllString(b.String(), "\n\n"))
}
