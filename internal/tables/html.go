package tables

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLTable is a table parsed from HTML along with its source markup.
type HTMLTable struct {
	Table
	HTML string
}

// ParseHTMLTables returns every <table> in the document, outermost first.
// A leading row made only of <th> cells (or living in <thead>) becomes the
// header. Cells spanning several columns are repeated across them.
func ParseHTMLTables(r io.Reader) ([]HTMLTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, eris.Wrap(err, "tables: parse html")
	}

	var out []HTMLTable
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			var buf bytes.Buffer
			if err := html.Render(&buf, n); err == nil {
				out = append(out, HTMLTable{Table: tableFromNode(n), HTML: buf.String()})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func tableFromNode(tbl *html.Node) Table {
	var t Table
	var rows func(n *html.Node, inHead bool)
	rows = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// nested tables are reported on their own
			case atom.Thead:
				rows(c, true)
			case atom.Tbody, atom.Tfoot:
				rows(c, false)
			case atom.Tr:
				cells, allTH := rowFromNode(c)
				if t.Header == nil && len(t.Rows) == 0 && (inHead || allTH) {
					t.Header = cells
					continue
				}
				t.Rows = append(t.Rows, cells)
			}
		}
	}
	rows(tbl, false)
	return t
}

func rowFromNode(tr *html.Node) ([]string, bool) {
	var cells []string
	allTH := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom == atom.Td {
			allTH = false
		}
		v := nodeText(c)
		span := 1
		for _, a := range c.Attr {
			if a.Key == "colspan" {
				if n, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && n > 1 && n <= 1000 {
					span = n
				}
			}
		}
		for range span {
			cells = append(cells, v)
		}
	}
	return cells, allTH && len(cells) > 0
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
