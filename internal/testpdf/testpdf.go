// Package testpdf builds small, valid PDF files for tests. Pages carry
// Helvetica text lines and an optional number of 1x1 image XObjects.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes one page of a generated document.
type Page struct {
	Lines  []string
	Images int
}

// Build renders pages into PDF bytes.
func Build(pages []Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) int {
		offsets = append(offsets, buf.Len())
		n := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
		return n
	}

	buf.WriteString("%PDF-1.4\n")

	// Object numbers are assigned in write order: catalog=1, pages=2, font=3.
	kids := make([]string, 0, len(pages))
	next := 4
	type layout struct {
		page, content int
		images        []int
	}
	plans := make([]layout, len(pages))
	for i, p := range pages {
		var l layout
		for j := 0; j < p.Images; j++ {
			l.images = append(l.images, next)
			next++
		}
		l.content = next
		next++
		l.page = next
		next++
		plans[i] = l
		kids = append(kids, fmt.Sprintf("%d 0 R", l.page))
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		l := plans[i]
		var xobjs []string
		for j, id := range l.images {
			obj("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\n\x00\nendstream")
			xobjs = append(xobjs, fmt.Sprintf("/Im%d %d 0 R", j+1, id))
		}

		var cs strings.Builder
		if len(p.Lines) > 0 {
			cs.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
			for _, line := range p.Lines {
				fmt.Fprintf(&cs, "(%s) Tj\nT*\n", escape(line))
			}
			cs.WriteString("ET\n")
		}
		content := cs.String()
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content))

		resources := "/Font << /F1 3 0 R >>"
		if len(xobjs) > 0 {
			resources += " /XObject << " + strings.Join(xobjs, " ") + " >>"
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>", resources, l.content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// Write builds the document into dir/name and returns the path.
func Write(t testing.TB, dir, name string, pages []Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages), 0o644); err != nil {
		t.Fatalf("testpdf: write %s: %v", path, err)
	}
	return path
}

// TextPage returns a page holding n copies of line.
func TextPage(line string, n int) Page {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = line
	}
	return Page{Lines: lines}
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
