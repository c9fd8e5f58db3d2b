package reconstruct

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const bulletGlyphs = "•◦‣⁃▪▫●○♦▶►▸−–—-"

var (
	checkedBox   = regexp.MustCompile(`^[\t ]*\[[xX]\][\t ]*`)
	uncheckedBox = regexp.MustCompile(`^[\t ]*\[[\t ]*\][\t ]*`)
)

// NormalizeLists rewrites bullet glyphs and checkbox prefixes to Markdown list
// syntax, line by line.
func NormalizeLists(page string) string {
	lines := splitLines(page)
	for i, l := range lines {
		lines[i] = normalizeListLine(l)
	}
	return strings.Join(lines, "\n")
}

func normalizeListLine(l string) string {
	rest := strings.TrimLeft(l, "\t ")
	if r, size := utf8.DecodeRuneInString(rest); rest != "" && strings.ContainsRune(bulletGlyphs, r) {
		return "- " + strings.TrimLeftFunc(rest[size:], unicode.IsSpace)
	}
	if loc := checkedBox.FindStringIndex(l); loc != nil {
		return "- [x] " + l[loc[1]:]
	}
	if loc := uncheckedBox.FindStringIndex(l); loc != nil {
		return "- [ ] " + l[loc[1]:]
	}
	return l
}
