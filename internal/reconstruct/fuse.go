package reconstruct

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxJoinLength bounds the previous line length for soft-wrap joins.
const DefaultMaxJoinLength = 120

// FuseParagraphs rejoins lines broken by hyphenation or soft wrapping.
//
// A line ending in "-" followed by a line starting lowercase is merged with
// the hyphen dropped. Otherwise, when the previous line is shorter than
// maxJoin runes, does not end in sentence punctuation (.?!:;)) and the next
// line starts lowercase or with , ; — –, the two are joined with one space.
// Both rules look at the line's first rune as written, so an indented line
// is never merged. A blank previous line never absorbs the following line,
// which is stricter than the plain soft-wrap rule.
func FuseParagraphs(page string, maxJoin int) string {
	lines := splitLines(page)
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if len(out) == 0 {
			out = append(out, ln)
			continue
		}
		prev := out[len(out)-1]
		first := rune0(ln)

		if strings.HasSuffix(prev, "-") && unicode.IsLower(first) {
			out[len(out)-1] = prev[:len(prev)-1] + ln
			continue
		}

		trimmed := strings.TrimSpace(prev)
		if trimmed != "" &&
			utf8.RuneCountInString(prev) < maxJoin &&
			!endsSentence(trimmed) &&
			continuesSentence(first) {
			out[len(out)-1] = strings.TrimRightFunc(prev, unicode.IsSpace) + " " + ln
			continue
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

func endsSentence(s string) bool {
	last, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(".?!:;)", last)
}

func continuesSentence(r rune) bool {
	return unicode.IsLower(r) || strings.ContainsRune(",;—–", r)
}

func rune0(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
