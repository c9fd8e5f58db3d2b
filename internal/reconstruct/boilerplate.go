package reconstruct

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// StripOptions tunes StripBoilerplate.
type StripOptions struct {
	TopK            int
	BottomK         int
	RepeatThreshold float64
	MinPages        int
}

// DefaultStripOptions are the header/footer stripper settings used by the pipeline.
var DefaultStripOptions = StripOptions{TopK: 2, BottomK: 2, RepeatThreshold: 0.45, MinPages: 3}

// StripBoilerplate removes header and footer lines that repeat across pages.
// The first TopK and last BottomK non-empty lines of each page are counted;
// any such line appearing on at least RepeatThreshold of the pages is removed
// from every page, wherever it occurs. Blank lines are dropped. Documents with
// fewer than MinPages pages are returned unchanged.
func StripBoilerplate(pages []string, opt StripOptions) []string {
	n := len(pages)
	if n < opt.MinPages {
		return clonePages(pages)
	}

	top := map[string]int{}
	bottom := map[string]int{}
	for _, p := range pages {
		lines := nonEmptyTrimmed(p)
		for _, l := range lines[:min(opt.TopK, len(lines))] {
			top[l]++
		}
		for _, l := range lines[max(0, len(lines)-opt.BottomK):] {
			bottom[l]++
		}
	}

	remove := map[string]bool{}
	for _, counts := range []map[string]int{top, bottom} {
		for l, c := range counts {
			if float64(c)/float64(n) >= opt.RepeatThreshold {
				remove[l] = true
			}
		}
	}

	out := make([]string, n)
	for i, p := range pages {
		kept := make([]string, 0)
		for _, l := range splitLines(p) {
			t := strings.TrimSpace(l)
			if t == "" || remove[t] {
				continue
			}
			kept = append(kept, l)
		}
		out[i] = strings.Join(kept, "\n")
	}
	return out
}

// SkimOptions tunes SkimRepeatedLines.
type SkimOptions struct {
	MinLineLength      int
	FrequencyThreshold float64
	MinPages           int
}

// DefaultSkimOptions are the repeated-line skimmer settings used by the pipeline.
var DefaultSkimOptions = SkimOptions{MinLineLength: 6, FrequencyThreshold: 0.5, MinPages: 3}

var spaceRun = regexp.MustCompile(`\s+`)

// SkimRepeatedLines removes lines, at least MinLineLength long after
// whitespace normalization, that occur on FrequencyThreshold or more of the
// pages. Remaining lines keep their original text.
func SkimRepeatedLines(pages []string, opt SkimOptions) []string {
	n := len(pages)
	if n < opt.MinPages {
		return clonePages(pages)
	}

	freq := map[string]int{}
	for _, p := range pages {
		seen := map[string]bool{}
		for _, l := range splitLines(p) {
			norm := normalizeLine(l)
			if utf8.RuneCountInString(norm) < opt.MinLineLength || seen[norm] {
				continue
			}
			seen[norm] = true
			freq[norm]++
		}
	}

	remove := map[string]bool{}
	for l, c := range freq {
		if float64(c)/float64(n) >= opt.FrequencyThreshold {
			remove[l] = true
		}
	}
	if len(remove) == 0 {
		return clonePages(pages)
	}

	out := make([]string, n)
	for i, p := range pages {
		lines := splitLines(p)
		kept := make([]string, 0, len(lines))
		for _, l := range lines {
			if remove[normalizeLine(l)] {
				continue
			}
			kept = append(kept, l)
		}
		out[i] = strings.Join(kept, "\n")
	}
	return out
}

func normalizeLine(l string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(l), " ")
}

func nonEmptyTrimmed(p string) []string {
	var out []string
	for _, l := range splitLines(p) {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitLines splits on \n, \r\n and \r, without a trailing empty element.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func clonePages(pages []string) []string {
	out := make([]string, len(pages))
	copy(out, pages)
	return out
}
