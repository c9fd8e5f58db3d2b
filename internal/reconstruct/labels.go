package reconstruct

import (
	"regexp"
	"strings"
)

var pageLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page\s+\d+(\s*/\s*\d+|\s+of\s+\d+)?$`),
	regexp.MustCompile(`(?i)^p[aá]gina\s+\d+(\s*de\s*\d+)?$`),
	regexp.MustCompile(`(?i)^sayfa\s+\d+(\s*/\s*\d+)?$`),
	regexp.MustCompile(`(?i)^seite\s+\d+(\s*/\s*\d+)?$`),
	regexp.MustCompile(`(?i)^p[aà]ge\s+\d+(\s*/\s*\d+)?$`),
	regexp.MustCompile(`^\d+\s*/\s*\d+$`),
	regexp.MustCompile(`^第?\s*\d+\s*頁?$`),
}

var blankRun = regexp.MustCompile(`\n{3,}`)

// IsPageLabel reports whether the trimmed line is a bare page number label.
func IsPageLabel(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	for _, re := range pageLabels {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// RemovePageLabels blanks lines that are only a page label and collapses runs
// of three or more newlines to two.
func RemovePageLabels(page string) string {
	lines := strings.Split(page, "\n")
	for i, l := range lines {
		if IsPageLabel(l) {
			lines[i] = ""
		}
	}
	return blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
