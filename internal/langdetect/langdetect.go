// Package langdetect identifies the dominant language of reconstructed text.
package langdetect

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// Unknown is reported when detection is disabled, the text is empty, or the
// detector is not confident.
const Unknown = "unknown"

// maxSample bounds how much text is handed to the detector.
const maxSample = 10000

// Detector returns an ISO 639-1 code or Unknown.
type Detector interface {
	Detect(text string) string
}

// New returns the detector named by kind ("auto" or "off").
func New(kind string) Detector {
	if kind == "off" {
		return Disabled{}
	}
	return Whatlang{}
}

// Whatlang detects language with trigram statistics.
type Whatlang struct{}

// Detect implements Detector.
func (Whatlang) Detect(text string) string {
	sample := strings.TrimSpace(truncate(text, maxSample))
	if sample == "" {
		return Unknown
	}
	info := whatlanggo.Detect(sample)
	if !info.IsReliable() {
		return Unknown
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown
	}
	return code
}

// Disabled always reports Unknown.
type Disabled struct{}

// Detect implements Detector.
func (Disabled) Detect(string) string { return Unknown }

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
