package langdetect

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestWhatlang_Detect(t *testing.T) {
	d := New("auto")

	en := strings.Repeat("The quarterly report describes how revenue grew across every region while costs stayed flat. ", 5)
	assert.Equal(t, "en", d.Detect(en))

	de := strings.Repeat("Der Bericht beschreibt, wie der Umsatz in allen Regionen gewachsen ist, während die Kosten gleich geblieben sind. ", 5)
	assert.Equal(t, "de", d.Detect(de))
}

func TestWhatlang_EmptyIsUnknown(t *testing.T) {
	d := Whatlang{}
	assert.Equal(t, Unknown, d.Detect(""))
	assert.Equal(t, Unknown, d.Detect("   \n\t"))
}

func TestDisabled(t *testing.T) {
	d := New("off")
	assert.IsType(t, Disabled{}, d)
	assert.Equal(t, Unknown, d.Detect("The quick brown fox jumps over the lazy dog."))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abc", 2))

	s := "aé" // 'é' is two bytes
	got := truncate(s, 2)
	assert.Equal(t, "a", got)
	assert.True(t, utf8.ValidString(got))
}
