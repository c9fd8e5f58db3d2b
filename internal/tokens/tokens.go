// Package tokens counts model tokens in reconstructed text.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"go.uber.org/zap"
)

// DefaultEncoding is the BPE used for token counts.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

var loaderOnce sync.Once

// BPE counts tokens with a tiktoken encoding. The vocabulary is embedded, so
// no network access is needed.
type BPE struct {
	enc *tiktoken.Tiktoken
}

// New returns a BPE counter for encoding. If the encoding cannot be loaded it
// logs a warning and returns a whitespace counter.
func New(encoding string) Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		zap.L().Warn("tokens: encoding unavailable, counting words", zap.String("encoding", encoding), zap.Error(err))
		return Words{}
	}
	return &BPE{enc: enc}
}

// Count implements Counter.
func (b *BPE) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(b.enc.Encode(text, nil, nil))
}

// Words counts whitespace-separated words.
type Words struct{}

// Count implements Counter.
func (Words) Count(text string) int { return len(strings.Fields(text)) }
