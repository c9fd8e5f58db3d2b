// Package tesseract runs local OCR: pages are rendered to PNG and recognized
// with libtesseract through gosseract.
package tesseract

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/ocr"
)

// Recognizer turns one page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (string, error)
	Close() error
}

// Engine implements ocr.PageExtractor.
type Engine struct {
	renderer   ocr.PageRenderer
	recognizer Recognizer
}

// New creates an Engine from a renderer and a recognizer.
func New(renderer ocr.PageRenderer, recognizer Recognizer) *Engine {
	return &Engine{renderer: renderer, recognizer: recognizer}
}

// Name implements ocr.PageExtractor.
func (e *Engine) Name() string { return ocr.EngineTesseract }

// ExtractPages renders the document and recognizes each page in order.
// Tesseract output is plain text whatever the prompt mode.
func (e *Engine) ExtractPages(ctx context.Context, pdfPath string, _ ocr.PromptMode) (*ocr.Pages, error) {
	dir, err := os.MkdirTemp("", "docforge-ocr-*")
	if err != nil {
		return nil, eris.Wrap(err, "tesseract: temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	images, err := e.renderer.Render(ctx, pdfPath, dir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, eris.Wrapf(model.ErrEngineFailure, "tesseract: no pages rendered for %s", pdfPath)
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "tesseract: cancelled")
		}
		data, err := os.ReadFile(img)
		if err != nil {
			return nil, eris.Wrapf(err, "tesseract: read page %d", i+1)
		}
		text, err := e.recognizer.Recognize(ctx, data)
		if err != nil {
			return nil, eris.Wrapf(model.ErrEngineFailure, "tesseract: page %d of %s: %v", i+1, pdfPath, err)
		}
		pages = append(pages, text)
	}

	zap.L().Debug("tesseract: recognized document", zap.String("path", pdfPath), zap.Int("pages", len(pages)))
	return &ocr.Pages{Pages: pages, Engine: ocr.EngineTesseract}, nil
}

// Close releases the recognizer.
func (e *Engine) Close() error {
	return e.recognizer.Close()
}

// ClientPool recognizes images with pooled gosseract clients so concurrent
// documents do not share one client.
type ClientPool struct {
	languages []string
	dpi       int
	factory   func() *gosseract.Client

	mu     sync.Mutex
	idle   []*gosseract.Client
	closed bool
}

// NewClientPool creates a pool. lang is a "+"-separated tesseract language
// list such as "eng+deu"; empty keeps the tesseract default.
func NewClientPool(lang string, dpi int) *ClientPool {
	var langs []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &ClientPool{languages: langs, dpi: dpi, factory: gosseract.NewClient}
}

// Recognize implements Recognizer.
func (p *ClientPool) Recognize(_ context.Context, img []byte) (string, error) {
	c, err := p.get()
	if err != nil {
		return "", err
	}
	defer p.put(c)

	if err := c.SetImageFromBytes(img); err != nil {
		return "", eris.Wrap(err, "tesseract: set image")
	}
	text, err := c.Text()
	if err != nil {
		return "", eris.Wrap(err, "tesseract: recognize text")
	}
	return text, nil
}

func (p *ClientPool) get() (*gosseract.Client, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, eris.New("tesseract: pool closed")
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c := p.factory()
	if len(p.languages) > 0 {
		if err := c.SetLanguage(p.languages...); err != nil {
			c.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "tesseract: set languages")
		}
	}
	if p.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(p.dpi)); err != nil {
			c.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "tesseract: set dpi")
		}
	}
	return c, nil
}

func (p *ClientPool) put(c *gosseract.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		c.Close() //nolint:errcheck
		return
	}
	p.idle = append(p.idle, c)
}

// Close closes every idle client. Clients in use are closed when returned.
func (p *ClientPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, c := range p.idle {
		c.Close() //nolint:errcheck
	}
	p.idle = nil
	return nil
}
