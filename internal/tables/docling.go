package tables

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/resilience"
)

const doclingConvertPath = "/v1/convert/file"

// Docling extracts tables through a docling-serve instance: the PDF is
// converted to HTML and every <table> in the result is cleaned and kept.
type Docling struct {
	baseURL string
	client  *http.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// DoclingOption configures a Docling engine.
type DoclingOption func(*Docling)

// WithDoclingHTTPClient sets the HTTP client.
func WithDoclingHTTPClient(c *http.Client) DoclingOption {
	return func(d *Docling) { d.client = c }
}

// WithDoclingRetry sets the retry policy for conversion calls.
func WithDoclingRetry(cfg resilience.RetryConfig) DoclingOption {
	return func(d *Docling) { d.retry = cfg }
}

// WithDoclingBreaker guards conversion calls with a circuit breaker.
func WithDoclingBreaker(cb *resilience.CircuitBreaker) DoclingOption {
	return func(d *Docling) { d.breaker = cb }
}

// NewDocling creates a Docling engine for the server at baseURL.
func NewDocling(baseURL string, timeout time.Duration, opts ...DoclingOption) *Docling {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	d := &Docling{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(d)
	}
	d.retry.OnRetry = resilience.RetryLogger("docling", "convert")
	return d
}

// Name implements Engine.
func (d *Docling) Name() string { return model.EngineDocling }

type doclingResponse struct {
	Document struct {
		HTMLContent string `json:"html_content"`
	} `json:"document"`
	Status string `json:"status"`
	Errors []struct {
		Message string `json:"error_message"`
	} `json:"errors"`
}

// Extract implements Engine. Tables are written as table_NN.csv and
// table_NN.html, numbered in document order.
func (d *Docling) Extract(ctx context.Context, pdfPath, outDir string) Attempt {
	a := Attempt{Engine: model.EngineDocling}

	htmlDoc, err := d.convert(ctx, pdfPath)
	if err != nil {
		a.Err = err
		return a
	}

	parsed, err := ParseHTMLTables(strings.NewReader(htmlDoc))
	if err != nil {
		a.Err = eris.Wrapf(model.ErrEngineFailure, "docling: %v", err)
		return a
	}

	for i, h := range parsed {
		t, ok := Clean(h.Table)
		if !ok {
			continue
		}
		stem := fmt.Sprintf("table_%02d", i+1)
		if err := WriteCSV(filepath.Join(outDir, stem+".csv"), t); err != nil {
			a.Err = err
			return a
		}
		item := itemFor(t, nil, stem+".csv")
		if err := WriteFile(filepath.Join(outDir, stem+".html"), h.HTML); err == nil {
			item.HTMLPath = stem + ".html"
		}
		a.Tables = append(a.Tables, Extracted{Item: item, Table: t})
	}
	return a
}

func (d *Docling) convert(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(model.ErrDocumentUnreadable, "docling: read %s: %v", pdfPath, err)
	}

	body, contentType, err := doclingForm(filepath.Base(pdfPath), data)
	if err != nil {
		return "", err
	}

	out, err := resilience.Guarded(ctx, d.retry, d.breaker, func(ctx context.Context) (string, error) {
		return d.post(ctx, body, contentType)
	})
	if err != nil {
		return "", eris.Wrapf(model.ErrEngineFailure, "docling: convert %s: %v", pdfPath, err)
	}
	return out, nil
}

func (d *Docling) post(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+doclingConvertPath, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "docling: create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "docling: http call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "docling: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", resilience.StatusError("docling", resp.StatusCode, respBody)
	}

	var parsed doclingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", eris.Wrap(err, "docling: unmarshal response")
	}
	if parsed.Status == "failure" {
		msg := "conversion failed"
		if len(parsed.Errors) > 0 {
			msg = parsed.Errors[0].Message
		}
		return "", eris.Errorf("docling: %s", msg)
	}
	return parsed.Document.HTMLContent, nil
}

func doclingForm(name string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"to_formats":         "html",
		"do_table_structure": "true",
		"table_mode":         "accurate",
	} {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", eris.Wrap(err, "docling: write form field")
		}
	}
	part, err := w.CreateFormFile("files", name)
	if err != nil {
		return nil, "", eris.Wrap(err, "docling: create form file")
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", eris.Wrap(err, "docling: write form file")
	}
	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "docling: close form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
