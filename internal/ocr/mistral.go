package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR extracts page markdown using the Mistral OCR API.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
}

// MistralOption configures a MistralOCR.
type MistralOption func(*MistralOCR)

// WithMistralEndpoint overrides the API endpoint.
func WithMistralEndpoint(url string) MistralOption {
	return func(m *MistralOCR) {
		if url != "" {
			m.endpoint = url
		}
	}
}

// WithMistralHTTPClient sets the HTTP client.
func WithMistralHTTPClient(c *http.Client) MistralOption {
	return func(m *MistralOCR) { m.client = c }
}

// WithMistralRateLimit caps requests per second. Zero or less disables the limit.
func WithMistralRateLimit(rps float64) MistralOption {
	return func(m *MistralOCR) {
		if rps > 0 {
			m.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			m.limiter = nil
		}
	}
}

// WithMistralRetry sets the retry policy.
func WithMistralRetry(cfg resilience.RetryConfig) MistralOption {
	return func(m *MistralOCR) { m.retry = cfg }
}

// WithMistralBreaker guards calls with a circuit breaker.
func WithMistralBreaker(cb *resilience.CircuitBreaker) MistralOption {
	return func(m *MistralOCR) { m.breaker = cb }
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string, opts ...MistralOption) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	m := &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 5 * time.Minute},
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(m)
	}
	m.retry.OnRetry = resilience.RetryLogger("mistral", "ocr")
	return m
}

// Name implements PageExtractor.
func (m *MistralOCR) Name() string { return EngineMistral }

type mistralOCRRequest struct {
	Model              string             `json:"model"`
	Document           mistralOCRDocument `json:"document"`
	IncludeImageBase64 bool               `json:"include_image_base64"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractPages sends the whole PDF to Mistral OCR and returns one string per
// page, ordered by page index. The API always answers in markdown; in plain
// mode each page is reduced with StripMarkdown.
func (m *MistralOCR) ExtractPages(ctx context.Context, pdfPath string, mode PromptMode) (*Pages, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDocumentUnreadable, "ocr: read PDF %s: %v", pdfPath, err)
	}

	bodyBytes, err := json.Marshal(mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal mistral request")
	}

	resp, err := resilience.Guarded(ctx, m.retry, m.breaker, func(ctx context.Context) (*mistralOCRResponse, error) {
		return m.post(ctx, bodyBytes)
	})
	if err != nil {
		return nil, eris.Wrapf(model.ErrEngineFailure, "ocr: mistral %s: %v", pdfPath, err)
	}

	sort.SliceStable(resp.Pages, func(i, j int) bool { return resp.Pages[i].Index < resp.Pages[j].Index })
	pages := make([]string, len(resp.Pages))
	for i, p := range resp.Pages {
		if mode == ModeMarkdown {
			pages[i] = p.Markdown
			continue
		}
		pages[i] = StripMarkdown(p.Markdown)
	}
	return &Pages{Pages: pages, Engine: EngineMistral, Markdown: mode == ModeMarkdown}, nil
}

func (m *MistralOCR) post(ctx context.Context, body []byte) (*mistralOCRResponse, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ocr: mistral rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("mistral", resp.StatusCode, respBody)
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal mistral response")
	}
	return &ocrResp, nil
}
