package model

// Route is the extraction path chosen for a document.
type Route string

const (
	RouteOCR    Route = "ocr"
	RouteNonOCR Route = "non_ocr"
)

// Routing reason codes recorded in bundle metadata.
const (
	ReasonRouterOCR            = "router_ocr"
	ReasonRouterNonOCR         = "router_non_ocr"
	ReasonOCRDisabled          = "ocr_disabled_by_flag"
	ReasonForcedMistral        = "forced_mistral"
	ReasonMistralMissing       = "mistral_missing"
	ReasonForcedTesseract      = "forced_tesseract"
	ReasonTesseractUnavailable = "tesseract_unavailable"
	ReasonOCREngineMissing     = "ocr_engine_missing"
)

// PageSample is the probe reading for one sampled page.
type PageSample struct {
	Index      int `json:"index" yaml:"index"`
	CharCount  int `json:"chars" yaml:"chars"`
	ImageCount int `json:"images" yaml:"images"`
}

// DocumentProbe summarizes a bounded sample of a document's pages.
type DocumentProbe struct {
	TotalPages    int          `json:"num_pages" yaml:"num_pages"`
	Samples       []PageSample `json:"pages" yaml:"pages"`
	TextPageCount int          `json:"text_pages" yaml:"text_pages"`
	TextPageRatio float64      `json:"text_page_ratio" yaml:"text_page_ratio"`
}

// RoutingDecision is the final OCR/non-OCR choice plus the reason it was made.
type RoutingDecision struct {
	Route  Route  `json:"routed" yaml:"routed"`
	Reason string `json:"route_reason" yaml:"route_reason"`
}

// UseOCR reports whether the decision selects the OCR path.
func (d RoutingDecision) UseOCR() bool {
	return d.Route == RouteOCR
}

// Table engine names.
const (
	EngineNone     = "none"
	EngineDocling  = "docling"
	EngineMarkdown = "markdown"
	EngineCamelot  = "camelot"
)

// TableItem is one accepted table written by an extraction engine.
type TableItem struct {
	Page         *int    `json:"page"`
	CSVPath      string  `json:"path_csv,omitempty"`
	HTMLPath     string  `json:"path_html,omitempty"`
	MarkdownPath string  `json:"path_md,omitempty"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	Score        float64 `json:"score"`
}

// TableExtractionResult is the document-level outcome of the table cascade.
type TableExtractionResult struct {
	Engine       string      `json:"engine"`
	Count        int         `json:"count"`
	Items        []TableItem `json:"items"`
	Error        string      `json:"error,omitempty"`
	BestCSV      string      `json:"best_csv,omitempty"`
	BestScore    *float64    `json:"best_score,omitempty"`
	WorkbookPath string      `json:"workbook,omitempty"`
}

// ProbeStats is the subset of the probe persisted with a bundle.
type ProbeStats struct {
	NumPages         int     `json:"num_pages"`
	TextPageRatio    float64 `json:"text_page_ratio"`
	TextPagesSampled int     `json:"text_pages_sampled"`
}

// BundleMeta carries the non-text outputs of a document run.
type BundleMeta struct {
	Probe         ProbeStats            `json:"probe"`
	RouteReason   string                `json:"route_reason"`
	TokenCount    int                   `json:"token_count"`
	Tables        TableExtractionResult `json:"tables"`
	SourcePath    string                `json:"source_path"`
	TextEngine    string                `json:"text_engine"`
	MarkdownPages bool                  `json:"markdown_pages"`
}

// DocumentBundle is the immutable record persisted for one document.
type DocumentBundle struct {
	DocumentID  string     `json:"doc_id"`
	Text        string     `json:"text"`
	PageTexts   []string   `json:"page_slices"`
	PageOffsets []int      `json:"page_offsets"`
	Routed      Route      `json:"routed"`
	Language    string     `json:"language"`
	Meta        BundleMeta `json:"meta"`
}

// Summary is the per-document record reported after a successful run.
type Summary struct {
	DocumentID string `json:"doc_id"`
	OutDir     string `json:"out"`
	Routed     Route  `json:"routed"`
	Language   string `json:"language"`
	TokenCount int    `json:"token_count"`
	SourcePath string `json:"source_path"`
}
