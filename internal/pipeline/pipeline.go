// Package pipeline runs documents through probe, routing, text extraction,
// table extraction, reconstruction, assembly and persistence, recording each
// phase in the run ledger.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/bundle"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/ocr"
	"github.com/sells-group/docforge/internal/probe"
	"github.com/sells-group/docforge/internal/reconstruct"
	"github.com/sells-group/docforge/internal/router"
	"github.com/sells-group/docforge/internal/store"
	"github.com/sells-group/docforge/internal/tables"
)

// TableExtractor runs the table cascade for one document.
type TableExtractor interface {
	Run(ctx context.Context, in tables.Input) model.TableExtractionResult
}

// Engines are the page text sources. Mistral and Tesseract may be nil when
// not configured or not installed.
type Engines struct {
	Text      ocr.PageExtractor
	Mistral   ocr.PageExtractor
	Tesseract ocr.PageExtractor
}

// Availability reports which OCR engines can be routed to.
func (e Engines) Availability() router.Availability {
	return router.Availability{Mistral: e.Mistral != nil, Tesseract: e.Tesseract != nil}
}

// ocrChain returns the extractor for an OCR decision: forced Tesseract runs
// alone, everything else tries Mistral first and falls back to Tesseract.
func (e Engines) ocrChain(reason string) ocr.PageExtractor {
	if reason == model.ReasonForcedTesseract {
		return ocr.NewFailover(e.Tesseract)
	}
	return ocr.NewFailover(e.Mistral, e.Tesseract)
}

// Options tunes a Pipeline.
type Options struct {
	MaxPages     int
	OCREngine    string
	// MinTextRatio is used as given, so 0 never routes to OCR. A negative
	// value selects router.DefaultMinTextRatio.
	MinTextRatio float64
	PromptMode   ocr.PromptMode
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Store       store.Store
	Prober      probe.Prober
	Engines     Engines
	Tables      TableExtractor
	Reconstruct *reconstruct.Pipeline
	Assembler   *bundle.Assembler
	Writer      *bundle.Writer
}

// Pipeline processes one document at a time; it is safe for concurrent use
// as long as its collaborators are.
type Pipeline struct {
	deps Deps
	opts Options
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if opts.MaxPages <= 0 {
		opts.MaxPages = probe.DefaultMaxPages
	}
	if opts.MinTextRatio < 0 {
		opts.MinTextRatio = router.DefaultMinTextRatio
	}
	if opts.OCREngine == "" {
		opts.OCREngine = router.EngineAuto
	}
	if opts.PromptMode == "" {
		opts.PromptMode = ocr.ModeMarkdown
	}
	if deps.Reconstruct == nil {
		deps.Reconstruct = reconstruct.New(reconstruct.DefaultOptions())
	}
	if deps.Assembler == nil {
		deps.Assembler = bundle.NewAssembler(nil, nil)
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Outcome is the result of a successful document run.
type Outcome struct {
	RunID   string
	Bundle  *model.DocumentBundle
	Summary model.Summary
}

// Run processes the PDF at path and persists its bundle. Any error is
// confined to this document; the run is marked failed in the ledger.
func (p *Pipeline) Run(ctx context.Context, path string) (*Outcome, error) {
	return p.RunAs(ctx, path, path)
}

// RunAs is Run for a file staged away from its origin. source is what the
// ledger and the bundle record as the document's source path.
func (p *Pipeline) RunAs(ctx context.Context, path, source string) (*Outcome, error) {
	log := zap.L().With(zap.String("path", path), zap.String("source", source))
	log.Info("pipeline: starting document")

	run, err := p.deps.Store.CreateRun(ctx, source)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	setStatus := func(status model.RunStatus) {
		if statusErr := p.deps.Store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	var phases []model.PhaseResult
	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		phase, phaseErr := p.deps.Store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		switch {
		case fnErr != nil:
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		case phaseResult.Status == model.PhaseStatusSkipped:
			log.Debug("pipeline: phase skipped", zap.String("phase", name))
		default:
			phaseResult.Status = model.PhaseStatusComplete
			log.Debug("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			if err := p.deps.Store.CompletePhase(ctx, phase.ID, phaseResult); err != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
			}
		}
		phases = append(phases, *phaseResult)
		return fnErr
	}

	fail := func(err error) (*Outcome, error) {
		setStatus(model.RunStatusFailed)
		if ferr := p.deps.Store.FailRun(ctx, run.ID, err.Error()); ferr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(ferr))
		}
		return nil, err
	}

	// Probe
	setStatus(model.RunStatusProbing)
	var (
		docID string
		probed *model.DocumentProbe
	)
	err = trackPhase(model.PhaseProbe, func() (*model.PhaseResult, error) {
		id, err := bundle.DocumentID(path)
		if err != nil {
			return nil, err
		}
		docID = id
		pr, err := p.deps.Prober.Probe(ctx, path, p.opts.MaxPages)
		if err != nil {
			return nil, err
		}
		probed = pr
		return &model.PhaseResult{Metadata: map[string]any{
			"doc_id":          docID,
			"num_pages":       pr.TotalPages,
			"sampled":         len(pr.Samples),
			"text_page_ratio": pr.TextPageRatio,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}
	log = log.With(zap.String("doc", docID))

	// Route
	var decision model.RoutingDecision
	_ = trackPhase(model.PhaseRoute, func() (*model.PhaseResult, error) {
		decision = router.Decide(probed, router.Policy{
			Engine:       p.opts.OCREngine,
			MinTextRatio: p.opts.MinTextRatio,
			Available:    p.deps.Engines.Availability(),
		})
		return &model.PhaseResult{Metadata: map[string]any{
			"routed": string(decision.Route),
			"reason": decision.Reason,
		}}, nil
	})

	// Extract page text
	setStatus(model.RunStatusExtracting)
	var pages *ocr.Pages
	err = trackPhase(model.PhaseExtract, func() (*model.PhaseResult, error) {
		extractor := p.deps.Engines.Text
		mode := ocr.ModePlain
		if decision.UseOCR() {
			extractor = p.deps.Engines.ocrChain(decision.Reason)
			mode = p.opts.PromptMode
		}
		if extractor == nil {
			return nil, eris.Wrap(model.ErrEngineUnavailable, "pipeline: no text extractor configured")
		}
		out, err := extractor.ExtractPages(ctx, path, mode)
		if err != nil {
			return nil, err
		}
		pages = out
		return &model.PhaseResult{Metadata: map[string]any{
			"engine":   out.Engine,
			"pages":    len(out.Pages),
			"markdown": out.Markdown,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	staging, err := p.deps.Writer.Stage(docID)
	if err != nil {
		return fail(err)
	}
	defer staging.Discard()

	// Tables
	var tableResult model.TableExtractionResult
	_ = trackPhase(model.PhaseTables, func() (*model.PhaseResult, error) {
		if p.deps.Tables == nil {
			tableResult = model.TableExtractionResult{Engine: model.EngineNone, Items: []model.TableItem{}}
			return &model.PhaseResult{Status: model.PhaseStatusSkipped}, nil
		}
		in := tables.Input{
			PDFPath: path,
			OutDir:  staging.TablesDir(),
			RelDir:  bundle.TablesDir,
			Routed:  decision.Route,
		}
		if pages.Markdown {
			in.MarkdownPages = pages.Pages
		}
		tableResult = p.deps.Tables.Run(ctx, in)
		return &model.PhaseResult{Metadata: map[string]any{
			"engine": tableResult.Engine,
			"count":  tableResult.Count,
			"error":  tableResult.Error,
		}}, nil
	})

	// Reconstruct
	setStatus(model.RunStatusReconstructing)
	var text reconstruct.Result
	_ = trackPhase(model.PhaseReconstruct, func() (*model.PhaseResult, error) {
		text = p.deps.Reconstruct.Run(pages.Pages)
		return &model.PhaseResult{Metadata: map[string]any{
			"bytes": len(text.Text),
		}}, nil
	})

	// Assemble
	var doc *model.DocumentBundle
	err = trackPhase(model.PhaseAssemble, func() (*model.PhaseResult, error) {
		b, err := p.deps.Assembler.Assemble(bundle.Input{
			DocumentID:    docID,
			SourcePath:    source,
			Text:          text,
			Probe:         probed,
			Decision:      decision,
			Tables:        tableResult,
			TextEngine:    pages.Engine,
			MarkdownPages: pages.Markdown,
		})
		if err != nil {
			return nil, err
		}
		doc = b
		return &model.PhaseResult{Metadata: map[string]any{
			"language":    b.Language,
			"token_count": b.Meta.TokenCount,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	// Persist
	setStatus(model.RunStatusPersisting)
	var outDir string
	err = trackPhase(model.PhasePersist, func() (*model.PhaseResult, error) {
		dir, err := p.deps.Writer.Commit(staging, doc)
		if err != nil {
			return nil, err
		}
		outDir = dir
		return &model.PhaseResult{Metadata: map[string]any{"out": dir}}, nil
	})
	if err != nil {
		return fail(err)
	}

	summary := bundle.Summarize(doc, outDir)
	runResult := &model.RunResult{
		DocumentID:  doc.DocumentID,
		OutDir:      outDir,
		Routed:      doc.Routed,
		RouteReason: doc.Meta.RouteReason,
		Language:    doc.Language,
		TokenCount:  doc.Meta.TokenCount,
		TableEngine: tableResult.Engine,
		TableCount:  tableResult.Count,
		Phases:      phases,
	}
	if saveErr := p.deps.Store.UpdateRunResult(ctx, run.ID, runResult); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}

	log.Info("pipeline: document complete",
		zap.String("routed", string(doc.Routed)),
		zap.String("route_reason", doc.Meta.RouteReason),
		zap.String("engine", pages.Engine),
		zap.Int("tables", tableResult.Count),
		zap.Int("tokens", doc.Meta.TokenCount),
	)

	return &Outcome{RunID: run.ID, Bundle: doc, Summary: summary}, nil
}
