package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/bundle"
	"github.com/sells-group/docforge/internal/config"
	"github.com/sells-group/docforge/internal/langdetect"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/ocr"
	"github.com/sells-group/docforge/internal/ocr/tesseract"
	"github.com/sells-group/docforge/internal/pipeline"
	"github.com/sells-group/docforge/internal/probe"
	"github.com/sells-group/docforge/internal/reconstruct"
	"github.com/sells-group/docforge/internal/resilience"
	"github.com/sells-group/docforge/internal/router"
	"github.com/sells-group/docforge/internal/store"
	"github.com/sells-group/docforge/internal/tables"
	"github.com/sells-group/docforge/internal/tokens"
)

// pipelineEnv holds the store, engines and pipeline needed by the run and
// serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Engines  pipeline.Engines
	closers  []func() error
}

// Close releases engine handles and the store.
func (pe *pipelineEnv) Close() {
	for _, c := range pe.closers {
		if err := c(); err != nil {
			zap.L().Warn("close engine", zap.Error(err))
		}
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config, opens the store, builds every engine
// once and wires the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env := &pipelineEnv{}
	breakers := resilience.NewServiceBreakers(resilience.BreakerFromConfig(cfg.Circuit))
	engines, err := buildEngines(cfg, breakers, env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Engines = engines

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "open store")
	}
	env.Store = st

	writer := bundle.NewWriter(cfg.Output.Dir,
		bundle.WithPageFiles(cfg.Output.SavePages),
		bundle.WithRecord(cfg.Output.KeepRecord),
	)

	env.Pipeline = pipeline.New(pipeline.Deps{
		Store:       st,
		Prober:      probe.NewPDFProber(cfg.Probe.TextCharThreshold),
		Engines:     engines,
		Tables:      buildTables(cfg, breakers),
		Reconstruct: reconstruct.New(reconstruct.DefaultOptions()),
		Assembler:   bundle.NewAssembler(langdetect.New(cfg.Lang.Detector), tokens.New(tokens.DefaultEncoding)),
		Writer:      writer,
	}, pipelineOptions(cfg))

	zap.L().Info("pipeline ready",
		zap.String("text_engine", engines.Text.Name()),
		zap.Bool("mistral", engines.Mistral != nil),
		zap.Bool("tesseract", engines.Tesseract != nil),
		zap.String("tables", cfg.Tables.Mode),
		zap.String("out", cfg.Output.Dir),
	)
	return env, nil
}

func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		MaxPages:     c.Probe.MaxPages,
		OCREngine:    c.OCR.Engine,
		MinTextRatio: c.Probe.MinTextRatio,
		PromptMode:   ocr.PromptMode(c.OCR.PromptMode),
	}
}

// buildEngines creates the text extractor and whichever OCR engines are
// configured and installed. Handles needing release are registered on env.
func buildEngines(c *config.Config, breakers *resilience.ServiceBreakers, env *pipelineEnv) (pipeline.Engines, error) {
	var engines pipeline.Engines

	switch c.Text.Engine {
	case "pdftotext":
		p := ocr.NewPdfToText(c.Text.PdfToTextPath)
		if err := p.Available(); err != nil {
			return engines, err
		}
		engines.Text = p
	default:
		engines.Text = ocr.NewNativeText()
	}

	if c.OCR.Engine == router.EngineOff {
		return engines, nil
	}

	retry := resilience.RetryFromConfig(c.Retry)

	if c.OCR.MistralKey != "" {
		engines.Mistral = ocr.NewMistralOCR(c.OCR.MistralKey, c.OCR.MistralModel,
			ocr.WithMistralEndpoint(c.OCR.MistralURL),
			ocr.WithMistralRateLimit(c.OCR.MistralRPS),
			ocr.WithMistralRetry(retry),
			ocr.WithMistralBreaker(breakers.Get(ocr.EngineMistral)),
		)
	} else {
		zap.L().Debug("DOCFORGE_OCR_MISTRAL_API_KEY not set, mistral OCR disabled")
	}

	if c.OCR.Tesseract {
		renderer := ocr.NewPdfToPPM(c.OCR.PdfToPPMPath, c.OCR.DPI)
		if err := renderer.Available(); err != nil {
			zap.L().Warn("tesseract OCR disabled", zap.Error(err))
		} else {
			lang := c.OCR.Lang
			if lang == "" {
				lang = "eng"
			}
			t := tesseract.New(renderer, tesseract.NewClientPool(lang, c.OCR.DPI))
			env.closers = append(env.closers, t.Close)
			engines.Tesseract = t
		}
	}

	return engines, nil
}

// buildTables wires the table cascade. A missing docling URL leaves that
// engine nil, which the cascade reports as unavailable.
func buildTables(c *config.Config, breakers *resilience.ServiceBreakers) *tables.Cascade {
	cascade := &tables.Cascade{
		Mode:     c.Tables.Mode,
		Camelot:  tables.NewCamelot(c.Tables.CamelotPath),
		Workbook: c.Tables.Workbook,
	}
	if c.Tables.DoclingURL != "" {
		cascade.Docling = tables.NewDocling(c.Tables.DoclingURL,
			time.Duration(c.Tables.TimeoutSecs)*time.Second,
			tables.WithDoclingRetry(resilience.RetryFromConfig(c.Retry)),
			tables.WithDoclingBreaker(breakers.Get(model.EngineDocling)),
		)
	}
	return cascade
}
