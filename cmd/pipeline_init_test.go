package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docforge/internal/config"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/ocr"
	"github.com/sells-group/docforge/internal/resilience"
)

func testConfig() *config.Config {
	return &config.Config{
		Probe:   config.ProbeConfig{MaxPages: 8, MinTextRatio: 0.4, TextCharThreshold: 40},
		OCR:     config.OCRConfig{Engine: "auto", PromptMode: "plain", DPI: 300, PdfToPPMPath: "/nonexistent/pdftoppm"},
		Text:    config.TextConfig{Engine: "native"},
		Tables:  config.TablesConfig{Mode: "auto", TimeoutSecs: 60},
		Retry:   config.RetryConfig{MaxAttempts: 2},
		Circuit: config.CircuitConfig{FailureThreshold: 3, ResetTimeoutSecs: 10},
	}
}

func testBreakers(c *config.Config) *resilience.ServiceBreakers {
	return resilience.NewServiceBreakers(resilience.BreakerFromConfig(c.Circuit))
}

func TestBuildEngines_NativeOnly(t *testing.T) {
	c := testConfig()
	env := &pipelineEnv{}

	engines, err := buildEngines(c, testBreakers(c), env)
	require.NoError(t, err)
	assert.Equal(t, ocr.EngineNative, engines.Text.Name())
	assert.Nil(t, engines.Mistral)
	assert.Nil(t, engines.Tesseract)
	assert.Empty(t, env.closers)
}

func TestBuildEngines_Mistral(t *testing.T) {
	c := testConfig()
	c.OCR.MistralKey = "key"

	engines, err := buildEngines(c, testBreakers(c), &pipelineEnv{})
	require.NoError(t, err)
	require.NotNil(t, engines.Mistral)
	assert.Equal(t, ocr.EngineMistral, engines.Mistral.Name())
	assert.True(t, engines.Availability().Mistral)
}

func TestBuildEngines_OCROff(t *testing.T) {
	c := testConfig()
	c.OCR.Engine = "off"
	c.OCR.MistralKey = "key"
	c.OCR.Tesseract = true

	engines, err := buildEngines(c, testBreakers(c), &pipelineEnv{})
	require.NoError(t, err)
	assert.Nil(t, engines.Mistral)
	assert.Nil(t, engines.Tesseract)
}

func TestBuildEngines_TesseractWithoutRenderer(t *testing.T) {
	c := testConfig()
	c.OCR.Tesseract = true

	engines, err := buildEngines(c, testBreakers(c), &pipelineEnv{})
	require.NoError(t, err)
	assert.Nil(t, engines.Tesseract)
}

func TestBuildEngines_PdfToTextMissing(t *testing.T) {
	c := testConfig()
	c.Text.Engine = "pdftotext"
	c.Text.PdfToTextPath = "/nonexistent/pdftotext"

	_, err := buildEngines(c, testBreakers(c), &pipelineEnv{})
	assert.ErrorIs(t, err, model.ErrEngineUnavailable)
}

func TestBuildTables(t *testing.T) {
	c := testConfig()
	cascade := buildTables(c, testBreakers(c))
	assert.Equal(t, "auto", cascade.Mode)
	assert.Nil(t, cascade.Docling)
	assert.NotNil(t, cascade.Camelot)

	c.Tables.DoclingURL = "http://localhost:5001"
	cascade = buildTables(c, testBreakers(c))
	assert.NotNil(t, cascade.Docling)
}

func TestPipelineOptions(t *testing.T) {
	opts := pipelineOptions(testConfig())
	assert.Equal(t, 8, opts.MaxPages)
	assert.Equal(t, "auto", opts.OCREngine)
	assert.InDelta(t, 0.4, opts.MinTextRatio, 1e-9)
	assert.Equal(t, ocr.ModePlain, opts.PromptMode)
}
