package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "docforge.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 12, cfg.Probe.MaxPages)
	assert.InDelta(t, 0.55, cfg.Probe.MinTextRatio, 0.001)
	assert.Equal(t, 40, cfg.Probe.TextCharThreshold)
	assert.Equal(t, "auto", cfg.OCR.Engine)
	assert.Equal(t, "markdown", cfg.OCR.PromptMode)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.True(t, cfg.OCR.Tesseract)
	assert.Equal(t, "native", cfg.Text.Engine)
	assert.Equal(t, "pdftotext", cfg.Text.PdfToTextPath)
	assert.Equal(t, "auto", cfg.Tables.Mode)
	assert.Equal(t, "camelot", cfg.Tables.CamelotPath)
	assert.True(t, cfg.Tables.Workbook)
	assert.Equal(t, "auto", cfg.Lang.Detector)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.False(t, cfg.Output.SavePages)
	assert.False(t, cfg.Output.KeepRecord)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/docforge
log:
  level: debug
  format: console
probe:
  min_text_ratio: 0.7
tables:
  mode: camelot
batch:
  workers: 8
output:
  save_pages: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 0.7, cfg.Probe.MinTextRatio, 0.001)
	assert.Equal(t, "camelot", cfg.Tables.Mode)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Output.SavePages)
	// Defaults still apply for unset values
	assert.Equal(t, 12, cfg.Probe.MaxPages)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ocr:\n  engine: off\n"), 0644))
	t.Setenv("DOCFORGE_OCR_ENGINE", "tesseract")
	t.Setenv("DOCFORGE_BATCH_WORKERS", "6")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tesseract", cfg.OCR.Engine)
	assert.Equal(t, 6, cfg.Batch.Workers)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("probe: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func validConfig() *Config {
	return &Config{
		Store:  StoreConfig{Driver: "sqlite"},
		Probe:  ProbeConfig{MaxPages: 12, MinTextRatio: 0.55},
		OCR:    OCRConfig{Engine: "auto", PromptMode: "markdown"},
		Text:   TextConfig{Engine: "native"},
		Tables: TablesConfig{Mode: "auto"},
		Lang:   LangConfig{Detector: "auto"},
		Batch:  BatchConfig{Workers: 2},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown ocr engine", func(c *Config) { c.OCR.Engine = "deepseek" }, `ocr.engine="deepseek"`},
		{"unknown prompt mode", func(c *Config) { c.OCR.PromptMode = "html" }, "ocr.prompt_mode"},
		{"unknown text engine", func(c *Config) { c.Text.Engine = "pymupdf" }, "text.engine"},
		{"unknown table mode", func(c *Config) { c.Tables.Mode = "tabula" }, "tables.mode"},
		{"unknown lang detector", func(c *Config) { c.Lang.Detector = "cld3" }, "lang.detector"},
		{"unknown store driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"ratio above one", func(c *Config) { c.Probe.MinTextRatio = 1.5 }, "min_text_ratio"},
		{"ratio below zero", func(c *Config) { c.Probe.MinTextRatio = -0.1 }, "min_text_ratio"},
		{"zero max pages", func(c *Config) { c.Probe.MaxPages = 0 }, "probe.max_pages"},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"ocr off with lang", func(c *Config) { c.OCR.Engine = "off"; c.OCR.Lang = "deu" }, "ocr.engine=off"},
		{"mistral without key", func(c *Config) { c.OCR.Engine = "mistral" }, "mistral_api_key"},
		{"mistral with key", func(c *Config) { c.OCR.Engine = "mistral"; c.OCR.MistralKey = "k" }, ""},
		{"docling without url", func(c *Config) { c.Tables.Mode = "docling" }, "docling_url"},
		{"tesseract with lang", func(c *Config) { c.OCR.Engine = "tesseract"; c.OCR.Lang = "fra" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfigurationConflict))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
