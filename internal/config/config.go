package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/docforge/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Text    TextConfig    `yaml:"text" mapstructure:"text"`
	Tables  TablesConfig  `yaml:"tables" mapstructure:"tables"`
	Lang    LangConfig    `yaml:"lang" mapstructure:"lang"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProbeConfig configures page sampling and routing.
type ProbeConfig struct {
	MaxPages          int     `yaml:"max_pages" mapstructure:"max_pages"`
	MinTextRatio      float64 `yaml:"min_text_ratio" mapstructure:"min_text_ratio"`
	TextCharThreshold int     `yaml:"text_char_threshold" mapstructure:"text_char_threshold"`
}

// OCRConfig configures OCR engine selection and the OCR providers.
type OCRConfig struct {
	Engine       string  `yaml:"engine" mapstructure:"engine"`
	PromptMode   string  `yaml:"prompt_mode" mapstructure:"prompt_mode"`
	Lang         string  `yaml:"lang" mapstructure:"lang"`
	DPI          int     `yaml:"dpi" mapstructure:"dpi"`
	MistralKey   string  `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel string  `yaml:"mistral_model" mapstructure:"mistral_model"`
	MistralURL   string  `yaml:"mistral_url" mapstructure:"mistral_url"`
	MistralRPS   float64 `yaml:"mistral_rps" mapstructure:"mistral_rps"`
	PdfToPPMPath string  `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	Tesseract    bool    `yaml:"tesseract" mapstructure:"tesseract"`
}

// TextConfig configures native (non-OCR) text extraction.
type TextConfig struct {
	Engine        string `yaml:"engine" mapstructure:"engine"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// TablesConfig configures the table extraction cascade.
type TablesConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"`
	CamelotPath string `yaml:"camelot_path" mapstructure:"camelot_path"`
	DoclingURL  string `yaml:"docling_url" mapstructure:"docling_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Workbook    bool   `yaml:"workbook" mapstructure:"workbook"`
}

// LangConfig configures language detection.
type LangConfig struct {
	Detector string `yaml:"detector" mapstructure:"detector"`
}

// OutputConfig configures the persisted bundle layout.
type OutputConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	SavePages  bool   `yaml:"save_pages" mapstructure:"save_pages"`
	KeepRecord bool   `yaml:"keep_record" mapstructure:"keep_record"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RetryConfig configures retries for remote engines.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the circuit breaker guarding remote engines.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Recognized enum values.
var (
	OCREngines    = []string{"auto", "off", "mistral", "tesseract"}
	PromptModes   = []string{"markdown", "plain"}
	TextEngines   = []string{"native", "pdftotext"}
	TableModes    = []string{"auto", "docling", "camelot", "off"}
	LangDetectors = []string{"auto", "off"}
	StoreDrivers  = []string{"sqlite", "postgres"}
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "docforge.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("probe.max_pages", 12)
	v.SetDefault("probe.min_text_ratio", 0.55)
	v.SetDefault("probe.text_char_threshold", 40)
	v.SetDefault("ocr.engine", "auto")
	v.SetDefault("ocr.prompt_mode", "markdown")
	v.SetDefault("ocr.lang", "")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.mistral_api_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.mistral_url", "https://api.mistral.ai/v1/ocr")
	v.SetDefault("ocr.mistral_rps", 2.0)
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.tesseract", true)
	v.SetDefault("text.engine", "native")
	v.SetDefault("text.pdftotext_path", "pdftotext")
	v.SetDefault("tables.mode", "auto")
	v.SetDefault("tables.camelot_path", "camelot")
	v.SetDefault("tables.docling_url", "")
	v.SetDefault("tables.timeout_secs", 300)
	v.SetDefault("tables.workbook", true)
	v.SetDefault("lang.detector", "auto")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.save_pages", false)
	v.SetDefault("output.keep_record", false)
	v.SetDefault("batch.workers", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks enum values, numeric bounds and mutually exclusive options.
// Every failure wraps model.ErrConfigurationConflict.
func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"ocr.engine", c.OCR.Engine, OCREngines},
		{"ocr.prompt_mode", c.OCR.PromptMode, PromptModes},
		{"text.engine", c.Text.Engine, TextEngines},
		{"tables.mode", c.Tables.Mode, TableModes},
		{"lang.detector", c.Lang.Detector, LangDetectors},
		{"store.driver", c.Store.Driver, StoreDrivers},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return eris.Wrapf(model.ErrConfigurationConflict, "config: %s=%q (allowed: %s)", ch.name, ch.value, strings.Join(ch.allowed, ", "))
		}
	}

	if c.Probe.MinTextRatio < 0 || c.Probe.MinTextRatio > 1 {
		return eris.Wrapf(model.ErrConfigurationConflict, "config: probe.min_text_ratio=%v must be within [0, 1]", c.Probe.MinTextRatio)
	}
	if c.Probe.MaxPages < 1 {
		return eris.Wrapf(model.ErrConfigurationConflict, "config: probe.max_pages=%d must be >= 1", c.Probe.MaxPages)
	}
	if c.Batch.Workers < 1 {
		return eris.Wrapf(model.ErrConfigurationConflict, "config: batch.workers=%d must be >= 1", c.Batch.Workers)
	}
	if c.OCR.Engine == "off" && c.OCR.Lang != "" {
		return eris.Wrapf(model.ErrConfigurationConflict, "config: ocr.lang=%q given with ocr.engine=off", c.OCR.Lang)
	}
	if c.OCR.Engine == "mistral" && c.OCR.MistralKey == "" {
		return eris.Wrap(model.ErrConfigurationConflict, "config: ocr.engine=mistral requires ocr.mistral_api_key")
	}
	if c.Tables.Mode == "docling" && c.Tables.DoclingURL == "" {
		return eris.Wrap(model.ErrConfigurationConflict, "config: tables.mode=docling requires tables.docling_url")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
