package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/config"
	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/pipeline"
)

var runInput string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a PDF or a directory of PDFs into document bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyRunFlags(cmd, cfg); err != nil {
			return err
		}

		paths, err := discoverPDFs(runInput)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintln(os.Stderr, "No PDFs found.")
			return &exitError{code: 2, msg: "no PDFs found"}
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res := pipeline.Batch(ctx, env.Pipeline, paths, cfg.Batch.Workers, os.Stderr)
		if err := writeSummaries(os.Stdout, res.Summaries); err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.Int("documents", len(paths)),
			zap.Int("succeeded", len(res.Summaries)),
			zap.Int("failed", len(res.Failures)),
		)
		return nil
	},
}

// applyRunFlags overrides config values with the flags the user set.
func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}

	set("out", func() (e error) { c.Output.Dir, e = f.GetString("out"); return })
	set("workers", func() (e error) { c.Batch.Workers, e = f.GetInt("workers"); return })
	set("ocr-engine", func() (e error) { c.OCR.Engine, e = f.GetString("ocr-engine"); return })
	set("ocr-lang", func() (e error) { c.OCR.Lang, e = f.GetString("ocr-lang"); return })
	set("prompt-mode", func() (e error) { c.OCR.PromptMode, e = f.GetString("prompt-mode"); return })
	set("text-engine", func() (e error) { c.Text.Engine, e = f.GetString("text-engine"); return })
	set("tables", func() (e error) { c.Tables.Mode, e = f.GetString("tables"); return })
	set("max-pages", func() (e error) { c.Probe.MaxPages, e = f.GetInt("max-pages"); return })
	set("min-text-ratio", func() (e error) { c.Probe.MinTextRatio, e = f.GetFloat64("min-text-ratio"); return })
	set("save-pages", func() (e error) { c.Output.SavePages, e = f.GetBool("save-pages"); return })
	set("keep-record", func() (e error) { c.Output.KeepRecord, e = f.GetBool("keep-record"); return })

	return eris.Wrap(err, "run: read flags")
}

// discoverPDFs returns input itself when it is a file, or every *.pdf
// (case-insensitive) below it when it is a directory, sorted.
func discoverPDFs(input string) ([]string, error) {
	if input == "" {
		return nil, eris.Wrap(model.ErrConfigurationConflict, "run: --input is required")
	}
	info, err := os.Stat(input)
	if err != nil {
		return nil, eris.Wrapf(err, "run: stat %s", input)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var paths []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "run: walk %s", input)
	}
	sort.Strings(paths)
	return paths, nil
}

// writeSummaries prints one JSON summary per line.
func writeSummaries(w io.Writer, summaries []model.Summary) error {
	enc := json.NewEncoder(w)
	for _, s := range summaries {
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "run: write summary")
		}
	}
	return nil
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runInput, "input", "", "PDF file or directory of PDFs (required)")
	f.String("out", "", "output root directory")
	f.Int("workers", 0, "documents processed concurrently")
	f.String("ocr-engine", "", "OCR engine: auto, off, mistral, tesseract")
	f.String("ocr-lang", "", "OCR language hint, e.g. eng+deu")
	f.String("prompt-mode", "", "OCR prompt mode: markdown, plain")
	f.String("text-engine", "", "native text engine: native, pdftotext")
	f.String("tables", "", "table mode: auto, docling, camelot, off")
	f.Int("max-pages", 0, "maximum pages sampled by the probe")
	f.Float64("min-text-ratio", 0, "text-page ratio below which documents are OCR-routed")
	f.Bool("save-pages", false, "write per-page text files")
	f.Bool("keep-record", false, "write the full bundle as record.json")
	rootCmd.AddCommand(runCmd)
}
