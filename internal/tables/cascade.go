package tables

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
)

// Table modes.
const (
	ModeOff     = "off"
	ModeAuto    = "auto"
	ModeDocling = "docling"
	ModeCamelot = "camelot"
)

// WorkbookName is the file name of the combined workbook in the tables directory.
const WorkbookName = "tables.xlsx"

// Extracted is an accepted table with the item describing its files. Item
// paths are relative to the directory the engine wrote into.
type Extracted struct {
	Item  model.TableItem
	Table Table
}

// Attempt is the outcome of running one engine.
type Attempt struct {
	Engine string
	Tables []Extracted
	Err    error
}

// Engine extracts tables from a PDF, writing artifacts into outDir.
type Engine interface {
	Name() string
	Extract(ctx context.Context, pdfPath, outDir string) Attempt
}

// Select picks the first attempt that found any table, or the first attempt
// when none did, and summarizes it.
func Select(attempts []Attempt) model.TableExtractionResult {
	if len(attempts) == 0 {
		return model.TableExtractionResult{Engine: model.EngineNone, Items: []model.TableItem{}}
	}
	chosen := attempts[0]
	for _, a := range attempts {
		if len(a.Tables) > 0 {
			chosen = a
			break
		}
	}
	return summarize(chosen)
}

func summarize(a Attempt) model.TableExtractionResult {
	res := model.TableExtractionResult{
		Engine: a.Engine,
		Count:  len(a.Tables),
		Items:  make([]model.TableItem, 0, len(a.Tables)),
	}
	if a.Err != nil {
		res.Error = a.Err.Error()
	}

	best := -1.0
	for _, t := range a.Tables {
		res.Items = append(res.Items, t.Item)
		if t.Item.CSVPath != "" && t.Item.Score > best {
			best = t.Item.Score
			res.BestCSV = t.Item.CSVPath
		}
	}
	if res.BestCSV != "" {
		score := Round3(best)
		res.BestScore = &score
	}
	return res
}

// Input is the per-document context the cascade needs.
type Input struct {
	PDFPath string
	// OutDir is where table artifacts are written; RelDir is the same
	// directory relative to the bundle root and prefixes recorded paths.
	OutDir string
	RelDir string
	Routed model.Route
	// MarkdownPages holds OCR page output when it was produced in markdown mode.
	MarkdownPages []string
}

// Cascade runs table engines according to Mode.
type Cascade struct {
	Mode     string
	Docling  Engine
	Camelot  Engine
	Workbook bool
}

// Run extracts tables for one document. Engine failures are reported in the
// result's Error field and never returned.
func (c *Cascade) Run(ctx context.Context, in Input) model.TableExtractionResult {
	if c.Mode == ModeOff || c.Mode == "" {
		return Select(nil)
	}
	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return model.TableExtractionResult{
			Engine: model.EngineNone,
			Items:  []model.TableItem{},
			Error:  eris.Wrap(err, "tables: create output dir").Error(),
		}
	}

	var attempts []Attempt
	switch c.Mode {
	case ModeCamelot:
		attempts = append(attempts, run(ctx, c.Camelot, model.EngineCamelot, in))
	case ModeDocling:
		attempts = append(attempts, run(ctx, c.Docling, model.EngineDocling, in))
	default:
		attempts = append(attempts, run(ctx, c.Docling, model.EngineDocling, in))
		if len(attempts[0].Tables) == 0 && in.Routed == model.RouteOCR && len(in.MarkdownPages) > 0 {
			attempts = append(attempts, ExtractMarkdown(in.MarkdownPages, in.OutDir))
		}
		if len(attempts[len(attempts)-1].Tables) == 0 {
			attempts = append(attempts, run(ctx, c.Camelot, model.EngineCamelot, in))
		}
	}

	for _, a := range attempts {
		if a.Err != nil {
			zap.L().Debug("tables: engine error",
				zap.String("engine", a.Engine),
				zap.String("path", in.PDFPath),
				zap.Error(a.Err),
			)
		}
	}

	res := Select(attempts)
	if c.Workbook && res.Count > 0 {
		var chosen []Table
		for _, a := range attempts {
			if a.Engine == res.Engine && len(a.Tables) > 0 {
				for _, t := range a.Tables {
					chosen = append(chosen, t.Table)
				}
				break
			}
		}
		if err := WriteWorkbook(filepath.Join(in.OutDir, WorkbookName), chosen); err != nil {
			zap.L().Warn("tables: workbook not written", zap.String("path", in.PDFPath), zap.Error(err))
		} else {
			res.WorkbookPath = WorkbookName
		}
	}

	relativize(&res, in.RelDir)
	zap.L().Info("tables: extraction complete",
		zap.String("path", in.PDFPath),
		zap.String("engine", res.Engine),
		zap.Int("count", res.Count),
	)
	return res
}

func run(ctx context.Context, e Engine, name string, in Input) Attempt {
	if e == nil {
		return Attempt{Engine: name, Err: eris.Wrapf(model.ErrEngineUnavailable, "%s_not_available", name)}
	}
	return e.Extract(ctx, in.PDFPath, in.OutDir)
}

func relativize(res *model.TableExtractionResult, dir string) {
	if dir == "" {
		return
	}
	join := func(p string) string {
		if p == "" {
			return ""
		}
		return filepath.ToSlash(filepath.Join(dir, p))
	}
	for i := range res.Items {
		res.Items[i].CSVPath = join(res.Items[i].CSVPath)
		res.Items[i].HTMLPath = join(res.Items[i].HTMLPath)
		res.Items[i].MarkdownPath = join(res.Items[i].MarkdownPath)
	}
	res.BestCSV = join(res.BestCSV)
	res.WorkbookPath = join(res.WorkbookPath)
}

// ExtractMarkdown parses pipe tables out of OCR markdown pages. Accepted tables
// are written as page_NNNN_table_KK.md and .csv.
func ExtractMarkdown(pages []string, outDir string) Attempt {
	a := Attempt{Engine: model.EngineMarkdown}
	for i, md := range pages {
		for k, block := range FindPipeTables(md) {
			raw, ok := ParseMarkdownTable(block)
			if !ok {
				continue
			}
			t, ok := Clean(raw)
			if !ok {
				continue
			}
			base := fmt.Sprintf("page_%04d_table_%02d", i+1, k+1)
			if err := WriteFile(filepath.Join(outDir, base+".md"), block+"\n"); err != nil {
				a.Err = err
				return a
			}
			if err := WriteCSV(filepath.Join(outDir, base+".csv"), t); err != nil {
				a.Err = err
				return a
			}
			page := i + 1
			a.Tables = append(a.Tables, Extracted{
				Item: model.TableItem{
					Page:         &page,
					CSVPath:      base + ".csv",
					MarkdownPath: base + ".md",
					Rows:         len(t.Rows),
					Cols:         t.Width(),
					Score:        Score(t),
				},
				Table: t,
			})
		}
	}
	return a
}

func itemFor(t Table, page *int, csvName string) model.TableItem {
	return model.TableItem{
		Page:    page,
		CSVPath: csvName,
		Rows:    len(t.Rows),
		Cols:    t.Width(),
		Score:   Score(t),
	}
}
