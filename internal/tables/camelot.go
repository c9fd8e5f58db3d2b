package tables

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
)

// Camelot passes, in the order they run.
var camelotFlavors = []string{"lattice", "stream"}

var camelotFile = regexp.MustCompile(`-page-(\d+)-table-(\d+)\.csv$`)

// Camelot extracts tables by running the camelot CLI twice: a ruled-line
// (lattice) pass and then a borderless (stream) pass.
type Camelot struct {
	binPath string
}

// NewCamelot creates a Camelot engine. If binPath is empty, "camelot" is used.
func NewCamelot(binPath string) *Camelot {
	if binPath == "" {
		binPath = "camelot"
	}
	return &Camelot{binPath: binPath}
}

// Name implements Engine.
func (c *Camelot) Name() string { return model.EngineCamelot }

// Available reports whether the camelot binary can be found.
func (c *Camelot) Available() error {
	if _, err := exec.LookPath(c.binPath); err != nil {
		return eris.Wrapf(model.ErrEngineUnavailable, "camelot_not_available: %v", err)
	}
	return nil
}

// Extract implements Engine. Items from both passes are concatenated and
// written as camelot_<flavor>_NN.csv. A failing pass is skipped.
func (c *Camelot) Extract(ctx context.Context, pdfPath, outDir string) Attempt {
	a := Attempt{Engine: model.EngineCamelot}
	if err := c.Available(); err != nil {
		a.Err = err
		return a
	}

	for _, flavor := range camelotFlavors {
		raw, err := c.pass(ctx, flavor, pdfPath)
		if err != nil {
			zap.L().Debug("tables: camelot pass failed",
				zap.String("flavor", flavor),
				zap.String("path", pdfPath),
				zap.Error(err),
			)
			continue
		}
		for idx, r := range raw {
			t, ok := Clean(r.table)
			if !ok {
				continue
			}
			name := fmt.Sprintf("camelot_%s_%02d.csv", flavor, idx+1)
			if err := WriteCSV(filepath.Join(outDir, name), t); err != nil {
				a.Err = err
				return a
			}
			page := r.page
			a.Tables = append(a.Tables, Extracted{Item: itemFor(t, &page, name), Table: t})
		}
	}
	return a
}

type pageTable struct {
	page, index int
	table       Table
}

func (c *Camelot) pass(ctx context.Context, flavor, pdfPath string) ([]pageTable, error) {
	tmp, err := os.MkdirTemp("", "docforge-camelot-*")
	if err != nil {
		return nil, eris.Wrap(err, "tables: camelot temp dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	out := filepath.Join(tmp, flavor+".csv")
	cmd := exec.CommandContext(ctx, c.binPath, "--format", "csv", "--output", out, "--pages", "all", flavor, pdfPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(model.ErrEngineFailure, "tables: camelot %s failed for %s: %v: %s", flavor, pdfPath, err, stderr.String())
	}
	return readCamelotDir(tmp)
}

// readCamelotDir loads the per-table CSV files camelot writes, named
// <stem>-page-<P>-table-<T>.csv, ordered by page then table.
func readCamelotDir(dir string) ([]pageTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "tables: read camelot output")
	}

	var out []pageTable
	for _, e := range entries {
		m := camelotFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, _ := strconv.Atoi(m[1])
		index, _ := strconv.Atoi(m[2])
		rows, err := readCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, pageTable{page: page, index: index, table: Table{Rows: rows}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].page != out[j].page {
			return out[i].page < out[j].page
		}
		return out[i].index < out[j].index
	})
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tables: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "tables: parse %s", path)
	}
	return rows, nil
}
