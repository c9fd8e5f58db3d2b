package tables

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteCSV writes t to path, header first when present.
func WriteCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "tables: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if t.Header != nil {
		if err := w.Write(t.Header); err != nil {
			return eris.Wrap(err, "tables: write csv header")
		}
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "tables: write csv rows")
	}
	return nil
}

// WriteFile writes a text artifact such as an HTML or Markdown snippet.
func WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "tables: write %s", path)
	}
	return nil
}

// WriteWorkbook writes one sheet per table to an .xlsx file. Sheets are named
// t01, t02, ... in table order.
func WriteWorkbook(path string, tables []Table) error {
	file := xlsx.NewFile()
	for i, t := range tables {
		sheet, err := file.AddSheet(fmt.Sprintf("t%02d", i+1))
		if err != nil {
			return eris.Wrapf(err, "tables: add sheet %d", i+1)
		}
		if t.Header != nil {
			addRow(sheet, t.Header)
		}
		for _, r := range t.Rows {
			addRow(sheet, r)
		}
	}
	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "tables: save workbook %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
