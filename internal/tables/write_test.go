package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, WriteCSV(path, Table{Header: []string{"A", "B"}, Rows: [][]string{{"1", "x, y"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,\"x, y\"\n", string(data))
}

func TestWriteCSV_NoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, WriteCSV(path, Table{Rows: [][]string{{"1", "2"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n", string(data))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), WorkbookName)
	tables := []Table{
		{Header: []string{"Item", "Qty"}, Rows: [][]string{{"Apples", "3"}, {"Pears", "5"}}},
		{Rows: [][]string{{"a", "b"}, {"c", "d"}}},
	}
	require.NoError(t, WriteWorkbook(path, tables))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "t01", f.Sheets[0].Name)
	assert.Equal(t, "Item", f.Sheets[0].Rows[0].Cells[0].String())
	assert.Equal(t, "5", f.Sheets[0].Rows[2].Cells[1].String())
	assert.Len(t, f.Sheets[1].Rows, 2)
}
