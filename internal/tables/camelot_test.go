package tables

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docforge/internal/model"
)

func TestCamelot_Unavailable(t *testing.T) {
	c := NewCamelot(filepath.Join(t.TempDir(), "camelot-missing"))
	require.Error(t, c.Available())

	a := c.Extract(context.Background(), "doc.pdf", t.TempDir())
	require.Error(t, a.Err)
	assert.True(t, errors.Is(a.Err, model.ErrEngineUnavailable))
	assert.Contains(t, a.Err.Error(), "camelot_not_available")
	assert.Equal(t, model.EngineCamelot, a.Engine)
}

func TestNewCamelot_DefaultBinary(t *testing.T) {
	assert.Equal(t, "camelot", NewCamelot("").binPath)
}

func TestReadCamelotDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"lattice-page-2-table-1.csv": "\"Name\",\"Qty\"\n\"a\",\"1\"\n\"b\",\"2\"\n",
		"lattice-page-1-table-2.csv": "x,y\n1,2\n",
		"lattice-page-1-table-1.csv": "p,q\n3,4\n",
		"notes.txt":                  "ignored",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	got, err := readCamelotDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].page)
	assert.Equal(t, 1, got[0].index)
	assert.Equal(t, [][]string{{"p", "q"}, {"3", "4"}}, got[0].table.Rows)
	assert.Equal(t, 2, got[1].index)
	assert.Equal(t, 2, got[2].page)
	assert.Equal(t, []string{"Name", "Qty"}, got[2].table.Rows[0])
}
