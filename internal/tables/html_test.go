package tables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTMLTables(t *testing.T) {
	doc := `<html><body>
<p>intro</p>
<table>
  <thead><tr><th>Region</th><th>Sales</th></tr></thead>
  <tbody>
    <tr><td>North</td><td>10</td></tr>
    <tr><td>South <br>East</td><td>20</td></tr>
  </tbody>
</table>
<table>
  <tr><td colspan="2">Merged</td></tr>
  <tr><td>a</td><td>b</td></tr>
</table>
</body></html>`

	got, err := ParseHTMLTables(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"Region", "Sales"}, got[0].Header)
	assert.Equal(t, [][]string{{"North", "10"}, {"South East", "20"}}, got[0].Rows)
	assert.True(t, strings.HasPrefix(got[0].HTML, "<table>"))

	assert.Nil(t, got[1].Header)
	assert.Equal(t, [][]string{{"Merged", "Merged"}, {"a", "b"}}, got[1].Rows)
}

func TestParseHTMLTables_HeaderRowOfTH(t *testing.T) {
	got, err := ParseHTMLTables(strings.NewReader(`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"A", "B"}, got[0].Header)
	assert.Equal(t, [][]string{{"1", "2"}}, got[0].Rows)
}

func TestParseHTMLTables_Nested(t *testing.T) {
	got, err := ParseHTMLTables(strings.NewReader(`<table><tr><td>outer<table><tr><td>inner</td></tr></table></td></tr></table>`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, [][]string{{"inner"}}, got[1].Rows)
}

func TestParseHTMLTables_None(t *testing.T) {
	got, err := ParseHTMLTables(strings.NewReader("<p>no tables</p>"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
