package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_PromotesHeaderAndTrims(t *testing.T) {
	raw := Table{Rows: [][]string{
		{" Region ", "Revenue  USD", ""},
		{"North", "1,5", ""},
		{"", "", ""},
		{"South", "2,25", ""},
	}}

	got, ok := Clean(raw)
	require.True(t, ok)
	assert.Equal(t, []string{"Region", "Revenue USD"}, got.Header)
	assert.Equal(t, [][]string{{"North", "1.5"}, {"South", "2.25"}}, got.Rows)

	// input untouched
	assert.Equal(t, " Region ", raw.Rows[0][0])
}

func TestClean_NoHeaderForLowercaseRow(t *testing.T) {
	raw := Table{Rows: [][]string{
		{"apples", "3"},
		{"pears", "5"},
		{"plums", "7"},
	}}
	got, ok := Clean(raw)
	require.True(t, ok)
	assert.Nil(t, got.Header)
	assert.Len(t, got.Rows, 3)
}

func TestClean_RejectsSmall(t *testing.T) {
	tests := []struct {
		name string
		in   Table
	}{
		{"single column", Table{Rows: [][]string{{"a"}, {"b"}, {"c"}}}},
		{"single row", Table{Rows: [][]string{{"a", "b", "c"}}}},
		{"only header and one row", Table{Rows: [][]string{{"Name", "Age"}, {"bob", "4"}}}},
		{"all empty", Table{Rows: [][]string{{"", " "}, {" ", ""}}}},
		{"empty", Table{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Clean(tt.in)
			assert.False(t, ok)
		})
	}
}

func TestClean_PadsRaggedRows(t *testing.T) {
	raw := Table{Rows: [][]string{
		{"x", "1", "note"},
		{"y", "2"},
		{"z"},
	}}
	got, ok := Clean(raw)
	require.True(t, ok)
	for _, r := range got.Rows {
		assert.Len(t, r, 3)
	}
}

func TestClean_NumericColumnNeedsMajority(t *testing.T) {
	raw := Table{Rows: [][]string{
		{"a", "1,0"},
		{"b", "n/a, pending"},
		{"c", "2,0"},
	}}
	got, ok := Clean(raw)
	require.True(t, ok)
	assert.Equal(t, "1,0", got.Rows[0][1])
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []Table{
		{Rows: [][]string{{"Region", "Total"}, {"north", "1,5"}, {"south", "2"}, {"", ""}}},
		{Rows: [][]string{{"apples", "3", ""}, {"pears", "5", ""}}},
		{Header: []string{"A  b", "C"}, Rows: [][]string{{"1", "2"}, {"3", ""}, {"", ""}}},
		{Rows: [][]string{{"ITEM", "QTY", "NOTE"}, {"x", "1", ""}, {"y", "2", ""}, {"z", "", ""}}},
	}
	for _, in := range inputs {
		once, ok := Clean(in)
		require.True(t, ok)
		twice, ok := Clean(once)
		require.True(t, ok)
		assert.Equal(t, once, twice)
	}
}

func TestScore(t *testing.T) {
	full := Table{Header: []string{"A", "B"}, Rows: [][]string{{"1", "2"}, {"3", "4"}}}
	assert.InDelta(t, 4*1.2, Score(full), 1e-9)

	noHeader := Table{Rows: [][]string{{"1", "2"}, {"3", "4"}}}
	assert.InDelta(t, 4.0, Score(noHeader), 1e-9)

	blankName := Table{Header: []string{"A", ""}, Rows: [][]string{{"1", "2"}, {"3", "4"}}}
	assert.InDelta(t, 4.0, Score(blankName), 1e-9)

	sparse := Table{Rows: [][]string{{"1", ""}, {"3", "4"}}}
	assert.InDelta(t, 4.0/(1+10*0.25), Score(sparse), 1e-9)

	assert.Zero(t, Score(Table{}))
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.143, Round3(1.142857))
	assert.Equal(t, 4.8, Round3(4.8))
}

func TestIsTitleAndUpper(t *testing.T) {
	assert.True(t, isTitle("Revenue"))
	assert.True(t, isTitle("Q1"))
	assert.False(t, isTitle("revenue"))
	assert.False(t, isTitle("ReVenue"))
	assert.False(t, isTitle("2023"))
	assert.True(t, isUpper("USD"))
	assert.False(t, isUpper("Usd"))
	assert.False(t, isUpper("42"))
}
