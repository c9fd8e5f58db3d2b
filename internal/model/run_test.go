package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusQueued, "queued"},
		{RunStatusProbing, "probing"},
		{RunStatusExtracting, "extracting"},
		{RunStatusReconstructing, "reconstructing"},
		{RunStatusPersisting, "persisting"},
		{RunStatusComplete, "complete"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestPhaseStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status PhaseStatus
		want   string
	}{
		{PhaseStatusRunning, "running"},
		{PhaseStatusComplete, "complete"},
		{PhaseStatusFailed, "failed"},
		{PhaseStatusSkipped, "skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRoutingDecision_UseOCR(t *testing.T) {
	assert.True(t, RoutingDecision{Route: RouteOCR, Reason: ReasonRouterOCR}.UseOCR())
	assert.False(t, RoutingDecision{Route: RouteNonOCR, Reason: ReasonOCRDisabled}.UseOCR())
}

func TestTableItem_JSONKeepsNullPage(t *testing.T) {
	data, err := json.Marshal(TableItem{CSVPath: "t.csv", Rows: 2, Cols: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"page":null`)
	assert.Contains(t, string(data), `"path_csv":"t.csv"`)
	assert.NotContains(t, string(data), "path_html")
}

func TestErrorTaxonomy_WrappedIs(t *testing.T) {
	err := eris.Wrap(ErrDocumentUnreadable, "probe: open broken.pdf")
	assert.True(t, errors.Is(err, ErrDocumentUnreadable))
	assert.False(t, errors.Is(err, ErrEngineFailure))
}
