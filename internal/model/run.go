package model

import "time"

// RunStatus represents the current state of a document run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusProbing        RunStatus = "probing"
	RunStatusExtracting     RunStatus = "extracting"
	RunStatusReconstructing RunStatus = "reconstructing"
	RunStatusPersisting     RunStatus = "persisting"
	RunStatusComplete       RunStatus = "complete"
	RunStatusFailed         RunStatus = "failed"
)

// Pipeline phase names, in execution order.
const (
	PhaseProbe       = "probe"
	PhaseRoute       = "route"
	PhaseExtract     = "extract"
	PhaseTables      = "tables"
	PhaseReconstruct = "reconstruct"
	PhaseAssemble    = "assemble"
	PhasePersist     = "persist"
)

// Run represents a single processing run for one source document.
type Run struct {
	ID         string     `json:"id"`
	SourcePath string     `json:"source_path"`
	Status     RunStatus  `json:"status"`
	Result     *RunResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	DocumentID  string        `json:"doc_id"`
	OutDir      string        `json:"out"`
	Routed      Route         `json:"routed"`
	RouteReason string        `json:"route_reason"`
	Language    string        `json:"language"`
	TokenCount  int           `json:"token_count"`
	TableEngine string        `json:"table_engine"`
	TableCount  int           `json:"table_count"`
	Phases      []PhaseResult `json:"phases"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
