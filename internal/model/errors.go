package model

import "github.com/rotisserie/eris"

// Error taxonomy shared across the document pipeline. Callers wrap these with
// eris and test for them with errors.Is.
var (
	// ErrDocumentUnreadable means the source could not be opened or parsed.
	// Fatal for that document only.
	ErrDocumentUnreadable = eris.New("document unreadable")

	// ErrEngineUnavailable means an OCR or table engine is not installed or
	// not configured. Triggers a fallback or a reason-coded skip.
	ErrEngineUnavailable = eris.New("engine unavailable")

	// ErrEngineFailure means an engine was reachable but failed while running.
	ErrEngineFailure = eris.New("engine failure")

	// ErrConfigurationConflict means the options cannot be honored together.
	// Raised before any document is processed.
	ErrConfigurationConflict = eris.New("configuration conflict")
)
