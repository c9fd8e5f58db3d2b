package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/ocr"
	"github.com/sells-group/docforge/internal/store"
	"github.com/sells-group/docforge/internal/tables"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, sourcePath string) (*model.Run, error) {
	args := m.Called(ctx, sourcePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return m.Called(ctx, runID, status).Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, msg string) error {
	return m.Called(ctx, runID, msg).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	args := m.Called(ctx, runID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunPhase), args.Error(1)
}

func (m *mockStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	return m.Called(ctx, phaseID, result).Error(0)
}

func (m *mockStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RunPhase), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
	name string
}

func (m *mockExtractor) Name() string { return m.name }

func (m *mockExtractor) ExtractPages(ctx context.Context, pdfPath string, mode ocr.PromptMode) (*ocr.Pages, error) {
	args := m.Called(ctx, pdfPath, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ocr.Pages), args.Error(1)
}

// --- Tables Mock ---

type mockTables struct {
	mock.Mock
}

func (m *mockTables) Run(ctx context.Context, in tables.Input) model.TableExtractionResult {
	return m.Called(ctx, in).Get(0).(model.TableExtractionResult)
}

// permissiveStore returns a mockStore that accepts every ledger write for runID.
func permissiveStore(runID string) *mockStore {
	ms := &mockStore{}
	ms.On("CreateRun", mock.Anything, mock.Anything).Return(&model.Run{ID: runID, Status: model.RunStatusQueued}, nil).Maybe()
	ms.On("UpdateRunStatus", mock.Anything, runID, mock.Anything).Return(nil).Maybe()
	ms.On("CreatePhase", mock.Anything, runID, mock.Anything).Return(&model.RunPhase{ID: "phase-1", RunID: runID}, nil).Maybe()
	ms.On("CompletePhase", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	ms.On("UpdateRunResult", mock.Anything, runID, mock.Anything).Return(nil).Maybe()
	ms.On("FailRun", mock.Anything, runID, mock.Anything).Return(nil).Maybe()
	return ms
}
