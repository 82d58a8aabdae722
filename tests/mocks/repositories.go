package mocks

import (
	"context"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/stretchr/testify/mock"
)

// MockChartRepository is a testify mock for repositories.ChartRepository
type MockChartRepository struct {
	mock.Mock
}

var _ repositories.ChartRepository = (*MockChartRepository)(nil)

func (m *MockChartRepository) GetChart(ctx context.Context, patientID string) (entities.ChartMap, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ChartMap), args.Error(1)
}

func (m *MockChartRepository) PutChart(ctx context.Context, patientID string, chart entities.ChartMap) error {
	args := m.Called(ctx, patientID, chart)
	return args.Error(0)
}

// MockBudgetRepository is a testify mock for repositories.BudgetRepository
type MockBudgetRepository struct {
	mock.Mock
}

var _ repositories.BudgetRepository = (*MockBudgetRepository)(nil)

func (m *MockBudgetRepository) Create(ctx context.Context, budget *entities.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) GetByID(ctx context.Context, id string) (*entities.Budget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Budget), args.Error(1)
}

func (m *MockBudgetRepository) ListByPatient(ctx context.Context, patientID string) ([]*entities.Budget, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Budget), args.Error(1)
}

func (m *MockBudgetRepository) DeleteItem(ctx context.Context, budgetID, itemID string) error {
	args := m.Called(ctx, budgetID, itemID)
	return args.Error(0)
}

func (m *MockBudgetRepository) UpdateItemStatus(ctx context.Context, budgetID, itemID string, fulfilled bool) error {
	args := m.Called(ctx, budgetID, itemID, fulfilled)
	return args.Error(0)
}

// MockProcedureRepository is a testify mock for repositories.ProcedureRepository
type MockProcedureRepository struct {
	mock.Mock
}

var _ repositories.ProcedureRepository = (*MockProcedureRepository)(nil)

func (m *MockProcedureRepository) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Procedure), args.Error(1)
}

func (m *MockProcedureRepository) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Procedure), args.Error(1)
}

// MockProcedureSearchRepository is a testify mock for
// repositories.ProcedureSearchRepository
type MockProcedureSearchRepository struct {
	mock.Mock
}

var _ repositories.ProcedureSearchRepository = (*MockProcedureSearchRepository)(nil)

func (m *MockProcedureSearchRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProcedureSearchRepository) Index(ctx context.Context, procedure *entities.Procedure) error {
	args := m.Called(ctx, procedure)
	return args.Error(0)
}

func (m *MockProcedureSearchRepository) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.Procedure, error) {
	args := m.Called(ctx, query, specialty, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Procedure), args.Error(1)
}

func (m *MockProcedureSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
