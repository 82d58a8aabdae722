package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/odontosys/odontogram-engine/internal/application/services"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/odontosys/odontogram-engine/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func toothPtr(id entities.ToothID) *entities.ToothID { return &id }

func TestBudgetAssembler_AddRecordRequiresProcedureID(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)

	_, err := assembler.AddRecord(services.RecordInput{
		ToothID:       toothPtr(11),
		Status:        entities.StatusDecayed,
		ProcedureName: "typed free text",
		UnitPrice:     10000,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, 0, assembler.Len())
}

func TestBudgetAssembler_AddAppendsNeverReplaces(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)

	id1, err := assembler.AddRecord(services.RecordInput{
		ToothID: toothPtr(11), Status: entities.StatusDecayed,
		ProcedureID: "proc-a", ProcedureName: "Restoration", UnitPrice: 10000,
	})
	require.NoError(t, err)

	id2, err := assembler.AddRecord(services.RecordInput{
		ToothID: toothPtr(11), Status: entities.StatusRestored,
		ProcedureID: "proc-b", ProcedureName: "Crown", UnitPrice: 30000,
	})
	require.NoError(t, err)

	// Two records for the same tooth are two entries, not one.
	assert.NotEqual(t, id1, id2)
	require.Equal(t, 2, assembler.Len())
	assert.Equal(t, money.Cents(40000), assembler.Total())
}

func TestBudgetAssembler_ToothlessRecordAllowed(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)

	_, err := assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-x", ProcedureName: "Panoramic radiograph", UnitPrice: 8000,
	})
	require.NoError(t, err)

	records := assembler.Records()
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ToothID)
}

func TestBudgetAssembler_RejectsPriceBelowFloor(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)

	_, err := assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-x", ProcedureName: "X", UnitPrice: 0,
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestBudgetAssembler_TotalsWithQuantityAndDiscount(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)

	// 3 x 100.00 with 10% record-level discount = 270.00
	_, err := assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-a", ProcedureName: "A",
		Quantity: 3, DiscountBP: 1000, UnitPrice: 10000,
	})
	require.NoError(t, err)

	// quantity defaults to 1, discount already baked into the price
	_, err = assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-b", ProcedureName: "B", UnitPrice: 18000,
	})
	require.NoError(t, err)

	assert.Equal(t, money.Cents(27000+18000), assembler.Subtotal())
	assert.Equal(t, assembler.Subtotal(), assembler.Total())
}

func TestBudgetAssembler_RemoveUnpersistedRecordIssuesNoCall(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	assembler := services.NewBudgetAssembler(repo)

	id, err := assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-a", ProcedureName: "A", UnitPrice: 10000,
	})
	require.NoError(t, err)

	require.NoError(t, assembler.RemoveRecord(context.Background(), id))
	assert.Equal(t, 0, assembler.Len())
	repo.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestBudgetAssembler_RemovePersistedRecordDeletesRemotelyFirst(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	assembler := services.NewBudgetAssembler(repo)

	budget := &entities.Budget{
		ID: "bud-1",
		Items: []entities.BudgetItem{
			{ID: "item-1", ProcedureID: "proc-a", ProcedureName: "A", Quantity: 1, UnitPrice: 10000},
		},
	}
	assembler.LoadBudget(budget)
	require.Equal(t, 1, assembler.Len())

	repo.On("DeleteItem", mock.Anything, "bud-1", "item-1").Return(nil).Once()

	recordID := assembler.Records()[0].RecordID
	require.NoError(t, assembler.RemoveRecord(context.Background(), recordID))
	assert.Equal(t, 0, assembler.Len())
	repo.AssertExpectations(t)
}

func TestBudgetAssembler_RemoveRolledBackWhenDeleteFails(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	assembler := services.NewBudgetAssembler(repo)

	assembler.LoadBudget(&entities.Budget{
		ID: "bud-1",
		Items: []entities.BudgetItem{
			{ID: "item-1", ProcedureID: "proc-a", ProcedureName: "A", Quantity: 1, UnitPrice: 10000},
		},
	})

	repo.On("DeleteItem", mock.Anything, "bud-1", "item-1").Return(errors.New("boom")).Once()

	recordID := assembler.Records()[0].RecordID
	err := assembler.RemoveRecord(context.Background(), recordID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSync))

	// The record stays so the user can retry.
	assert.Equal(t, 1, assembler.Len())
}

func TestBudgetAssembler_DuplicateRemovalIgnoredWhileInFlight(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	assembler := services.NewBudgetAssembler(repo)

	assembler.LoadBudget(&entities.Budget{
		ID: "bud-1",
		Items: []entities.BudgetItem{
			{ID: "item-1", ProcedureID: "proc-a", ProcedureName: "A", Quantity: 1, UnitPrice: 10000},
		},
	})
	recordID := assembler.Records()[0].RecordID

	// Re-enter RemoveRecord while the delete call is still pending; the
	// nested call must not issue a second delete.
	repo.On("DeleteItem", mock.Anything, "bud-1", "item-1").
		Run(func(args mock.Arguments) {
			require.NoError(t, assembler.RemoveRecord(context.Background(), recordID))
		}).
		Return(nil).Once()

	require.NoError(t, assembler.RemoveRecord(context.Background(), recordID))
	assert.Equal(t, 0, assembler.Len())
	repo.AssertExpectations(t)
}

func TestBudgetAssembler_ClearResetsSession(t *testing.T) {
	assembler := services.NewBudgetAssembler(nil)
	_, err := assembler.AddRecord(services.RecordInput{
		ProcedureID: "proc-a", ProcedureName: "A", UnitPrice: 10000,
	})
	require.NoError(t, err)

	assembler.Clear()
	assert.Equal(t, 0, assembler.Len())
	assert.Equal(t, money.Cents(0), assembler.Total())
}
