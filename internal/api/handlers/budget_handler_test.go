package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/odontosys/odontogram-engine/internal/api/handlers"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/odontosys/odontogram-engine/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBudgetHandler_CreateBudget(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(b *entities.Budget) bool {
		if b.PatientID != "pat-1" || len(b.Items) != 2 {
			return false
		}
		first := b.Items[0]
		// 180.00 with the 10% discount already folded in upstream.
		return first.UnitPrice == money.Cents(18000) &&
			first.ToothID != nil && *first.ToothID == entities.ToothID(11) &&
			b.Subtotal == money.Cents(23000)
	})).Run(func(args mock.Arguments) {
		b := args.Get(1).(*entities.Budget)
		b.ID = "b-1"
	}).Return(nil)

	bus := new(mocks.MockEventBus)
	bus.On("Publish", mock.Anything, providers.EventChannelBudgetUpdates, mock.MatchedBy(func(e *entities.ChartEvent) bool {
		return e.Type == entities.EventBudgetFinalized && e.BudgetID == "b-1"
	})).Return(nil)

	handler := handlers.NewBudgetHandler(repo, bus)

	body := `{
		"patientId": "pat-1",
		"notes": "upper arch",
		"items": [
			{"toothId": "11", "procedureId": "p1", "procedureName": "Filling", "quantity": 1, "unitPrice": 180.0},
			{"procedureId": "p2", "procedureName": "X-ray", "quantity": 1, "unitPrice": 50.0}
		]
	}`
	req := httptest.NewRequest("POST", "/budgets", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBudget(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response entities.Budget
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "b-1", response.ID)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestBudgetHandler_CreateBudget_RoundsDiscountPercent(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(b *entities.Budget) bool {
		// 10.55% must round to 1055bp, not truncate to 1054.
		return len(b.Items) == 1 && b.Items[0].DiscountBP == money.BasisPoints(1055)
	})).Return(nil)

	handler := handlers.NewBudgetHandler(repo, nil)

	body := `{
		"patientId": "pat-1",
		"items": [
			{"procedureId": "p1", "procedureName": "Filling", "quantity": 1, "unitPrice": 100.0, "discountPercent": 10.55}
		]
	}`
	req := httptest.NewRequest("POST", "/budgets", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBudget(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestBudgetHandler_CreateBudget_RejectsMissingProcedure(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	handler := handlers.NewBudgetHandler(repo, nil)

	body := `{"patientId": "pat-1", "items": [{"procedureName": "Mystery", "unitPrice": 50.0}]}`
	req := httptest.NewRequest("POST", "/budgets", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateBudget(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBudgetHandler_CreateBudget_RejectsEmptyItems(t *testing.T) {
	handler := handlers.NewBudgetHandler(new(mocks.MockBudgetRepository), nil)

	req := httptest.NewRequest("POST", "/budgets", strings.NewReader(`{"patientId": "pat-1", "items": []}`))
	w := httptest.NewRecorder()

	handler.CreateBudget(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBudgetHandler_ListBudgets(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("ListByPatient", mock.Anything, "pat-1").Return([]*entities.Budget{
		{ID: "b-2", PatientID: "pat-1"},
		{ID: "b-1", PatientID: "pat-1"},
	}, nil)

	handler := handlers.NewBudgetHandler(repo, nil)

	req := httptest.NewRequest("GET", "/budgets?patientId=pat-1", nil)
	w := httptest.NewRecorder()

	handler.ListBudgets(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []*entities.Budget
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, 2)
	assert.Equal(t, "b-2", response[0].ID)
}

func TestBudgetHandler_ListBudgets_RequiresPatient(t *testing.T) {
	handler := handlers.NewBudgetHandler(new(mocks.MockBudgetRepository), nil)

	req := httptest.NewRequest("GET", "/budgets", nil)
	w := httptest.NewRecorder()

	handler.ListBudgets(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBudgetHandler_DeleteItem(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("DeleteItem", mock.Anything, "b-1", "i-1").Return(nil)

	handler := handlers.NewBudgetHandler(repo, nil)

	req := httptest.NewRequest("DELETE", "/budgets/b-1/items/i-1", nil)
	req.SetPathValue("id", "b-1")
	req.SetPathValue("itemId", "i-1")
	w := httptest.NewRecorder()

	handler.DeleteItem(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}

func TestBudgetHandler_UpdateItemStatus(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("UpdateItemStatus", mock.Anything, "b-1", "i-1", true).Return(nil)

	bus := new(mocks.MockEventBus)
	bus.On("Publish", mock.Anything, providers.EventChannelBudgetUpdates, mock.MatchedBy(func(e *entities.ChartEvent) bool {
		return e.Type == entities.EventBudgetItemStatus && e.ItemID == "i-1"
	})).Return(nil)

	handler := handlers.NewBudgetHandler(repo, bus)

	req := httptest.NewRequest("PATCH", "/budgets/b-1/items/i-1/status", strings.NewReader(`{"fulfilled": true}`))
	req.SetPathValue("id", "b-1")
	req.SetPathValue("itemId", "i-1")
	w := httptest.NewRecorder()

	handler.UpdateItemStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestBudgetHandler_UpdateItemStatus_NotFound(t *testing.T) {
	repo := new(mocks.MockBudgetRepository)
	repo.On("UpdateItemStatus", mock.Anything, "b-1", "missing", false).
		Return(apperrors.NewNotFoundError("budget item missing not found"))

	handler := handlers.NewBudgetHandler(repo, nil)

	req := httptest.NewRequest("PATCH", "/budgets/b-1/items/missing/status", strings.NewReader(`{"fulfilled": false}`))
	req.SetPathValue("id", "b-1")
	req.SetPathValue("itemId", "missing")
	w := httptest.NewRecorder()

	handler.UpdateItemStatus(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
