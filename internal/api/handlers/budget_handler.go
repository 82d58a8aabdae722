package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/rs/zerolog/log"
)

// BudgetHandler serves the budget store endpoints. A budget arrives as one
// itemized document; items can later be deleted or marked fulfilled.
type BudgetHandler struct {
	repo repositories.BudgetRepository
	bus  providers.EventBus
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(repo repositories.BudgetRepository, bus providers.EventBus) *BudgetHandler {
	return &BudgetHandler{
		repo: repo,
		bus:  bus,
	}
}

// createBudgetRequest is the submission shape: camelCase keys, prices in
// major units, discountPercent as a percentage.
type createBudgetRequest struct {
	PatientID string              `json:"patientId"`
	Notes     string              `json:"notes"`
	Items     []budgetItemRequest `json:"items"`
}

type budgetItemRequest struct {
	ToothID         *string `json:"toothId"`
	ProcedureID     string  `json:"procedureId"`
	ProcedureName   string  `json:"procedureName"`
	Specialty       *string `json:"specialty"`
	Quantity        int     `json:"quantity"`
	DiscountPercent float64 `json:"discountPercent"`
	UnitPrice       float64 `json:"unitPrice"`
}

// CreateBudget handles POST /budgets
func (h *BudgetHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid budget document")
		return
	}

	if req.PatientID == "" {
		respondWithError(w, http.StatusBadRequest, "patientId is required")
		return
	}
	if len(req.Items) == 0 {
		respondWithError(w, http.StatusBadRequest, "budget must have at least one item")
		return
	}

	budget := &entities.Budget{
		PatientID: req.PatientID,
		Notes:     req.Notes,
		Items:     make([]entities.BudgetItem, 0, len(req.Items)),
	}

	for _, in := range req.Items {
		if in.ProcedureID == "" {
			respondWithError(w, http.StatusBadRequest, "every item needs a procedureId")
			return
		}

		item := entities.BudgetItem{
			ProcedureID:   in.ProcedureID,
			ProcedureName: in.ProcedureName,
			Specialty:     in.Specialty,
			Quantity:      in.Quantity,
			DiscountBP:    money.ClampDiscount(money.BasisPoints(money.FromFloat(in.DiscountPercent))),
			UnitPrice:     money.FromFloat(in.UnitPrice),
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if item.UnitPrice < money.MinPrice {
			respondWithError(w, http.StatusBadRequest, "item unit price below minimum")
			return
		}
		if in.ToothID != nil {
			toothID, ok := entities.ParseToothID(*in.ToothID)
			if !ok {
				respondWithError(w, http.StatusBadRequest, "invalid tooth code: "+*in.ToothID)
				return
			}
			item.ToothID = &toothID
		}
		budget.Items = append(budget.Items, item)
	}

	for i := range budget.Items {
		budget.Subtotal += budget.Items[i].LineTotal()
	}
	budget.Total = budget.Subtotal

	if err := h.repo.Create(r.Context(), budget); err != nil {
		handleAppError(w, err, "failed to create budget")
		return
	}

	h.publish(r, &entities.ChartEvent{
		ID:        uuid.NewString(),
		Type:      entities.EventBudgetFinalized,
		PatientID: budget.PatientID,
		BudgetID:  budget.ID,
		Timestamp: time.Now(),
	})

	respondWithJSON(w, http.StatusCreated, budget)
}

// GetBudget handles GET /budgets/{id}
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "budget ID is required")
		return
	}

	budget, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		handleAppError(w, err, "failed to get budget")
		return
	}

	respondWithJSON(w, http.StatusOK, budget)
}

// ListBudgets handles GET /budgets?patientId=...
func (h *BudgetHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patientId query parameter is required")
		return
	}

	budgets, err := h.repo.ListByPatient(r.Context(), patientID)
	if err != nil {
		handleAppError(w, err, "failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []*entities.Budget{}
	}

	respondWithJSON(w, http.StatusOK, budgets)
}

// DeleteItem handles DELETE /budgets/{id}/items/{itemId}
func (h *BudgetHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	budgetID := r.PathValue("id")
	itemID := r.PathValue("itemId")
	if budgetID == "" || itemID == "" {
		respondWithError(w, http.StatusBadRequest, "budget and item IDs are required")
		return
	}

	if err := h.repo.DeleteItem(r.Context(), budgetID, itemID); err != nil {
		handleAppError(w, err, "failed to delete budget item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// itemStatusRequest marks a budget line fulfilled or not fulfilled.
type itemStatusRequest struct {
	Fulfilled bool `json:"fulfilled"`
}

// UpdateItemStatus handles PATCH /budgets/{id}/items/{itemId}/status
func (h *BudgetHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	budgetID := r.PathValue("id")
	itemID := r.PathValue("itemId")
	if budgetID == "" || itemID == "" {
		respondWithError(w, http.StatusBadRequest, "budget and item IDs are required")
		return
	}

	var req itemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid status document")
		return
	}

	if err := h.repo.UpdateItemStatus(r.Context(), budgetID, itemID, req.Fulfilled); err != nil {
		handleAppError(w, err, "failed to update item status")
		return
	}

	h.publish(r, &entities.ChartEvent{
		ID:        uuid.NewString(),
		Type:      entities.EventBudgetItemStatus,
		BudgetID:  budgetID,
		ItemID:    itemID,
		Timestamp: time.Now(),
	})

	respondWithJSON(w, http.StatusOK, map[string]bool{"fulfilled": req.Fulfilled})
}

func (h *BudgetHandler) publish(r *http.Request, event *entities.ChartEvent) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(r.Context(), providers.EventChannelBudgetUpdates, event); err != nil {
		log.Warn().Err(err).Str("budget_id", event.BudgetID).Msg("failed to publish budget event")
	}
}
