package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// RecordInput is the validated input for one new treatment record.
type RecordInput struct {
	ToothID       *entities.ToothID
	Status        entities.ToothStatus
	Specialty     *string
	ProcedureID   string
	ProcedureName string
	Quantity      int
	DiscountBP    money.BasisPoints
	UnitPrice     money.Cents
	Notes         string

	// ItemID marks a record hydrated from an already-persisted budget
	// (edit mode).
	ItemID *string
}

// BudgetAssembler holds the ordered in-progress record list for one editing
// session. Records accumulate until finalize; multiple records may point at
// the same tooth, and records without a tooth are "general" lines. The
// assembler never deduplicates by tooth.
type BudgetAssembler struct {
	records  []*entities.TreatmentRecord
	budgetID *string
	repo     repositories.BudgetRepository

	// removing guards against a duplicate delete being issued while the
	// first removal of the same record is still in flight.
	removing map[string]bool
}

// NewBudgetAssembler creates an empty assembler. repo is only needed for
// edit mode, where removals must reach the external store.
func NewBudgetAssembler(repo repositories.BudgetRepository) *BudgetAssembler {
	return &BudgetAssembler{
		repo:     repo,
		removing: make(map[string]bool),
	}
}

// LoadBudget hydrates the assembler from a persisted budget for edit mode.
func (a *BudgetAssembler) LoadBudget(budget *entities.Budget) {
	a.budgetID = &budget.ID
	a.records = a.records[:0]
	for i := range budget.Items {
		item := budget.Items[i]
		itemID := item.ID
		a.records = append(a.records, &entities.TreatmentRecord{
			RecordID:      uuid.NewString(),
			ToothID:       item.ToothID,
			Specialty:     item.Specialty,
			ProcedureID:   item.ProcedureID,
			ProcedureName: item.ProcedureName,
			Quantity:      item.Quantity,
			DiscountBP:    item.DiscountBP,
			UnitPrice:     item.UnitPrice,
			ItemID:        &itemID,
		})
	}
}

// AddRecord validates and appends a record, returning its process-local id.
// A record may not enter the assembler without a resolved catalog procedure
// id, even when a free-text procedure name was typed. Adding never replaces
// an existing record for the same tooth.
func (a *BudgetAssembler) AddRecord(input RecordInput) (string, error) {
	if input.ProcedureID == "" {
		return "", apperrors.NewValidationError("record has no resolved procedure")
	}
	if input.ToothID != nil && !input.ToothID.Valid() {
		return "", apperrors.NewValidationError("unknown tooth code", input.ToothID.String())
	}
	if input.UnitPrice < money.MinPrice {
		return "", apperrors.NewValidationError("unit price below minimum")
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	record := &entities.TreatmentRecord{
		RecordID:      uuid.NewString(),
		ToothID:       input.ToothID,
		Status:        input.Status,
		Specialty:     input.Specialty,
		ProcedureID:   input.ProcedureID,
		ProcedureName: input.ProcedureName,
		Quantity:      quantity,
		DiscountBP:    money.ClampDiscount(input.DiscountBP),
		UnitPrice:     input.UnitPrice,
		Notes:         input.Notes,
		ItemID:        input.ItemID,
	}
	a.records = append(a.records, record)
	return record.RecordID, nil
}

// RemoveRecord drops a record from the list. A record that was never
// persisted is removed locally without any network call. A persisted record
// (edit mode) is deleted at the external store first; the local removal is
// rolled back when that call fails. A second removal of a record whose
// delete is still in flight is ignored.
func (a *BudgetAssembler) RemoveRecord(ctx context.Context, recordID string) error {
	idx := -1
	for i, r := range a.records {
		if r.RecordID == recordID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NewNotFoundError("record not found")
	}
	record := a.records[idx]

	if record.ItemID != nil {
		if a.removing[recordID] {
			return nil
		}
		if a.repo == nil || a.budgetID == nil {
			return apperrors.NewInternalError("no budget store for persisted record", nil)
		}
		a.removing[recordID] = true
		err := a.repo.DeleteItem(ctx, *a.budgetID, *record.ItemID)
		delete(a.removing, recordID)
		if err != nil {
			return apperrors.NewSyncError("failed to delete budget item", err)
		}
	}

	a.records = append(a.records[:idx], a.records[idx+1:]...)
	return nil
}

// Records returns the current record list in insertion order.
func (a *BudgetAssembler) Records() []*entities.TreatmentRecord {
	out := make([]*entities.TreatmentRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of records.
func (a *BudgetAssembler) Len() int {
	return len(a.records)
}

// Subtotal sums every record's line total.
func (a *BudgetAssembler) Subtotal() money.Cents {
	var total money.Cents
	for _, r := range a.records {
		total += r.LineTotal()
	}
	return total
}

// Total is the amount due. Budget-level surcharges do not exist in this
// flow, so it equals the subtotal.
func (a *BudgetAssembler) Total() money.Cents {
	return a.Subtotal()
}

// Clear empties the record list, returning the assembler to the
// empty-budget-in-progress state.
func (a *BudgetAssembler) Clear() {
	a.records = a.records[:0]
	a.budgetID = nil
}
