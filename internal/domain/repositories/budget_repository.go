package repositories

import (
	"context"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
)

// BudgetRepository defines the interface for the budget store.
type BudgetRepository interface {
	// Create persists a budget with its items as one document and fills in
	// the server-assigned budget and item ids.
	Create(ctx context.Context, budget *entities.Budget) error

	// GetByID retrieves a budget with its items
	GetByID(ctx context.Context, id string) (*entities.Budget, error)

	// ListByPatient retrieves all budgets for a patient, newest first
	ListByPatient(ctx context.Context, patientID string) ([]*entities.Budget, error)

	// DeleteItem removes a single persisted budget line
	DeleteItem(ctx context.Context, budgetID, itemID string) error

	// UpdateItemStatus marks a budget line fulfilled or not fulfilled
	UpdateItemStatus(ctx context.Context, budgetID, itemID string, fulfilled bool) error
}
