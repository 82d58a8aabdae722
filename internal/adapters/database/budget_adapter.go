package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// BudgetAdapter implements BudgetRepository on the local budgets and
// budget_items tables. A budget and its items are written in one
// transaction, matching the store's one-document contract.
type BudgetAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBudgetAdapter creates a new budget adapter
func NewBudgetAdapter(client *postgres.Client) repositories.BudgetRepository {
	return &BudgetAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a budget with its items and fills in generated ids.
func (a *BudgetAdapter) Create(ctx context.Context, budget *entities.Budget) error {
	budget.ID = uuid.NewString()
	budget.CreatedAt = time.Now()

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin budget transaction", err)
	}
	defer tx.Rollback()

	budgetQuery, budgetArgs, err := a.db.Insert("budgets").Rows(goqu.Record{
		"id":             budget.ID,
		"patient_id":     budget.PatientID,
		"notes":          budget.Notes,
		"subtotal_cents": int64(budget.Subtotal),
		"total_cents":    int64(budget.Total),
		"created_at":     budget.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build budget insert query", err)
	}
	if _, err := tx.ExecContext(ctx, budgetQuery, budgetArgs...); err != nil {
		return apperrors.NewInternalError("failed to create budget", err)
	}

	if len(budget.Items) > 0 {
		records := make([]any, 0, len(budget.Items))
		for i := range budget.Items {
			item := &budget.Items[i]
			item.ID = uuid.NewString()

			var toothID sql.NullInt64
			if item.ToothID != nil {
				toothID = sql.NullInt64{Int64: int64(*item.ToothID), Valid: true}
			}
			records = append(records, goqu.Record{
				"id":               item.ID,
				"budget_id":        budget.ID,
				"tooth_id":         toothID,
				"procedure_id":     item.ProcedureID,
				"procedure_name":   item.ProcedureName,
				"specialty":        nullString(item.Specialty),
				"quantity":         item.Quantity,
				"discount_bp":      int64(item.DiscountBP),
				"unit_price_cents": int64(item.UnitPrice),
				"fulfilled":        item.Fulfilled,
			})
		}

		itemsQuery, itemsArgs, err := a.db.Insert("budget_items").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build budget items insert query", err)
		}
		if _, err := tx.ExecContext(ctx, itemsQuery, itemsArgs...); err != nil {
			return apperrors.NewInternalError("failed to create budget items", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit budget transaction", err)
	}
	return nil
}

// GetByID retrieves a budget with its items
func (a *BudgetAdapter) GetByID(ctx context.Context, id string) (*entities.Budget, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "notes", "subtotal_cents", "total_cents", "created_at",
	).From("budgets").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build budget query", err)
	}

	budget := &entities.Budget{}
	var subtotal, total int64
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&budget.ID,
		&budget.PatientID,
		&budget.Notes,
		&subtotal,
		&total,
		&budget.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("budget with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get budget", err)
	}
	budget.Subtotal = money.Cents(subtotal)
	budget.Total = money.Cents(total)

	items, err := a.itemsForBudget(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	budget.Items = items

	return budget, nil
}

// ListByPatient retrieves all budgets for a patient, newest first
func (a *BudgetAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.Budget, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "notes", "subtotal_cents", "total_cents", "created_at",
	).From("budgets").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build budget list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list budgets", err)
	}
	defer rows.Close()

	var budgets []*entities.Budget
	for rows.Next() {
		budget := &entities.Budget{}
		var subtotal, total int64
		err := rows.Scan(
			&budget.ID,
			&budget.PatientID,
			&budget.Notes,
			&subtotal,
			&total,
			&budget.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan budget", err)
		}
		budget.Subtotal = money.Cents(subtotal)
		budget.Total = money.Cents(total)
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating budgets", err)
	}

	for _, budget := range budgets {
		items, err := a.itemsForBudget(ctx, budget.ID)
		if err != nil {
			return nil, err
		}
		budget.Items = items
	}

	return budgets, nil
}

// DeleteItem removes a single persisted budget line
func (a *BudgetAdapter) DeleteItem(ctx context.Context, budgetID, itemID string) error {
	query, args, err := a.db.Delete("budget_items").
		Where(goqu.Ex{"id": itemID, "budget_id": budgetID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build item delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete budget item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("budget item %s not found", itemID))
	}
	return nil
}

// UpdateItemStatus marks a budget line fulfilled or not fulfilled
func (a *BudgetAdapter) UpdateItemStatus(ctx context.Context, budgetID, itemID string, fulfilled bool) error {
	query, args, err := a.db.Update("budget_items").
		Set(goqu.Record{"fulfilled": fulfilled}).
		Where(goqu.Ex{"id": itemID, "budget_id": budgetID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build item status query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update budget item status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("budget item %s not found", itemID))
	}
	return nil
}

func (a *BudgetAdapter) itemsForBudget(ctx context.Context, budgetID string) ([]entities.BudgetItem, error) {
	query, args, err := a.db.Select(
		"id", "tooth_id", "procedure_id", "procedure_name", "specialty",
		"quantity", "discount_bp", "unit_price_cents", "fulfilled",
	).From("budget_items").
		Where(goqu.Ex{"budget_id": budgetID}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build items query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list budget items", err)
	}
	defer rows.Close()

	var items []entities.BudgetItem
	for rows.Next() {
		var item entities.BudgetItem
		var toothID sql.NullInt64
		var specialty sql.NullString
		var discountBP, unitPrice int64

		err := rows.Scan(
			&item.ID,
			&toothID,
			&item.ProcedureID,
			&item.ProcedureName,
			&specialty,
			&item.Quantity,
			&discountBP,
			&unitPrice,
			&item.Fulfilled,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan budget item", err)
		}

		if toothID.Valid {
			tooth := entities.ToothID(toothID.Int64)
			item.ToothID = &tooth
		}
		if specialty.Valid {
			item.Specialty = &specialty.String
		}
		item.DiscountBP = money.BasisPoints(discountBP)
		item.UnitPrice = money.Cents(unitPrice)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating budget items", err)
	}

	return items, nil
}
