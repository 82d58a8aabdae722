package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// ProcedureAdapter implements ProcedureRepository on the local procedures
// table. In embedded mode the warm-loaded catalog is persisted here.
type ProcedureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProcedureAdapter creates a new procedure adapter
func NewProcedureAdapter(client *postgres.Client) *ProcedureAdapter {
	return &ProcedureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.ProcedureRepository = (*ProcedureAdapter)(nil)

// Upsert inserts or refreshes a catalog entry, keyed by id.
func (a *ProcedureAdapter) Upsert(ctx context.Context, procedure *entities.Procedure) error {
	now := time.Now()
	record := goqu.Record{
		"id":               procedure.ID,
		"name":             procedure.Name,
		"specialty":        nullString(procedure.Specialty),
		"list_price_cents": int64(procedure.ListPrice),
		"is_active":        procedure.IsActive,
		"created_at":       now,
		"updated_at":       now,
	}

	query, args, err := a.db.Insert("procedures").
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":             procedure.Name,
			"specialty":        nullString(procedure.Specialty),
			"list_price_cents": int64(procedure.ListPrice),
			"is_active":        procedure.IsActive,
			"updated_at":       now,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert procedure", err)
	}
	return nil
}

// GetByID retrieves a procedure by ID
func (a *ProcedureAdapter) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	query, args, err := a.db.Select(
		"id", "name", "specialty", "list_price_cents",
		"is_active", "created_at", "updated_at",
	).From("procedures").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	procedure, err := scanProcedure(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("procedure with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get procedure", err)
	}
	return procedure, nil
}

// List retrieves procedures with filters, ordered by name
func (a *ProcedureAdapter) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	ds := a.db.Select(
		"id", "name", "specialty", "list_price_cents",
		"is_active", "created_at", "updated_at",
	).From("procedures")

	if filter.Specialty != "" {
		ds = ds.Where(goqu.Ex{"specialty": filter.Specialty})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list procedures", err)
	}
	defer rows.Close()

	var procedures []*entities.Procedure
	for rows.Next() {
		procedure, err := scanProcedure(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan procedure", err)
		}
		procedures = append(procedures, procedure)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating procedures", err)
	}

	return procedures, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcedure(row rowScanner) (*entities.Procedure, error) {
	procedure := &entities.Procedure{}
	var specialty sql.NullString
	var priceCents int64

	err := row.Scan(
		&procedure.ID,
		&procedure.Name,
		&specialty,
		&priceCents,
		&procedure.IsActive,
		&procedure.CreatedAt,
		&procedure.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if specialty.Valid {
		procedure.Specialty = &specialty.String
	}
	procedure.ListPrice = money.Cents(priceCents)
	return procedure, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
