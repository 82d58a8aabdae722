package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// ChartAdapter implements ChartRepository on the local odontograms table,
// one row per annotated tooth. PutChart keeps the full-replace contract by
// deleting and re-inserting the patient's rows in one transaction.
type ChartAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewChartAdapter creates a new chart adapter
func NewChartAdapter(client *postgres.Client) repositories.ChartRepository {
	return &ChartAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetChart retrieves the full chart map for a patient. A patient with no
// rows yields an empty map.
func (a *ChartAdapter) GetChart(ctx context.Context, patientID string) (entities.ChartMap, error) {
	query, args, err := a.db.Select(
		"tooth_id", "status", "notes", "specialty", "procedure_id", "price_cents",
	).From("odontograms").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build chart query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get chart", err)
	}
	defer rows.Close()

	chart := entities.ChartMap{}
	for rows.Next() {
		var toothID int
		var status, notes string
		var specialty, procedureID sql.NullString
		var priceCents sql.NullInt64

		if err := rows.Scan(&toothID, &status, &notes, &specialty, &procedureID, &priceCents); err != nil {
			return nil, apperrors.NewInternalError("failed to scan chart row", err)
		}

		ann := entities.ToothAnnotation{
			Status: entities.NormalizeStatus(status),
			Notes:  notes,
		}
		if specialty.Valid {
			ann.Specialty = &specialty.String
		}
		if procedureID.Valid {
			ann.ProcedureID = &procedureID.String
		}
		if priceCents.Valid {
			price := money.Cents(priceCents.Int64)
			ann.Price = &price
		}
		chart[entities.ToothID(toothID)] = ann
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating chart rows", err)
	}

	return chart, nil
}

// PutChart replaces the patient's entire chart in one transaction.
func (a *ChartAdapter) PutChart(ctx context.Context, patientID string, chart entities.ChartMap) error {
	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin chart transaction", err)
	}
	defer tx.Rollback()

	deleteQuery, deleteArgs, err := a.db.Delete("odontograms").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build chart delete query", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to clear chart", err)
	}

	if len(chart) > 0 {
		now := time.Now()
		records := make([]any, 0, len(chart))
		for toothID, ann := range chart {
			var priceCents sql.NullInt64
			if ann.Price != nil {
				priceCents = sql.NullInt64{Int64: int64(*ann.Price), Valid: true}
			}
			records = append(records, goqu.Record{
				"patient_id":   patientID,
				"tooth_id":     int(toothID),
				"status":       string(ann.Status),
				"notes":        ann.Notes,
				"specialty":    nullString(ann.Specialty),
				"procedure_id": nullString(ann.ProcedureID),
				"price_cents":  priceCents,
				"updated_at":   now,
			})
		}

		insertQuery, insertArgs, err := a.db.Insert("odontograms").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build chart insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return apperrors.NewInternalError("failed to write chart", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit chart transaction", err)
	}
	return nil
}
