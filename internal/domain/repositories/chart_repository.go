package repositories

import (
	"context"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
)

// ChartRepository defines the interface for the odontogram store. The chart
// is read and written as one document per patient; PutChart has full-replace
// semantics, never per-tooth patch.
type ChartRepository interface {
	// GetChart retrieves the full chart map for a patient. A patient with
	// no chart yet yields an empty map, not an error.
	GetChart(ctx context.Context, patientID string) (entities.ChartMap, error)

	// PutChart replaces the patient's entire chart map.
	PutChart(ctx context.Context, patientID string, chart entities.ChartMap) error
}
