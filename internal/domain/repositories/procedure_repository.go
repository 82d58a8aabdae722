package repositories

import (
	"context"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
)

// ProcedureRepository defines the interface for procedure data operations
type ProcedureRepository interface {
	// GetByID retrieves a procedure by ID
	GetByID(ctx context.Context, id string) (*entities.Procedure, error)

	// List retrieves procedures with filters, ordered by name
	List(ctx context.Context, filter ProcedureFilter) ([]*entities.Procedure, error)
}

// ProcedureFilter defines filters for listing procedures
type ProcedureFilter struct {
	Specialty string
	IsActive  *bool
	Limit     int
	Offset    int
}

// ProcedureSource yields one page of the external procedure catalog.
// Walking the pages is the catalog's job; the source only fetches.
type ProcedureSource interface {
	Page(ctx context.Context, page, size int, specialty string) ([]*entities.Procedure, bool, error)
}

// ProcedureSearchRepository defines the interface for the procedure search
// index backing the catalog picker.
type ProcedureSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index upserts a procedure into the search index
	Index(ctx context.Context, procedure *entities.Procedure) error

	// Search finds active procedures by name, optionally scoped to a
	// specialty
	Search(ctx context.Context, query, specialty string, limit int) ([]*entities.Procedure, error)

	// Delete removes a procedure from the index
	Delete(ctx context.Context, id string) error
}
