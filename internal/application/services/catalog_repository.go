package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
)

// CatalogRepository adapts the in-memory catalog to the ProcedureRepository
// interface, for deployments where no local procedure table exists and the
// warm-loaded catalog is the only source.
type CatalogRepository struct {
	catalog *CatalogService
}

// NewCatalogRepository creates a repository view over a loaded catalog
func NewCatalogRepository(catalog *CatalogService) repositories.ProcedureRepository {
	return &CatalogRepository{catalog: catalog}
}

// GetByID retrieves a procedure by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	p, ok := r.catalog.FindByID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("procedure with id %s not found", id))
	}
	return p, nil
}

// List retrieves procedures with filters, ordered by name
func (r *CatalogRepository) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	// The catalog only indexes active procedures, so an inactive-only
	// filter has nothing to serve.
	if filter.IsActive != nil && !*filter.IsActive {
		return []*entities.Procedure{}, nil
	}

	var pool []*entities.Procedure
	if strings.TrimSpace(filter.Specialty) != "" {
		pool = r.catalog.ListBySpecialty(filter.Specialty)
	} else {
		pool = r.catalog.active
	}

	if filter.Offset >= len(pool) {
		return []*entities.Procedure{}, nil
	}
	pool = pool[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(pool) {
		pool = pool[:filter.Limit]
	}

	out := make([]*entities.Procedure, len(pool))
	copy(out, pool)
	return out, nil
}
