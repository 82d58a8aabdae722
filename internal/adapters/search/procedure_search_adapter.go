package search

import (
	"context"
	"fmt"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	tsclient "github.com/odontosys/odontogram-engine/internal/infrastructure/clients/typesense"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// ProcedureSearchAdapter implements procedure search using Typesense,
// backing the catalog picker's name lookup.
type ProcedureSearchAdapter struct {
	client *tsclient.Client
}

// Ensure ProcedureSearchAdapter implements ProcedureSearchRepository
var _ repositories.ProcedureSearchRepository = (*ProcedureSearchAdapter)(nil)

// NewProcedureSearchAdapter creates a new Typesense procedure search adapter
func NewProcedureSearchAdapter(client *tsclient.Client) *ProcedureSearchAdapter {
	return &ProcedureSearchAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *ProcedureSearchAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.ProceduresCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.ProceduresCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "specialty", Type: "string", Facet: pointer.True()},
			{Name: "list_price_cents", Type: "int64"},
			{Name: "is_active", Type: "bool"},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a procedure into the search index
func (a *ProcedureSearchAdapter) Index(ctx context.Context, procedure *entities.Procedure) error {
	specialty := ""
	if procedure.Specialty != nil {
		specialty = *procedure.Specialty
	}

	document := map[string]interface{}{
		"id":               procedure.ID,
		"name":             procedure.Name,
		"specialty":        specialty,
		"list_price_cents": int64(procedure.ListPrice),
		"is_active":        procedure.IsActive,
	}

	_, err := a.client.Client().Collection(tsclient.ProceduresCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index procedure: %w", err)
	}

	return nil
}

// Delete removes a procedure from the index
func (a *ProcedureSearchAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ProceduresCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete procedure from index: %w", err)
	}
	return nil
}

// Search finds active procedures by name, optionally scoped to a specialty
func (a *ProcedureSearchAdapter) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.Procedure, error) {
	if limit <= 0 {
		limit = 20
	}

	filterBy := "is_active:=true"
	if specialty != "" {
		filterBy = fmt.Sprintf("%s && specialty:=%s", filterBy, specialty)
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String(filterBy),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.ProceduresCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search procedures: %w", err)
	}

	procedures := []*entities.Procedure{}
	if result.Hits == nil {
		return procedures, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document

		procedure := &entities.Procedure{
			ID:       doc["id"].(string),
			Name:     doc["name"].(string),
			IsActive: true,
		}
		if val, ok := doc["specialty"].(string); ok && val != "" {
			procedure.Specialty = &val
		}
		if val, ok := doc["list_price_cents"].(float64); ok {
			procedure.ListPrice = money.Cents(int64(val))
		}

		procedures = append(procedures, procedure)
	}

	return procedures, nil
}
