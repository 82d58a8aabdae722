package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/odontosys/odontogram-engine/internal/application/services"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func proc(id, name, specialty string, active bool) *entities.Procedure {
	p := &entities.Procedure{
		ID:        id,
		Name:      name,
		ListPrice: 10000,
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if specialty != "" {
		p.Specialty = strPtr(specialty)
	}
	return p
}

func TestCatalogService_ListBySpecialtyOrderedByName(t *testing.T) {
	catalog := services.NewCatalogService(nil, 0)
	catalog.Replace([]*entities.Procedure{
		proc("p3", "Root canal", "endodontics", true),
		proc("p1", "Apicoectomy", "endodontics", true),
		proc("p2", "Pulpotomy", "endodontics", true),
		proc("p4", "Cleaning", "periodontics", true),
	})

	list := catalog.ListBySpecialty("endodontics")
	require.Len(t, list, 3)
	assert.Equal(t, "Apicoectomy", list[0].Name)
	assert.Equal(t, "Pulpotomy", list[1].Name)
	assert.Equal(t, "Root canal", list[2].Name)
}

func TestCatalogService_InactiveProceduresExcludedFromListing(t *testing.T) {
	catalog := services.NewCatalogService(nil, 0)
	catalog.Replace([]*entities.Procedure{
		proc("p1", "Extraction", "surgery", true),
		proc("p2", "Old extraction protocol", "surgery", false),
	})

	list := catalog.ListBySpecialty("surgery")
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)

	// Inactive entries stay resolvable by id so historic records validate.
	_, ok := catalog.FindByID("p2")
	assert.True(t, ok)
}

func TestCatalogService_UnknownOrEmptySpecialtyYieldsEmptyList(t *testing.T) {
	catalog := services.NewCatalogService(nil, 0)
	catalog.Replace([]*entities.Procedure{
		proc("p1", "Cleaning", "periodontics", true),
		proc("p2", "Whitening", "", true), // no specialty
	})

	assert.Empty(t, catalog.ListBySpecialty("orthodontics"))
	assert.Empty(t, catalog.ListBySpecialty(""))
}

func TestCatalogService_FindByID(t *testing.T) {
	catalog := services.NewCatalogService(nil, 0)
	catalog.Replace([]*entities.Procedure{proc("p1", "Cleaning", "periodontics", true)})

	p, ok := catalog.FindByID("p1")
	require.True(t, ok)
	assert.Equal(t, "Cleaning", p.Name)

	_, ok = catalog.FindByID("missing")
	assert.False(t, ok)
}

// fakeSource serves a fixed procedure list in pages.
type fakeSource struct {
	procedures []*entities.Procedure
	calls      int
	failFirst  bool
}

var _ repositories.ProcedureSource = (*fakeSource)(nil)

func (f *fakeSource) Page(ctx context.Context, page, size int, specialty string) ([]*entities.Procedure, bool, error) {
	f.calls++
	if f.failFirst && f.calls == 1 {
		return nil, false, errors.New("transient")
	}
	start := page * size
	if start >= len(f.procedures) {
		return nil, false, nil
	}
	end := start + size
	if end > len(f.procedures) {
		end = len(f.procedures)
	}
	return f.procedures[start:end], end < len(f.procedures), nil
}

func TestCatalogService_LoadWalksAllPages(t *testing.T) {
	source := &fakeSource{procedures: []*entities.Procedure{
		proc("p1", "A", "surgery", true),
		proc("p2", "B", "surgery", true),
		proc("p3", "C", "surgery", true),
		proc("p4", "D", "surgery", true),
		proc("p5", "E", "surgery", true),
	}}

	catalog := services.NewCatalogService(nil, 2)
	require.NoError(t, catalog.Load(context.Background(), source))

	assert.Equal(t, 5, catalog.Len())
	assert.Len(t, catalog.ListBySpecialty("surgery"), 5)
}

func TestCatalogService_LoadRetriesTransientPageFailure(t *testing.T) {
	source := &fakeSource{
		procedures: []*entities.Procedure{proc("p1", "A", "surgery", true)},
		failFirst:  true,
	}

	catalog := services.NewCatalogService(nil, 10)
	require.NoError(t, catalog.Load(context.Background(), source))
	assert.Equal(t, 1, catalog.Len())
}

func TestCatalogService_FallbackSearch(t *testing.T) {
	catalog := services.NewCatalogService(nil, 0)
	catalog.Replace([]*entities.Procedure{
		proc("p1", "Composite restoration", "dentistics", true),
		proc("p2", "Amalgam restoration", "dentistics", true),
		proc("p3", "Cleaning", "periodontics", true),
	})

	results, err := catalog.Search(context.Background(), "restoration", "dentistics", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Empty specialty searches across the whole active catalog.
	results, err = catalog.Search(context.Background(), "cleaning", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p3", results[0].ID)
}
