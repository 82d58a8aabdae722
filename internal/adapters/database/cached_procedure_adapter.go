package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/rs/zerolog/log"
)

// CachedProcedureAdapter wraps a ProcedureRepository with caching
type CachedProcedureAdapter struct {
	adapter repositories.ProcedureRepository
	cache   providers.CacheProvider
}

// NewCachedProcedureAdapter creates a new cached procedure adapter
func NewCachedProcedureAdapter(adapter repositories.ProcedureRepository, cache providers.CacheProvider) repositories.ProcedureRepository {
	return &CachedProcedureAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	procedureByIDTTL = 600 // 10 minutes for single catalog entries
	procedureListTTL = 300 // 5 minutes for filtered lists
)

func procedureCacheKey(id string) string {
	return fmt.Sprintf("procedure:%s", id)
}

func procedureListCacheKey(filter repositories.ProcedureFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("procedures:list:%s:%s:%d:%d", filter.Specialty, active, filter.Limit, filter.Offset)
}

// GetByID retrieves a procedure by ID with caching
func (a *CachedProcedureAdapter) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	cacheKey := procedureCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var procedure entities.Procedure
		if err := json.Unmarshal(cached, &procedure); err == nil {
			return &procedure, nil
		}
		log.Warn().Err(err).Str("procedure_id", id).Msg("failed to unmarshal cached procedure")
	}

	procedure, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(procedure); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, procedureByIDTTL); err != nil {
				log.Warn().Err(err).Str("procedure_id", id).Msg("failed to cache procedure")
			}
		}
	}()

	return procedure, nil
}

// List retrieves procedures with filters, with caching
func (a *CachedProcedureAdapter) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	cacheKey := procedureListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var procedures []*entities.Procedure
		if err := json.Unmarshal(cached, &procedures); err == nil {
			return procedures, nil
		}
		log.Warn().Err(err).Msg("failed to unmarshal cached procedure list")
	}

	procedures, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(procedures); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, procedureListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache procedure list")
			}
		}
	}()

	return procedures, nil
}
