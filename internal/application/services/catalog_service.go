package services

import (
	"context"
	"sort"
	"strings"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/pkg/retry"
	"github.com/rs/zerolog/log"
)

// CatalogService is the in-memory procedure catalog: every page of the
// external source is consumed up front, then lookups and specialty filters
// are served from the index without further I/O.
type CatalogService struct {
	byID        map[string]*entities.Procedure
	bySpecialty map[string][]*entities.Procedure
	active      []*entities.Procedure
	searchRepo  repositories.ProcedureSearchRepository
	pageSize    int
}

// NewCatalogService creates an empty catalog. searchRepo is optional; when
// present, Search uses it and procedures are indexed on load.
func NewCatalogService(searchRepo repositories.ProcedureSearchRepository, pageSize int) *CatalogService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CatalogService{
		byID:        make(map[string]*entities.Procedure),
		bySpecialty: make(map[string][]*entities.Procedure),
		searchRepo:  searchRepo,
		pageSize:    pageSize,
	}
}

// Load walks every page of the source into memory, replacing any previously
// loaded catalog. Page fetches are retried with backoff; the catalog is not
// swapped in until the full walk succeeds.
func (s *CatalogService) Load(ctx context.Context, source repositories.ProcedureSource) error {
	var all []*entities.Procedure

	page := 0
	for {
		var (
			batch   []*entities.Procedure
			hasMore bool
		)
		err := retry.Do(ctx, retry.DefaultConfig(), "procedure catalog", func() error {
			var err error
			batch, hasMore, err = source.Page(ctx, page, s.pageSize, "")
			return err
		})
		if err != nil {
			return err
		}
		all = append(all, batch...)
		if !hasMore {
			break
		}
		page++
	}

	s.Replace(all)

	if s.searchRepo != nil {
		for _, p := range all {
			if err := s.searchRepo.Index(ctx, p); err != nil {
				log.Warn().Err(err).Str("procedure_id", p.ID).Msg("failed to index procedure")
			}
		}
	}

	log.Info().Int("procedures", len(all)).Msg("procedure catalog loaded")
	return nil
}

// Replace swaps in a fully loaded procedure list, rebuilding both indexes.
func (s *CatalogService) Replace(procedures []*entities.Procedure) {
	byID := make(map[string]*entities.Procedure, len(procedures))
	bySpecialty := make(map[string][]*entities.Procedure)
	var active []*entities.Procedure

	for _, p := range procedures {
		byID[p.ID] = p
		if !p.IsActive {
			continue
		}
		active = append(active, p)
		// Procedures without a specialty are reachable by id and search
		// only; an empty specialty filter must yield an empty list.
		if key := specialtyKey(p.Specialty); key != "" {
			bySpecialty[key] = append(bySpecialty[key], p)
		}
	}

	byName := func(list []*entities.Procedure) func(i, j int) bool {
		return func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		}
	}
	for _, list := range bySpecialty {
		sort.Slice(list, byName(list))
	}
	sort.Slice(active, byName(active))

	s.byID = byID
	s.bySpecialty = bySpecialty
	s.active = active
}

// FindByID looks up any catalog entry, active or not.
func (s *CatalogService) FindByID(id string) (*entities.Procedure, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// ListBySpecialty returns active procedures for a specialty, ordered by
// display name. An unknown or empty specialty yields an empty list, never
// an error: "no procedures" is a displayable state, not a fault.
func (s *CatalogService) ListBySpecialty(specialty string) []*entities.Procedure {
	list := s.bySpecialty[strings.ToLower(strings.TrimSpace(specialty))]
	out := make([]*entities.Procedure, len(list))
	copy(out, list)
	return out
}

// Len returns the number of loaded catalog entries.
func (s *CatalogService) Len() int {
	return len(s.byID)
}

// All returns every loaded catalog entry, active or not, in no particular
// order.
func (s *CatalogService) All() []*entities.Procedure {
	out := make([]*entities.Procedure, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	return out
}

// Search finds active procedures by name through the search index, scoped
// to a specialty when given. Without an index it falls back to a substring
// scan of the in-memory catalog.
func (s *CatalogService) Search(ctx context.Context, query, specialty string, limit int) ([]*entities.Procedure, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.searchRepo != nil {
		return s.searchRepo.Search(ctx, query, specialty, limit)
	}

	pool := s.active
	if strings.TrimSpace(specialty) != "" {
		pool = s.ListBySpecialty(specialty)
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var out []*entities.Procedure
	for _, p := range pool {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func specialtyKey(specialty *string) string {
	if specialty == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*specialty))
}
