package handlers

import (
	"net/http"
	"strconv"

	"github.com/odontosys/odontogram-engine/internal/application/services"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
)

const defaultPageSize = 50

// ProcedureHandler serves the procedure catalog endpoints
type ProcedureHandler struct {
	repo    repositories.ProcedureRepository
	catalog *services.CatalogService
}

// NewProcedureHandler creates a new procedure handler
func NewProcedureHandler(repo repositories.ProcedureRepository, catalog *services.CatalogService) *ProcedureHandler {
	return &ProcedureHandler{
		repo:    repo,
		catalog: catalog,
	}
}

// ListProcedures handles GET /procedures?page&size&specialty, the paginated
// catalog walk consumers use to warm their in-memory catalogs.
func (h *ProcedureHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = defaultPageSize
	}

	active := true
	filter := repositories.ProcedureFilter{
		Specialty: r.URL.Query().Get("specialty"),
		IsActive:  &active,
		Limit:     size,
		Offset:    page * size,
	}

	procedures, err := h.repo.List(r.Context(), filter)
	if err != nil {
		handleAppError(w, err, "failed to list procedures")
		return
	}
	if procedures == nil {
		procedures = []*entities.Procedure{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":    procedures,
		"hasMore": len(procedures) == size,
	})
}

// GetProcedure handles GET /procedures/{id}
func (h *ProcedureHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "procedure ID is required")
		return
	}

	procedure, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		handleAppError(w, err, "procedure not found")
		return
	}

	respondWithJSON(w, http.StatusOK, procedure)
}

// SearchProcedures handles GET /procedures/search?q&specialty&limit for the
// catalog picker.
func (h *ProcedureHandler) SearchProcedures(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondWithError(w, http.StatusServiceUnavailable, "procedure search is not configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}
	specialty := r.URL.Query().Get("specialty")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	procedures, err := h.catalog.Search(r.Context(), query, specialty, limit)
	if err != nil {
		handleAppError(w, err, "failed to search procedures")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procedures,
		"count":      len(procedures),
	})
}
