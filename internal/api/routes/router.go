package routes

import (
	"net/http"

	"github.com/odontosys/odontogram-engine/internal/api/handlers"
	"github.com/odontosys/odontogram-engine/internal/api/middleware"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	chartHandler     *handlers.ChartHandler
	budgetHandler    *handlers.BudgetHandler
	procedureHandler *handlers.ProcedureHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	chartHandler *handlers.ChartHandler,
	budgetHandler *handlers.BudgetHandler,
	procedureHandler *handlers.ProcedureHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		chartHandler:     chartHandler,
		budgetHandler:    budgetHandler,
		procedureHandler: procedureHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Odontogram endpoints: one document per patient, full-replace writes
	r.mux.HandleFunc("GET /patients/{id}/odontogram", r.chartHandler.GetChart)
	r.mux.HandleFunc("PUT /patients/{id}/odontogram", r.chartHandler.PutChart)

	// Budget endpoints
	r.mux.HandleFunc("POST /budgets", r.budgetHandler.CreateBudget)
	r.mux.HandleFunc("GET /budgets", r.budgetHandler.ListBudgets)
	r.mux.HandleFunc("GET /budgets/{id}", r.budgetHandler.GetBudget)
	r.mux.HandleFunc("DELETE /budgets/{id}/items/{itemId}", r.budgetHandler.DeleteItem)
	r.mux.HandleFunc("PATCH /budgets/{id}/items/{itemId}/status", r.budgetHandler.UpdateItemStatus)

	// Procedure catalog endpoints
	r.mux.HandleFunc("GET /procedures", r.procedureHandler.ListProcedures)
	r.mux.HandleFunc("GET /procedures/search", r.procedureHandler.SearchProcedures)
	r.mux.HandleFunc("GET /procedures/{id}", r.procedureHandler.GetProcedure)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
