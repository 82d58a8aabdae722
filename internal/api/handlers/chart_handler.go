package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ChartHandler serves the odontogram store endpoints: one document per
// patient, full-replace writes.
type ChartHandler struct {
	repo repositories.ChartRepository
	bus  providers.EventBus
}

// NewChartHandler creates a new chart handler
func NewChartHandler(repo repositories.ChartRepository, bus providers.EventBus) *ChartHandler {
	return &ChartHandler{
		repo: repo,
		bus:  bus,
	}
}

// GetChart handles GET /patients/{id}/odontogram
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	chart, err := h.repo.GetChart(r.Context(), patientID)
	if err != nil {
		handleAppError(w, err, "failed to get chart")
		return
	}

	respondWithJSON(w, http.StatusOK, chart)
}

// PutChart handles PUT /patients/{id}/odontogram. The body is the full
// chart map; the previous document is replaced, never patched per tooth.
func (h *ChartHandler) PutChart(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var body map[string]entities.ToothAnnotation
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid chart document")
		return
	}

	chart := make(entities.ChartMap, len(body))
	for key, ann := range body {
		toothID, ok := entities.ParseToothID(key)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid tooth code: "+key)
			return
		}
		ann.Status = entities.NormalizeStatus(string(ann.Status))
		chart[toothID] = ann
	}

	if err := h.repo.PutChart(r.Context(), patientID, chart); err != nil {
		handleAppError(w, err, "failed to write chart")
		return
	}

	if h.bus != nil {
		event := &entities.ChartEvent{
			ID:        uuid.NewString(),
			Type:      entities.EventChartUpdated,
			PatientID: patientID,
			Timestamp: time.Now(),
		}
		if err := h.bus.Publish(r.Context(), providers.GetChartChannel(patientID), event); err != nil {
			log.Warn().Err(err).Str("patient_id", patientID).Msg("failed to publish chart event")
		}
	}

	respondWithJSON(w, http.StatusOK, chart)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// handleAppError maps the error taxonomy onto HTTP status codes.
func handleAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
			return
		case apperrors.ErrorTypeSync, apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
			return
		}
	}
	respondWithError(w, http.StatusInternalServerError, fallback)
}
