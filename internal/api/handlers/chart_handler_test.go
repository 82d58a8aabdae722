package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/odontosys/odontogram-engine/internal/api/handlers"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChartHandler_GetChart(t *testing.T) {
	repo := new(mocks.MockChartRepository)
	repo.On("GetChart", mock.Anything, "pat-1").Return(entities.ChartMap{
		entities.ToothID(11): {Status: entities.StatusDecayed, Notes: "distal"},
	}, nil)

	handler := handlers.NewChartHandler(repo, nil)

	req := httptest.NewRequest("GET", "/patients/pat-1/odontogram", nil)
	req.SetPathValue("id", "pat-1")
	w := httptest.NewRecorder()

	handler.GetChart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]entities.ToothAnnotation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, entities.StatusDecayed, response["11"].Status)
	repo.AssertExpectations(t)
}

func TestChartHandler_GetChart_MissingPatient(t *testing.T) {
	handler := handlers.NewChartHandler(new(mocks.MockChartRepository), nil)

	req := httptest.NewRequest("GET", "/patients//odontogram", nil)
	w := httptest.NewRecorder()

	handler.GetChart(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartHandler_PutChart_ReplacesAndPublishes(t *testing.T) {
	repo := new(mocks.MockChartRepository)
	repo.On("PutChart", mock.Anything, "pat-1", mock.MatchedBy(func(chart entities.ChartMap) bool {
		ann, ok := chart[entities.ToothID(11)]
		return ok && ann.Status == entities.StatusEndodontic
	})).Return(nil)

	bus := new(mocks.MockEventBus)
	bus.On("Publish", mock.Anything, providers.GetChartChannel("pat-1"), mock.MatchedBy(func(e *entities.ChartEvent) bool {
		return e.Type == entities.EventChartUpdated && e.PatientID == "pat-1"
	})).Return(nil)

	handler := handlers.NewChartHandler(repo, bus)

	// UI alias status normalizes onto the backing enumeration.
	body := `{"11": {"status": "root_canal", "notes": "second visit"}}`
	req := httptest.NewRequest("PUT", "/patients/pat-1/odontogram", strings.NewReader(body))
	req.SetPathValue("id", "pat-1")
	w := httptest.NewRecorder()

	handler.PutChart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestChartHandler_PutChart_RejectsInvalidToothCode(t *testing.T) {
	repo := new(mocks.MockChartRepository)
	handler := handlers.NewChartHandler(repo, nil)

	body := `{"99": {"status": "sound"}}`
	req := httptest.NewRequest("PUT", "/patients/pat-1/odontogram", strings.NewReader(body))
	req.SetPathValue("id", "pat-1")
	w := httptest.NewRecorder()

	handler.PutChart(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "PutChart", mock.Anything, mock.Anything, mock.Anything)
}

func TestChartHandler_PutChart_StoreFailure(t *testing.T) {
	repo := new(mocks.MockChartRepository)
	repo.On("PutChart", mock.Anything, "pat-1", mock.Anything).
		Return(apperrors.NewSyncError("store down", nil))

	handler := handlers.NewChartHandler(repo, nil)

	req := httptest.NewRequest("PUT", "/patients/pat-1/odontogram", strings.NewReader(`{}`))
	req.SetPathValue("id", "pat-1")
	w := httptest.NewRecorder()

	handler.PutChart(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
