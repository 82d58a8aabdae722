package chartstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChart_NormalizesLooseDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/patients/pat-1/odontogram", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"11": {"status": "caries", "preco": "120,00", "procedimento": "p1"},
			"46": {"status": "restored", "notes": "amalgam"}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	chart, err := client.GetChart(context.Background(), "pat-1")
	require.NoError(t, err)
	require.Len(t, chart, 2)

	ann := chart[entities.ToothID(11)]
	assert.Equal(t, entities.StatusDecayed, ann.Status)
	require.NotNil(t, ann.Price)
	assert.Equal(t, money.Cents(12000), *ann.Price)

	assert.Equal(t, "amalgam", chart[entities.ToothID(46)].Notes)
}

func TestGetChart_NotFoundYieldsEmptyChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	chart, err := client.GetChart(context.Background(), "pat-new")
	require.NoError(t, err)
	assert.Empty(t, chart)
}

func TestGetChart_ServerErrorIsSyncError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetChart(context.Background(), "pat-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSync))
}

func TestPutChart_SendsFullDocument(t *testing.T) {
	var received map[string]entities.ToothAnnotation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/patients/pat-1/odontogram", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	specialty := "surgery"
	chart := entities.ChartMap{
		entities.ToothID(18): {Status: entities.StatusMissing, Specialty: &specialty},
		entities.ToothID(21): {Status: entities.StatusSound},
	}

	client := NewClient(server.URL)
	require.NoError(t, client.PutChart(context.Background(), "pat-1", chart))

	require.Len(t, received, 2)
	assert.Equal(t, entities.StatusMissing, received["18"].Status)
}

func TestPutChart_FailureIsSyncError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.PutChart(context.Background(), "pat-1", entities.ChartMap{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSync))
}
