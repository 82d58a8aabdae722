package catalogsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_BareArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/procedures", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("size"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "p1", "name": "Cleaning", "preco": 80.0},
			{"id": "p2", "nome": "Filling", "valor": "150,00"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	procedures, hasMore, err := client.Page(context.Background(), 0, 2, "")
	require.NoError(t, err)
	require.Len(t, procedures, 2)
	assert.Equal(t, money.Cents(8000), procedures[0].ListPrice)
	assert.Equal(t, money.Cents(15000), procedures[1].ListPrice)

	// Full page without an explicit flag means more may follow.
	assert.True(t, hasMore)
}

func TestPage_EnvelopeWithHasMore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "endodontics", r.URL.Query().Get("specialty"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [{"id": "p1", "name": "Root canal", "price": 400.0}],
			"hasMore": false
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	procedures, hasMore, err := client.Page(context.Background(), 0, 50, "endodontics")
	require.NoError(t, err)
	require.Len(t, procedures, 1)
	assert.False(t, hasMore)
}

func TestPage_SkipsMalformedEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "no id here"},
			{"id": "p2", "name": "Filling", "price": 150.0}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	procedures, _, err := client.Page(context.Background(), 0, 50, "")
	require.NoError(t, err)
	require.Len(t, procedures, 1)
	assert.Equal(t, "p2", procedures[0].ID)
}

func TestPage_PartialPageMeansDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "p1", "name": "Cleaning", "price": 80.0}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, hasMore, err := client.Page(context.Background(), 3, 50, "")
	require.NoError(t, err)
	assert.False(t, hasMore)
}

func TestPage_ServerErrorIsSyncError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, _, err := client.Page(context.Background(), 0, 50, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSync))
}
