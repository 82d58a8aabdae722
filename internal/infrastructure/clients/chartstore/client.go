// Package chartstore talks to the remote odontogram store. The chart is one
// document per patient with full-replace write semantics.
package chartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	"github.com/odontosys/odontogram-engine/internal/infrastructure/clients/wire"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
)

// Client implements repositories.ChartRepository against the remote store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new chart store client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ repositories.ChartRepository = (*Client)(nil)

// GetChart retrieves the full chart map for a patient. A 404 means the
// patient has no chart yet and yields an empty map.
func (c *Client) GetChart(ctx context.Context, patientID string) (entities.ChartMap, error) {
	endpoint := fmt.Sprintf("%s/patients/%s/odontogram", c.baseURL, url.PathEscape(patientID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewSyncError("failed to build chart request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSyncError("chart store unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entities.ChartMap{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewSyncError(fmt.Sprintf("chart store returned status %d", resp.StatusCode), nil)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.NewSyncError("failed to decode chart document", err)
	}

	chart, err := wire.ParseChart(raw)
	if err != nil {
		return nil, apperrors.NewSyncError("malformed chart document", err)
	}
	return chart, nil
}

// PutChart replaces the patient's entire chart map in one call.
func (c *Client) PutChart(ctx context.Context, patientID string, chart entities.ChartMap) error {
	endpoint := fmt.Sprintf("%s/patients/%s/odontogram", c.baseURL, url.PathEscape(patientID))

	body, err := json.Marshal(chart)
	if err != nil {
		return apperrors.NewSyncError("failed to encode chart document", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewSyncError("failed to build chart request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewSyncError("chart store unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewSyncError(fmt.Sprintf("chart store returned status %d", resp.StatusCode), nil)
	}
	return nil
}
