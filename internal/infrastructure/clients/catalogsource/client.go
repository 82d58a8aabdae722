// Package catalogsource fetches procedure catalog pages from the remote
// source. The catalog service walks the pages; this client only fetches one
// page at a time.
package catalogsource

import (
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
	"github.com/rs/zerolog/log"
)

// Client implements repositories.ProcedureSource against the remote catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new catalog source client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ repositories.ProcedureSource = (*Client)(nil)

// pageEnvelope covers the two response shapes the source has been seen to
// emit: a bare array, or an object wrapping the array with a hasMore flag.
type pageEnvelope struct {
	Data       []wire.Object `json:"data"`
	Items      []wire.Object `json:"items"`
	Procedures []wire.Object `json:"procedures"`
	HasMore    *bool         `json:"hasMore"`
}

// Page fetches one page of the catalog. The second return reports whether
// more pages remain; without an explicit hasMore flag a full page is taken
// to mean more may follow.
func (c *Client) Page(ctx context.Context, page, size int, specialty string) ([]*entities.Procedure, bool, error) {
	parsed, err := url.Parse(c.baseURL + "/procedures")
	if err != nil {
		return nil, false, apperrors.NewSyncError("invalid catalog url", err)
	}
	query := parsed.Query()
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("size", fmt.Sprintf("%d", size))
	if specialty != "" {
		query.Set("specialty", specialty)
	}
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, false, apperrors.NewSyncError("failed to build catalog request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, apperrors.NewSyncError("catalog source unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, apperrors.NewSyncError(fmt.Sprintf("catalog source returned status %d", resp.StatusCode), nil)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, apperrors.NewSyncError("failed to decode catalog page", err)
	}

	var entries []wire.Object
	var hasMore *bool
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, false, apperrors.NewSyncError("malformed catalog page", err)
		}
	} else {
		var envelope pageEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, false, apperrors.NewSyncError("malformed catalog page", err)
		}
		switch {
		case envelope.Data != nil:
			entries = envelope.Data
		case envelope.Items != nil:
			entries = envelope.Items
		default:
			entries = envelope.Procedures
		}
		hasMore = envelope.HasMore
	}

	procedures := make([]*entities.Procedure, 0, len(entries))
	for _, entry := range entries {
		procedure, err := wire.ParseProcedure(entry)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("skipping malformed catalog entry")
			continue
		}
		procedures = append(procedures, procedure)
	}

	if hasMore != nil {
		return procedures, *hasMore, nil
	}
	return procedures, len(entries) == size, nil
}
