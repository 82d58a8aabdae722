// Package budgetstore talks to the remote budget store. A finalized record
// list is submitted as one itemized document; the store assigns budget and
// item ids.
package budgetstore

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

// Client implements repositories.BudgetRepository against the remote store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new budget store client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ repositories.BudgetRepository = (*Client)(nil)

// itemPayload is the camelCase wire shape the store expects for one line.
// Prices travel in major units.
type itemPayload struct {
	ToothID         *string `json:"toothId"`
	ProcedureID     string  `json:"procedureId"`
	ProcedureName   string  `json:"procedureName"`
	Specialty       *string `json:"specialty"`
	Quantity        int     `json:"quantity"`
	DiscountPercent float64 `json:"discountPercent"`
	UnitPrice       float64 `json:"unitPrice"`
}

type createPayload struct {
	PatientID string        `json:"patientId"`
	Notes     string        `json:"notes,omitempty"`
	Items     []itemPayload `json:"items"`
}

func toItemPayload(item *entities.BudgetItem) itemPayload {
	p := itemPayload{
		ProcedureID:     item.ProcedureID,
		ProcedureName:   item.ProcedureName,
		Specialty:       item.Specialty,
		Quantity:        item.Quantity,
		DiscountPercent: float64(item.DiscountBP) / 100,
		UnitPrice:       item.UnitPrice.Float64(),
	}
	if item.ToothID != nil {
		tooth := item.ToothID.String()
		p.ToothID = &tooth
	}
	return p
}

// Create submits the budget as one document and copies the server-assigned
// budget and item ids back onto the argument.
func (c *Client) Create(ctx context.Context, budget *entities.Budget) error {
	payload := createPayload{
		PatientID: budget.PatientID,
		Notes:     budget.Notes,
		Items:     make([]itemPayload, 0, len(budget.Items)),
	}
	for i := range budget.Items {
		payload.Items = append(payload.Items, toItemPayload(&budget.Items[i]))
	}

	var raw wire.Object
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/budgets", payload, &raw); err != nil {
		return err
	}

	created, err := wire.ParseBudget(raw)
	if err != nil {
		return apperrors.NewSyncError("malformed budget store response", err)
	}

	budget.ID = created.ID
	budget.CreatedAt = time.Now()
	for i := range budget.Items {
		if i < len(created.Items) {
			budget.Items[i].ID = created.Items[i].ID
		}
	}
	return nil
}

// GetByID retrieves a budget with its items.
func (c *Client) GetByID(ctx context.Context, id string) (*entities.Budget, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s", c.baseURL, url.PathEscape(id))

	var raw wire.Object
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	budget, err := wire.ParseBudget(raw)
	if err != nil {
		return nil, apperrors.NewSyncError("malformed budget document", err)
	}
	return budget, nil
}

// ListByPatient retrieves all budgets for a patient, newest first.
func (c *Client) ListByPatient(ctx context.Context, patientID string) ([]*entities.Budget, error) {
	endpoint := fmt.Sprintf("%s/budgets?patientId=%s", c.baseURL, url.QueryEscape(patientID))

	var raw []wire.Object
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	budgets := make([]*entities.Budget, 0, len(raw))
	for _, obj := range raw {
		budget, err := wire.ParseBudget(obj)
		if err != nil {
			return nil, apperrors.NewSyncError("malformed budget document", err)
		}
		budgets = append(budgets, budget)
	}
	return budgets, nil
}

// DeleteItem removes one persisted budget line.
func (c *Client) DeleteItem(ctx context.Context, budgetID, itemID string) error {
	endpoint := fmt.Sprintf("%s/budgets/%s/items/%s",
		c.baseURL, url.PathEscape(budgetID), url.PathEscape(itemID))
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

// UpdateItemStatus marks a budget line fulfilled or not fulfilled.
func (c *Client) UpdateItemStatus(ctx context.Context, budgetID, itemID string, fulfilled bool) error {
	endpoint := fmt.Sprintf("%s/budgets/%s/items/%s/status",
		c.baseURL, url.PathEscape(budgetID), url.PathEscape(itemID))
	payload := map[string]bool{"fulfilled": fulfilled}
	return c.doJSON(ctx, http.MethodPatch, endpoint, payload, nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewSyncError("failed to encode budget request", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperrors.NewSyncError("failed to build budget request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewSyncError("budget store unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError("budget not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewSyncError(fmt.Sprintf("budget store returned status %d", resp.StatusCode), nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.NewSyncError("failed to decode budget store response", err)
		}
	}
	return nil
}
