package entities

import "time"

// ChartEventType identifies what changed.
type ChartEventType string

const (
	// EventChartUpdated fires after a full odontogram write for a patient.
	EventChartUpdated ChartEventType = "chart.updated"

	// EventBudgetFinalized fires after a record list is persisted as a budget.
	EventBudgetFinalized ChartEventType = "budget.finalized"

	// EventBudgetItemStatus fires when a budget line is marked fulfilled
	// or not fulfilled.
	EventBudgetItemStatus ChartEventType = "budget.item_status"
)

// ChartEvent is published on the event bus after successful store writes,
// so history views and open editors can refresh.
type ChartEvent struct {
	ID        string         `json:"id"`
	Type      ChartEventType `json:"type"`
	PatientID string         `json:"patient_id"`
	BudgetID  string         `json:"budget_id,omitempty"`
	ItemID    string         `json:"item_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
