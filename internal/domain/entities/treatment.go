package entities

import (
	"time"

	"github.com/odontosys/odontogram-engine/pkg/money"
)

// TreatmentRecord is one in-progress budget line. RecordID is process-local
// (random), used only for list identity and removal; it is never sent to
// the external store. Multiple records may reference the same tooth.
type TreatmentRecord struct {
	RecordID      string            `json:"record_id"`
	ToothID       *ToothID          `json:"tooth_id,omitempty"`
	Status        ToothStatus       `json:"status"`
	Specialty     *string           `json:"specialty,omitempty"`
	ProcedureID   string            `json:"procedure_id"`
	ProcedureName string            `json:"procedure_name"`
	Quantity      int               `json:"quantity"`
	DiscountBP    money.BasisPoints `json:"discount_bp"`
	UnitPrice     money.Cents       `json:"unit_price_cents"`
	Notes         string            `json:"notes,omitempty"`

	// ItemID is set when the record mirrors an already-persisted budget
	// item (edit mode). Removal must delete remotely before dropping the
	// record locally.
	ItemID *string `json:"item_id,omitempty"`
}

// LineTotal is the record's contribution to the budget total:
// quantity x unit price x (1 - discount). In the tooth-chart flow the
// discount is already folded into UnitPrice and quantity is 1, so this
// collapses to UnitPrice.
func (r *TreatmentRecord) LineTotal() money.Cents {
	qty := r.Quantity
	if qty <= 0 {
		qty = 1
	}
	gross := money.Cents(int64(r.UnitPrice) * int64(qty))
	return gross.ApplyPercent(money.ClampDiscount(r.DiscountBP))
}

// Budget is the persisted, itemized document a finalized record list
// becomes.
type Budget struct {
	ID        string       `json:"id" db:"id"`
	PatientID string       `json:"patient_id" db:"patient_id"`
	Notes     string       `json:"notes,omitempty" db:"notes"`
	Items     []BudgetItem `json:"items"`
	Subtotal  money.Cents  `json:"subtotal_cents" db:"subtotal_cents"`
	Total     money.Cents  `json:"total_cents" db:"total_cents"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// BudgetItem is one persisted budget line. ID is server-assigned.
type BudgetItem struct {
	ID            string            `json:"id" db:"id"`
	ToothID       *ToothID          `json:"tooth_id,omitempty" db:"tooth_id"`
	ProcedureID   string            `json:"procedure_id" db:"procedure_id"`
	ProcedureName string            `json:"procedure_name" db:"procedure_name"`
	Specialty     *string           `json:"specialty,omitempty" db:"specialty"`
	Quantity      int               `json:"quantity" db:"quantity"`
	DiscountBP    money.BasisPoints `json:"discount_bp" db:"discount_bp"`
	UnitPrice     money.Cents       `json:"unit_price_cents" db:"unit_price_cents"`
	Fulfilled     bool              `json:"fulfilled" db:"fulfilled"`
}

// LineTotal mirrors TreatmentRecord.LineTotal for persisted items.
func (i *BudgetItem) LineTotal() money.Cents {
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	gross := money.Cents(int64(i.UnitPrice) * int64(qty))
	return gross.ApplyPercent(money.ClampDiscount(i.DiscountBP))
}
