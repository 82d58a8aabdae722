package entities

import (
	"time"

	"github.com/odontosys/odontogram-engine/pkg/money"
)

// Procedure is an immutable treatment catalog entry. Budget records only
// hold a denormalized name/specialty snapshot of it, so historic budgets
// stay stable if the catalog later changes.
type Procedure struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Specialty *string     `json:"specialty,omitempty" db:"specialty"`
	ListPrice money.Cents `json:"list_price_cents" db:"list_price_cents"`
	IsActive  bool        `json:"is_active" db:"is_active"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
