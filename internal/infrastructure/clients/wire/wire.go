// Package wire is the normalization boundary for the loosely-typed JSON the
// external stores emit. Field names vary by store deployment (localized keys,
// camelCase vs snake_case) and prices arrive as numbers or formatted strings,
// so each external entity has exactly one parse function here and nothing
// past this package ever sees the raw payload shape.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// Object is one decoded JSON object from an external store.
type Object map[string]any

// str returns the first present, non-empty string among the aliased keys.
func (o Object) str(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// amount returns the first present amount among the aliased keys. Numbers
// are read as major units; strings go through the separator-tolerant parser.
func (o Object) amount(keys ...string) (money.Cents, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return money.FromFloat(n), true
		case string:
			if c, err := money.ParseAmount(n); err == nil {
				return c, true
			}
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return money.FromFloat(f), true
			}
		}
	}
	return 0, false
}

// cents returns the first present minor-unit amount among the aliased keys.
// Stores that already speak the strict internal shape send integer cents.
func (o Object) cents(keys ...string) (money.Cents, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return money.Cents(int64(n)), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return money.Cents(i), true
			}
		}
	}
	return 0, false
}

// boolean returns the first present boolean among the aliased keys.
func (o Object) boolean(keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// integer returns the first present integer among the aliased keys.
func (o Object) integer(keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i, true
			}
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

// ParseProcedure converts one raw catalog entry into a Procedure. A missing
// id or name is an error; a missing price parses as zero so the caller can
// decide whether to drop the entry.
func ParseProcedure(raw Object) (*entities.Procedure, error) {
	id, ok := raw.str("id", "procedure_id", "procedureId", "codigo")
	if !ok {
		return nil, fmt.Errorf("procedure entry has no id")
	}
	name, ok := raw.str("name", "nome", "description", "descricao")
	if !ok {
		return nil, fmt.Errorf("procedure %s has no name", id)
	}

	p := &entities.Procedure{
		ID:       id,
		Name:     name,
		IsActive: true,
	}
	if specialty, ok := raw.str("specialty", "especialidade", "category"); ok {
		p.Specialty = &specialty
	}
	if price, ok := raw.cents("list_price_cents"); ok {
		p.ListPrice = price
	} else if price, ok := raw.amount("preco", "price", "valor", "list_price"); ok {
		p.ListPrice = price
	}
	if active, ok := raw.boolean("is_active", "active", "ativo"); ok {
		p.IsActive = active
	}
	return p, nil
}

// ParseAnnotation converts one raw tooth annotation into the strict internal
// type. An unknown status normalizes to sound rather than failing.
func ParseAnnotation(raw Object) entities.ToothAnnotation {
	ann := entities.ToothAnnotation{Status: entities.StatusSound}

	if status, ok := raw.str("status", "estado"); ok {
		ann.Status = entities.NormalizeStatus(status)
	}
	if notes, ok := raw.str("notes", "obs", "observacao"); ok {
		ann.Notes = notes
	}
	if specialty, ok := raw.str("specialty", "especialidade"); ok {
		ann.Specialty = &specialty
	}
	if procID, ok := raw.str("procedure_id", "procedureId", "procedimento"); ok {
		ann.ProcedureID = &procID
	}
	if price, ok := raw.cents("price_cents"); ok {
		ann.Price = &price
	} else if price, ok := raw.amount("preco", "price", "valor"); ok {
		ann.Price = &price
	}
	return ann
}

// ParseChart converts a raw odontogram document into a ChartMap. Entries
// keyed by something that is not a tooth code are dropped, not fatal; the
// stores have been seen to carry bookkeeping keys alongside tooth entries.
func ParseChart(raw map[string]json.RawMessage) (entities.ChartMap, error) {
	chart := make(entities.ChartMap, len(raw))
	for key, body := range raw {
		toothID, ok := entities.ParseToothID(key)
		if !ok {
			continue
		}
		var obj Object
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("tooth %s: %w", key, err)
		}
		chart[toothID] = ParseAnnotation(obj)
	}
	return chart, nil
}

// ParseBudgetItem converts one raw budget line into a BudgetItem.
func ParseBudgetItem(raw Object) (*entities.BudgetItem, error) {
	procID, ok := raw.str("procedure_id", "procedureId", "procedimento")
	if !ok {
		return nil, fmt.Errorf("budget item has no procedure id")
	}

	item := &entities.BudgetItem{
		ProcedureID: procID,
		Quantity:    1,
	}
	if id, ok := raw.str("id", "item_id", "itemId"); ok {
		item.ID = id
	}
	if toothKey, ok := raw.str("tooth_id", "toothId", "dente"); ok {
		if toothID, valid := entities.ParseToothID(toothKey); valid {
			item.ToothID = &toothID
		}
	} else if toothNum, ok := raw.integer("tooth_id", "toothId", "dente"); ok {
		toothID := entities.ToothID(toothNum)
		if toothID.Valid() {
			item.ToothID = &toothID
		}
	}
	if name, ok := raw.str("procedure_name", "procedureName", "nome"); ok {
		item.ProcedureName = name
	}
	if specialty, ok := raw.str("specialty", "especialidade"); ok {
		item.Specialty = &specialty
	}
	if qty, ok := raw.integer("quantity", "quantidade"); ok && qty > 0 {
		item.Quantity = qty
	}
	if price, ok := raw.cents("unit_price_cents"); ok {
		item.UnitPrice = price
	} else if price, ok := raw.amount("unit_price", "unitPrice", "preco", "valor"); ok {
		item.UnitPrice = price
	}
	if bp, ok := raw.integer("discount_bp"); ok {
		item.DiscountBP = money.ClampDiscount(money.BasisPoints(bp))
	} else if discount, ok := raw.amount("discount_percent", "discountPercent", "desconto"); ok {
		// The percent field reuses the amount parser, so 10.5% arrives as
		// 1050 which is already basis points.
		item.DiscountBP = money.ClampDiscount(money.BasisPoints(discount))
	}
	if fulfilled, ok := raw.boolean("fulfilled", "done", "realizado"); ok {
		item.Fulfilled = fulfilled
	}
	return item, nil
}

// ParseBudget converts a raw budget document, items included, into a Budget.
func ParseBudget(raw Object) (*entities.Budget, error) {
	id, ok := raw.str("id", "budget_id", "budgetId")
	if !ok {
		return nil, fmt.Errorf("budget document has no id")
	}

	budget := &entities.Budget{ID: id}
	if patientID, ok := raw.str("patient_id", "patientId", "paciente"); ok {
		budget.PatientID = patientID
	}
	if notes, ok := raw.str("notes", "obs", "observacao"); ok {
		budget.Notes = notes
	}

	if rawItems, ok := raw["items"].([]any); ok {
		budget.Items = make([]entities.BudgetItem, 0, len(rawItems))
		for i, entry := range rawItems {
			m, isMap := entry.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("budget %s item %d is not an object", id, i)
			}
			item, err := ParseBudgetItem(Object(m))
			if err != nil {
				return nil, fmt.Errorf("budget %s: %w", id, err)
			}
			budget.Items = append(budget.Items, *item)
		}
	}

	if subtotal, ok := raw.cents("subtotal_cents"); ok {
		budget.Subtotal = subtotal
	} else if subtotal, ok := raw.amount("subtotal"); ok {
		budget.Subtotal = subtotal
	} else {
		for i := range budget.Items {
			budget.Subtotal += budget.Items[i].LineTotal()
		}
	}
	if total, ok := raw.cents("total_cents"); ok {
		budget.Total = total
	} else if total, ok := raw.amount("total", "valor_total"); ok {
		budget.Total = total
	} else {
		budget.Total = budget.Subtotal
	}
	return budget, nil
}
