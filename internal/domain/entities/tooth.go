package entities

import (
	"strconv"

	"github.com/odontosys/odontogram-engine/pkg/money"
)

// ToothID is an FDI two-digit tooth code. Permanent dentition runs 11-18,
// 21-28, 31-38, 41-48; deciduous runs 51-55, 61-65, 71-75, 81-85. The code
// is only ever used as a map key, never as an ownership handle.
type ToothID int

// Valid reports whether the code belongs to either dentition set.
func (t ToothID) Valid() bool {
	quadrant := int(t) / 10
	position := int(t) % 10
	switch quadrant {
	case 1, 2, 3, 4:
		return position >= 1 && position <= 8
	case 5, 6, 7, 8:
		return position >= 1 && position <= 5
	}
	return false
}

// Deciduous reports whether the code belongs to the deciduous set.
func (t ToothID) Deciduous() bool {
	return t.Valid() && int(t)/10 >= 5
}

// String returns the two-digit code as text.
func (t ToothID) String() string {
	return strconv.Itoa(int(t))
}

// ParseToothID parses a two-digit tooth code, rejecting codes outside both
// dentition sets.
func ParseToothID(s string) (ToothID, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	id := ToothID(n)
	return id, id.Valid()
}

// ToothStatus is the backing clinical status enumeration persisted per
// tooth. UI-facing categories are a superset and normalize onto it.
type ToothStatus string

const (
	StatusSound      ToothStatus = "sound"
	StatusDecayed    ToothStatus = "decayed"
	StatusRestored   ToothStatus = "restored"
	StatusMissing    ToothStatus = "missing"
	StatusImplant    ToothStatus = "implant"
	StatusEndodontic ToothStatus = "endodontic_treated"
)

// uiStatusAliases maps UI-facing categories onto the backing enumeration.
var uiStatusAliases = map[string]ToothStatus{
	"extraction_indicated": StatusDecayed,
	"fractured":            StatusDecayed,
	"caries":               StatusDecayed,
	"prosthesis":           StatusRestored,
	"crown":                StatusRestored,
	"sealant":              StatusRestored,
	"extracted":            StatusMissing,
	"absent":               StatusMissing,
	"root_canal":           StatusEndodontic,
}

// NormalizeStatus converts any known status string, backing or UI-facing,
// into the backing enumeration. Unknown values default to sound.
func NormalizeStatus(s string) ToothStatus {
	switch ToothStatus(s) {
	case StatusSound, StatusDecayed, StatusRestored, StatusMissing, StatusImplant, StatusEndodontic:
		return ToothStatus(s)
	}
	if mapped, ok := uiStatusAliases[s]; ok {
		return mapped
	}
	return StatusSound
}

// ToothAnnotation is the clinical state stored per tooth. Exactly one
// annotation exists per tooth id; writing a new one replaces the prior
// (last write wins), it never appends.
type ToothAnnotation struct {
	Status      ToothStatus  `json:"status" db:"status"`
	Notes       string       `json:"notes,omitempty" db:"notes"`
	Specialty   *string      `json:"specialty,omitempty" db:"specialty"`
	ProcedureID *string      `json:"procedure_id,omitempty" db:"procedure_id"`
	Price       *money.Cents `json:"price_cents,omitempty" db:"price_cents"`
}

// ChartMap is the full odontogram for one patient, keyed by tooth code.
// It is persisted as a single document with full-replace semantics.
type ChartMap map[ToothID]ToothAnnotation

// Clone returns a copy of the chart map.
func (m ChartMap) Clone() ChartMap {
	out := make(ChartMap, len(m))
	for id, ann := range m {
		out[id] = ann
	}
	return out
}
