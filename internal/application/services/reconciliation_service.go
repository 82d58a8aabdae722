package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SyncState tracks where a finalize operation is.
type SyncState string

const (
	StateIdle          SyncState = "idle"
	StateValidating    SyncState = "validating"
	StateSyncingChart  SyncState = "syncing_chart"
	StateSyncingBudget SyncState = "syncing_budget"
	StateDone          SyncState = "done"
	StateFailed        SyncState = "failed"
)

// ReconciliationService merges the in-progress record list back into the
// tooth chart and persists the list as one itemized budget document.
//
// Finalize runs Idle -> Validating -> SyncingChart -> SyncingBudget ->
// Done | Failed. Validation happens before any store call; the chart write
// completes strictly before the budget write, since budget creation assumes
// the chart already reflects the records. On failure at either sync step
// the record list is left untouched, so the user retries without
// re-entering data.
type ReconciliationService struct {
	chart     *ChartService
	assembler *BudgetAssembler
	budgets   repositories.BudgetRepository
	catalog   *CatalogService
	bus       providers.EventBus
	state     SyncState
}

// NewReconciliationService wires the finalize flow for one editing session.
// catalog and bus are optional; without a catalog the stale-reference check
// is skipped.
func NewReconciliationService(
	chart *ChartService,
	assembler *BudgetAssembler,
	budgets repositories.BudgetRepository,
	catalog *CatalogService,
	bus providers.EventBus,
) *ReconciliationService {
	return &ReconciliationService{
		chart:     chart,
		assembler: assembler,
		budgets:   budgets,
		catalog:   catalog,
		bus:       bus,
		state:     StateIdle,
	}
}

// State returns the current finalize state.
func (s *ReconciliationService) State() SyncState {
	return s.state
}

// Finalize validates every record, merges tooth-bound records into the
// chart (insertion order, last write wins per tooth), pushes the whole
// chart, then creates the budget document and clears the record list.
// It returns the created budget and any stale-reference warnings.
func (s *ReconciliationService) Finalize(ctx context.Context, notes string) (*entities.Budget, []string, error) {
	switch s.state {
	case StateValidating, StateSyncingChart, StateSyncingBudget:
		return nil, nil, apperrors.NewConflictError("a finalize is already in flight")
	}

	s.state = StateValidating
	records := s.assembler.Records()

	if len(records) == 0 {
		s.state = StateFailed
		return nil, nil, apperrors.NewValidationError("no treatment records to finalize")
	}

	if refs := missingProcedureRefs(records); len(refs) > 0 {
		s.state = StateFailed
		return nil, nil, apperrors.NewValidationError("records without a resolved procedure", refs...)
	}

	warnings := s.staleReferenceWarnings(records)

	s.state = StateSyncingChart
	for _, r := range records {
		if r.ToothID == nil {
			continue
		}
		patch := AnnotationPatch{}
		if r.Status != "" {
			status := r.Status
			patch.Status = &status
		}
		if r.Notes != "" {
			recordNotes := r.Notes
			patch.Notes = &recordNotes
		}
		if r.Specialty != nil {
			patch.Specialty = r.Specialty
		}
		if err := s.chart.Set(*r.ToothID, patch); err != nil {
			s.state = StateFailed
			return nil, warnings, err
		}
	}
	if err := s.chart.Push(ctx); err != nil {
		s.state = StateFailed
		return nil, warnings, err
	}

	s.state = StateSyncingBudget
	budget := s.buildBudget(notes, records)
	if err := s.budgets.Create(ctx, budget); err != nil {
		s.state = StateFailed
		return nil, warnings, apperrors.NewSyncError("failed to create budget", err)
	}

	s.assembler.Clear()
	s.state = StateDone

	if s.bus != nil {
		event := &entities.ChartEvent{
			ID:        uuid.NewString(),
			Type:      entities.EventBudgetFinalized,
			PatientID: budget.PatientID,
			BudgetID:  budget.ID,
			Timestamp: time.Now().UTC(),
		}
		if err := s.bus.Publish(ctx, providers.EventChannelBudgetUpdates, event); err != nil {
			log.Warn().Err(err).Str("budget_id", budget.ID).Msg("failed to publish budget event")
		}
	}

	log.Info().
		Str("patient_id", budget.PatientID).
		Str("budget_id", budget.ID).
		Int("items", len(budget.Items)).
		Str("total", budget.Total.String()).
		Msg("budget finalized")

	return budget, warnings, nil
}

// buildBudget assembles the persistence-ready document. Record discounts
// were already folded into unit prices by the price calculator in the
// tooth-chart flow, so item discounts pass through as entered (zero there).
func (s *ReconciliationService) buildBudget(notes string, records []*entities.TreatmentRecord) *entities.Budget {
	budget := &entities.Budget{
		PatientID: s.chart.PatientID(),
		Notes:     notes,
		Items:     make([]entities.BudgetItem, 0, len(records)),
	}
	for _, r := range records {
		budget.Items = append(budget.Items, entities.BudgetItem{
			ToothID:       r.ToothID,
			ProcedureID:   r.ProcedureID,
			ProcedureName: r.ProcedureName,
			Specialty:     r.Specialty,
			Quantity:      r.Quantity,
			DiscountBP:    r.DiscountBP,
			UnitPrice:     r.UnitPrice,
		})
		budget.Subtotal += r.LineTotal()
	}
	budget.Total = budget.Subtotal
	return budget
}

// staleReferenceWarnings names records whose procedure id no longer
// resolves in the loaded catalog. They are reported, never dropped.
func (s *ReconciliationService) staleReferenceWarnings(records []*entities.TreatmentRecord) []string {
	if s.catalog == nil || s.catalog.Len() == 0 {
		return nil
	}
	var warnings []string
	for _, r := range records {
		if _, ok := s.catalog.FindByID(r.ProcedureID); !ok {
			warnings = append(warnings, fmt.Sprintf("%s: procedure %s not in catalog", recordRef(r), r.ProcedureID))
		}
	}
	return warnings
}

func missingProcedureRefs(records []*entities.TreatmentRecord) []string {
	var refs []string
	for _, r := range records {
		if r.ProcedureID == "" {
			refs = append(refs, recordRef(r))
		}
	}
	return refs
}

func recordRef(r *entities.TreatmentRecord) string {
	if r.ToothID != nil {
		return "tooth " + r.ToothID.String()
	}
	return "general record " + r.RecordID
}
