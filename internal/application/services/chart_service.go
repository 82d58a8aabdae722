package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/odontosys/odontogram-engine/internal/domain/entities"
	"github.com/odontosys/odontogram-engine/internal/domain/providers"
	"github.com/odontosys/odontogram-engine/internal/domain/repositories"
	apperrors "github.com/odontosys/odontogram-engine/pkg/errors"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/rs/zerolog/log"
)

// AnnotationPatch is a partial annotation merged into a tooth's current
// state. Nil fields are left untouched; ClearProcedure drops the
// procedure/price pair explicitly.
type AnnotationPatch struct {
	Status         *entities.ToothStatus
	Notes          *string
	Specialty      *string
	ProcedureID    *string
	Price          *money.Cents
	ClearProcedure bool
}

// ChartService holds one patient's tooth chart in memory between loads and
// pushes. Entries are created lazily on first edit; each tooth carries
// exactly one annotation and writes are last-write-wins. All mutation goes
// through Set so the one-annotation invariant lives in one place.
type ChartService struct {
	patientID string
	teeth     entities.ChartMap
	repo      repositories.ChartRepository
	bus       providers.EventBus
}

// NewChartService creates a chart for one patient. bus is optional.
func NewChartService(patientID string, repo repositories.ChartRepository, bus providers.EventBus) *ChartService {
	return &ChartService{
		patientID: patientID,
		teeth:     make(entities.ChartMap),
		repo:      repo,
		bus:       bus,
	}
}

// PatientID returns the chart's owning patient.
func (s *ChartService) PatientID() string {
	return s.patientID
}

// Load replaces the in-memory chart with the store's copy.
func (s *ChartService) Load(ctx context.Context) error {
	chart, err := s.repo.GetChart(ctx, s.patientID)
	if err != nil {
		return apperrors.NewSyncError("failed to load chart", err)
	}
	if chart == nil {
		chart = make(entities.ChartMap)
	}
	s.teeth = chart
	return nil
}

// Get returns the tooth's annotation, or a default sound annotation when
// the tooth has never been edited.
func (s *ChartService) Get(toothID entities.ToothID) entities.ToothAnnotation {
	if ann, ok := s.teeth[toothID]; ok {
		return ann
	}
	return entities.ToothAnnotation{Status: entities.StatusSound}
}

// StatusOf returns the backing status for a tooth, defaulting to sound.
func (s *ChartService) StatusOf(toothID entities.ToothID) entities.ToothStatus {
	return s.Get(toothID).Status
}

// Set merges a patch into the tooth's annotation, creating it lazily.
// Choosing a new specialty cascade-clears any previously chosen
// procedure/price on the chart annotation, so a stale price cannot linger
// under the wrong specialty. Unrelated treatment records are not touched.
func (s *ChartService) Set(toothID entities.ToothID, patch AnnotationPatch) error {
	if !toothID.Valid() {
		return apperrors.NewValidationError("unknown tooth code", toothID.String())
	}

	ann := s.Get(toothID)

	if patch.Status != nil {
		ann.Status = *patch.Status
	}
	if patch.Notes != nil {
		ann.Notes = *patch.Notes
	}
	if patch.Specialty != nil {
		prev := ann.Specialty
		ann.Specialty = patch.Specialty
		if prev == nil || *prev != *patch.Specialty {
			ann.ProcedureID = nil
			ann.Price = nil
		}
	}
	if patch.ProcedureID != nil {
		ann.ProcedureID = patch.ProcedureID
	}
	if patch.Price != nil {
		ann.Price = patch.Price
	}
	if patch.ClearProcedure {
		ann.ProcedureID = nil
		ann.Price = nil
	}

	s.teeth[toothID] = ann
	return nil
}

// Snapshot returns a copy of the current chart map.
func (s *ChartService) Snapshot() entities.ChartMap {
	return s.teeth.Clone()
}

// Push writes the whole chart to the store as one document (full-replace)
// and publishes a chart-updated event. On failure the in-memory chart is
// left untouched so the caller can retry.
func (s *ChartService) Push(ctx context.Context) error {
	if err := s.repo.PutChart(ctx, s.patientID, s.teeth); err != nil {
		return apperrors.NewSyncError("failed to push chart", err)
	}

	if s.bus != nil {
		event := &entities.ChartEvent{
			ID:        uuid.NewString(),
			Type:      entities.EventChartUpdated,
			PatientID: s.patientID,
			Timestamp: time.Now().UTC(),
		}
		if err := s.bus.Publish(ctx, providers.GetChartChannel(s.patientID), event); err != nil {
			log.Warn().Err(err).Str("patient_id", s.patientID).Msg("failed to publish chart event")
		}
	}

	return nil
}
