package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

// Transition names a lifecycle edge.
type Transition string

const (
	TransitionSubmit            Transition = "submit"
	TransitionHoTApprove        Transition = "hot_approve"
	TransitionReturnToDraft     Transition = "return_to_draft"
	TransitionACApprove         Transition = "ac_approve"
	TransitionReturnToSubmitted Transition = "return_to_submitted"
)

// transitionRule describes one edge. Return edges store a note; submit clears it.
type transitionRule struct {
	role    models.UserRole
	from    models.GradebookStatus
	to      models.GradebookStatus
	stamp   repository.TransitionStamp
	setNote bool
}

var transitionRules = map[Transition]transitionRule{
	TransitionSubmit: {
		role:    models.RoleTrainer,
		from:    models.GradebookStatusDraft,
		to:      models.GradebookStatusSubmitted,
		stamp:   repository.StampSubmitted,
		setNote: true,
	},
	TransitionHoTApprove: {
		role:  models.RoleHeadOfTraining,
		from:  models.GradebookStatusSubmitted,
		to:    models.GradebookStatusHoTApproved,
		stamp: repository.StampHoTApproved,
	},
	TransitionReturnToDraft: {
		role:    models.RoleHeadOfTraining,
		from:    models.GradebookStatusSubmitted,
		to:      models.GradebookStatusDraft,
		setNote: true,
	},
	TransitionACApprove: {
		role:  models.RoleAssessmentCoordinator,
		from:  models.GradebookStatusHoTApproved,
		to:    models.GradebookStatusACApproved,
		stamp: repository.StampACApproved,
	},
	TransitionReturnToSubmitted: {
		role:    models.RoleAssessmentCoordinator,
		from:    models.GradebookStatusHoTApproved,
		to:      models.GradebookStatusSubmitted,
		setNote: true,
	},
}

// ParseTransition resolves a transition name.
func ParseTransition(name string) (Transition, bool) {
	t := Transition(strings.ToLower(strings.TrimSpace(name)))
	_, ok := transitionRules[t]
	return t, ok
}

// CanEnterMarks reports whether the actor may write marks, feedback or structure.
// A locked gradebook keeps accepting entries from trainers whatever its status.
func CanEnterMarks(actor models.Actor, gradebook *models.Gradebook) bool {
	if gradebook == nil || !actor.Is(models.RoleTrainer) {
		return false
	}
	return gradebook.Status == models.GradebookStatusDraft || gradebook.IsLocked
}

// CanTransition reports whether the actor holds the role for the edge and the
// gradebook currently sits at its source status.
func CanTransition(actor models.Actor, gradebook *models.Gradebook, transition Transition) bool {
	rule, ok := transitionRules[transition]
	if !ok || gradebook == nil {
		return false
	}
	return actor.Is(rule.role) && gradebook.Status == rule.from
}

// CanExportAssessorSheet reports whether the actor may download the assessor sheet.
func CanExportAssessorSheet(actor models.Actor, gradebook *models.Gradebook) bool {
	return gradebook != nil &&
		actor.Is(models.RoleAssessmentCoordinator) &&
		gradebook.Status == models.GradebookStatusHoTApproved
}

// Permissions summarises what the actor may do on the gradebook.
func Permissions(actor models.Actor, gradebook *models.Gradebook) dto.Permissions {
	canEdit := CanEnterMarks(actor, gradebook)
	return dto.Permissions{
		CanEnterMarks:          canEdit,
		CanEditStructure:       canEdit,
		CanDeleteComponents:    canEdit && !gradebook.IsLocked,
		CanSubmit:              CanTransition(actor, gradebook, TransitionSubmit),
		CanHoTApprove:          CanTransition(actor, gradebook, TransitionHoTApprove),
		CanReturnToDraft:       CanTransition(actor, gradebook, TransitionReturnToDraft),
		CanACApprove:           CanTransition(actor, gradebook, TransitionACApprove),
		CanReturnToSubmitted:   CanTransition(actor, gradebook, TransitionReturnToSubmitted),
		CanExportAssessorSheet: CanExportAssessorSheet(actor, gradebook),
	}
}

type lifecycleStore interface {
	GetByID(ctx context.Context, id string) (*models.Gradebook, error)
	Transition(ctx context.Context, params repository.TransitionParams) error
}

type transitionRecorder interface {
	RecordTransition(transition, outcome string)
}

// LifecycleService moves gradebooks through draft, submitted, hot_approved and ac_approved.
type LifecycleService struct {
	repo    lifecycleStore
	metrics transitionRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(repo lifecycleStore, metrics transitionRecorder, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Apply performs the transition on behalf of the actor and returns the updated gradebook.
func (s *LifecycleService) Apply(ctx context.Context, actor models.Actor, gradebookID string, transition Transition, note string) (*models.Gradebook, error) {
	rule, ok := transitionRules[transition]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown transition")
	}
	if !actor.Is(rule.role) {
		s.record(transition, "forbidden")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot perform "+string(transition))
	}

	gradebook, err := loadGradebook(ctx, s.repo, gradebookID)
	if err != nil {
		return nil, err
	}
	if gradebook.Status != rule.from {
		s.record(transition, "invalid_state")
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			"cannot "+string(transition)+" a gradebook in status "+string(gradebook.Status))
	}

	params := repository.TransitionParams{
		ID:      gradebook.ID,
		From:    rule.from,
		To:      rule.to,
		ActorID: actor.UserID,
		At:      s.now(),
		Stamp:   rule.stamp,
		SetNote: rule.setNote,
	}
	if rule.setNote && transition != TransitionSubmit {
		if trimmed := strings.TrimSpace(note); trimmed != "" {
			params.Note = &trimmed
		}
	}
	if err := s.repo.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.record(transition, "conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "gradebook status changed concurrently")
		}
		s.record(transition, "error")
		return nil, appErrors.Internal(err, "failed to update gradebook status")
	}
	s.record(transition, "ok")
	s.logger.Info("gradebook transitioned",
		zap.String("gradebook_id", gradebook.ID),
		zap.String("transition", string(transition)),
		zap.String("from", string(rule.from)),
		zap.String("to", string(rule.to)),
		zap.String("actor_id", actor.UserID),
	)

	updated, err := s.repo.GetByID(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to reload gradebook")
	}
	return updated, nil
}

func (s *LifecycleService) record(transition Transition, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(transition), outcome)
	}
}
