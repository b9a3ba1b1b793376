package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

type markQueryStore interface {
	Create(ctx context.Context, query *models.MarkQuery) error
	GetByID(ctx context.Context, id string) (*models.MarkQuery, error)
	List(ctx context.Context, filter models.MarkQueryFilter) ([]models.MarkQuery, error)
	Resolve(ctx context.Context, params repository.ResolveParams) error
}

type traineeLookup interface {
	IsEnrolled(ctx context.Context, gradebookID, traineeID string) (bool, error)
	FindTraineeByUserID(ctx context.Context, userID string) (*models.Trainee, error)
}

// MarkQueryService lets trainees dispute marks and staff close the disputes.
// Queries never change marks.
type MarkQueryService struct {
	gradebooks gradebookGetter
	components componentFinder
	trainees   traineeLookup
	repo       markQueryStore
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewMarkQueryService constructs the service.
func NewMarkQueryService(gradebooks gradebookGetter, components componentFinder, trainees traineeLookup, repo markQueryStore, validate *validator.Validate, logger *zap.Logger) *MarkQueryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkQueryService{
		gradebooks: gradebooks,
		components: components,
		trainees:   trainees,
		repo:       repo,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Raise opens a query on the trainee's own mark.
func (s *MarkQueryService) Raise(ctx context.Context, actor models.Actor, gradebookID string, req dto.RaiseQueryRequest) (*models.MarkQuery, error) {
	if !actor.Is(models.RoleTrainee) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only trainees can raise mark queries")
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark query")
	}
	trainee, err := s.ownTrainee(ctx, actor)
	if err != nil {
		return nil, err
	}
	if trainee.ID != req.TraineeID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "trainees can only query their own marks")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if _, err := s.components.FindByID(ctx, gradebook.ID, req.ComponentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "component not found in gradebook")
		}
		return nil, appErrors.Internal(err, "failed to load component")
	}
	enrolled, err := s.trainees.IsEnrolled(ctx, gradebook.ID, trainee.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not enrolled in gradebook")
	}

	query := &models.MarkQuery{
		GradebookID: gradebook.ID,
		ComponentID: req.ComponentID,
		TraineeID:   trainee.ID,
		QueryType:   req.QueryType,
		Subject:     req.Subject,
		Description: strings.TrimSpace(req.Description),
		Status:      models.QueryStatusOpen,
		RaisedBy:    actor.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, query); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "component or trainee not found")
		}
		return nil, appErrors.Internal(err, "failed to create mark query")
	}
	s.logger.Info("mark query raised", zap.String("query_id", query.ID), zap.String("gradebook_id", gradebook.ID))
	return query, nil
}

// Resolve closes an open query as resolved or rejected. Notes are mandatory.
func (s *MarkQueryService) Resolve(ctx context.Context, actor models.Actor, queryID string, req dto.ResolveQueryRequest) (*models.MarkQuery, error) {
	if !actor.Is(models.RoleTrainer) && !actor.Is(models.RoleHeadOfTraining) && !actor.Is(models.RoleAssessmentCoordinator) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can resolve mark queries")
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolution notes are required")
	}
	if req.Outcome != models.QueryStatusResolved && req.Outcome != models.QueryStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "outcome must be resolved or rejected")
	}

	query, err := s.repo.GetByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mark query not found")
		}
		return nil, appErrors.Internal(err, "failed to load mark query")
	}
	if query.Status != models.QueryStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "mark query is already "+string(query.Status))
	}

	resolvedAt := s.now()
	err = s.repo.Resolve(ctx, repository.ResolveParams{
		ID:         query.ID,
		Status:     req.Outcome,
		Notes:      notes,
		ResolvedBy: actor.UserID,
		ResolvedAt: resolvedAt,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "mark query was resolved concurrently")
		}
		return nil, appErrors.Internal(err, "failed to resolve mark query")
	}
	query.Status = req.Outcome
	query.ResolutionNotes = &notes
	query.ResolvedBy = &actor.UserID
	query.ResolvedAt = &resolvedAt
	s.logger.Info("mark query resolved",
		zap.String("query_id", query.ID),
		zap.String("outcome", string(req.Outcome)),
		zap.String("actor_id", actor.UserID),
	)
	return query, nil
}

// List returns the gradebook's queries. Trainees only see their own.
func (s *MarkQueryService) List(ctx context.Context, actor models.Actor, gradebookID string, status models.QueryStatus) ([]models.MarkQuery, error) {
	if status != "" && status != models.QueryStatusOpen && !status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown query status")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	filter := models.MarkQueryFilter{GradebookID: gradebook.ID, Status: status}
	switch {
	case actor.Role.IsStaff():
	case actor.Is(models.RoleTrainee):
		trainee, err := s.ownTrainee(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.TraineeID = trainee.ID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	queries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list mark queries")
	}
	return queries, nil
}

func (s *MarkQueryService) ownTrainee(ctx context.Context, actor models.Actor) (*models.Trainee, error) {
	trainee, err := s.trainees.FindTraineeByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no trainee record for this account")
		}
		return nil, appErrors.Internal(err, "failed to load trainee")
	}
	return trainee, nil
}
