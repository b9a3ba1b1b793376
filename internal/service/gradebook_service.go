package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

type gradebookGetter interface {
	GetByID(ctx context.Context, id string) (*models.Gradebook, error)
}

type gradebookStore interface {
	gradebookGetter
	Create(ctx context.Context, gradebook *models.Gradebook) error
	List(ctx context.Context, filter models.GradebookFilter) ([]models.Gradebook, int, error)
	UpdateWeights(ctx context.Context, id string, weights models.CAWeights) error
}

type componentReader interface {
	List(ctx context.Context, gradebookID string) ([]models.Component, error)
	ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error)
}

type rosterReader interface {
	ListEnrolled(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error)
	Count(ctx context.Context, gradebookID string) (int, error)
	IsEnrolled(ctx context.Context, gradebookID, traineeID string) (bool, error)
	FindTraineeByUserID(ctx context.Context, userID string) (*models.Trainee, error)
	FindQualification(ctx context.Context, id string) (*models.Qualification, error)
}

type markReader interface {
	ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error)
	ListTraineeMarks(ctx context.Context, gradebookID, traineeID string) ([]models.Mark, error)
	ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error)
}

// RosterScheduler queues an asynchronous roster reconciliation.
type RosterScheduler interface {
	Schedule(gradebookID string) bool
}

// GradebookService exposes gradebook reads, creation and CA sheets.
type GradebookService struct {
	gradebooks    gradebookStore
	components    componentReader
	roster        rosterReader
	marks         markReader
	scheduler     RosterScheduler
	autoReconcile bool
	validator     *validator.Validate
	logger        *zap.Logger
}

// GradebookServiceOption configures the service.
type GradebookServiceOption func(*GradebookService)

// WithRosterScheduler reconciles empty rosters when a gradebook is loaded.
func WithRosterScheduler(scheduler RosterScheduler, enabled bool) GradebookServiceOption {
	return func(s *GradebookService) {
		s.scheduler = scheduler
		s.autoReconcile = enabled && scheduler != nil
	}
}

// NewGradebookService constructs the service.
func NewGradebookService(gradebooks gradebookStore, components componentReader, roster rosterReader, marks markReader, validate *validator.Validate, logger *zap.Logger, opts ...GradebookServiceOption) *GradebookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GradebookService{
		gradebooks: gradebooks,
		components: components,
		roster:     roster,
		marks:      marks,
		validator:  validate,
		logger:     logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a new draft gradebook owned by the trainer.
func (s *GradebookService) Create(ctx context.Context, actor models.Actor, req dto.CreateGradebookRequest) (*models.Gradebook, error) {
	if !actor.Is(models.RoleTrainer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only trainers can create gradebooks")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gradebook payload")
	}
	if err := checkWeights(req.TestWeight, req.MockWeight); err != nil {
		return nil, err
	}
	if _, err := s.roster.FindQualification(ctx, req.QualificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "qualification not found")
		}
		return nil, appErrors.Internal(err, "failed to load qualification")
	}

	gradebook := &models.Gradebook{
		QualificationID: req.QualificationID,
		Level:           trimmedOrNil(req.Level),
		AcademicYear:    strings.TrimSpace(req.AcademicYear),
		Title:           strings.TrimSpace(req.Title),
		TestWeight:      req.TestWeight,
		MockWeight:      req.MockWeight,
		Status:          models.GradebookStatusDraft,
		IntakeLabel:     trimmedOrNil(req.IntakeLabel),
		CreatedBy:       actor.UserID,
	}
	if err := s.gradebooks.Create(ctx, gradebook); err != nil {
		if errors.Is(err, repository.ErrValueOutOfRange) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "weights out of range")
		}
		return nil, appErrors.Internal(err, "failed to create gradebook")
	}
	s.logger.Info("gradebook created", zap.String("gradebook_id", gradebook.ID), zap.String("actor_id", actor.UserID))
	s.schedule(gradebook.ID)
	return gradebook, nil
}

// List returns gradebooks visible to staff.
func (s *GradebookService) List(ctx context.Context, actor models.Actor, query dto.GradebookQuery) ([]models.Gradebook, *models.Pagination, error) {
	if !actor.Role.IsStaff() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown gradebook status")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	gradebooks, total, err := s.gradebooks.List(ctx, models.GradebookFilter{
		QualificationID: query.QualificationID,
		AcademicYear:    query.AcademicYear,
		Status:          query.Status,
		Page:            page,
		PageSize:        size,
	})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list gradebooks")
	}
	if gradebooks == nil {
		gradebooks = []models.Gradebook{}
	}
	return gradebooks, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns the gradebook with the actor's permissions. An empty roster
// triggers a background reconciliation.
func (s *GradebookService) Get(ctx context.Context, actor models.Actor, id string) (*dto.GradebookView, error) {
	gradebook, err := loadGradebook(ctx, s.gradebooks, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, gradebook.ID, ""); err != nil {
		return nil, err
	}
	count, err := s.roster.Count(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count trainees")
	}
	if count == 0 {
		s.schedule(gradebook.ID)
	}
	return &dto.GradebookView{
		Gradebook:    *gradebook,
		TraineeCount: count,
		Permissions:  Permissions(actor, gradebook),
	}, nil
}

// UpdateWeights edits the test and mock weights. The pair may sum to anything.
func (s *GradebookService) UpdateWeights(ctx context.Context, actor models.Actor, id string, req dto.UpdateWeightsRequest) (*models.Gradebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weights")
	}
	if err := checkWeights(req.TestWeight, req.MockWeight); err != nil {
		return nil, err
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, id)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}
	weights := models.CAWeights{Test: req.TestWeight, Mock: req.MockWeight}
	if err := s.gradebooks.UpdateWeights(ctx, gradebook.ID, weights); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gradebook not found")
		}
		if errors.Is(err, repository.ErrValueOutOfRange) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "weights out of range")
		}
		return nil, appErrors.Internal(err, "failed to update weights")
	}
	gradebook.TestWeight = weights.Test
	gradebook.MockWeight = weights.Mock
	return gradebook, nil
}

// Sheet assembles the full marking table and recomputes every trainee's CA.
func (s *GradebookService) Sheet(ctx context.Context, actor models.Actor, id string) (*models.GradebookSheet, error) {
	if !actor.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, id)
	if err != nil {
		return nil, err
	}
	components, err := s.components.List(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load components")
	}
	groups, err := s.components.ListGroups(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load component groups")
	}
	trainees, err := s.roster.ListEnrolled(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}
	marks, err := s.marks.ListMarks(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	feedback, err := s.marks.ListFeedback(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load feedback")
	}
	return &models.GradebookSheet{
		Gradebook:  *gradebook,
		Components: components,
		Groups:     groups,
		Trainees:   trainees,
		Marks:      marks,
		Feedback:   feedback,
		Results:    ComputeSheet(components, trainees, marks, gradebook.Weights()),
	}, nil
}

// TraineeCA computes one trainee's CA. Trainees may only read their own.
func (s *GradebookService) TraineeCA(ctx context.Context, actor models.Actor, id, traineeID string) (*models.TraineeCA, error) {
	gradebook, err := loadGradebook(ctx, s.gradebooks, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, gradebook.ID, traineeID); err != nil {
		return nil, err
	}
	enrolled, err := s.roster.IsEnrolled(ctx, gradebook.ID, traineeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not enrolled in gradebook")
	}
	components, err := s.components.List(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load components")
	}
	marks, err := s.marks.ListTraineeMarks(ctx, gradebook.ID, traineeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	byComponent := make(map[string]models.Mark, len(marks))
	for _, mark := range marks {
		byComponent[mark.ComponentID] = mark
	}
	result := ComputeTraineeCA(traineeID, components, byComponent, gradebook.Weights())
	return &result, nil
}

// authorizeRead lets staff through. Trainees must be enrolled and, when
// traineeID is given, must be that trainee.
func (s *GradebookService) authorizeRead(ctx context.Context, actor models.Actor, gradebookID, traineeID string) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if !actor.Is(models.RoleTrainee) {
		return appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	trainee, err := s.roster.FindTraineeByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "no trainee record for this account")
		}
		return appErrors.Internal(err, "failed to load trainee")
	}
	if traineeID != "" && trainee.ID != traineeID {
		return appErrors.Clone(appErrors.ErrForbidden, "trainees can only view their own results")
	}
	enrolled, err := s.roster.IsEnrolled(ctx, gradebookID, trainee.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "not enrolled in gradebook")
	}
	return nil
}

func (s *GradebookService) schedule(gradebookID string) {
	if !s.autoReconcile {
		return
	}
	if !s.scheduler.Schedule(gradebookID) {
		s.logger.Debug("roster reconciliation not scheduled", zap.String("gradebook_id", gradebookID))
	}
}

func loadGradebook(ctx context.Context, repo gradebookGetter, id string) (*models.Gradebook, error) {
	gradebook, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gradebook not found")
		}
		return nil, appErrors.Internal(err, "failed to load gradebook")
	}
	return gradebook, nil
}

// requireEntryRights guards mark entry and structural edits.
func requireEntryRights(actor models.Actor, gradebook *models.Gradebook) error {
	if !actor.Is(models.RoleTrainer) {
		return appErrors.Clone(appErrors.ErrForbidden, "only trainers can edit gradebooks")
	}
	if !CanEnterMarks(actor, gradebook) {
		return appErrors.Clone(appErrors.ErrInvalidState, "gradebook is read-only in status "+string(gradebook.Status))
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
