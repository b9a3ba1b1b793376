package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

type componentFinder interface {
	FindByID(ctx context.Context, gradebookID, componentID string) (*models.Component, error)
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, gradebookID, traineeID string) (bool, error)
}

type markStore interface {
	SaveEntry(ctx context.Context, params repository.SaveEntryParams) (*repository.SaveEntryResult, error)
	SaveFeedback(ctx context.Context, gradebookID string, feedback *models.Feedback) (*models.Feedback, error)
	ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error)
	ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error)
}

type markWriteRecorder interface {
	RecordMarkWrite(outcome string)
}

// MarkService records marks and feedback for gradebook cells.
type MarkService struct {
	gradebooks gradebookGetter
	components componentFinder
	roster     enrollmentChecker
	repo       markStore
	metrics    markWriteRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewMarkService constructs the service.
func NewMarkService(gradebooks gradebookGetter, components componentFinder, roster enrollmentChecker, repo markStore, metrics markWriteRecorder, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{
		gradebooks: gradebooks,
		components: components,
		roster:     roster,
		repo:       repo,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// ListMarks returns every mark of the gradebook.
func (s *MarkService) ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error) {
	if _, err := loadGradebook(ctx, s.gradebooks, gradebookID); err != nil {
		return nil, err
	}
	marks, err := s.repo.ListMarks(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list marks")
	}
	return marks, nil
}

// ListFeedback returns every feedback entry of the gradebook.
func (s *MarkService) ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error) {
	if _, err := loadGradebook(ctx, s.gradebooks, gradebookID); err != nil {
		return nil, err
	}
	feedback, err := s.repo.ListFeedback(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list feedback")
	}
	return feedback, nil
}

// SaveEntry writes one cell. The mark, optional feedback and the gradebook lock
// are persisted together or not at all.
func (s *MarkService) SaveEntry(ctx context.Context, actor models.Actor, gradebookID string, req dto.SaveEntryRequest) (*dto.EntryResult, error) {
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}
	return s.saveEntry(ctx, actor, gradebook, req)
}

func (s *MarkService) saveEntry(ctx context.Context, actor models.Actor, gradebook *models.Gradebook, req dto.SaveEntryRequest) (*dto.EntryResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark entry")
	}
	component, err := s.resolveCell(ctx, gradebook.ID, req.ComponentID, req.TraineeID)
	if err != nil {
		return nil, err
	}
	if err := validateScore(req.MarksObtained, component.MaxMarks); err != nil {
		return nil, err
	}
	status := models.CompetencyPending
	if req.CompetencyStatus != nil {
		status = *req.CompetencyStatus
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competency status")
	}

	params := repository.SaveEntryParams{
		GradebookID: gradebook.ID,
		Mark: &models.Mark{
			ComponentID:      component.ID,
			TraineeID:        req.TraineeID,
			MarksObtained:    req.MarksObtained,
			CompetencyStatus: status,
			EnteredBy:        actor.UserID,
		},
	}
	if req.Feedback != nil {
		params.Feedback = &models.Feedback{
			ComponentID: component.ID,
			TraineeID:   req.TraineeID,
			Text:        req.Feedback.Text,
			IsFinal:     req.Feedback.IsFinal,
			WrittenBy:   actor.UserID,
		}
	}

	saved, err := s.repo.SaveEntry(ctx, params)
	if err != nil {
		s.recordWrite("error")
		return nil, entryWriteError(err, "failed to save mark entry")
	}
	s.recordWrite("ok")
	if saved.Locked && !gradebook.IsLocked {
		s.logger.Info("gradebook locked by first mark",
			zap.String("gradebook_id", gradebook.ID),
			zap.String("component_id", component.ID),
			zap.String("actor_id", actor.UserID),
		)
	}
	return &dto.EntryResult{
		Mark:     saved.Mark,
		Feedback: saved.Feedback,
		Locked:   saved.Locked || gradebook.IsLocked,
	}, nil
}

// SaveFeedback writes feedback for a cell without touching its mark.
func (s *MarkService) SaveFeedback(ctx context.Context, actor models.Actor, gradebookID string, req dto.SaveFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}
	if _, err := s.resolveCell(ctx, gradebook.ID, req.ComponentID, req.TraineeID); err != nil {
		return nil, err
	}
	feedback, err := s.repo.SaveFeedback(ctx, gradebook.ID, &models.Feedback{
		ComponentID: req.ComponentID,
		TraineeID:   req.TraineeID,
		Text:        req.Text,
		IsFinal:     req.IsFinal,
		WrittenBy:   actor.UserID,
	})
	if err != nil {
		return nil, entryWriteError(err, "failed to save feedback")
	}
	return feedback, nil
}

// BulkSave stages every entry and commits them cell by cell. Cells that fail
// are reported without undoing the cells that succeeded.
func (s *MarkService) BulkSave(ctx context.Context, actor models.Actor, gradebookID string, req dto.BulkSaveRequest) (*dto.BulkSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}

	staged := NewStagedEdits()
	for _, entry := range req.Entries {
		staged.Stage(entry)
	}
	committed, failures := staged.CommitAll(ctx, func(ctx context.Context, entry dto.SaveEntryRequest) error {
		_, err := s.saveEntry(ctx, actor, gradebook, entry)
		return err
	})

	result := &dto.BulkSaveResult{Committed: make([]string, 0, len(committed))}
	for _, key := range committed {
		result.Committed = append(result.Committed, key.String())
	}
	for _, key := range staged.Pending() {
		appErr := appErrors.FromError(failures[key])
		result.Failures = append(result.Failures, dto.CellFailure{
			Key:    key.String(),
			Code:   appErr.Code,
			Reason: appErr.Message,
		})
	}
	if len(result.Failures) > 0 {
		s.logger.Warn("bulk mark save partially failed",
			zap.String("gradebook_id", gradebook.ID),
			zap.Int("committed", len(result.Committed)),
			zap.Int("failed", len(result.Failures)),
		)
	}
	return result, nil
}

func (s *MarkService) resolveCell(ctx context.Context, gradebookID, componentID, traineeID string) (*models.Component, error) {
	component, err := s.components.FindByID(ctx, gradebookID, componentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "component not found in gradebook")
		}
		return nil, appErrors.Internal(err, "failed to load component")
	}
	enrolled, err := s.roster.IsEnrolled(ctx, gradebookID, traineeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not enrolled in gradebook")
	}
	return component, nil
}

func entryWriteError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrEntryClosed):
		return appErrors.Clone(appErrors.ErrInvalidState, "gradebook is read-only for marks")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "gradebook not found")
	case errors.Is(err, repository.ErrReferenceNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "component or trainee not found")
	case errors.Is(err, repository.ErrValueOutOfRange):
		return appErrors.Clone(appErrors.ErrValidation, "value does not fit the marks column")
	}
	return appErrors.Internal(err, message)
}

func (s *MarkService) recordWrite(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordMarkWrite(outcome)
	}
}

func validateScore(score *float64, maxMarks float64) error {
	if score == nil {
		return nil
	}
	value := *score
	if err := checkCents(value, maxStoredMarks, "marks"); err != nil {
		return err
	}
	if value < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "marks cannot be negative")
	}
	if value > maxMarks {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("marks cannot exceed %s", strconv.FormatFloat(maxMarks, 'f', -1, 64)))
	}
	return nil
}
