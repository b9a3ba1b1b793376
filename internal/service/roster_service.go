package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/jobs"
)

// JobTypeRosterReconcile is the queue job type carrying a gradebook id.
const JobTypeRosterReconcile = "roster.reconcile"

// Reasons reported when a reconciliation enrolls nobody.
const (
	SkipInProgress      = "in_progress"
	SkipAlreadyEnrolled = "already_enrolled"
	SkipNoMatches       = "no_matching_trainees"
)

type rosterStore interface {
	ListEnrolled(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error)
	Count(ctx context.Context, gradebookID string) (int, error)
	FindQualification(ctx context.Context, id string) (*models.Qualification, error)
	FindMatching(ctx context.Context, match models.TraineeMatch) ([]models.Trainee, error)
	EnrollIfEmpty(ctx context.Context, gradebookID string, traineeIDs []string) (int, error)
	Enroll(ctx context.Context, gradebookID string, traineeIDs []string) (int, error)
}

type rosterLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type reconcileRecorder interface {
	RecordReconciliation(outcome string, enrolled int)
}

// RosterConfig tunes the reconciler.
type RosterConfig struct {
	LockTTL time.Duration
}

// RosterService keeps gradebook rosters populated from the trainee registry.
type RosterService struct {
	gradebooks gradebookGetter
	repo       rosterStore
	locker     rosterLocker
	queue      jobEnqueuer
	metrics    reconcileRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	lockTTL    time.Duration

	inflight sync.Map
}

// NewRosterService constructs the service. locker and queue may be nil.
func NewRosterService(gradebooks gradebookGetter, repo rosterStore, locker rosterLocker, queue jobEnqueuer, metrics reconcileRecorder, cfg RosterConfig, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &RosterService{
		gradebooks: gradebooks,
		repo:       repo,
		locker:     locker,
		queue:      queue,
		metrics:    metrics,
		validator:  validator.New(),
		logger:     logger,
		lockTTL:    cfg.LockTTL,
	}
}

// List returns the gradebook roster.
func (s *RosterService) List(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error) {
	if _, err := loadGradebook(ctx, s.gradebooks, gradebookID); err != nil {
		return nil, err
	}
	trainees, err := s.repo.ListEnrolled(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list roster")
	}
	return trainees, nil
}

// Reconcile enrolls every matching trainee when the roster is empty. A run
// already in flight for the same gradebook turns this call into a no-op.
func (s *RosterService) Reconcile(ctx context.Context, gradebookID string) (*dto.ReconcileResult, error) {
	result := &dto.ReconcileResult{GradebookID: gradebookID}
	if _, busy := s.inflight.LoadOrStore(gradebookID, struct{}{}); busy {
		result.Skipped = SkipInProgress
		return result, nil
	}
	defer s.inflight.Delete(gradebookID)

	lockKey := "roster:" + gradebookID
	if s.locker != nil {
		token, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
		switch {
		case err != nil:
			// the row lock taken by EnrollIfEmpty still serialises writers
			s.logger.Warn("roster lock unavailable", zap.String("gradebook_id", gradebookID), zap.Error(err))
		case token == "":
			result.Skipped = SkipInProgress
			s.record(SkipInProgress, 0)
			return result, nil
		default:
			defer func() {
				if err := s.locker.Release(context.Background(), lockKey, token); err != nil {
					s.logger.Warn("failed to release roster lock", zap.String("gradebook_id", gradebookID), zap.Error(err))
				}
			}()
		}
	}

	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx, gradebook.ID)
	if err != nil {
		s.record("error", 0)
		return nil, appErrors.Internal(err, "failed to count roster")
	}
	if count > 0 {
		result.Skipped = SkipAlreadyEnrolled
		s.record(SkipAlreadyEnrolled, 0)
		return result, nil
	}

	qualification, err := s.repo.FindQualification(ctx, gradebook.QualificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "qualification not found")
		}
		s.record("error", 0)
		return nil, appErrors.Internal(err, "failed to load qualification")
	}
	match := models.TraineeMatch{QualificationID: qualification.ID, TradeID: qualification.TradeID}
	if qualification.HasLevels && gradebook.Level != nil {
		match.Level = gradebook.Level
	}
	trainees, err := s.repo.FindMatching(ctx, match)
	if err != nil {
		s.record("error", 0)
		return nil, appErrors.Internal(err, "failed to find matching trainees")
	}
	if len(trainees) == 0 {
		result.Skipped = SkipNoMatches
		s.record(SkipNoMatches, 0)
		return result, nil
	}

	ids := make([]string, 0, len(trainees))
	for _, trainee := range trainees {
		ids = append(ids, trainee.ID)
	}
	enrolled, err := s.repo.EnrollIfEmpty(ctx, gradebook.ID, ids)
	if err != nil {
		s.record("error", 0)
		return nil, appErrors.Internal(err, "failed to enroll trainees")
	}
	if enrolled == 0 {
		result.Skipped = SkipAlreadyEnrolled
		s.record(SkipAlreadyEnrolled, 0)
		return result, nil
	}
	result.Enrolled = enrolled
	s.record("enrolled", enrolled)
	s.logger.Info("roster reconciled", zap.String("gradebook_id", gradebook.ID), zap.Int("enrolled", enrolled))
	return result, nil
}

// ReconcileNow runs the reconciler synchronously on behalf of staff.
func (s *RosterService) ReconcileNow(ctx context.Context, actor models.Actor, gradebookID string) (*dto.ReconcileResult, error) {
	if !actor.Is(models.RoleTrainer) && !actor.Is(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only trainers or admins can reconcile rosters")
	}
	return s.Reconcile(ctx, gradebookID)
}

// Schedule queues a reconciliation without blocking. It reports whether a job was queued.
func (s *RosterService) Schedule(gradebookID string) bool {
	if s.queue == nil {
		return false
	}
	if _, busy := s.inflight.Load(gradebookID); busy {
		return false
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: JobTypeRosterReconcile, Payload: gradebookID}); err != nil {
		s.logger.Warn("failed to schedule roster reconciliation", zap.String("gradebook_id", gradebookID), zap.Error(err))
		return false
	}
	return true
}

// HandleJob is the queue handler for JobTypeRosterReconcile.
func (s *RosterService) HandleJob(ctx context.Context, job jobs.Job) error {
	gradebookID, ok := job.Payload.(string)
	if !ok || gradebookID == "" {
		return fmt.Errorf("roster job %s: unexpected payload %T", job.ID, job.Payload)
	}
	_, err := s.Reconcile(ctx, gradebookID)
	if err != nil && errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Warn("roster job dropped", zap.String("gradebook_id", gradebookID), zap.Error(err))
		return nil
	}
	return err
}

// EnrollTrainees enrolls trainees by hand. Already enrolled trainees are ignored.
func (s *RosterService) EnrollTrainees(ctx context.Context, actor models.Actor, gradebookID string, req dto.EnrollTraineesRequest) (*dto.ReconcileResult, error) {
	if !actor.Is(models.RoleTrainer) && !actor.Is(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only trainers or admins can enroll trainees")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.TraineeIDs))
	ids := make([]string, 0, len(req.TraineeIDs))
	for _, id := range req.TraineeIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	enrolled, err := s.repo.Enroll(ctx, gradebook.ID, ids)
	if err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		}
		return nil, appErrors.Internal(err, "failed to enroll trainees")
	}
	s.record("manual", enrolled)
	s.logger.Info("trainees enrolled", zap.String("gradebook_id", gradebook.ID), zap.Int("enrolled", enrolled), zap.String("actor_id", actor.UserID))
	return &dto.ReconcileResult{GradebookID: gradebook.ID, Enrolled: enrolled}, nil
}

func (s *RosterService) record(outcome string, enrolled int) {
	if s.metrics != nil {
		s.metrics.RecordReconciliation(outcome, enrolled)
	}
}
