package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/database"
)

// MarkRepository persists marks and feedback. Both are keyed by component and
// trainee and only the latest value of a cell is kept.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListMarks returns every mark recorded against the gradebook's components.
func (r *MarkRepository) ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error) {
	const query = `SELECT m.id, m.component_id, m.trainee_id, m.marks_obtained, m.competency_status, m.entered_by, m.updated_at
	FROM marks m
	JOIN gradebook_components c ON c.id = m.component_id
	WHERE c.gradebook_id = $1
	ORDER BY c.sort_order, m.component_id, m.trainee_id`
	marks := make([]models.Mark, 0)
	if err := r.db.SelectContext(ctx, &marks, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// ListTraineeMarks returns one trainee's marks within a gradebook.
func (r *MarkRepository) ListTraineeMarks(ctx context.Context, gradebookID, traineeID string) ([]models.Mark, error) {
	const query = `SELECT m.id, m.component_id, m.trainee_id, m.marks_obtained, m.competency_status, m.entered_by, m.updated_at
	FROM marks m
	JOIN gradebook_components c ON c.id = m.component_id
	WHERE c.gradebook_id = $1 AND m.trainee_id = $2
	ORDER BY c.sort_order, m.component_id`
	marks := make([]models.Mark, 0)
	if err := r.db.SelectContext(ctx, &marks, query, gradebookID, traineeID); err != nil {
		return nil, fmt.Errorf("list trainee marks: %w", err)
	}
	return marks, nil
}

// ListFeedback returns every feedback entry recorded against the gradebook's components.
func (r *MarkRepository) ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error) {
	const query = `SELECT f.id, f.component_id, f.trainee_id, f.feedback_text, f.is_final, f.written_by, f.updated_at
	FROM feedback f
	JOIN gradebook_components c ON c.id = f.component_id
	WHERE c.gradebook_id = $1
	ORDER BY c.sort_order, f.component_id, f.trainee_id`
	feedback := make([]models.Feedback, 0)
	if err := r.db.SelectContext(ctx, &feedback, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedback, nil
}

// SaveEntryParams is one cell write. Feedback is optional.
type SaveEntryParams struct {
	GradebookID string
	Mark        *models.Mark
	Feedback    *models.Feedback
}

// SaveEntryResult reports the persisted rows and whether this write locked the gradebook.
type SaveEntryResult struct {
	Mark     *models.Mark
	Feedback *models.Feedback
	Locked   bool
}

// SaveEntry upserts the mark, the optional feedback and, when a numeric mark is
// present, locks the gradebook. All three happen in one transaction.
func (r *MarkRepository) SaveEntry(ctx context.Context, params SaveEntryParams) (*SaveEntryResult, error) {
	var result *SaveEntryResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		result, err = saveEntry(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ErrEntryClosed is returned when the gradebook stopped accepting marks between
// the caller's permission check and the write.
var ErrEntryClosed = errors.New("gradebook no longer accepts marks")

// lockForEntry holds a share lock on the gradebook row for the rest of the
// transaction, so a concurrent transition waits for the write or is seen by it.
func lockForEntry(ctx context.Context, tx *sqlx.Tx, gradebookID string) error {
	var state struct {
		Status   models.GradebookStatus `db:"status"`
		IsLocked bool                   `db:"is_locked"`
	}
	const query = `SELECT status, is_locked FROM gradebooks WHERE id = $1 FOR SHARE`
	if err := tx.GetContext(ctx, &state, query, gradebookID); err != nil {
		return err
	}
	if state.Status != models.GradebookStatusDraft && !state.IsLocked {
		return ErrEntryClosed
	}
	return nil
}

func saveEntry(ctx context.Context, tx *sqlx.Tx, params SaveEntryParams) (*SaveEntryResult, error) {
	if err := lockForEntry(ctx, tx, params.GradebookID); err != nil {
		return nil, err
	}
	result := &SaveEntryResult{}
	if params.Mark != nil {
		mark, err := upsertMark(ctx, tx, params.Mark)
		if err != nil {
			return nil, err
		}
		result.Mark = mark
		if mark.MarksObtained != nil {
			const lock = `UPDATE gradebooks SET is_locked = TRUE, updated_at = $2 WHERE id = $1 AND is_locked = FALSE`
			if _, err := tx.ExecContext(ctx, lock, params.GradebookID, time.Now().UTC()); err != nil {
				return nil, fmt.Errorf("lock gradebook: %w", err)
			}
			result.Locked = true
		}
	}
	if params.Feedback != nil {
		feedback, err := upsertFeedback(ctx, tx, params.Feedback)
		if err != nil {
			return nil, err
		}
		result.Feedback = feedback
	}
	return result, nil
}

// SaveFeedback upserts a feedback entry on its own, under the same entry gate
// as SaveEntry.
func (r *MarkRepository) SaveFeedback(ctx context.Context, gradebookID string, feedback *models.Feedback) (*models.Feedback, error) {
	var saved *models.Feedback
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockForEntry(ctx, tx, gradebookID); err != nil {
			return err
		}
		var err error
		saved, err = upsertFeedback(ctx, tx, feedback)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func upsertMark(ctx context.Context, exec sqlx.QueryerContext, mark *models.Mark) (*models.Mark, error) {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	if mark.CompetencyStatus == "" {
		mark.CompetencyStatus = models.CompetencyPending
	}
	mark.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO marks (id, component_id, trainee_id, marks_obtained, competency_status, entered_by, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (component_id, trainee_id) DO UPDATE SET
		marks_obtained = EXCLUDED.marks_obtained,
		competency_status = EXCLUDED.competency_status,
		entered_by = EXCLUDED.entered_by,
		updated_at = EXCLUDED.updated_at
	RETURNING id, component_id, trainee_id, marks_obtained, competency_status, entered_by, updated_at`
	var saved models.Mark
	err := sqlx.GetContext(ctx, exec, &saved, query,
		mark.ID, mark.ComponentID, mark.TraineeID, mark.MarksObtained, mark.CompetencyStatus, mark.EnteredBy, mark.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert mark: %w", classifyPgError(err))
	}
	return &saved, nil
}

func upsertFeedback(ctx context.Context, exec sqlx.QueryerContext, feedback *models.Feedback) (*models.Feedback, error) {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO feedback (id, component_id, trainee_id, feedback_text, is_final, written_by, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (component_id, trainee_id) DO UPDATE SET
		feedback_text = EXCLUDED.feedback_text,
		is_final = EXCLUDED.is_final,
		written_by = EXCLUDED.written_by,
		updated_at = EXCLUDED.updated_at
	RETURNING id, component_id, trainee_id, feedback_text, is_final, written_by, updated_at`
	var saved models.Feedback
	err := sqlx.GetContext(ctx, exec, &saved, query,
		feedback.ID, feedback.ComponentID, feedback.TraineeID, feedback.Text, feedback.IsFinal, feedback.WrittenBy, feedback.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert feedback: %w", classifyPgError(err))
	}
	return &saved, nil
}
