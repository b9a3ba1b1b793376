package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
)

const gradebookColumns = `id, qualification_id, level, academic_year, title, test_weight, mock_weight, status, is_locked,
       intake_label, created_by, submitted_by, submitted_at, hot_approved_by, hot_approved_at,
       ac_approved_by, ac_approved_at, return_note, created_at, updated_at`

// GradebookRepository persists gradebooks and their lifecycle state.
type GradebookRepository struct {
	db *sqlx.DB
}

// NewGradebookRepository constructs the repository.
func NewGradebookRepository(db *sqlx.DB) *GradebookRepository {
	return &GradebookRepository{db: db}
}

// Create inserts a new gradebook.
func (r *GradebookRepository) Create(ctx context.Context, gradebook *models.Gradebook) error {
	if gradebook.ID == "" {
		gradebook.ID = uuid.NewString()
	}
	if gradebook.Status == "" {
		gradebook.Status = models.GradebookStatusDraft
	}
	now := time.Now().UTC()
	if gradebook.CreatedAt.IsZero() {
		gradebook.CreatedAt = now
	}
	gradebook.UpdatedAt = now
	const query = `INSERT INTO gradebooks
	(id, qualification_id, level, academic_year, title, test_weight, mock_weight, status, is_locked, intake_label, created_by, created_at, updated_at)
	VALUES (:id, :qualification_id, :level, :academic_year, :title, :test_weight, :mock_weight, :status, :is_locked, :intake_label, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, gradebook); err != nil {
		return fmt.Errorf("create gradebook: %w", classifyPgError(err))
	}
	return nil
}

// GetByID fetches a gradebook by identifier.
func (r *GradebookRepository) GetByID(ctx context.Context, id string) (*models.Gradebook, error) {
	query := `SELECT ` + gradebookColumns + ` FROM gradebooks WHERE id = $1`
	var gradebook models.Gradebook
	if err := r.db.GetContext(ctx, &gradebook, query, id); err != nil {
		return nil, err
	}
	return &gradebook, nil
}

// List returns gradebooks matching the filter, newest first, with the total count.
func (r *GradebookRepository) List(ctx context.Context, filter models.GradebookFilter) ([]models.Gradebook, int, error) {
	var conditions []string
	var args []interface{}
	if filter.QualificationID != "" {
		args = append(args, filter.QualificationID)
		conditions = append(conditions, fmt.Sprintf("qualification_id = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM gradebooks"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count gradebooks: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	query := fmt.Sprintf("SELECT %s FROM gradebooks%s ORDER BY created_at DESC, id LIMIT %d OFFSET %d",
		gradebookColumns, clause, size, (page-1)*size)

	var gradebooks []models.Gradebook
	if err := r.db.SelectContext(ctx, &gradebooks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list gradebooks: %w", err)
	}
	return gradebooks, total, nil
}

// UpdateWeights stores the theory weighting. Returns sql.ErrNoRows for unknown ids.
func (r *GradebookRepository) UpdateWeights(ctx context.Context, id string, weights models.CAWeights) error {
	const query = `UPDATE gradebooks SET test_weight = $1, mock_weight = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, weights.Test, weights.Mock, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update gradebook weights: %w", classifyPgError(err))
	}
	return expectAffected(result)
}

// TransitionStamp selects which approval columns a transition records.
type TransitionStamp string

const (
	StampNone        TransitionStamp = ""
	StampSubmitted   TransitionStamp = "submitted"
	StampHoTApproved TransitionStamp = "hot_approved"
	StampACApproved  TransitionStamp = "ac_approved"
)

// TransitionParams describes a compare-and-swap status change.
type TransitionParams struct {
	ID      string
	From    models.GradebookStatus
	To      models.GradebookStatus
	ActorID string
	At      time.Time
	Stamp   TransitionStamp
	SetNote bool
	Note    *string
}

// Transition moves the gradebook from params.From to params.To. It returns
// sql.ErrNoRows when the row is missing or no longer in params.From.
func (r *GradebookRepository) Transition(ctx context.Context, params TransitionParams) error {
	if params.At.IsZero() {
		params.At = time.Now().UTC()
	}
	setParts := []string{"status = :to", "updated_at = :at"}
	switch params.Stamp {
	case StampSubmitted, StampHoTApproved, StampACApproved:
		stamp := string(params.Stamp)
		setParts = append(setParts, stamp+"_by = :actor_id", stamp+"_at = :at")
	}
	if params.SetNote {
		setParts = append(setParts, "return_note = :note")
	}
	query := fmt.Sprintf("UPDATE gradebooks SET %s WHERE id = :id AND status = :from", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":       params.ID,
		"from":     params.From,
		"to":       params.To,
		"actor_id": params.ActorID,
		"at":       params.At,
		"note":     params.Note,
	})
	if err != nil {
		return fmt.Errorf("transition gradebook: %w", err)
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
