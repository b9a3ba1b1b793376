package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
)

const markQueryColumns = `id, gradebook_id, component_id, trainee_id, query_type, subject, description, status,
       resolution_notes, raised_by, resolved_by, resolved_at, created_at`

// MarkQueryRepository persists trainee mark queries.
type MarkQueryRepository struct {
	db *sqlx.DB
}

// NewMarkQueryRepository constructs the repository.
func NewMarkQueryRepository(db *sqlx.DB) *MarkQueryRepository {
	return &MarkQueryRepository{db: db}
}

// Create inserts a new query in the open state.
func (r *MarkQueryRepository) Create(ctx context.Context, query *models.MarkQuery) error {
	if query.ID == "" {
		query.ID = uuid.NewString()
	}
	if query.Status == "" {
		query.Status = models.QueryStatusOpen
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO mark_queries
	(id, gradebook_id, component_id, trainee_id, query_type, subject, description, status, raised_by, created_at)
	VALUES (:id, :gradebook_id, :component_id, :trainee_id, :query_type, :subject, :description, :status, :raised_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, query); err != nil {
		return fmt.Errorf("create mark query: %w", classifyPgError(err))
	}
	return nil
}

// GetByID fetches a query by identifier.
func (r *MarkQueryRepository) GetByID(ctx context.Context, id string) (*models.MarkQuery, error) {
	stmt := `SELECT ` + markQueryColumns + ` FROM mark_queries WHERE id = $1`
	var query models.MarkQuery
	if err := r.db.GetContext(ctx, &query, stmt, id); err != nil {
		return nil, err
	}
	return &query, nil
}

// List returns queries matching the filter, newest first.
func (r *MarkQueryRepository) List(ctx context.Context, filter models.MarkQueryFilter) ([]models.MarkQuery, error) {
	var conditions []string
	var args []interface{}
	if filter.GradebookID != "" {
		args = append(args, filter.GradebookID)
		conditions = append(conditions, fmt.Sprintf("gradebook_id = $%d", len(args)))
	}
	if filter.TraineeID != "" {
		args = append(args, filter.TraineeID)
		conditions = append(conditions, fmt.Sprintf("trainee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	stmt := `SELECT ` + markQueryColumns + ` FROM mark_queries`
	if len(conditions) > 0 {
		stmt += " WHERE " + strings.Join(conditions, " AND ")
	}
	stmt += " ORDER BY created_at DESC, id"

	queries := make([]models.MarkQuery, 0)
	if err := r.db.SelectContext(ctx, &queries, stmt, args...); err != nil {
		return nil, fmt.Errorf("list mark queries: %w", err)
	}
	return queries, nil
}

// ResolveParams closes an open query.
type ResolveParams struct {
	ID         string
	Status     models.QueryStatus
	Notes      string
	ResolvedBy string
	ResolvedAt time.Time
}

// Resolve moves an open query to a terminal state. It returns sql.ErrNoRows when
// the query is missing or no longer open.
func (r *MarkQueryRepository) Resolve(ctx context.Context, params ResolveParams) error {
	if params.ResolvedAt.IsZero() {
		params.ResolvedAt = time.Now().UTC()
	}
	const stmt = `UPDATE mark_queries
	SET status = $2, resolution_notes = $3, resolved_by = $4, resolved_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, stmt,
		params.ID, params.Status, params.Notes, params.ResolvedBy, params.ResolvedAt, models.QueryStatusOpen)
	if err != nil {
		return fmt.Errorf("resolve mark query: %w", err)
	}
	return expectAffected(result)
}
