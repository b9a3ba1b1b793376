package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
)

const componentColumns = `id, gradebook_id, name, component_type, max_marks, group_id, template_component_id, sort_order, created_at`

// ComponentRepository persists gradebook components and component groups.
type ComponentRepository struct {
	db *sqlx.DB
}

// NewComponentRepository constructs the repository.
func NewComponentRepository(db *sqlx.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// List returns the components of a gradebook in display order.
func (r *ComponentRepository) List(ctx context.Context, gradebookID string) ([]models.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM gradebook_components WHERE gradebook_id = $1 ORDER BY sort_order, id`
	components := make([]models.Component, 0)
	if err := r.db.SelectContext(ctx, &components, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	return components, nil
}

// FindByID fetches a component scoped to its gradebook.
func (r *ComponentRepository) FindByID(ctx context.Context, gradebookID, componentID string) (*models.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM gradebook_components WHERE id = $1 AND gradebook_id = $2`
	var component models.Component
	if err := r.db.GetContext(ctx, &component, query, componentID, gradebookID); err != nil {
		return nil, err
	}
	return &component, nil
}

// Create inserts a component at the end of the gradebook's sort order.
func (r *ComponentRepository) Create(ctx context.Context, component *models.Component) error {
	if component.ID == "" {
		component.ID = uuid.NewString()
	}
	if component.CreatedAt.IsZero() {
		component.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gradebook_components
	(id, gradebook_id, name, component_type, max_marks, group_id, template_component_id, sort_order, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7,
	        (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM gradebook_components WHERE gradebook_id = $2), $8)
	RETURNING sort_order`
	err := r.db.QueryRowxContext(ctx, query,
		component.ID,
		component.GradebookID,
		component.Name,
		component.ComponentType,
		component.MaxMarks,
		component.GroupID,
		component.TemplateComponentID,
		component.CreatedAt,
	).Scan(&component.SortOrder)
	if err != nil {
		return fmt.Errorf("create component: %w", classifyPgError(err))
	}
	return nil
}

// DeleteUnlocked removes a component only while its gradebook is unlocked. It
// returns sql.ErrNoRows when nothing was deleted, either because the component
// does not exist or because the gradebook is locked.
func (r *ComponentRepository) DeleteUnlocked(ctx context.Context, gradebookID, componentID string) error {
	const query = `DELETE FROM gradebook_components
	WHERE id = $1 AND gradebook_id = $2
	  AND NOT EXISTS (SELECT 1 FROM gradebooks WHERE id = $2 AND is_locked)`
	result, err := r.db.ExecContext(ctx, query, componentID, gradebookID)
	if err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	return expectAffected(result)
}

// ListGroups returns the component groups of a gradebook.
func (r *ComponentRepository) ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error) {
	const query = `SELECT id, gradebook_id, name, group_type, created_at
	FROM gradebook_component_groups WHERE gradebook_id = $1 ORDER BY created_at, id`
	groups := make([]models.ComponentGroup, 0)
	if err := r.db.SelectContext(ctx, &groups, query, gradebookID); err != nil {
		return nil, fmt.Errorf("list component groups: %w", err)
	}
	return groups, nil
}

// FindGroup fetches a group scoped to its gradebook.
func (r *ComponentRepository) FindGroup(ctx context.Context, gradebookID, groupID string) (*models.ComponentGroup, error) {
	const query = `SELECT id, gradebook_id, name, group_type, created_at
	FROM gradebook_component_groups WHERE id = $1 AND gradebook_id = $2`
	var group models.ComponentGroup
	if err := r.db.GetContext(ctx, &group, query, groupID, gradebookID); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup inserts a component group.
func (r *ComponentRepository) CreateGroup(ctx context.Context, group *models.ComponentGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gradebook_component_groups (id, gradebook_id, name, group_type, created_at)
	VALUES (:id, :gradebook_id, :name, :group_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create component group: %w", classifyPgError(err))
	}
	return nil
}
