package models

import "time"

// ComponentType classifies an assessable unit.
type ComponentType string

const (
	ComponentTypeTest       ComponentType = "test"
	ComponentTypeMock       ComponentType = "mock"
	ComponentTypePractical  ComponentType = "practical"
	ComponentTypeAssignment ComponentType = "assignment"
	ComponentTypeProject    ComponentType = "project"
)

// Valid reports whether the type is known.
func (t ComponentType) Valid() bool {
	switch t {
	case ComponentTypeTest, ComponentTypeMock, ComponentTypePractical, ComponentTypeAssignment, ComponentTypeProject:
		return true
	}
	return false
}

// Component is a test, mock, practical, assignment or project within a gradebook.
type Component struct {
	ID                  string        `db:"id" json:"id"`
	GradebookID         string        `db:"gradebook_id" json:"gradebook_id"`
	Name                string        `db:"name" json:"name"`
	ComponentType       ComponentType `db:"component_type" json:"component_type"`
	MaxMarks            float64       `db:"max_marks" json:"max_marks"`
	GroupID             *string       `db:"group_id" json:"group_id,omitempty"`
	TemplateComponentID *string       `db:"template_component_id" json:"template_component_id,omitempty"`
	SortOrder           int           `db:"sort_order" json:"sort_order"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
}

// ComponentGroupType is the organisational bucket a group belongs to.
type ComponentGroupType string

const (
	ComponentGroupTheory    ComponentGroupType = "theory"
	ComponentGroupPractical ComponentGroupType = "practical"
)

// Valid reports whether the group type is known.
func (t ComponentGroupType) Valid() bool {
	return t == ComponentGroupTheory || t == ComponentGroupPractical
}

// ComponentGroup groups components for display. It has no effect on CA.
type ComponentGroup struct {
	ID          string             `db:"id" json:"id"`
	GradebookID string             `db:"gradebook_id" json:"gradebook_id"`
	Name        string             `db:"name" json:"name"`
	GroupType   ComponentGroupType `db:"group_type" json:"group_type"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}
