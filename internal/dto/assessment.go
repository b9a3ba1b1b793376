package dto

import "github.com/noah-isme/vtc-gradebook-api/internal/models"

// CreateComponentRequest adds an assessable unit.
type CreateComponentRequest struct {
	Name                string               `json:"name" validate:"required"`
	ComponentType       models.ComponentType `json:"component_type" validate:"required,oneof=test mock practical assignment project"`
	MaxMarks            float64              `json:"max_marks" validate:"gt=0,max=999999.99"`
	GroupID             *string              `json:"group_id"`
	TemplateComponentID *string              `json:"template_component_id"`
}

// CreateGroupRequest adds an organisational component group.
type CreateGroupRequest struct {
	Name      string                    `json:"name" validate:"required"`
	GroupType models.ComponentGroupType `json:"group_type" validate:"required,oneof=theory practical"`
}

// EnrollTraineesRequest manually enrolls trainees.
type EnrollTraineesRequest struct {
	TraineeIDs []string `json:"trainee_ids" validate:"required,min=1,dive,required"`
}

// FeedbackInput is the optional feedback saved together with a mark.
type FeedbackInput struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// SaveEntryRequest records one cell: mark, competency status and optional feedback.
type SaveEntryRequest struct {
	ComponentID      string                   `json:"component_id" validate:"required"`
	TraineeID        string                   `json:"trainee_id" validate:"required"`
	MarksObtained    *float64                 `json:"marks_obtained" validate:"omitempty,min=0"`
	CompetencyStatus *models.CompetencyStatus `json:"competency_status"`
	Feedback         *FeedbackInput           `json:"feedback"`
}

// SaveFeedbackRequest records feedback alone.
type SaveFeedbackRequest struct {
	ComponentID string `json:"component_id" validate:"required"`
	TraineeID   string `json:"trainee_id" validate:"required"`
	Text        string `json:"text"`
	IsFinal     bool   `json:"is_final"`
}

// BulkSaveRequest carries many staged cells committed one by one.
type BulkSaveRequest struct {
	Entries []SaveEntryRequest `json:"entries" validate:"required,min=1"`
}

// CellFailure reports a cell that could not be committed.
type CellFailure struct {
	Key    string `json:"key"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// BulkSaveResult summarises a bulk commit.
type BulkSaveResult struct {
	Committed []string      `json:"committed"`
	Failures  []CellFailure `json:"failures,omitempty"`
}

// EntryResult is the persisted state of one cell after a save.
type EntryResult struct {
	Mark     *models.Mark     `json:"mark,omitempty"`
	Feedback *models.Feedback `json:"feedback,omitempty"`
	Locked   bool             `json:"gradebook_locked"`
}

// RaiseQueryRequest opens a mark query.
type RaiseQueryRequest struct {
	ComponentID string               `json:"component_id" validate:"required"`
	TraineeID   string               `json:"trainee_id" validate:"required"`
	QueryType   models.MarkQueryType `json:"query_type" validate:"required,oneof=incorrect_mark missing_mark remark_request other"`
	Subject     string               `json:"subject" validate:"required"`
	Description string               `json:"description"`
}

// ResolveQueryRequest closes a mark query.
type ResolveQueryRequest struct {
	Outcome models.QueryStatus `json:"outcome"`
	Notes   string             `json:"notes"`
}

// ReconcileResult describes a roster reconciliation run.
type ReconcileResult struct {
	GradebookID string `json:"gradebook_id"`
	Enrolled    int    `json:"enrolled"`
	Skipped     string `json:"skipped,omitempty"`
}
