package dto

import "github.com/noah-isme/vtc-gradebook-api/internal/models"

// CreateGradebookRequest opens a new draft gradebook.
type CreateGradebookRequest struct {
	QualificationID string  `json:"qualification_id" validate:"required"`
	Level           *string `json:"level"`
	AcademicYear    string  `json:"academic_year" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	TestWeight      float64 `json:"test_weight" validate:"min=0,max=9999.99"`
	MockWeight      float64 `json:"mock_weight" validate:"min=0,max=9999.99"`
	IntakeLabel     *string `json:"intake_label"`
}

// UpdateWeightsRequest edits the theory weighting. The pair is not required to sum to 100.
type UpdateWeightsRequest struct {
	TestWeight float64 `json:"test_weight" validate:"min=0,max=9999.99"`
	MockWeight float64 `json:"mock_weight" validate:"min=0,max=9999.99"`
}

// GradebookQuery mirrors supported listing filters.
type GradebookQuery struct {
	QualificationID string
	AcademicYear    string
	Status          models.GradebookStatus
	Page            int
	PageSize        int
}

// Permissions summarises what the current actor may do on a gradebook.
type Permissions struct {
	CanEnterMarks          bool `json:"can_enter_marks"`
	CanEditStructure       bool `json:"can_edit_structure"`
	CanDeleteComponents    bool `json:"can_delete_components"`
	CanSubmit              bool `json:"can_submit"`
	CanHoTApprove          bool `json:"can_hot_approve"`
	CanReturnToDraft       bool `json:"can_return_to_draft"`
	CanACApprove           bool `json:"can_ac_approve"`
	CanReturnToSubmitted   bool `json:"can_return_to_submitted"`
	CanExportAssessorSheet bool `json:"can_export_assessor_sheet"`
}

// GradebookView is a gradebook together with the actor's permissions.
type GradebookView struct {
	models.Gradebook
	TraineeCount int         `json:"trainee_count"`
	Permissions  Permissions `json:"permissions"`
}

// TransitionRequest carries an optional note for return transitions.
type TransitionRequest struct {
	Note string `json:"note"`
}
