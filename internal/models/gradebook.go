package models

import "time"

// GradebookStatus is the approval stage of a gradebook.
type GradebookStatus string

const (
	GradebookStatusDraft       GradebookStatus = "draft"
	GradebookStatusSubmitted   GradebookStatus = "submitted"
	GradebookStatusHoTApproved GradebookStatus = "hot_approved"
	GradebookStatusACApproved  GradebookStatus = "ac_approved"
)

// Valid reports whether the status is a known lifecycle stage.
func (s GradebookStatus) Valid() bool {
	switch s {
	case GradebookStatusDraft, GradebookStatusSubmitted, GradebookStatusHoTApproved, GradebookStatusACApproved:
		return true
	}
	return false
}

// Gradebook is a continuous-assessment register for one qualification, level and intake.
// TestWeight and MockWeight are percentages and are not required to sum to 100.
type Gradebook struct {
	ID              string          `db:"id" json:"id"`
	QualificationID string          `db:"qualification_id" json:"qualification_id"`
	Level           *string         `db:"level" json:"level,omitempty"`
	AcademicYear    string          `db:"academic_year" json:"academic_year"`
	Title           string          `db:"title" json:"title"`
	TestWeight      float64         `db:"test_weight" json:"test_weight"`
	MockWeight      float64         `db:"mock_weight" json:"mock_weight"`
	Status          GradebookStatus `db:"status" json:"status"`
	IsLocked        bool            `db:"is_locked" json:"is_locked"`
	IntakeLabel     *string         `db:"intake_label" json:"intake_label,omitempty"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	SubmittedBy     *string         `db:"submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt     *time.Time      `db:"submitted_at" json:"submitted_at,omitempty"`
	HoTApprovedBy   *string         `db:"hot_approved_by" json:"hot_approved_by,omitempty"`
	HoTApprovedAt   *time.Time      `db:"hot_approved_at" json:"hot_approved_at,omitempty"`
	ACApprovedBy    *string         `db:"ac_approved_by" json:"ac_approved_by,omitempty"`
	ACApprovedAt    *time.Time      `db:"ac_approved_at" json:"ac_approved_at,omitempty"`
	ReturnNote      *string         `db:"return_note" json:"return_note,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Weights returns the theory weighting used by CA aggregation.
func (g *Gradebook) Weights() CAWeights {
	return CAWeights{Test: g.TestWeight, Mock: g.MockWeight}
}

// CAWeights holds the percentage weights blended into theory CA.
type CAWeights struct {
	Test float64 `json:"test_weight"`
	Mock float64 `json:"mock_weight"`
}

// GradebookFilter scopes gradebook listings.
type GradebookFilter struct {
	QualificationID string
	AcademicYear    string
	Status          GradebookStatus
	CreatedBy       string
	Page            int
	PageSize        int
}

// GradebookTrainee is an enrollment of a trainee into a gradebook.
type GradebookTrainee struct {
	GradebookID string    `db:"gradebook_id" json:"gradebook_id"`
	TraineeID   string    `db:"trainee_id" json:"trainee_id"`
	EnrolledAt  time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrolledTrainee is the roster read model joined with trainee identity.
type EnrolledTrainee struct {
	TraineeID       string    `db:"trainee_id" json:"trainee_id"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	FullName        string    `db:"full_name" json:"full_name"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	EnrolledAt      time.Time `db:"enrolled_at" json:"enrolled_at"`
}
