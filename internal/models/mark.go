package models

import "time"

// CompetencyStatus is the trainer's per-cell competency judgement.
type CompetencyStatus string

const (
	CompetencyPending         CompetencyStatus = "pending"
	CompetencyCompetent       CompetencyStatus = "competent"
	CompetencyNotYetCompetent CompetencyStatus = "not_yet_competent"
)

// Valid reports whether the status is known.
func (s CompetencyStatus) Valid() bool {
	switch s {
	case CompetencyPending, CompetencyCompetent, CompetencyNotYetCompetent:
		return true
	}
	return false
}

// Mark is the latest score recorded for one component and trainee.
type Mark struct {
	ID               string           `db:"id" json:"id"`
	ComponentID      string           `db:"component_id" json:"component_id"`
	TraineeID        string           `db:"trainee_id" json:"trainee_id"`
	MarksObtained    *float64         `db:"marks_obtained" json:"marks_obtained"`
	CompetencyStatus CompetencyStatus `db:"competency_status" json:"competency_status"`
	EnteredBy        string           `db:"entered_by" json:"entered_by"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Feedback is free text attached to one component and trainee.
type Feedback struct {
	ID          string    `db:"id" json:"id"`
	ComponentID string    `db:"component_id" json:"component_id"`
	TraineeID   string    `db:"trainee_id" json:"trainee_id"`
	Text        string    `db:"feedback_text" json:"text"`
	IsFinal     bool      `db:"is_final" json:"is_final"`
	WrittenBy   string    `db:"written_by" json:"written_by"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
